package search

import (
	"fmt"
	"sort"
	"strings"
)

// FormatResults renders ranked results as a readable table for the one-shot
// CLI mode. Field order follows the schema declaration; the ontology
// pseudo-document has no stored record and renders its id only.
func (e *Engine) FormatResults(query string, results []Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "query: %s\n", query)
	if len(results) == 0 {
		b.WriteString("no results\n")
		return b.String()
	}
	for rank, r := range results {
		fmt.Fprintf(&b, "%d. doc=%d score=%.4f dot=%.4f\n", rank+1, r.DocID, r.CosineScore, r.DotProduct)
		record := e.meta[r.DocID]
		if record == nil {
			continue
		}
		for _, field := range e.displayFields(record) {
			fmt.Fprintf(&b, "   %s: %s\n", field, record[field])
		}
	}
	return b.String()
}

func (e *Engine) displayFields(record map[string]string) []string {
	var fields []string
	seen := make(map[string]bool)
	for _, field := range e.schema.TextFields() {
		if record[field] != "" {
			fields = append(fields, field)
			seen[field] = true
		}
	}
	var rest []string
	for field, value := range record {
		if !seen[field] && value != "" {
			rest = append(rest, field)
		}
	}
	sort.Strings(rest)
	return append(fields, rest...)
}
