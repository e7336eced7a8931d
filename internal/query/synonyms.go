// Package query parses the search DSL into structured components: per-field
// term multisets, required term groups, numeric comparator filters, and
// keyword filters. Field aliases and token synonyms come from an external
// YAML resource loaded once at process start.
package query

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nkoenen/fieldsearch/internal/schema"
)

// AliasTable maps free-form field names to canonical field names.
type AliasTable map[string]string

// Resolve folds a raw field name and maps it through the alias table,
// falling back to the folded name itself so canonical names always work.
func (a AliasTable) Resolve(raw string) string {
	norm := schema.Normalize(raw)
	if canonical, ok := a[norm]; ok {
		return canonical
	}
	return norm
}

// SynonymTable maps a canonical token to its equivalent tokens. The table is
// symmetric: if a maps to b then b maps to a.
type SynonymTable map[string][]string

// synonymsFile is the on-disk YAML layout of the synonym resource.
type synonymsFile struct {
	FieldAliases map[string]string   `yaml:"field_aliases"`
	TermSynonyms map[string][]string `yaml:"term_synonyms"`
}

// LoadSynonyms reads the alias/synonym configuration. A missing file is not
// an error: the alias table degrades to the identity mapping derived from
// the field schema, and the synonym table stays empty. A present but
// malformed file is a fatal configuration error.
func LoadSynonyms(path string, s *schema.Schema) (AliasTable, SynonymTable, error) {
	aliases := identityAliases(s)
	synonyms := make(SynonymTable)

	if path == "" {
		return aliases, synonyms, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return aliases, synonyms, nil
		}
		return nil, nil, fmt.Errorf("reading synonyms file %s: %w", path, err)
	}
	var file synonymsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parsing synonyms file %s: %w", path, err)
	}

	for alias, canonical := range file.FieldAliases {
		target := schema.Normalize(canonical)
		for _, variant := range aliasVariants(alias) {
			aliases[variant] = target
		}
		// The canonical name and its variants resolve to themselves.
		for _, variant := range aliasVariants(canonical) {
			aliases[variant] = target
		}
	}

	for token, equivalents := range file.TermSynonyms {
		for _, equivalent := range equivalents {
			addSynonymPair(synonyms, token, equivalent)
		}
	}
	return aliases, synonyms, nil
}

// identityAliases derives the fallback alias table from the schema: every
// configured field resolves to itself, with underscore-free spellings
// accepted as well.
func identityAliases(s *schema.Schema) AliasTable {
	aliases := make(AliasTable)
	fields := make([]string, 0)
	fields = append(fields, s.TextFields()...)
	fields = append(fields, s.NumericFields()...)
	fields = append(fields, s.KeywordFields()...)
	for _, field := range fields {
		for _, variant := range aliasVariants(field) {
			aliases[variant] = field
		}
	}
	return aliases
}

// aliasVariants returns the normalized spellings under which an alias is
// recognised: the folded form and the form with underscores removed.
func aliasVariants(name string) []string {
	norm := schema.Normalize(name)
	squashed := strings.ReplaceAll(norm, "_", "")
	if squashed == norm {
		return []string{norm}
	}
	return []string{norm, squashed}
}

// addSynonymPair records a symmetric synonym relation between two tokens.
func addSynonymPair(table SynonymTable, a, b string) {
	a = strings.TrimSpace(strings.ToLower(a))
	b = strings.TrimSpace(strings.ToLower(b))
	if a == "" || b == "" || a == b {
		return
	}
	if !contains(table[a], b) {
		table[a] = append(table[a], b)
	}
	if !contains(table[b], a) {
		table[b] = append(table[b], a)
	}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
