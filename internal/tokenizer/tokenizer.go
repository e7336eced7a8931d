// Package tokenizer provides text tokenisation for the search engine.
// It lower-cases input, replaces every character outside [a-z0-9] and
// whitespace with a space, and splits on whitespace. Bracketed list
// literals (rows that store a serialized array of strings) are unpacked
// before tokenisation. No stemming or stop-word removal happens here:
// that normalisation is applied upstream during data cleaning.
package tokenizer

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Tokenize breaks text into a slice of lower-cased alphanumeric terms.
// Missing values and the literal "nan" produced by tabular exports yield
// an empty result. Tokenize is pure and idempotent: re-tokenizing the
// space-joined output returns the same sequence.
func Tokenize(text string) []string {
	if isMissing(text) {
		return nil
	}
	text = unpackListLiteral(text)
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, text)
	return strings.Fields(text)
}

// isMissing reports whether the raw value represents an absent cell.
func isMissing(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || strings.EqualFold(trimmed, "nan")
}

// unpackListLiteral turns a serialized array of strings ("['a', 'b']" or
// '["a", "b"]') into its space-joined elements. Values that merely look
// bracketed but fail to parse are returned unchanged and tokenized as
// plain text.
func unpackListLiteral(text string) string {
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		return text
	}
	candidate := strings.ReplaceAll(text, "'", `"`)
	var elems []string
	if err := json.Unmarshal([]byte(candidate), &elems); err != nil {
		return text
	}
	return strings.Join(elems, " ")
}
