package query

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/nkoenen/fieldsearch/internal/ontology"
	"github.com/nkoenen/fieldsearch/internal/schema"
	"github.com/nkoenen/fieldsearch/internal/tokenizer"
	"github.com/nkoenen/fieldsearch/pkg/errors"
)

// relatedToField is the reserved pseudo-field that triggers ontology
// expansion of its value into the free-text pool.
const relatedToField = "related_to"

// NumericFilter is one comparator filter on a numeric field.
type NumericFilter struct {
	Field      string
	Comparator string
	Value      float64
}

// Components is the structured form of a parsed query.
type Components struct {
	// TextTerms holds the scored term multiset per text field.
	TextTerms map[string]map[string]int
	// RequiredGroups holds, per field, one OR-group (token plus synonyms)
	// for every field-qualified token. Groups gate candidates as hard
	// AND-of-OR filters.
	RequiredGroups map[string][][]string
	NumericFilters []NumericFilter
	// KeywordFilters holds exact-match values per keyword field,
	// OR-combined within a field and AND-combined across fields.
	KeywordFilters map[string][]string
}

// Empty reports whether the query carries no scored text terms.
func (c *Components) Empty() bool {
	for _, terms := range c.TextTerms {
		if len(terms) > 0 {
			return false
		}
	}
	return true
}

// Parser converts raw query strings into Components using the resolved
// schema, the alias/synonym configuration, and (optionally) the ontology.
type Parser struct {
	Schema   *schema.Schema
	Aliases  AliasTable
	Synonyms SynonymTable
	Ontology *ontology.Ontology
}

// Parse splits the query with shell-like quoting rules and routes every
// token by the declared kind of its (alias-resolved) field. Tokens without
// a colon, and colon tokens whose field is unrecognised, accumulate in the
// free-text pool that contributes softly to all text fields.
func (p *Parser) Parse(raw string) (*Components, error) {
	tokens, err := shlex.Split(raw)
	if err != nil {
		return nil, errors.Newf(errors.ErrBadQuery, http.StatusBadRequest, "splitting query: %v", err)
	}

	c := &Components{
		TextTerms:      make(map[string]map[string]int),
		RequiredGroups: make(map[string][][]string),
		KeywordFilters: make(map[string][]string),
	}
	var freeText []string

	for _, token := range tokens {
		colon := strings.Index(token, ":")
		if colon < 0 {
			freeText = append(freeText, token)
			continue
		}
		fieldPart, valuePart := token[:colon], token[colon+1:]

		if schema.Normalize(fieldPart) == relatedToField && p.Ontology != nil {
			freeText = append(freeText, p.Ontology.Expand(valuePart)...)
			continue
		}

		canonical := p.Aliases.Resolve(fieldPart)
		kind, known := p.Schema.Kind(canonical)
		if !known {
			// Unknown field alias: fail open, treat the whole token
			// as free text.
			freeText = append(freeText, token)
			continue
		}

		switch kind {
		case schema.KindNumeric:
			filter, err := parseNumericFilter(canonical, valuePart)
			if err != nil {
				return nil, err
			}
			c.NumericFilters = append(c.NumericFilters, filter)
		case schema.KindKeyword:
			value := strings.ToLower(strings.Trim(valuePart, `" `))
			c.KeywordFilters[canonical] = append(c.KeywordFilters[canonical], value)
		case schema.KindText:
			p.addFieldText(c, canonical, valuePart)
		}
	}

	if len(freeText) > 0 {
		expanded := p.expandTerms(strings.Join(freeText, " "))
		for _, term := range expanded {
			for _, field := range p.Schema.TextFields() {
				p.bumpTerm(c, field, term)
			}
		}
	}
	return c, nil
}

// addFieldText records a field-qualified text value: the synonym-expanded
// multiset for soft scoring plus one required OR-group per original token.
func (p *Parser) addFieldText(c *Components, field, value string) {
	for _, term := range p.expandTerms(value) {
		p.bumpTerm(c, field, term)
	}
	for _, token := range tokenizer.Tokenize(value) {
		group := map[string]struct{}{token: {}}
		for _, synonym := range p.Synonyms[token] {
			alternatives := tokenizer.Tokenize(synonym)
			if len(alternatives) == 0 {
				group[synonym] = struct{}{}
				continue
			}
			for _, alt := range alternatives {
				group[alt] = struct{}{}
			}
		}
		options := make([]string, 0, len(group))
		for option := range group {
			options = append(options, option)
		}
		sort.Strings(options)
		c.RequiredGroups[field] = append(c.RequiredGroups[field], options)
	}
}

// expandTerms tokenizes raw and appends each token's synonyms, themselves
// tokenized, preserving multiplicity.
func (p *Parser) expandTerms(raw string) []string {
	var expanded []string
	for _, token := range tokenizer.Tokenize(raw) {
		expanded = append(expanded, token)
		for _, synonym := range p.Synonyms[token] {
			expanded = append(expanded, tokenizer.Tokenize(synonym)...)
		}
	}
	return expanded
}

func (p *Parser) bumpTerm(c *Components, field, term string) {
	terms, ok := c.TextTerms[field]
	if !ok {
		terms = make(map[string]int)
		c.TextTerms[field] = terms
	}
	terms[term]++
}

// parseNumericFilter parses an optional leading comparator (>=, <=, >, <,
// default =) followed by a float. A malformed literal is a query error
// surfaced to the caller, never silently dropped.
func parseNumericFilter(field, value string) (NumericFilter, error) {
	value = strings.TrimSpace(value)
	comparator := "="
	for _, prefix := range []string{">=", "<=", ">", "<", "="} {
		if strings.HasPrefix(value, prefix) {
			comparator = prefix
			value = value[len(prefix):]
			break
		}
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return NumericFilter{}, errors.Newf(errors.ErrBadQuery, http.StatusBadRequest,
			"cannot parse numeric filter value %q for field %s", value, field)
	}
	return NumericFilter{Field: field, Comparator: comparator, Value: parsed}, nil
}
