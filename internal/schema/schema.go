// Package schema resolves the static field configuration (name, kind, boost)
// into a lookup table used by the index builder, query parser, and scorer.
// Field kinds form a closed set: text fields are tokenized and scored,
// numeric fields support comparator filters and secondary boosting, and
// keyword fields support exact-match filters.
package schema

import (
	"fmt"
	"strings"

	"github.com/nkoenen/fieldsearch/pkg/config"
	"github.com/nkoenen/fieldsearch/pkg/errors"
)

// Kind is the declared type of an indexed field.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindKeyword
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	case KindKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// Field is one resolved field declaration.
type Field struct {
	Name  string
	Kind  Kind
	Boost float64
}

// Schema is the resolved per-field lookup table. It is built once at
// configuration load time and read-only afterwards.
type Schema struct {
	fields  map[string]Field
	text    []string
	numeric []string
	keyword []string
}

// Normalize folds a raw field name to its canonical form: lower-cased,
// trimmed, with interior spaces collapsed to underscores.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(name)), " ", "_")
}

// FromConfig resolves the configured field list into a Schema. Unknown kinds
// and duplicate names are configuration errors. Text fields default to a
// boost of 1.0 when none is set.
func FromConfig(fields []config.FieldConfig) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields configured", errors.ErrInvalidInput)
	}
	s := &Schema{fields: make(map[string]Field, len(fields))}
	for _, fc := range fields {
		name := Normalize(fc.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: field with empty name", errors.ErrInvalidInput)
		}
		if _, exists := s.fields[name]; exists {
			return nil, fmt.Errorf("%w: duplicate field %q", errors.ErrInvalidInput, name)
		}
		boost := fc.Boost
		if boost == 0 {
			boost = 1.0
		}
		var kind Kind
		switch strings.ToLower(strings.TrimSpace(fc.Kind)) {
		case "text":
			kind = KindText
			s.text = append(s.text, name)
		case "numeric":
			kind = KindNumeric
			s.numeric = append(s.numeric, name)
		case "keyword":
			kind = KindKeyword
			s.keyword = append(s.keyword, name)
		default:
			return nil, fmt.Errorf("%w: field %q has unknown kind %q", errors.ErrInvalidInput, name, fc.Kind)
		}
		s.fields[name] = Field{Name: name, Kind: kind, Boost: boost}
	}
	if len(s.text) == 0 {
		return nil, fmt.Errorf("%w: at least one text field is required", errors.ErrInvalidInput)
	}
	return s, nil
}

// WithTextField returns a copy of the schema with one additional text field.
// Used to register the synthetic ontology field at build and load time.
func (s *Schema) WithTextField(name string, boost float64) *Schema {
	name = Normalize(name)
	if _, exists := s.fields[name]; exists {
		return s
	}
	if boost == 0 {
		boost = 1.0
	}
	out := &Schema{
		fields:  make(map[string]Field, len(s.fields)+1),
		text:    append(append([]string(nil), s.text...), name),
		numeric: s.numeric,
		keyword: s.keyword,
	}
	for k, v := range s.fields {
		out.fields[k] = v
	}
	out.fields[name] = Field{Name: name, Kind: KindText, Boost: boost}
	return out
}

// Kind returns the declared kind of a canonical field name.
func (s *Schema) Kind(name string) (Kind, bool) {
	f, ok := s.fields[name]
	return f.Kind, ok
}

// Boost returns the scoring boost for a field, defaulting to 1.0 for fields
// without an explicit boost.
func (s *Schema) Boost(name string) float64 {
	if f, ok := s.fields[name]; ok {
		return f.Boost
	}
	return 1.0
}

// Has reports whether the canonical field name is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// TextFields returns the configured text field names in declaration order.
func (s *Schema) TextFields() []string { return s.text }

// NumericFields returns the configured numeric field names in declaration order.
func (s *Schema) NumericFields() []string { return s.numeric }

// KeywordFields returns the configured keyword field names in declaration order.
func (s *Schema) KeywordFields() []string { return s.keyword }

// Boosts returns a field -> boost map covering every text field.
func (s *Schema) Boosts() map[string]float64 {
	out := make(map[string]float64, len(s.text))
	for _, f := range s.text {
		out[f] = s.fields[f].Boost
	}
	return out
}
