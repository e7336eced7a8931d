// Package index builds and represents the field-aware inverted index.
// Text fields map term -> posting (doc id -> in-field count), numeric
// fields map doc id -> parsed value, and keyword fields map the exact
// normalised value -> doc id list. All structures are built once per run
// and are immutable for the lifetime of every query session.
package index

import "github.com/nkoenen/fieldsearch/internal/schema"

// OntologyDocID is the reserved document id of the synthetic pseudo-document
// that carries ontology terms when the index is augmented.
const OntologyDocID = -1

// Posting maps a document id to the raw term count within one field of that
// document. Absence of an entry means count zero.
type Posting map[int]int

// Index is the full inverted index over one entity table.
type Index struct {
	Text    map[string]map[string]Posting `json:"text"`
	Numeric map[string]map[int]float64    `json:"numeric"`
	Keyword map[string]map[string][]int   `json:"keyword"`

	// DocCount is the total document count used for IDF smoothing. It
	// includes the ontology pseudo-document once the index is augmented.
	DocCount int `json:"doc_count"`
}

// IDFTable holds the smoothed inverse document frequency per field per term,
// computed once from the fully built index and immutable afterwards.
type IDFTable map[string]map[string]float64

// DocNorms maps doc id to the Euclidean norm of that document's boosted
// TF-IDF weight vector across all text fields. Documents without any indexed
// text token have no entry.
type DocNorms map[int]float64

// DocMeta retains the original record for every doc id. It is used for
// display and keyword filtering only, never for scoring.
type DocMeta map[int]map[string]string

// New allocates an empty index with one posting map per configured field.
func New(s *schema.Schema) *Index {
	idx := &Index{
		Text:    make(map[string]map[string]Posting, len(s.TextFields())),
		Numeric: make(map[string]map[int]float64, len(s.NumericFields())),
		Keyword: make(map[string]map[string][]int, len(s.KeywordFields())),
	}
	for _, f := range s.TextFields() {
		idx.Text[f] = make(map[string]Posting)
	}
	for _, f := range s.NumericFields() {
		idx.Numeric[f] = make(map[int]float64)
	}
	for _, f := range s.KeywordFields() {
		idx.Keyword[f] = make(map[string][]int)
	}
	return idx
}

// NumericMax returns the maximum observed value per numeric field, used for
// secondary boosting. Fields without any value map to 0.
func (idx *Index) NumericMax() map[string]float64 {
	out := make(map[string]float64, len(idx.Numeric))
	for field, values := range idx.Numeric {
		max := 0.0
		for _, v := range values {
			if v > max {
				max = v
			}
		}
		out[field] = max
	}
	return out
}
