// Package search scores and ranks documents against parsed queries. The
// engine holds the immutable index artifacts loaded at startup; query
// serving is read-only and safe for concurrent use without locking.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/nkoenen/fieldsearch/internal/artifact"
	"github.com/nkoenen/fieldsearch/internal/index"
	"github.com/nkoenen/fieldsearch/internal/ontology"
	"github.com/nkoenen/fieldsearch/internal/query"
	"github.com/nkoenen/fieldsearch/internal/schema"
	"github.com/nkoenen/fieldsearch/pkg/config"
	"github.com/nkoenen/fieldsearch/pkg/tracing"
)

// Result is one ranked hit: the raw TF-IDF dot product and the normalised
// (optionally boosted) cosine score.
type Result struct {
	DocID       int     `json:"doc_id"`
	DotProduct  float64 `json:"dot_product"`
	CosineScore float64 `json:"cosine_score"`
}

// Hit is a Result enriched with the document's display metadata.
type Hit struct {
	Result
	Fields map[string]string `json:"fields"`
}

// Response is the full answer to one query, as served over HTTP and cached.
type Response struct {
	Query     string `json:"query"`
	TotalHits int    `json:"total_hits"`
	Results   []Hit  `json:"results"`
}

// Options tune one search call.
type Options struct {
	TopK          int
	BoostField    string
	BoostStrength float64
}

// Engine evaluates queries against one loaded set of index artifacts.
type Engine struct {
	schema     *schema.Schema
	parser     *query.Parser
	idx        *index.Index
	idf        index.IDFTable
	norms      index.DocNorms
	meta       index.DocMeta
	numericMax map[string]float64
	boosts     map[string]float64

	defaultTopK int
	maxTopK     int
	logger      *slog.Logger
}

// Load builds an Engine from configuration: it resolves the field schema,
// loads the four index artifacts (failing fast when any is missing or
// corrupt), the alias/synonym configuration, and the optional ontology.
func Load(cfg *config.Config) (*Engine, error) {
	s, err := schema.FromConfig(cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("resolving field schema: %w", err)
	}

	var ont *ontology.Ontology
	if cfg.Ontology.Path != "" {
		ont, err = ontology.Load(cfg.Ontology.Path)
		if err != nil {
			return nil, fmt.Errorf("loading ontology: %w", err)
		}
		s = s.WithTextField(cfg.Ontology.Field, cfg.Ontology.Boost)
	}

	idx, idf, norms, meta, err := artifact.LoadAll(cfg.Index.DataDir)
	if err != nil {
		return nil, err
	}

	aliases, synonyms, err := query.LoadSynonyms(cfg.Synonyms, s)
	if err != nil {
		return nil, err
	}

	parser := &query.Parser{Schema: s, Aliases: aliases, Synonyms: synonyms, Ontology: ont}
	return NewEngine(s, parser, idx, idf, norms, meta, cfg.Search.DefaultTopK, cfg.Search.MaxTopK), nil
}

// NewEngine wires an Engine from already-loaded artifacts. The numeric
// per-field maxima used by secondary boosting are precomputed here, once.
func NewEngine(
	s *schema.Schema,
	parser *query.Parser,
	idx *index.Index,
	idf index.IDFTable,
	norms index.DocNorms,
	meta index.DocMeta,
	defaultTopK, maxTopK int,
) *Engine {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	if maxTopK <= 0 {
		maxTopK = 100
	}
	return &Engine{
		schema:      s,
		parser:      parser,
		idx:         idx,
		idf:         idf,
		norms:       norms,
		meta:        meta,
		numericMax:  idx.NumericMax(),
		boosts:      s.Boosts(),
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
		logger:      slog.Default().With("component", "search-engine"),
	}
}

// DocCount returns the total document count of the loaded index.
func (e *Engine) DocCount() int { return e.idx.DocCount }

// Meta returns the stored record for a doc id (nil for the ontology
// pseudo-document and unknown ids).
func (e *Engine) Meta(docID int) map[string]string { return e.meta[docID] }

// Search parses and evaluates rawQuery. A query whose scored term vector is
// empty (for example a pure filter query) yields an empty, non-error result:
// the dot-product contract has no candidates to rank.
func (e *Engine) Search(ctx context.Context, rawQuery string, opts Options) ([]Result, error) {
	_, span := tracing.StartChildSpan(ctx, "search")
	defer span.End()

	components, err := e.parser.Parse(rawQuery)
	if err != nil {
		return nil, err
	}
	results := e.rank(components, opts)
	span.SetAttr("results", len(results))
	return results, nil
}

// rank builds the query weight vector, accumulates sparse dot products,
// applies all filters as hard gates, normalises, boosts, and sorts.
func (e *Engine) rank(c *query.Components, opts Options) []Result {
	scores := make(map[int]float64)
	queryNormSq := 0.0

	for field, termCounts := range c.TextTerms {
		boost, ok := e.boosts[field]
		if !ok {
			boost = 1.0
		}
		fieldPostings := e.idx.Text[field]
		fieldIDF := e.idf[field]
		for term, count := range termCounts {
			postings := fieldPostings[term]
			idfValue := fieldIDF[term]
			// Terms unseen at build time contribute nothing.
			if len(postings) == 0 || idfValue == 0 {
				continue
			}
			queryWeight := index.TFWeight(count) * idfValue * boost
			queryNormSq += queryWeight * queryWeight
			for docID, docCount := range postings {
				docWeight := index.TFWeight(docCount) * idfValue * boost
				scores[docID] += queryWeight * docWeight
			}
		}
	}

	if len(scores) == 0 || queryNormSq == 0 {
		return nil
	}
	queryNorm := math.Sqrt(queryNormSq)

	results := make([]Result, 0, len(scores))
	for docID, dot := range scores {
		if !e.passesFilters(docID, c) {
			continue
		}
		docNorm, ok := e.norms[docID]
		if !ok || docNorm == 0 {
			continue
		}
		score := dot / (docNorm * queryNorm)
		if opts.BoostField != "" && opts.BoostStrength != 0 {
			score = e.applyBoost(docID, opts.BoostField, score, opts.BoostStrength)
		}
		results = append(results, Result{DocID: docID, DotProduct: dot, CosineScore: score})
	}

	// Ascending doc id breaks score ties so rankings are reproducible.
	sort.Slice(results, func(i, j int) bool {
		if results[i].CosineScore != results[j].CosineScore {
			return results[i].CosineScore > results[j].CosineScore
		}
		return results[i].DocID < results[j].DocID
	})

	topK := opts.TopK
	if topK <= 0 {
		topK = e.defaultTopK
	}
	if topK > e.maxTopK {
		topK = e.maxTopK
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// passesFilters applies numeric, keyword, and required-term filters as hard
// AND gates. A document failing any gate is excluded regardless of score.
func (e *Engine) passesFilters(docID int, c *query.Components) bool {
	for _, filter := range c.NumericFilters {
		value, ok := e.idx.Numeric[filter.Field][docID]
		if !ok {
			// No recorded value: absence is not zero, the document
			// cannot satisfy the comparison.
			return false
		}
		switch filter.Comparator {
		case ">=":
			if !(value >= filter.Value) {
				return false
			}
		case "<=":
			if !(value <= filter.Value) {
				return false
			}
		case ">":
			if !(value > filter.Value) {
				return false
			}
		case "<":
			if !(value < filter.Value) {
				return false
			}
		case "=":
			if !floatClose(value, filter.Value) {
				return false
			}
		}
	}

	for field, values := range c.KeywordFilters {
		actual := strings.ToLower(strings.TrimSpace(e.meta[docID][field]))
		matched := false
		for _, want := range values {
			if actual == want {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for field, groups := range c.RequiredGroups {
		fieldPostings := e.idx.Text[field]
		for _, group := range groups {
			satisfied := false
			for _, term := range group {
				if _, ok := fieldPostings[term][docID]; ok {
					satisfied = true
					break
				}
			}
			if !satisfied {
				return false
			}
		}
	}
	return true
}

// applyBoost multiplies the score by 1 + strength * (value / max) for the
// given numeric field. Documents without a value boost as if it were zero;
// unknown or empty fields leave the score unchanged.
func (e *Engine) applyBoost(docID int, field string, score, strength float64) float64 {
	canonical := e.parser.Aliases.Resolve(field)
	values, ok := e.idx.Numeric[canonical]
	if !ok {
		return score
	}
	max := e.numericMax[canonical]
	if max <= 0 {
		return score
	}
	return score * (1.0 + strength*(values[docID]/max))
}

// floatClose compares numeric filter equality with a relative tolerance of
// 1e-4, loose enough to absorb float parsing noise in the source table.
func floatClose(a, b float64) bool {
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= 1e-4*scale
}
