package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/nkoenen/fieldsearch/internal/index"
	"github.com/nkoenen/fieldsearch/internal/query"
	"github.com/nkoenen/fieldsearch/internal/search"
)

func benchEngine(b *testing.B, numDocs int) (*search.Engine, *query.Parser) {
	b.Helper()
	s := benchSchema(b)
	idx, meta, err := index.Build(benchRecords(numDocs), s)
	if err != nil {
		b.Fatal(err)
	}
	idf := index.ComputeIDF(idx)
	norms := index.ComputeNorms(idx, idf, s.Boosts())

	aliases, synonyms, err := query.LoadSynonyms("", s)
	if err != nil {
		b.Fatal(err)
	}
	parser := &query.Parser{Schema: s, Aliases: aliases, Synonyms: synonyms}
	return search.NewEngine(s, parser, idx, idf, norms, meta, 5, 100), parser
}

// BenchmarkQueryParse measures parsing latency for queries of varying shape.
func BenchmarkQueryParse(b *testing.B) {
	_, parser := benchEngine(b, 100)
	queries := []struct {
		name  string
		query string
	}{
		{"free_text", "player alpha12 beta7"},
		{"field_text", "player_name:alpha12 college:duke"},
		{"numeric", "age:>25 weight:<=100"},
		{"keyword", `profile_url:"https://example.com/player-42"`},
		{"mixed", `alpha12 college:duke age:>25 profile_url:"https://example.com/player-42"`},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				c, err := parser.Parse(q.query)
				if err != nil {
					b.Fatal(err)
				}
				_ = c
			}
		})
	}
}

// BenchmarkSearch measures end-to-end query evaluation, scoring and ranking
// included, over corpora of increasing size.
func BenchmarkSearch(b *testing.B) {
	for _, n := range []int{1000, 10000, 50000} {
		engine, _ := benchEngine(b, n)
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				results, err := engine.Search(context.Background(), "player alpha12 age:>25", search.Options{TopK: 10})
				if err != nil {
					b.Fatal(err)
				}
				_ = results
			}
		})
	}
}

// BenchmarkSearchWithBoost isolates the cost of the secondary numeric boost.
func BenchmarkSearchWithBoost(b *testing.B) {
	engine, _ := benchEngine(b, 10000)
	opts := search.Options{TopK: 10, BoostField: "weight", BoostStrength: 0.5}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		results, err := engine.Search(context.Background(), "player alpha12", opts)
		if err != nil {
			b.Fatal(err)
		}
		_ = results
	}
}
