package index

import (
	"math"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nkoenen/fieldsearch/internal/ingest"
	"github.com/nkoenen/fieldsearch/internal/schema"
	"github.com/nkoenen/fieldsearch/internal/tokenizer"
)

// Build constructs the inverted index and document metadata from the entity
// table. Document ids are the 0-based row ordinals, so insertion order is
// stable across runs. Records are partitioned across workers; since every
// doc id belongs to exactly one partition, partial postings merge by plain
// additive union without conflicts.
func Build(records []ingest.Record, s *schema.Schema) (*Index, DocMeta, error) {
	idx := New(s)
	idx.DocCount = len(records)
	meta := make(DocMeta, len(records))

	workers := runtime.NumCPU()
	if workers > len(records) {
		workers = len(records)
	}
	if workers <= 1 {
		buildPartition(idx, meta, records, 0, s)
		return idx, meta, nil
	}

	partIdx := make([]*Index, workers)
	partMeta := make([]DocMeta, workers)
	chunk := (len(records) + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(records) {
			end = len(records)
		}
		pi := New(s)
		pm := make(DocMeta, end-start)
		partIdx[w] = pi
		partMeta[w] = pm
		part := records[start:end]
		offset := start
		g.Go(func() error {
			buildPartition(pi, pm, part, offset, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Merge in partition order so keyword posting lists stay sorted by
	// doc id.
	for w := 0; w < workers; w++ {
		mergeInto(idx, partIdx[w])
		for docID, record := range partMeta[w] {
			meta[docID] = record
		}
	}
	return idx, meta, nil
}

// buildPartition indexes one contiguous slice of records. docID = offset + i.
func buildPartition(idx *Index, meta DocMeta, records []ingest.Record, offset int, s *schema.Schema) {
	for i, record := range records {
		docID := offset + i
		meta[docID] = record

		for _, field := range s.TextFields() {
			tokens := tokenizer.Tokenize(record[field])
			if len(tokens) == 0 {
				continue
			}
			counts := make(map[string]int, len(tokens))
			for _, term := range tokens {
				counts[term]++
			}
			postings := idx.Text[field]
			for term, count := range counts {
				p, ok := postings[term]
				if !ok {
					p = make(Posting)
					postings[term] = p
				}
				p[docID] = count
			}
		}

		for _, field := range s.NumericFields() {
			raw, ok := record[field]
			if !ok {
				continue
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil || math.IsNaN(value) {
				// Unparseable or NaN cells are omitted entirely:
				// absence must stay distinguishable from zero.
				continue
			}
			idx.Numeric[field][docID] = value
		}

		for _, field := range s.KeywordFields() {
			value := strings.ToLower(strings.TrimSpace(record[field]))
			if value == "" {
				continue
			}
			idx.Keyword[field][value] = append(idx.Keyword[field][value], docID)
		}
	}
}

// mergeInto folds a partial index into dst. Doc ids never overlap between
// partitions, so postings merge without count conflicts.
func mergeInto(dst, src *Index) {
	for field, terms := range src.Text {
		dstTerms := dst.Text[field]
		for term, posting := range terms {
			p, ok := dstTerms[term]
			if !ok {
				dstTerms[term] = posting
				continue
			}
			for docID, count := range posting {
				p[docID] = count
			}
		}
	}
	for field, values := range src.Numeric {
		dstValues := dst.Numeric[field]
		for docID, value := range values {
			dstValues[docID] = value
		}
	}
	for field, values := range src.Keyword {
		dstValues := dst.Keyword[field]
		for value, docIDs := range values {
			dstValues[value] = append(dstValues[value], docIDs...)
		}
	}
}
