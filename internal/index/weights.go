package index

import "math"

// TFWeight is the logarithmically damped term-frequency weight:
// 1 + log10(count) for positive counts, 0 otherwise. A document mentioning
// a term ten times scores 2x a single mention, not 10x.
func TFWeight(count int) float64 {
	if count > 0 {
		return 1.0 + math.Log10(float64(count))
	}
	return 0.0
}

// ComputeIDF computes the smoothed inverse document frequency for every
// (field, term) pair: log10((N+1)/(df+1)) + 1. The smoothing keeps the value
// strictly positive and finite for every indexed term, including df == N.
// It must run only after posting construction (and any ontology
// augmentation) is complete.
func ComputeIDF(idx *Index) IDFTable {
	table := make(IDFTable, len(idx.Text))
	n := float64(idx.DocCount)
	for field, terms := range idx.Text {
		fieldIDF := make(map[string]float64, len(terms))
		for term, postings := range terms {
			df := float64(len(postings))
			fieldIDF[term] = math.Log10((n+1.0)/(df+1.0)) + 1.0
		}
		table[field] = fieldIDF
	}
	return table
}

// ComputeNorms computes the Euclidean norm of every document's boosted
// TF-IDF weight vector across all text fields. Documents without any indexed
// token get no entry. Requires a finalised IDF table.
func ComputeNorms(idx *Index, idf IDFTable, boosts map[string]float64) DocNorms {
	squared := make(map[int]float64)
	for field, terms := range idx.Text {
		boost, ok := boosts[field]
		if !ok {
			boost = 1.0
		}
		fieldIDF := idf[field]
		for term, postings := range terms {
			idfValue := fieldIDF[term]
			for docID, count := range postings {
				weight := TFWeight(count) * idfValue * boost
				squared[docID] += weight * weight
			}
		}
	}
	norms := make(DocNorms, len(squared))
	for docID, sum := range squared {
		norms[docID] = math.Sqrt(sum)
	}
	return norms
}
