package index

import (
	"math"
	"testing"

	"github.com/nkoenen/fieldsearch/internal/ingest"
)

func TestTFWeight(t *testing.T) {
	if got := TFWeight(0); got != 0 {
		t.Errorf("TFWeight(0) = %v, want 0", got)
	}
	if got := TFWeight(1); got != 1 {
		t.Errorf("TFWeight(1) = %v, want 1", got)
	}
	if got := TFWeight(10); math.Abs(got-2.0) > 1e-12 {
		t.Errorf("TFWeight(10) = %v, want 2", got)
	}
	if TFWeight(100) >= 10*TFWeight(1) {
		t.Error("TF scaling must be logarithmic, not linear")
	}
}

func TestComputeIDFPositiveAndMonotonic(t *testing.T) {
	s := testSchema(t)
	records := []ingest.Record{
		{"player_name": "alpha shared"},
		{"player_name": "beta shared"},
		{"player_name": "gamma shared"},
	}
	idx, _, err := Build(records, s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	idf := ComputeIDF(idx)

	for term, value := range idf["player_name"] {
		if value <= 0 || math.IsInf(value, 0) || math.IsNaN(value) {
			t.Errorf("idf[%q] = %v, want strictly positive and finite", term, value)
		}
	}
	// df(shared) = 3 = N, the degenerate case, still positive.
	shared := idf["player_name"]["shared"]
	if shared <= 0 {
		t.Errorf("idf for df == N must stay positive, got %v", shared)
	}
	// Rarer terms weigh at least as much.
	if idf["player_name"]["alpha"] <= shared {
		t.Errorf("idf must be non-increasing in df: rare %v <= common %v",
			idf["player_name"]["alpha"], shared)
	}
}

func TestComputeNorms(t *testing.T) {
	s := testSchema(t)
	records := []ingest.Record{
		{"player_name": "solo term"},
		{"age": "20"}, // no text tokens at all
	}
	idx, _, err := Build(records, s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	idf := ComputeIDF(idx)
	norms := ComputeNorms(idx, idf, s.Boosts())

	norm, ok := norms[0]
	if !ok || norm <= 0 {
		t.Fatalf("doc 0 norm = %v (present=%v), want positive entry", norm, ok)
	}
	if _, ok := norms[1]; ok {
		t.Error("document without text tokens must have no norm entry")
	}

	// Norm of doc 0: two terms, each count 1, boost 3.0 on player_name.
	idfSolo := idf["player_name"]["solo"]
	idfTerm := idf["player_name"]["term"]
	want := math.Sqrt(9*idfSolo*idfSolo + 9*idfTerm*idfTerm)
	if math.Abs(norm-want) > 1e-9 {
		t.Errorf("doc 0 norm = %v, want %v", norm, want)
	}
}
