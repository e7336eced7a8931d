package ontology

import (
	"reflect"
	"testing"

	"github.com/nkoenen/fieldsearch/internal/index"
	"github.com/nkoenen/fieldsearch/internal/ingest"
	"github.com/nkoenen/fieldsearch/internal/schema"
	"github.com/nkoenen/fieldsearch/pkg/config"
)

func testOntology() *Ontology {
	return &Ontology{
		Classes: map[string][]string{
			"http://example.org/Athlete": {"Athlete"},
		},
		Properties: map[string][]string{
			"http://example.org/playsFor": {"playsFor"},
		},
		Labels: map[string]string{
			"http://example.org/lebron": "LeBron James",
		},
		Relationships: map[string]map[string][]string{
			"playsFor": {
				"LeBron James":   {"Los Angeles Lakers"},
				"Michael Jordan": {"Chicago Bulls", "Washington Wizards"},
			},
			"bornIn": {
				"Hakeem Olajuwon": {"Houston"},
			},
		},
	}
}

func builtIndex(t *testing.T) *index.Index {
	t.Helper()
	s, err := schema.FromConfig([]config.FieldConfig{
		{Name: "player_name", Kind: "text", Boost: 3.0},
	})
	if err != nil {
		t.Fatalf("schema.FromConfig: %v", err)
	}
	idx, _, err := index.Build([]ingest.Record{
		{"player_name": "LeBron James"},
		{"player_name": "Michael Jordan"},
	}, s)
	if err != nil {
		t.Fatalf("index.Build: %v", err)
	}
	return idx
}

func TestAugmentRaisesDocCountByOne(t *testing.T) {
	idx := builtIndex(t)
	before := idx.DocCount

	playerPostings := make(map[string]int)
	for term, p := range idx.Text["player_name"] {
		playerPostings[term] = len(p)
	}

	testOntology().Augment(idx, "ontology")

	if idx.DocCount != before+1 {
		t.Errorf("DocCount = %d, want %d", idx.DocCount, before+1)
	}
	// Existing fields keep their postings untouched.
	for term, p := range idx.Text["player_name"] {
		if len(p) != playerPostings[term] {
			t.Errorf("posting for %q changed during augmentation", term)
		}
	}
}

func TestAugmentIndexesTermsWithCountOne(t *testing.T) {
	idx := builtIndex(t)
	testOntology().Augment(idx, "ontology")

	ont := idx.Text["ontology"]
	for _, term := range []string{"athlete", "playsfor", "lebron", "lakers", "bulls", "houston"} {
		p, ok := ont[term]
		if !ok {
			t.Errorf("term %q missing from ontology field", term)
			continue
		}
		if got := p[index.OntologyDocID]; got != 1 {
			t.Errorf("count for %q = %d, want 1 (idempotent insertion)", term, got)
		}
		if len(p) != 1 {
			t.Errorf("term %q indexed against %d docs, want only the pseudo-document", term, len(p))
		}
	}
}

func TestExpandSubstringUnion(t *testing.T) {
	o := testOntology()

	got := o.Expand("jordan")
	want := []string{"Chicago Bulls", "Michael Jordan", "Washington Wizards"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand(jordan) = %v, want %v", got, want)
	}

	// Matching an object pulls in the full subject as well.
	got = o.Expand("lakers")
	want = []string{"LeBron James", "Los Angeles Lakers"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand(lakers) = %v, want %v", got, want)
	}

	// Substring matching is deliberately broad: "us" hits Houston.
	got = o.Expand("us")
	if len(got) == 0 {
		t.Error("Expand(us) should match Houston via substring")
	}

	if got := o.Expand("nobody"); len(got) != 0 {
		t.Errorf("Expand(nobody) = %v, want empty", got)
	}
}
