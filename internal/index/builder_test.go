package index

import (
	"testing"

	"github.com/nkoenen/fieldsearch/internal/ingest"
	"github.com/nkoenen/fieldsearch/internal/schema"
	"github.com/nkoenen/fieldsearch/pkg/config"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.FromConfig([]config.FieldConfig{
		{Name: "player_name", Kind: "text", Boost: 3.0},
		{Name: "college", Kind: "text"},
		{Name: "age", Kind: "numeric"},
		{Name: "weight", Kind: "numeric"},
		{Name: "profile_url", Kind: "keyword"},
	})
	if err != nil {
		t.Fatalf("schema.FromConfig: %v", err)
	}
	return s
}

func testRecords() []ingest.Record {
	return []ingest.Record{
		{
			"player_name": "LeBron James",
			"college":     "nan",
			"age":         "40",
			"weight":      "113.4",
			"profile_url": " https://example.com/lebron ",
		},
		{
			"player_name": "Michael Jordan",
			"college":     "North Carolina",
			"age":         "62",
			"weight":      "not-a-number",
			"profile_url": "https://example.com/jordan",
		},
		{
			"player_name": "LeBron Raymone James",
			"age":         "",
			"profile_url": "https://example.com/lebron",
		},
	}
}

func TestBuildTextPostings(t *testing.T) {
	idx, meta, err := Build(testRecords(), testSchema(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.DocCount != 3 {
		t.Fatalf("DocCount = %d, want 3", idx.DocCount)
	}
	if len(meta) != 3 {
		t.Fatalf("DocMeta has %d entries, want 3", len(meta))
	}

	lebron := idx.Text["player_name"]["lebron"]
	if lebron[0] != 1 || lebron[2] != 1 {
		t.Errorf("lebron posting = %v, want docs 0 and 2 with count 1", lebron)
	}
	if _, ok := lebron[1]; ok {
		t.Error("doc 1 must not appear in the lebron posting")
	}
	if got := idx.Text["player_name"]["james"][2]; got != 1 {
		t.Errorf("james count in doc 2 = %d, want 1", got)
	}
	// "nan" college cell must not produce tokens.
	if len(idx.Text["college"]) != 2 {
		t.Errorf("college terms = %d, want 2 (north, carolina)", len(idx.Text["college"]))
	}
}

func TestBuildNumericOmitsUnparseable(t *testing.T) {
	idx, _, err := Build(testRecords(), testSchema(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ages := idx.Numeric["age"]
	if len(ages) != 2 {
		t.Fatalf("age entries = %d, want 2", len(ages))
	}
	if ages[0] != 40 || ages[1] != 62 {
		t.Errorf("age values = %v", ages)
	}
	if _, ok := ages[2]; ok {
		t.Error("empty age cell must be omitted, not zero-filled")
	}
	weights := idx.Numeric["weight"]
	if _, ok := weights[1]; ok {
		t.Error("unparseable weight must be omitted")
	}
}

func TestBuildKeywordGroupsSharedValues(t *testing.T) {
	idx, _, err := Build(testRecords(), testSchema(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	docs := idx.Keyword["profile_url"]["https://example.com/lebron"]
	if len(docs) != 2 || docs[0] != 0 || docs[1] != 2 {
		t.Errorf("shared keyword value docs = %v, want [0 2]", docs)
	}
}

func TestBuildIgnoresUnconfiguredColumns(t *testing.T) {
	records := []ingest.Record{{
		"player_name": "Someone",
		"shoe_size":   "47",
	}}
	idx, _, err := Build(records, testSchema(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := idx.Text["shoe_size"]; ok {
		t.Error("unconfigured column must be ignored")
	}
	if _, ok := idx.Numeric["shoe_size"]; ok {
		t.Error("unconfigured column must be ignored")
	}
}

// Parallel partitioning must produce the identical index regardless of the
// number of records per worker.
func TestBuildManyRecordsStableDocIDs(t *testing.T) {
	var records []ingest.Record
	for i := 0; i < 500; i++ {
		name := "common"
		if i%7 == 0 {
			name = "rare common"
		}
		records = append(records, ingest.Record{"player_name": name, "age": "30"})
	}
	idx, meta, err := Build(records, testSchema(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(meta) != 500 {
		t.Fatalf("meta entries = %d, want 500", len(meta))
	}
	common := idx.Text["player_name"]["common"]
	if len(common) != 500 {
		t.Errorf("common posting docs = %d, want 500", len(common))
	}
	rare := idx.Text["player_name"]["rare"]
	for docID := range rare {
		if docID%7 != 0 {
			t.Errorf("doc %d should not contain the rare term", docID)
		}
	}
	if len(idx.Numeric["age"]) != 500 {
		t.Errorf("age entries = %d, want 500", len(idx.Numeric["age"]))
	}
}
