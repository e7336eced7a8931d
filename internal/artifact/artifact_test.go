package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nkoenen/fieldsearch/internal/index"
	"github.com/nkoenen/fieldsearch/internal/ingest"
	"github.com/nkoenen/fieldsearch/internal/schema"
	"github.com/nkoenen/fieldsearch/pkg/config"
	pkgerrors "github.com/nkoenen/fieldsearch/pkg/errors"
)

func buildFixture(t *testing.T) (*index.Index, index.IDFTable, index.DocNorms, index.DocMeta) {
	t.Helper()
	s, err := schema.FromConfig([]config.FieldConfig{
		{Name: "player_name", Kind: "text", Boost: 3.0},
		{Name: "age", Kind: "numeric"},
		{Name: "profile_url", Kind: "keyword"},
	})
	if err != nil {
		t.Fatalf("schema.FromConfig: %v", err)
	}
	idx, meta, err := index.Build([]ingest.Record{
		{"player_name": "LeBron James", "age": "40", "profile_url": "u1"},
		{"player_name": "Michael Jordan", "age": "62", "profile_url": "u2"},
	}, s)
	if err != nil {
		t.Fatalf("index.Build: %v", err)
	}
	idf := index.ComputeIDF(idx)
	norms := index.ComputeNorms(idx, idf, s.Boosts())
	return idx, idf, norms, meta
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	idx, idf, norms, meta := buildFixture(t)

	if err := SaveAll(dir, idx, idf, norms, meta); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	gotIdx, gotIDF, gotNorms, gotMeta, err := LoadAll(dir)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if gotIdx.DocCount != idx.DocCount {
		t.Errorf("DocCount = %d, want %d", gotIdx.DocCount, idx.DocCount)
	}
	if got := gotIdx.Text["player_name"]["lebron"][0]; got != 1 {
		t.Errorf("lebron posting after round trip = %d, want 1", got)
	}
	if got := gotIdx.Numeric["age"][1]; got != 62 {
		t.Errorf("age[1] = %v, want 62", got)
	}
	if got := gotIDF["player_name"]["lebron"]; got != idf["player_name"]["lebron"] {
		t.Errorf("idf after round trip = %v, want %v", got, idf["player_name"]["lebron"])
	}
	if got := gotNorms[0]; got != norms[0] {
		t.Errorf("norm[0] = %v, want %v", got, norms[0])
	}
	if got := gotMeta[1]["player_name"]; got != "Michael Jordan" {
		t.Errorf("meta[1] = %q, want Michael Jordan", got)
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	idx, idf, norms, meta := buildFixture(t)
	if err := SaveAll(dir, idx, idf, norms, meta); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, FileNorms)); err != nil {
		t.Fatal(err)
	}

	_, _, _, _, err := LoadAll(dir)
	if !errors.Is(err, pkgerrors.ErrMissingArtifact) {
		t.Errorf("LoadAll with missing norms = %v, want ErrMissingArtifact", err)
	}
}

func TestLoadCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	idx, idf, norms, meta := buildFixture(t)
	if err := SaveAll(dir, idx, idf, norms, meta); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	path := filepath.Join(dir, FileIndex)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-FooterSize-1] ^= 0xff // flip a payload byte
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	_, _, _, _, err = LoadAll(dir)
	if !errors.Is(err, pkgerrors.ErrCorruptArtifact) {
		t.Errorf("LoadAll with corrupt index = %v, want ErrCorruptArtifact", err)
	}
}

func TestReadWrongKind(t *testing.T) {
	dir := t.TempDir()
	idx, _, _, _ := buildFixture(t)
	path := filepath.Join(dir, "some.fsx")
	if err := Write(path, KindIndex, idx); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var norms index.DocNorms
	err := Read(path, KindNorms, &norms)
	if !errors.Is(err, pkgerrors.ErrCorruptArtifact) {
		t.Errorf("Read with wrong kind = %v, want ErrCorruptArtifact", err)
	}
}
