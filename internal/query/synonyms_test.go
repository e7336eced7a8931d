package query

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSynonymsMissingFileFallsBackToIdentity(t *testing.T) {
	s := testSchema(t)
	aliases, synonyms, err := LoadSynonyms(filepath.Join(t.TempDir(), "absent.yaml"), s)
	if err != nil {
		t.Fatalf("LoadSynonyms: %v", err)
	}
	if got := aliases.Resolve("player_name"); got != "player_name" {
		t.Errorf("Resolve(player_name) = %q", got)
	}
	if got := aliases.Resolve("Player Name"); got != "player_name" {
		t.Errorf("Resolve(Player Name) = %q", got)
	}
	if got := aliases.Resolve("playername"); got != "player_name" {
		t.Errorf("Resolve(playername) = %q", got)
	}
	if len(synonyms) != 0 {
		t.Errorf("synonyms = %v, want empty", synonyms)
	}
}

func TestLoadSynonymsFromFile(t *testing.T) {
	raw := `
field_aliases:
  position: position_clean
  country: birth_country
term_synonyms:
  pg: ["point guard"]
  us: ["usa", "united states"]
`
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	aliases, synonyms, err := LoadSynonyms(path, testSchema(t))
	if err != nil {
		t.Fatalf("LoadSynonyms: %v", err)
	}
	if got := aliases.Resolve("position"); got != "position_clean" {
		t.Errorf("Resolve(position) = %q", got)
	}
	if got := aliases.Resolve("position_clean"); got != "position_clean" {
		t.Errorf("canonical name must resolve to itself, got %q", got)
	}

	// Symmetric closure.
	if !contains(synonyms["pg"], "point guard") {
		t.Errorf("pg synonyms = %v", synonyms["pg"])
	}
	if !contains(synonyms["point guard"], "pg") {
		t.Errorf("reverse mapping missing: %v", synonyms["point guard"])
	}
	if !contains(synonyms["usa"], "us") || !contains(synonyms["us"], "usa") {
		t.Errorf("us/usa synonyms not symmetric: %v / %v", synonyms["us"], synonyms["usa"])
	}
}

func TestLoadSynonymsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	if err := os.WriteFile(path, []byte("field_aliases: [not, a, map]"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadSynonyms(path, testSchema(t)); err == nil {
		t.Fatal("malformed synonyms file must be a fatal configuration error")
	}
}
