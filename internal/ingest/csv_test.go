package ingest

import (
	"strings"
	"testing"
)

func TestReadTable(t *testing.T) {
	raw := strings.Join([]string{
		"Player Name;Age;Birth Country",
		"LeBron James;40;us",
		"Michael Jordan;62;us",
	}, "\n")

	records, err := readTable(strings.NewReader(raw), ';')
	if err != nil {
		t.Fatalf("readTable: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if got := records[0]["player_name"]; got != "LeBron James" {
		t.Errorf("player_name = %q, want %q", got, "LeBron James")
	}
	if got := records[1]["age"]; got != "62" {
		t.Errorf("age = %q, want %q", got, "62")
	}
	if got := records[0]["birth_country"]; got != "us" {
		t.Errorf("birth_country = %q, want %q", got, "us")
	}
}

func TestReadTableShortRows(t *testing.T) {
	raw := "name;age\nshorty\n"
	records, err := readTable(strings.NewReader(raw), ';')
	if err != nil {
		t.Fatalf("readTable: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if _, ok := records[0]["age"]; ok {
		t.Error("missing cell should be absent from the record, not empty")
	}
}

func TestReadTableEmptyInput(t *testing.T) {
	if _, err := readTable(strings.NewReader(""), ';'); err == nil {
		t.Fatal("expected error for table without header")
	}
}
