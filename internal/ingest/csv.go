// Package ingest reads the cleaned entity table produced by the upstream
// data pipeline. Each row becomes one record keyed by canonical field name;
// the builder assigns document ids from row order.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/nkoenen/fieldsearch/internal/schema"
	"github.com/nkoenen/fieldsearch/pkg/errors"
)

// Record is one row of the entity table: canonical field name -> raw value.
type Record map[string]string

// ReadTable parses the CSV at path into records. Header names are folded to
// their canonical form so they line up with the configured field schema.
// Rows shorter than the header are tolerated; the missing cells are simply
// absent from the record.
func ReadTable(path string, delimiter rune) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening entity table %s: %w", path, err)
	}
	defer f.Close()
	return readTable(f, delimiter)
}

func readTable(r io.Reader, delimiter rune) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: entity table has no header row", errors.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("reading entity table header: %w", err)
	}
	fields := make([]string, len(header))
	for i, name := range header {
		fields[i] = schema.Normalize(name)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading entity table row %d: %w", len(records)+2, err)
		}
		record := make(Record, len(fields))
		for i, value := range row {
			if i >= len(fields) {
				break
			}
			record[fields[i]] = value
		}
		records = append(records, record)
	}
	return records, nil
}
