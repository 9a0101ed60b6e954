// Package importer implements the CSV import pipeline: column detection,
// row parsing, rule-based categorization, and per-row persistence with an
// outcome report.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoHeader is returned for files without a parseable header row.
	ErrNoHeader = errors.New("csv file has no header row")
	// ErrNoRows is returned for files with a header but no data rows.
	ErrNoRows = errors.New("csv file has no data rows")
	// ErrUnmappedField blocks an import whose mapping is missing a
	// required column. It is returned before any row is processed.
	ErrUnmappedField = errors.New("required field is not mapped")
)

// table is a parsed CSV file: the header row plus all data rows, with a
// header-name index for column lookups.
type table struct {
	headers []string
	index   map[string]int
	rows    [][]string
}

// parseCSV reads comma-delimited content with a header row. A UTF-8 BOM is
// tolerated. Rows with a differing field count are kept; missing cells read
// as empty strings.
func parseCSV(raw []byte) (*table, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrNoHeader
	}

	headers := make([]string, len(records[0]))
	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		headers[i] = h
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	if len(records) == 1 {
		return nil, ErrNoRows
	}

	return &table{headers: headers, index: index, rows: records[1:]}, nil
}

// cell returns the value at the given column index for a row, or "" when
// the row is shorter than the header.
func (t *table) cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// column resolves a header name to its index, -1 when absent.
func (t *table) column(header string) int {
	if header == "" {
		return -1
	}
	if i, ok := t.index[header]; ok {
		return i
	}
	return -1
}
