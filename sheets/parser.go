package sheets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseStats counts what normalisation did to a table
type ParseStats struct {
	Records       int // CSV records read, header and skipped title rows included
	DroppedEmpty  int // data rows with every cell empty
	PaddedRows    int // rows shorter than the header
	TruncatedRows int // rows longer than the header whose surplus cells were empty
}

// Parse reads CSV text into a table. headerRow is the 0-based record holding the
// column names; records above it (multi-line titles) are skipped.
func Parse(raw string, headerRow int) (*Table, ParseStats, error) {
	var stats ParseStats

	if headerRow < 0 {
		return nil, stats, fmt.Errorf("negative header row %d", headerRow)
	}

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(raw, "\ufeff")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, &ParseError{Record: len(records) + 1, Err: err}
		}
		records = append(records, record)
	}
	stats.Records = len(records)

	if headerRow >= len(records) {
		return nil, stats, fmt.Errorf("%w: header row %d, table has %d records", ErrNoHeader, headerRow, len(records))
	}

	header := records[headerRow]
	width := len(header)

	var data [][]string
	for i, record := range records[headerRow+1:] {
		switch {
		case len(record) < width:
			padded := make([]string, width)
			copy(padded, record)
			record = padded
			stats.PaddedRows++
		case len(record) > width:
			if !isEmpty(record[width:]) {
				return nil, stats, &ParseError{
					Record: headerRow + i + 2,
					Err:    fmt.Errorf("expected %d fields, saw %d", width, len(record)),
				}
			}
			record = record[:width]
			stats.TruncatedRows++
		}

		if isEmpty(record) {
			stats.DroppedEmpty++
			continue
		}
		data = append(data, record)
	}

	names := make([]string, width)
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
		if names[i] == "" {
			names[i] = "Unnamed: " + strconv.Itoa(i)
		}
	}

	columns := dedupeColumns(names)

	table := &Table{Columns: columns, Rows: make([]Row, 0, len(data))}
	for _, record := range data {
		table.Rows = append(table.Rows, Row{columns: columns, values: record})
	}

	return table, stats, nil
}

// dedupeColumns suffixes repeated names with .1, .2, ... skipping names already taken
func dedupeColumns(columns []string) []string {
	taken := make(map[string]bool, len(columns))
	for _, c := range columns {
		taken[c] = true
	}

	seen := make(map[string]int, len(columns))
	out := make([]string, len(columns))
	for i, c := range columns {
		n := seen[c]
		seen[c] = n + 1
		if n == 0 {
			out[i] = c
			continue
		}

		candidate := c + "." + strconv.Itoa(n)
		for taken[candidate] {
			n++
			candidate = c + "." + strconv.Itoa(n)
		}
		seen[c] = n + 1
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

// isEmpty reports whether every cell is the empty string; a whitespace cell is a value
func isEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
