package syncer

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/giygas/sheets-sync/sheets"
)

// TableResult is what happened to one table during a run
type TableResult struct {
	Name      string
	GID       string
	Source    sheets.Source
	HeaderRow int
	Outcome   string // one of the metrics table outcomes
	Rows      int
	File      string // individual file written, empty when none was
	Stats     sheets.ParseStats
	Err       error

	table *sheets.Table
}

// Table returns the parsed table, empty when the table failed
func (t TableResult) Table() *sheets.Table {
	return t.table
}

// FileName returns the base name of the table's file, empty when none was written
func (t TableResult) FileName() string {
	if t.File == "" {
		return ""
	}
	return filepath.Base(t.File)
}

// Result summarises one run. It is never persisted.
type Result struct {
	SheetID      string
	StartedAt    time.Time
	Duration     time.Duration
	Tables       []TableResult
	Data         sheets.Collection // every table in run order, empty ones included
	CombinedPath string            // empty when db.json was not written
}

// Synced returns the number of tables that yielded rows
func (r *Result) Synced() int {
	n := 0
	for _, t := range r.Tables {
		if t.Rows > 0 {
			n++
		}
	}
	return n
}

// Failed returns the number of tables whose fetch, parse or write failed
func (r *Result) Failed() int {
	n := 0
	for _, t := range r.Tables {
		if t.Err != nil {
			n++
		}
	}
	return n
}

// Rows returns the total number of rows across all tables
func (r *Result) Rows() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Rows
	}
	return n
}

// Files returns the individual files written, in run order
func (r *Result) Files() []string {
	files := make([]string, 0, len(r.Tables))
	for _, t := range r.Tables {
		if t.File != "" {
			files = append(files, t.File)
		}
	}
	return files
}

// Lookup returns the result of a table by name, or by the name of its file with or
// without the .json extension. Table names win over file names.
func (r *Result) Lookup(name string) (TableResult, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	for _, t := range r.Tables {
		if file := t.FileName(); file != "" && (file == name || strings.TrimSuffix(file, ".json") == name) {
			return t, true
		}
	}
	return TableResult{}, false
}
