// Package storage writes synced tables as JSON files into the output directory.
//
// Its tests use testify, the other packages of the module use plain testing.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/giygas/sheets-sync/logging"
	"github.com/giygas/sheets-sync/sheets"
)

// CombinedFile is the name of the file holding every table
const CombinedFile = "db.json"

// Writer writes table files into one directory. File names are assigned on first
// use and stay stable for the lifetime of the writer.
type Writer struct {
	dir string

	mu    sync.Mutex
	files map[string]string // table name -> file name
	taken map[string]bool   // lowercased file stems already assigned
}

// NewWriter creates a writer for dir; the directory is created on first write
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:   dir,
		files: make(map[string]string),
		taken: map[string]bool{strings.TrimSuffix(CombinedFile, ".json"): true},
	}
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// FileName returns the file name of a table. Names that sanitise to a file
// already in use get a numeric suffix: "A/B" and "AB" become "AB.json" and "AB-2.json".
func (w *Writer) FileName(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if file, ok := w.files[name]; ok {
		return file
	}

	stem := sheets.SanitizeName(name)
	candidate := stem
	for n := 2; w.taken[strings.ToLower(candidate)]; n++ {
		candidate = stem + "-" + strconv.Itoa(n)
	}

	w.taken[strings.ToLower(candidate)] = true
	file := candidate + ".json"
	w.files[name] = file
	return file
}

// WriteTable writes the rows of one table to its own file and returns the path.
// A table without rows is written as [].
func (w *Writer) WriteTable(table *sheets.Table) (string, error) {
	path := filepath.Join(w.dir, w.FileName(table.Name))
	if err := w.writeJSON(path, table); err != nil {
		return "", fmt.Errorf("failed to write table %s: %w", table.Name, err)
	}

	logging.Debug("Table file written", "table", table.Name, "path", path, "rows", table.Len())
	return path, nil
}

// WriteCombined writes every table, empty ones included, to db.json and returns the path
func (w *Writer) WriteCombined(tables sheets.Collection) (string, error) {
	path := filepath.Join(w.dir, CombinedFile)
	if err := w.writeJSON(path, tables); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", CombinedFile, err)
	}

	logging.Debug("Combined file written", "path", path, "tables", len(tables))
	return path, nil
}

func (w *Writer) writeJSON(path string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	return writeFileAtomic(path, data)
}

// Encode renders v as indented JSON without HTML escaping, with a trailing newline
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes to a temp file next to path and renames it into place
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Failed to remove temp file", "path", tmpPath, "error", err)
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		cleanup()
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to move temp file into place: %w", err)
	}

	return nil
}
