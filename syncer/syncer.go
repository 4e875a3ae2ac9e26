// Package syncer runs one complete sync: discover the tables of the spreadsheet,
// merge them with the fallback tables, then fetch, parse and write each table in
// order before writing the combined db.json.
//
// Every unit of work is isolated. A failed discovery falls back to the configured
// tables, and a failed fetch, parse or write only affects its own table. The run
// fails with ErrNoData when no table yielded rows.
//
// Its tests use testify, the other packages of the module use plain testing.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giygas/sheets-sync/config"
	"github.com/giygas/sheets-sync/logging"
	"github.com/giygas/sheets-sync/metrics"
	"github.com/giygas/sheets-sync/sheets"
)

// Fetcher downloads the CSV export of one table
type Fetcher interface {
	FetchCSV(ctx context.Context, sheetID, gid string) (string, error)
}

// Discoverer lists the tables found on the spreadsheet page
type Discoverer interface {
	Discover(ctx context.Context, sheetID string) *sheets.TableSet
}

// Writer persists tables
type Writer interface {
	WriteTable(table *sheets.Table) (string, error)
	WriteCombined(tables sheets.Collection) (string, error)
}

// Syncer runs sync passes for one spreadsheet
type Syncer struct {
	cfg        *config.Config
	fetcher    Fetcher
	discoverer Discoverer
	writer     Writer
}

// New creates a syncer. discoverer may be nil, in which case only the fallback
// tables are synced, as when discovery is disabled in cfg.
func New(cfg *config.Config, fetcher Fetcher, discoverer Discoverer, writer Writer) *Syncer {
	return &Syncer{
		cfg:        cfg,
		fetcher:    fetcher,
		discoverer: discoverer,
		writer:     writer,
	}
}

// Tables returns the merged table set of the next run, header rows applied
func (s *Syncer) Tables(ctx context.Context) *sheets.TableSet {
	discovered := &sheets.TableSet{}
	if s.cfg.Discovery && s.discoverer != nil {
		discovered = s.discoverer.Discover(ctx, s.cfg.SheetID)
	}

	merged := sheets.Merge(discovered, FallbackTables(s.cfg))

	tables := &sheets.TableSet{}
	for _, ref := range merged.Refs() {
		ref.HeaderRow = s.cfg.HeaderRowFor(ref.Name)
		tables.Add(ref)
	}
	return tables
}

// FallbackTables returns the configured tables with their header rows applied
func FallbackTables(cfg *config.Config) *sheets.TableSet {
	set := &sheets.TableSet{}
	for _, t := range cfg.FallbackTables {
		set.Add(sheets.TableRef{
			Name:      t.Name,
			GID:       t.GID,
			HeaderRow: cfg.HeaderRowFor(t.Name),
			Source:    sheets.SourceFallback,
		})
	}
	return set
}

// Run performs one sync. The result is returned even when err is not nil.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		SheetID:   s.cfg.SheetID,
		StartedAt: time.Now(),
	}
	defer func() {
		result.Duration = time.Since(result.StartedAt)
		metrics.SyncDuration.Observe(result.Duration.Seconds())
	}()

	logging.Info("Starting sync", "sheet_id", s.cfg.SheetID, "started_at", result.StartedAt.Format(time.RFC3339))

	tables := s.Tables(ctx)
	logging.Info("Tables to sync", "count", tables.Len(), "tables", tables.Names())

	for _, ref := range tables.Refs() {
		if err := ctx.Err(); err != nil {
			return result, s.cancelled(err)
		}

		outcome := s.syncTable(ctx, ref)
		if err := ctx.Err(); err != nil {
			return result, s.cancelled(err)
		}

		metrics.SyncTablesTotal.WithLabelValues(outcome.Outcome).Inc()
		result.Tables = append(result.Tables, outcome)
		result.Data = append(result.Data, outcome.table)
	}

	if result.Synced() == 0 {
		metrics.SyncRunsTotal.WithLabelValues(metrics.RunNoData).Inc()
		logging.Error("No table yielded any data, combined file not written",
			"tables", tables.Len(),
			"failed", result.Failed())
		return result, ErrNoData
	}

	path, err := s.writer.WriteCombined(result.Data)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues(metrics.RunError).Inc()
		logging.Error("Failed to write combined file", "error", err)
		return result, fmt.Errorf("failed to write combined file: %w", err)
	}
	result.CombinedPath = path

	metrics.SyncRunsTotal.WithLabelValues(metrics.RunSuccess).Inc()
	metrics.SyncLastSuccess.SetToCurrentTime()

	logging.Info("Sync completed",
		"duration", time.Since(result.StartedAt).String(),
		"synced", result.Synced(),
		"failed", result.Failed(),
		"rows", result.Rows(),
		"path", path)

	return result, nil
}

// syncTable fetches, parses and writes one table. Failures are logged and leave
// an empty table in place.
func (s *Syncer) syncTable(ctx context.Context, ref sheets.TableRef) TableResult {
	outcome := TableResult{
		Name:      ref.Name,
		GID:       ref.GID,
		Source:    ref.Source,
		HeaderRow: ref.HeaderRow,
		table:     sheets.EmptyTable(ref.Name),
	}

	logging.Info("Processing table", "table", ref.Name, "gid", ref.GID, "source", string(ref.Source))

	raw, err := s.fetcher.FetchCSV(ctx, s.cfg.SheetID, ref.GID)
	if err != nil {
		return outcome.fail(metrics.TableFetchError, &TableError{Table: ref.Name, GID: ref.GID, Op: OpFetch, Err: err})
	}

	table, stats, err := sheets.Parse(raw, ref.HeaderRow)
	if err != nil {
		return outcome.fail(metrics.TableParseError, &TableError{Table: ref.Name, GID: ref.GID, Op: OpParse, Err: err})
	}
	table.Name = ref.Name
	outcome.table = table
	outcome.Stats = stats
	outcome.Rows = table.Len()

	if stats.DroppedEmpty > 0 || stats.PaddedRows > 0 || stats.TruncatedRows > 0 {
		logging.Debug("Table normalised",
			"table", ref.Name,
			"records", stats.Records,
			"dropped_empty", stats.DroppedEmpty,
			"padded_rows", stats.PaddedRows,
			"truncated_rows", stats.TruncatedRows)
	}

	path, err := s.writer.WriteTable(table)
	if err != nil {
		// rows stay in the combined file even when the table's own file could not be written
		return outcome.fail(metrics.TableWriteError, &TableError{Table: ref.Name, GID: ref.GID, Op: OpWrite, Err: err})
	}
	outcome.File = path

	if table.Len() == 0 {
		outcome.Outcome = metrics.TableEmpty
		logging.Warn("Table has no data rows", "table", ref.Name, "gid", ref.GID, "columns", len(table.Columns), "path", path)
		return outcome
	}
	outcome.Outcome = metrics.TableSynced

	logging.Info("Table synced", "table", ref.Name, "gid", ref.GID, "rows", table.Len(), "path", path)
	return outcome
}

func (s *Syncer) cancelled(err error) error {
	metrics.SyncRunsTotal.WithLabelValues(metrics.RunCancelled).Inc()
	logging.Warn("Sync cancelled", "error", err)
	return err
}

func (o TableResult) fail(kind string, err *TableError) TableResult {
	o.Outcome = kind
	o.Err = err

	var statusErr *sheets.StatusError
	if errors.As(err, &statusErr) {
		logging.Error("Failed to sync table", "table", err.Table, "gid", err.GID, "op", err.Op, "status", statusErr.StatusCode, "error", err.Err)
	} else {
		logging.Error("Failed to sync table", "table", err.Table, "gid", err.GID, "op", err.Op, "error", err.Err)
	}
	return o
}
