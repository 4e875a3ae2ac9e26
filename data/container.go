// Package data provides thread-safe storage of the last sync results for the
// watch and serve modes. DataContainer swaps whole results atomically so readers
// never see a half-updated set of tables.
package data

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/giygas/sheets-sync/interfaces"
	"github.com/giygas/sheets-sync/logging"
	"github.com/giygas/sheets-sync/sheets"
	"github.com/giygas/sheets-sync/syncer"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// snapshot is what one successful run published
type snapshot struct {
	result *syncer.Result
	byName map[string]*sheets.Table // table name and file name
}

// failure wraps the last run error, atomic.Value needs one concrete type
type failure struct {
	err error
}

// DataContainer holds all the data with atomic pointers for zero-downtime updates
type DataContainer struct {
	current         atomic.Pointer[snapshot]
	lastUpdated     atomic.Value // time.Time, end of the last run that wrote db.json
	lastRun         atomic.Value // time.Time, end of the last run of any outcome
	lastError       atomic.Value // failure
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.current.Store(&snapshot{byName: make(map[string]*sheets.Table)})
	dc.lastUpdated.Store(time.Time{})
	dc.lastRun.Store(time.Time{})
	dc.lastError.Store(failure{})
	dc.serverStartTime.Store(time.Time{}) // Initialize with zero value
	return dc
}

// Thread-safe getters with type check

// GetResult returns the last successful run, nil before the first one
func (dc *DataContainer) GetResult() *syncer.Result {
	if s := dc.current.Load(); s != nil {
		return s.result
	}
	return nil
}

// GetTables returns every table of the last successful run, in run order
func (dc *DataContainer) GetTables() sheets.Collection {
	if result := dc.GetResult(); result != nil {
		return result.Data
	}
	return sheets.Collection{}
}

// GetTable returns one table by name or by the name of its file, with or without .json
func (dc *DataContainer) GetTable(name string) (*sheets.Table, bool) {
	s := dc.current.Load()
	if s == nil {
		return nil, false
	}
	table, ok := s.byName[name]
	return table, ok
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// GetLastRun returns when the last run finished, whatever its outcome
func (dc *DataContainer) GetLastRun() time.Time {
	if v := dc.lastRun.Load(); v != nil {
		if lastRun, ok := v.(time.Time); ok {
			return lastRun
		}
	}
	return time.Time{}
}

// GetLastError returns the error of the last run, nil when it succeeded
func (dc *DataContainer) GetLastError() error {
	if v := dc.lastError.Load(); v != nil {
		if f, ok := v.(failure); ok {
			return f.err
		}
	}
	return nil
}

// IsUpdating returns true if a sync is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically publishes the result of a successful run
func (dc *DataContainer) UpdateData(result *syncer.Result) {
	byName := make(map[string]*sheets.Table, 3*len(result.Data))
	for _, table := range result.Data {
		byName[table.Name] = table
	}
	// File names, with and without .json, never shadow a real table name.
	// Data and Tables are aligned by run order.
	for i, t := range result.Tables {
		file := t.FileName()
		if file == "" || i >= len(result.Data) {
			continue
		}
		table := result.Data[i]
		for _, alias := range []string{file, strings.TrimSuffix(file, ".json")} {
			if _, ok := byName[alias]; !ok {
				byName[alias] = table
			}
		}
	}

	now := time.Now()

	// Atomic swap (zero downtime replacement)
	dc.current.Store(&snapshot{result: result, byName: byName})
	dc.lastUpdated.Store(now)
	dc.lastRun.Store(now)
	dc.lastError.Store(failure{})
}

// RecordFailure records a failed run; the data of the last successful run stays published
func (dc *DataContainer) RecordFailure(err error) {
	dc.lastRun.Store(time.Now())
	dc.lastError.Store(failure{err: err})
}

// BeginUpdate marks the start of a sync
// Returns true if the sync can proceed, false if another one is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a sync
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
