// Package interfaces defines the contracts shared by the long-running sync modes,
// so the scheduler, health checker and HTTP handlers can be tested with fakes.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/sheets-sync/sheets"
	"github.com/giygas/sheets-sync/syncer"
)

// DataStore holds the outcome of the last sync runs.
// It provides thread-safe access with atomic swaps for zero-downtime updates.
type DataStore interface {
	// Data retrieval methods
	GetResult() *syncer.Result
	GetTables() sheets.Collection
	GetTable(name string) (*sheets.Table, bool)
	GetLastUpdated() time.Time
	GetLastRun() time.Time
	GetLastError() error
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(result *syncer.Result)
	RecordFailure(err error)
	BeginUpdate() bool
	EndUpdate()
}

// Runner performs one complete sync
type Runner interface {
	Run(ctx context.Context) (*syncer.Result, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated sync runs and staleness checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()

	// NextRun returns the time of the next scheduled run, zero when none is scheduled
	NextRun() time.Time
}

// HTTPHandler defines the contract for HTTP request handlers
type HTTPHandler interface {
	ServeCombined(w http.ResponseWriter, r *http.Request)
	ServeTables(w http.ResponseWriter, r *http.Request)
	ServeTable(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality
type HealthChecker interface {
	// HealthCheck returns the current status, its details and the HTTP status to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)
}
