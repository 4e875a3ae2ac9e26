// Package health reports whether the last sync runs left usable, fresh data.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/sheets-sync/interfaces"
	"github.com/giygas/sheets-sync/scheduler"
)

// Health statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	scheduler interfaces.Scheduler
}

// NewHealthChecker creates a new health checker with injected dependencies.
// sched may be nil when nothing is scheduled.
func NewHealthChecker(dataStore interfaces.DataStore, sched interfaces.Scheduler) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		scheduler: sched,
	}
}

// HealthCheck returns the status of the published data and the HTTP code to answer with.
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	result := h.dataStore.GetResult()
	lastUpdate := h.dataStore.GetLastUpdated()
	lastErr := h.dataStore.GetLastError()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := time.Since(lastUpdate)

	switch {
	case result == nil:
		status = StatusUnhealthy
		httpStatus = http.StatusServiceUnavailable

	case dataAge > scheduler.StaleAfter:
		status = StatusDegraded
		httpStatus = http.StatusServiceUnavailable

	case lastErr != nil:
		status = StatusDegraded
		httpStatus = http.StatusServiceUnavailable

	default:
		status = StatusHealthy
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"is_updating": isUpdating,
		"tables":      0,
		"rows":        0,
	}

	if result != nil {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
		data["tables"] = result.Synced()
		data["failed_tables"] = result.Failed()
		data["rows"] = result.Rows()
	}

	if lastRun := h.dataStore.GetLastRun(); !lastRun.IsZero() {
		data["last_run"] = lastRun.Format(time.RFC3339)
	}

	if lastErr != nil {
		data["last_error"] = lastErr.Error()
	}

	if h.scheduler != nil {
		if next := h.scheduler.NextRun(); !next.IsZero() {
			data["next_run"] = next.Format(time.RFC3339)
		}
	}

	return status, data, httpStatus
}
