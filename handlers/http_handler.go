// Package handlers serves the tables of the last successful sync over HTTP.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/sheets-sync/interfaces"
	"github.com/giygas/sheets-sync/logging"
	"github.com/go-chi/chi/v5"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	healthChecker interfaces.HealthChecker
	startTime     time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, healthChecker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		healthChecker: healthChecker,
		startTime:     time.Now(),
	}
}

// TableInfo describes one table in the /tables index
type TableInfo struct {
	Name      string `json:"name"`
	File      string `json:"file"`
	GID       string `json:"gid"`
	Source    string `json:"source"`
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
	HeaderRow int    `json:"header_row"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
}

// TablesResponse is the /tables index
type TablesResponse struct {
	SheetID    string      `json:"sheet_id"`
	LastUpdate string      `json:"last_update"`
	Tables     []TableInfo `json:"tables"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, code, data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

func (h *HTTPHandlerImpl) writeJSON(w http.ResponseWriter, code int, data []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if lastUpdate := h.dataStore.GetLastUpdated(); !lastUpdate.IsZero() {
		w.Header().Set("Last-Modified", lastUpdate.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

// ServeCombined serves every table of the last successful run, like db.json
func (h *HTTPHandlerImpl) ServeCombined(w http.ResponseWriter, r *http.Request) {
	if h.dataStore.GetResult() == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "No data synced yet")
		return
	}

	data, err := h.dataStore.GetTables().MarshalJSON()
	if err != nil {
		logging.Error("Failed to encode tables", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to encode tables")
		return
	}

	h.writeJSON(w, http.StatusOK, data)
}

// ServeTables serves the index of the tables of the last successful run
func (h *HTTPHandlerImpl) ServeTables(w http.ResponseWriter, r *http.Request) {
	result := h.dataStore.GetResult()
	if result == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "No data synced yet")
		return
	}

	response := TablesResponse{
		SheetID:    result.SheetID,
		LastUpdate: h.dataStore.GetLastUpdated().Format(time.RFC3339),
		Tables:     make([]TableInfo, 0, len(result.Tables)),
	}

	for _, t := range result.Tables {
		info := TableInfo{
			Name:      t.Name,
			File:      fileName(t.File),
			GID:       t.GID,
			Source:    string(t.Source),
			Rows:      t.Rows,
			HeaderRow: t.HeaderRow,
			Outcome:   t.Outcome,
		}
		if table := t.Table(); table != nil {
			info.Columns = len(table.Columns)
		}
		if t.Err != nil {
			info.Error = t.Err.Error()
		}
		response.Tables = append(response.Tables, info)
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// ServeTable serves the rows of one table, looked up by name or file name
func (h *HTTPHandlerImpl) ServeTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing table name")
		return
	}

	table, ok := h.dataStore.GetTable(name)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Table %q not found", name))
		return
	}

	data, err := table.MarshalJSON()
	if err != nil {
		logging.Error("Failed to encode table", "table", table.Name, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to encode table")
		return
	}

	h.writeJSON(w, http.StatusOK, data)
}

// HealthCheck reports the health of the published data
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.healthChecker.HealthCheck()

	uptime := time.Since(h.startTime)
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	response := HealthResponse{
		Status:        status,
		Uptime:        formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          details,
	}

	h.RespondWithJSON(w, httpStatus, response)
}

func fileName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
