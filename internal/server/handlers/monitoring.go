package handlers

import (
	"net/http"
	"time"

	"git.home.luguber.info/inful/mdredirect/internal/server/responses"
	"git.home.luguber.info/inful/mdredirect/internal/version"
)

// MonitoringHandlers serves health checks.
type MonitoringHandlers struct {
	startTime time.Time
}

// NewMonitoringHandlers creates monitoring handlers reporting uptime since startTime.
func NewMonitoringHandlers(startTime time.Time) *MonitoringHandlers {
	return &MonitoringHandlers{startTime: startTime}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Resolved(),
		Uptime:    time.Since(h.startTime).Seconds(),
	})
}
