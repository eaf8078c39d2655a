package handlers

import (
	"net/http"

	"mindcanvas/pkg/common"
	"mindcanvas/pkg/observability"
)

// MonitorHandler exposes the latest performance snapshot
type MonitorHandler struct {
	monitor *observability.Monitor
}

// NewMonitorHandler creates a new monitor handler
func NewMonitorHandler(monitor *observability.Monitor) *MonitorHandler {
	return &MonitorHandler{monitor: monitor}
}

// GetPerformance handles GET /performance
func (h *MonitorHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.monitor.Snapshot())
}
