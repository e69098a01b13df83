package handler

import (
	"net/http"

	"github.com/mcoot/cardtable/internal/api/response"
	"github.com/mcoot/cardtable/internal/realtime"
	"github.com/mcoot/cardtable/internal/services/coordinator"
)

// HealthHandler reports liveness and current load
type HealthHandler struct {
	coordinator *coordinator.Coordinator
	hub         *realtime.Hub
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(coordinator *coordinator.Coordinator, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{coordinator: coordinator, hub: hub}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthFromStats(h.hub.ClientCount(), h.coordinator.Stats()))
}
