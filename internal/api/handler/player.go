package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/cardtable/internal/api/response"
	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/services/coordinator"
)

// PlayerHandler serves stored player profiles
type PlayerHandler struct {
	coordinator *coordinator.Coordinator
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(coordinator *coordinator.Coordinator) *PlayerHandler {
	return &PlayerHandler{coordinator: coordinator}
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["id"])

	player, err := h.coordinator.GetPlayer(r.Context(), playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}
