package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/cardtable/internal/api/response"
	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/services/coordinator"
)

// GameHandler serves read-only game session views
type GameHandler struct {
	coordinator *coordinator.Coordinator
}

// NewGameHandler creates a new game handler
func NewGameHandler(coordinator *coordinator.Coordinator) *GameHandler {
	return &GameHandler{coordinator: coordinator}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.GamesFromModel(h.coordinator.OpenGames()))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := model.SessionID(mux.Vars(r)["id"])

	info, err := h.coordinator.GetGame(r.Context(), sessionID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(info))
}

// History handles GET /api/v1/history
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.coordinator.History(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HistoryFromModel(records))
}
