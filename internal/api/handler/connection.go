package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/cardtable/internal/api/middleware"
	"github.com/mcoot/cardtable/internal/api/request"
	"github.com/mcoot/cardtable/internal/api/response"
	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/services/coordinator"
)

// ConnectionHandler runs commands on behalf of a live connection.
// Results reach the connection's event stream as well as the HTTP response.
type ConnectionHandler struct {
	coordinator *coordinator.Coordinator
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(coordinator *coordinator.Coordinator) *ConnectionHandler {
	return &ConnectionHandler{coordinator: coordinator}
}

// Register handles POST /api/v1/connections/{conn}/register
func (h *ConnectionHandler) Register(w http.ResponseWriter, r *http.Request) {
	conn := middleware.MustGetConnection(r.Context())

	var req request.RegisterRequest
	if err := decodeOptional(r, &req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	player, err := h.coordinator.RegisterPlayer(r.Context(), conn, model.PlayerID(req.PlayerID), req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Registered{
		ConnectionID: string(conn),
		PlayerID:     string(player.ID),
		DisplayName:  player.DisplayName,
	})
}

// ListGames handles GET /api/v1/connections/{conn}/games
func (h *ConnectionHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	conn := middleware.MustGetConnection(r.Context())
	summaries := h.coordinator.ListAvailableGames(conn)
	response.JSON(w, http.StatusOK, response.GamesFromModel(summaries))
}

// CreateGame handles POST /api/v1/connections/{conn}/games
func (h *ConnectionHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	conn := middleware.MustGetConnection(r.Context())

	var req request.CreateGameRequest
	if err := decodeOptional(r, &req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	info := h.coordinator.CreateGame(r.Context(), conn, req.Name)

	response.JSON(w, http.StatusCreated, response.GameCreated{
		SessionID: string(info.ID),
		Name:      info.Name,
	})
}

// JoinGame handles POST /api/v1/connections/{conn}/games/{id}/join
func (h *ConnectionHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	conn := middleware.MustGetConnection(r.Context())
	sessionID := model.SessionID(mux.Vars(r)["id"])

	if err := h.coordinator.JoinGame(conn, sessionID); err != nil {
		WriteError(w, err)
		return
	}

	info, err := h.coordinator.GetGame(r.Context(), sessionID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(info))
}

// LeaveGame handles POST /api/v1/connections/{conn}/games/{id}/leave
func (h *ConnectionHandler) LeaveGame(w http.ResponseWriter, r *http.Request) {
	conn := middleware.MustGetConnection(r.Context())
	sessionID := model.SessionID(mux.Vars(r)["id"])

	if err := h.coordinator.LeaveGame(conn, sessionID); err != nil {
		WriteError(w, err)
		return
	}

	info, err := h.coordinator.GetGame(r.Context(), sessionID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(info))
}

// PlayCard handles POST /api/v1/connections/{conn}/games/{id}/cards
func (h *ConnectionHandler) PlayCard(w http.ResponseWriter, r *http.Request) {
	conn := middleware.MustGetConnection(r.Context())
	sessionID := model.SessionID(mux.Vars(r)["id"])

	var req request.PlayCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Card) == "" {
		WriteError(w, NewInvalidRequestError("card is required"))
		return
	}

	if err := h.coordinator.PlayCard(conn, sessionID, req.Card); err != nil {
		WriteError(w, err)
		return
	}

	response.Accepted(w, response.CardPlayed{
		SessionID: string(sessionID),
		Card:      req.Card,
	})
}

// decodeOptional decodes a JSON body, treating an empty body as zero values
func decodeOptional(r *http.Request, into any) error {
	err := json.NewDecoder(r.Body).Decode(into)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
