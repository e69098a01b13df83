package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/cardtable/internal/api/handler"
	"github.com/mcoot/cardtable/internal/api/middleware"
	internalmw "github.com/mcoot/cardtable/internal/middleware"
	"github.com/mcoot/cardtable/internal/realtime"
	"github.com/mcoot/cardtable/internal/services/coordinator"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Coordinator    *coordinator.Coordinator
	Hub            *realtime.Hub
	Dispatcher     *realtime.Dispatcher
	AllowedOrigins []string
}

// NewRouter creates a new router serving the websocket hub and the JSON API
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	connectionHandler := handler.NewConnectionHandler(cfg.Coordinator)
	gameHandler := handler.NewGameHandler(cfg.Coordinator)
	playerHandler := handler.NewPlayerHandler(cfg.Coordinator)
	healthHandler := handler.NewHealthHandler(cfg.Coordinator, cfg.Hub)
	wsHandler := realtime.NewWebSocketHandler(cfg.Hub, cfg.Coordinator, cfg.Dispatcher, cfg.AllowedOrigins, cfg.Logger)
	sseHandler := realtime.NewSSEHandler(cfg.Hub, cfg.Coordinator, cfg.Logger)

	// Create middleware
	connectionMiddleware := middleware.Connection(cfg.Hub)
	loggingMiddleware := internalmw.Logging(cfg.Logger)
	recoveryMiddleware := internalmw.Recovery(cfg.Logger, handler.PanicHandler)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Websocket hub
	r.Handle("/gamehub", wsHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Event stream; the first event names the connection
	api.Handle("/events", sseHandler).Methods(http.MethodGet)

	// Commands on behalf of a live connection
	conns := api.PathPrefix("/connections/{conn}").Subrouter()
	conns.Use(connectionMiddleware)
	conns.HandleFunc("/register", connectionHandler.Register).Methods(http.MethodPost)
	conns.HandleFunc("/games", connectionHandler.ListGames).Methods(http.MethodGet)
	conns.HandleFunc("/games", connectionHandler.CreateGame).Methods(http.MethodPost)
	conns.HandleFunc("/games/{id}/join", connectionHandler.JoinGame).Methods(http.MethodPost)
	conns.HandleFunc("/games/{id}/leave", connectionHandler.LeaveGame).Methods(http.MethodPost)
	conns.HandleFunc("/games/{id}/cards", connectionHandler.PlayCard).Methods(http.MethodPost)

	// Read-only views
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/history", gameHandler.History).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	return r
}
