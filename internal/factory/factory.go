package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/cardtable/internal/dependencies/clock"
	"github.com/mcoot/cardtable/internal/dependencies/ids"
	"github.com/mcoot/cardtable/internal/realtime"
	"github.com/mcoot/cardtable/internal/services/broadcast"
	"github.com/mcoot/cardtable/internal/services/coordinator"
	"github.com/mcoot/cardtable/internal/services/registry"
	"github.com/mcoot/cardtable/internal/services/sessions"
	"github.com/mcoot/cardtable/internal/storage"
	"github.com/mcoot/cardtable/internal/storage/memory"
	redisstorage "github.com/mcoot/cardtable/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	IDs   ids.Generator

	// Services
	Registry    *registry.Registry
	Hub         *realtime.Hub
	Broadcaster *broadcast.Broadcaster
	Sessions    *sessions.Store
	Directory   *sessions.Directory
	Coordinator *coordinator.Coordinator
	Dispatcher  *realtime.Dispatcher
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SessionGracePeriod is how long an empty session lives (optional)
	SessionGracePeriod time.Duration
	// SingleSessionPerPlayer limits each player to one session at a time
	SingleSessionPerPlayer bool
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	opts := sessions.Options{
		GracePeriod:            cfg.SessionGracePeriod,
		SingleSessionPerPlayer: cfg.SingleSessionPerPlayer,
	}

	return newWithDependencies(store, clock.New(), ids.New(), opts, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	idGen ids.Generator,
	opts sessions.Options,
	logger *slog.Logger,
) *App {
	hub := realtime.NewHub(idGen, clk, logger)
	broadcaster := broadcast.New(hub, logger)
	reg := registry.New(idGen)
	sessionStore := sessions.NewStore(broadcaster, clk, idGen, opts, logger)
	directory := sessions.NewDirectory(sessionStore)
	coord := coordinator.New(reg, sessionStore, directory, broadcaster, store, clk, logger)
	dispatcher := realtime.NewDispatcher(coord, broadcaster, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		IDs:         idGen,
		Registry:    reg,
		Hub:         hub,
		Broadcaster: broadcaster,
		Sessions:    sessionStore,
		Directory:   directory,
		Coordinator: coord,
		Dispatcher:  dispatcher,
	}
}
