package storage

import (
	"context"

	"github.com/mcoot/cardtable/internal/model"
)

// Storage persists player profiles and session history.
// Live session membership never goes through storage; it stays in the coordinator.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// Session record operations
	SaveSessionRecord(ctx context.Context, record *model.SessionRecord) error
	GetSessionRecord(ctx context.Context, id model.SessionID) (*model.SessionRecord, error)
	ListSessionRecords(ctx context.Context) ([]*model.SessionRecord, error)
}
