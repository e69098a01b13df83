package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players  map[model.PlayerID]model.Player
	sessions map[model.SessionID]model.SessionRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:  make(map[model.PlayerID]model.Player),
		sessions: make(map[model.SessionID]model.SessionRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = *player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return &player, nil
}

// Session record operations

func (s *Storage) SaveSessionRecord(ctx context.Context, record *model.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *record
	if record.ClosedAt != nil {
		closedAt := *record.ClosedAt
		stored.ClosedAt = &closedAt
	}
	s.sessions[record.ID] = stored
	return nil
}

func (s *Storage) GetSessionRecord(ctx context.Context, id model.SessionID) (*model.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionRecordNotFound
	}
	return &record, nil
}

// ListSessionRecords returns all records, oldest first
func (s *Storage) ListSessionRecords(ctx context.Context) ([]*model.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*model.SessionRecord, 0, len(s.sessions))
	for _, r := range s.sessions {
		record := r
		records = append(records, &record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}
