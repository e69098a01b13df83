package sessions

import "github.com/mcoot/cardtable/internal/model"

// Directory lists the sessions currently accepting joins
type Directory struct {
	store *Store
}

// NewDirectory creates a Directory over the store
func NewDirectory(store *Store) *Directory {
	return &Directory{store: store}
}

// ListOpen returns every open session with fewer than MaxPlayers members,
// oldest first. It is recomputed on every call.
func (d *Directory) ListOpen() []model.SessionSummary {
	summaries := []model.SessionSummary{}
	for _, sess := range d.store.snapshot() {
		sess.mu.Lock()
		if sess.stateLocked() == model.SessionStateOpen {
			name := sess.name
			if name == "" {
				name = string(sess.id)
			}
			summaries = append(summaries, model.SessionSummary{ID: sess.id, Name: name})
		}
		sess.mu.Unlock()
	}
	return summaries
}
