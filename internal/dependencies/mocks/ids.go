package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/cardtable/internal/dependencies/ids"
)

// MockIDs returns queued identifiers, then falls back to "<prefix>-<n>"
type MockIDs struct {
	mu     sync.Mutex
	prefix string
	queue  []string
	issued int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a MockIDs whose fallback ids use the given prefix
func NewMockIDs(prefix string) *MockIDs {
	return &MockIDs{prefix: prefix}
}

// NewID returns the next queued id, or a sequential fallback
func (m *MockIDs) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.issued++
	if len(m.queue) > 0 {
		id := m.queue[0]
		m.queue = m.queue[1:]
		return id
	}
	return fmt.Sprintf("%s-%d", m.prefix, m.issued)
}

// Queue adds ids to be returned before the fallback sequence
func (m *MockIDs) Queue(values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, values...)
}

// Issued returns how many ids have been handed out
func (m *MockIDs) Issued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issued
}
