package factory

import (
	"time"

	"github.com/mcoot/cardtable/internal/dependencies/mocks"
	"github.com/mcoot/cardtable/internal/services/sessions"
	"github.com/mcoot/cardtable/internal/storage/memory"
	"github.com/mcoot/cardtable/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDs
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithOptions(sessions.Options{})
}

// NewTestAppWithOptions is NewTestApp with custom session options
func NewTestAppWithOptions(opts sessions.Options) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDs("id")

	app := newWithDependencies(store, mockClock, mockIDs, opts, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
	}
}
