package testutil

import (
	"testing"

	"github.com/nhle/listmailer/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestListStore returns a ListStore backed by a fresh in-memory store,
// together with that store so tests can inspect the kv table.
func NewTestListStore(t *testing.T) (*store.ListStore, *store.SQLiteStore) {
	t.Helper()

	s := NewTestStore(t)
	return store.NewListStore(s), s
}
