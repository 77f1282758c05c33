package testsupport

import (
	"testing"

	"videogen/internal/config"
	"videogen/internal/taskstore"
)

// MustOpenStore opens a taskstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *taskstore.Store {
	t.Helper()

	store, err := taskstore.Open(cfg.Paths.TaskTable)
	if err != nil {
		t.Fatalf("taskstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
