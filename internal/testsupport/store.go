package testsupport

import (
	"context"
	"testing"

	"eventbatch/internal/config"
	"eventbatch/internal/projectdb"
)

// MustOpenProjectStore opens the project file configured in cfg and registers
// cleanup.
func MustOpenProjectStore(t testing.TB, cfg *config.Config) *projectdb.Store {
	t.Helper()

	store, err := projectdb.Open(context.Background(), cfg.Paths.ProjectFile)
	if err != nil {
		t.Fatalf("projectdb.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
