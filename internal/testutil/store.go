package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lowaak/treadmill-timer/internal/store"
)

// NewStore opens a migrated store in a temp dir, closed when the test ends
func NewStore(t *testing.T) (*store.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "treadmill-test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := store.ApplyMigrations(ctx, s.DB()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return s, ctx
}
