package database

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

// NewTestDB returns a migrated SQLite database living in the test's temp dir.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	svc, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "test.sqlite"), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if err := Migrate(svc.GetDB()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return svc.GetDB()
}
