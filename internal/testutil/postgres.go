// Package testutil starts throwaway infrastructure for integration tests.
package testutil

import (
	"context"
	"log/slog"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/emilythestrangee/feedgraph/backend/internal/database"
)

// Postgres starts a migrated Postgres container and returns its DSN and a
// gorm handle. The test is skipped under -short or when Docker is missing.
func Postgres(t *testing.T) (string, *gorm.DB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("feedgraph"),
		postgres.WithUsername("feedgraph"),
		postgres.WithPassword("feedgraph"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres dsn: %v", err)
	}

	svc, err := database.Open(ctx, dsn, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if err := database.Migrate(svc.GetDB()); err != nil {
		t.Fatalf("migrate postgres: %v", err)
	}
	return dsn, svc.GetDB()
}
