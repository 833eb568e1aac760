package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health(ctx context.Context) map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to Postgres (a DSN or postgres:// URL) or, for local runs and
// tests, to SQLite when the URL starts with "sqlite://".
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		dial      gorm.Dialector
		openConns = 100
		isSqlite  bool
	)
	if strings.HasPrefix(databaseURL, "sqlite://") {
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if !strings.Contains(path, ":memory:") {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dial = sqlite.Open(path)
		// sqlite allows a single writer; one connection keeps transactions serialized
		openConns = 1
		isSqlite = true
	} else {
		sqlDB, err := sql.Open("pgx", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		dial = postgres.New(postgres.Config{Conn: sqlDB})
	}

	gormLogger := slogGorm.New(
		slogGorm.WithLogger(logger),
		slogGorm.WithSlowThreshold(time.Second),
	)

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,

		// users live in the auth service, so author ids are not enforced here
		DisableForeignKeyConstraintWhenMigrating: true,

		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(openConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if isSqlite {
		if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
			return nil, fmt.Errorf("set sqlite journal mode: %w", err)
		}
		if err := db.Exec("PRAGMA busy_timeout=5000;").Error; err != nil {
			return nil, fmt.Errorf("set sqlite busy timeout: %w", err)
		}
	}

	logger.Info("database connected", "dialect", db.Dialector.Name())
	return &service{db: db, logger: logger}, nil
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health checks the health of the database connection by pinging the database.
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.logger.Info("database disconnected")
	return sqlDB.Close()
}
