package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/emilythestrangee/feedgraph/backend/internal/cachestore"
	"github.com/emilythestrangee/feedgraph/backend/internal/config"
	"github.com/emilythestrangee/feedgraph/backend/internal/database"
	"github.com/emilythestrangee/feedgraph/backend/internal/handlers"
	"github.com/emilythestrangee/feedgraph/backend/internal/moderation"
	"github.com/emilythestrangee/feedgraph/backend/internal/server"
	"github.com/emilythestrangee/feedgraph/backend/internal/store"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:  "feedgraph",
		Usage: "feed API: threads, quote-reposts, polls and moderation",
		Commands: []*cli.Command{
			serveCmd,
			migrateCmd,
		},
	}
	return app.Run(args)
}

// newLogger accepts debug, info, warn or error.
func newLogger(name string) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "create or update the database schema",
	Action: func(cctx *cli.Context) error {
		cfg := config.Load()
		logger := newLogger(cfg.LogLevel)

		db, err := database.Open(cctx.Context, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db.GetDB()); err != nil {
			return err
		}
		logger.Info("schema up to date")
		return nil
	},
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the HTTP API",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "auto-migrate",
			Usage:   "migrate the schema before serving",
			Value:   true,
			EnvVars: []string{"AUTO_MIGRATE"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := config.Load()
		logger := newLogger(cfg.LogLevel)
		if err := cfg.Validate(); err != nil {
			return err
		}

		db, err := database.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if cctx.Bool("auto-migrate") {
			if err := database.Migrate(db.GetDB()); err != nil {
				return err
			}
		}

		s := store.New(db.GetDB())
		denylist := moderation.NewDenylist(s.ListSensitiveWords, cfg.DenylistTTL, logger)
		if cfg.ListenDenylist && db.GetDB().Dialector.Name() == "postgres" {
			go func() {
				err := moderation.ListenForInvalidation(ctx, cfg.DatabaseURL, database.DenylistChannel, denylist, logger)
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("denylist listener stopped", "err", err)
				}
			}()
		}

		var cache cachestore.CacheStore
		if strings.TrimSpace(cfg.RedisURL) != "" {
			logger.Info("using redis for the quote cache")
			redisCache, err := cachestore.NewRedisCacheStore(ctx, cfg.RedisURL, cfg.QuoteCacheTTL)
			if err != nil {
				return err
			}
			defer redisCache.Close()
			cache = redisCache
		} else {
			cache = cachestore.NewMemCacheStore(50_000, cfg.QuoteCacheTTL)
		}

		deps := server.NewDeps(db.GetDB(), cfg, denylist, cache, logger)
		httpServer := server.New(cfg, db, handlers.NewHandler(deps), logger).HTTPServer()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server starting", "addr", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}
