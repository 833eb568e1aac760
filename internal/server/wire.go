package server

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/emilythestrangee/feedgraph/backend/internal/cachestore"
	"github.com/emilythestrangee/feedgraph/backend/internal/config"
	"github.com/emilythestrangee/feedgraph/backend/internal/feed"
	"github.com/emilythestrangee/feedgraph/backend/internal/handlers"
	"github.com/emilythestrangee/feedgraph/backend/internal/moderation"
	"github.com/emilythestrangee/feedgraph/backend/internal/poll"
	"github.com/emilythestrangee/feedgraph/backend/internal/posting"
	"github.com/emilythestrangee/feedgraph/backend/internal/quote"
	"github.com/emilythestrangee/feedgraph/backend/internal/store"
	"github.com/emilythestrangee/feedgraph/backend/internal/thread"
)

// NewDeps builds the services behind the handlers. cache may be nil.
func NewDeps(db *gorm.DB, cfg config.Config, words moderation.WordSource, cache cachestore.CacheStore, logger *slog.Logger) handlers.Deps {
	s := store.New(db)
	threads := thread.NewResolver(s, cfg.ThreadMaxDepth, logger)
	quotes := quote.NewReconciler(s, cache, cfg.QuoteWindow, logger)
	polls := poll.NewCoordinator(db, words, logger)

	return handlers.Deps{
		Store:     s,
		Threads:   threads,
		Feed:      feed.NewAssembler(s, threads, quotes, polls, logger),
		Publisher: posting.NewPublisher(db, moderation.NewClassifier(words, logger), threads, quotes, logger),
		Polls:     polls,
		Logger:    logger,
	}
}
