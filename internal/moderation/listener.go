package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Invalidator is anything holding state that a NOTIFY should expire.
type Invalidator interface {
	Invalidate()
}

// ListenForInvalidation blocks until ctx is done, invalidating target every
// time a notification arrives on channel. After a reconnect notifications may
// have been missed, so target is invalidated then as well.
func ListenForInvalidation(ctx context.Context, dsn, channel string, target Invalidator, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "denylist-listener", "channel", channel)

	listener := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("listener event", "event", ev, "err", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(channel); err != nil {
		return fmt.Errorf("listen %s: %w", channel, err)
	}
	logger.Info("listening for denylist changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				logger.Info("listener reconnected, invalidating denylist")
			}
			target.Invalidate()
		case <-time.After(90 * time.Second):
			if err := listener.Ping(); err != nil {
				logger.Warn("listener ping failed", "err", err)
			}
		}
	}
}
