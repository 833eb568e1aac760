package moderation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/emilythestrangee/feedgraph/backend/internal/normalize"
)

// DefaultTriggers are the proper names, and their inflected stems, that gate
// the denylist scan. Matching is by substring on normalized text, so suffixed
// forms ("erdoğan'ın", "tayyibi") are covered by their stem.
var DefaultTriggers = []string{
	"tayyip",
	"tayyib",
	"erdoğan",
	"erdogan",
	"recep",
	"receb",
}

// WordSource supplies the current denylist.
type WordSource interface {
	Words(ctx context.Context) []string
}

// StaticWords is a fixed denylist.
type StaticWords []string

func (w StaticWords) Words(context.Context) []string {
	return normalizeWords(w)
}

type Classifier struct {
	triggers []string
	denylist WordSource
	logger   *slog.Logger
}

func NewClassifier(denylist WordSource, logger *slog.Logger) *Classifier {
	return NewClassifierWithTriggers(denylist, DefaultTriggers, logger)
}

func NewClassifierWithTriggers(denylist WordSource, triggers []string, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		triggers: normalizeWords(triggers),
		denylist: denylist,
		logger:   logger.With("component", "moderation"),
	}
}

// ShouldCensor reports whether content mentions a trigger and also contains a
// denylist word once the triggers themselves are blanked out.
func (c *Classifier) ShouldCensor(ctx context.Context, content string) bool {
	text := normalize.Normalize(content)

	found := false
	for _, trigger := range c.triggers {
		if strings.Contains(text, trigger) {
			found = true
			break
		}
	}
	if !found {
		classifiedCount.WithLabelValues("no_trigger").Inc()
		return false
	}

	// blank triggers so their letters can't complete a denylist word across a boundary
	for _, trigger := range c.triggers {
		text = strings.ReplaceAll(text, trigger, " ")
	}

	for _, word := range c.denylist.Words(ctx) {
		if strings.Contains(text, word) {
			c.logger.Debug("content censored", "word", word)
			classifiedCount.WithLabelValues("censored").Inc()
			return true
		}
	}
	classifiedCount.WithLabelValues("clean").Inc()
	return false
}

// normalizeWords folds words the same way content is folded and drops blanks
// and duplicates. An empty entry would match every text.
func normalizeWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(normalize.Normalize(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
