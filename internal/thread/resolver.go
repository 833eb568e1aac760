// Package thread rebuilds conversation structure from the parent and
// thread-root pointers stored on each post.
//
// Neither pointer is trusted: parent links are walked with a depth bound and a
// visited set, and a missing parent simply ends the walk.
package thread

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/emilythestrangee/feedgraph/backend/internal/models"
	"github.com/emilythestrangee/feedgraph/backend/internal/store"
)

const DefaultMaxDepth = 50

var (
	// ErrCycleDetected is returned together with the post at which the parent
	// links loop back on themselves; callers treat that post as the root.
	ErrCycleDetected = errors.New("cycle detected in parent links")

	ErrMaxDepthExceeded = errors.New("parent chain exceeds max depth")
)

type PostStore interface {
	GetPost(ctx context.Context, id int) (models.Post, error)
	ListThreadPosts(ctx context.Context, rootID int) ([]models.Post, error)
	CountChainBefore(ctx context.Context, root models.Post, before time.Time) (int, error)
}

// Thread is a root with its author's continuation chain (root first) and
// the replies other users attached to it.
type Thread struct {
	Root     models.Post   `json:"root"`
	Chain    []models.Post `json:"chain"`
	Branches []models.Post `json:"branches"`
}

// Position locates a post inside its thread.
type Position struct {
	RootID           int  `json:"thread_root_id"`
	IsRoot           bool `json:"is_thread_root"`
	MiddlePostsCount int  `json:"middle_posts_count"`
}

type Resolver struct {
	store    PostStore
	maxDepth int
	logger   *slog.Logger
}

func NewResolver(store PostStore, maxDepth int, logger *slog.Logger) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:    store,
		maxDepth: maxDepth,
		logger:   logger.With("component", "thread"),
	}
}

// FindThreadRoot loads postID and follows its parent links to the top.
func (r *Resolver) FindThreadRoot(ctx context.Context, postID int) (models.Post, error) {
	post, err := r.store.GetPost(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}
	return r.RootOf(ctx, post)
}

// RootOf follows parent links from an already loaded post. A post without a
// parent, or whose parent no longer exists, is a root.
func (r *Resolver) RootOf(ctx context.Context, post models.Post) (models.Post, error) {
	visited := map[int]models.Post{post.ID: post}
	current := post

	for hops := 0; current.ParentPostID != nil; hops++ {
		if hops >= r.maxDepth {
			depthExceededCount.Inc()
			return models.Post{}, fmt.Errorf("resolve root of post %d: %w", post.ID, ErrMaxDepthExceeded)
		}

		parentID := *current.ParentPostID
		if entry, seen := visited[parentID]; seen {
			cycleCount.Inc()
			r.logger.Warn("parent links form a cycle", "post", post.ID, "entry", entry.ID)
			return entry, fmt.Errorf("resolve root of post %d: %w", post.ID, ErrCycleDetected)
		}

		parent, err := r.store.GetPost(ctx, parentID)
		if errors.Is(err, store.ErrNotFound) {
			r.logger.Debug("parent missing, stopping walk", "post", current.ID, "parent", parentID)
			return current, nil
		}
		if err != nil {
			return models.Post{}, fmt.Errorf("resolve root of post %d: %w", post.ID, err)
		}

		visited[parent.ID] = parent
		current = parent
	}
	return current, nil
}

// BuildThread splits the posts under rootID into the root author's chain and
// third-party branches.
func (r *Resolver) BuildThread(ctx context.Context, rootID int) (Thread, error) {
	root, err := r.store.GetPost(ctx, rootID)
	if err != nil {
		return Thread{}, err
	}

	posts, err := r.store.ListThreadPosts(ctx, root.ID)
	if err != nil {
		return Thread{}, fmt.Errorf("build thread %d: %w", root.ID, err)
	}

	t := Thread{
		Root:     root,
		Chain:    []models.Post{root},
		Branches: []models.Post{},
	}
	for _, p := range posts {
		if p.ID == root.ID {
			continue
		}
		if p.AuthorID == root.AuthorID {
			t.Chain = append(t.Chain, p)
		} else {
			t.Branches = append(t.Branches, p)
		}
	}
	slices.SortStableFunc(t.Chain, byCreation)
	slices.SortStableFunc(t.Branches, byCreation)
	return t, nil
}

// MiddlePostsCount is the number of chain posts created strictly before reply.
func (r *Resolver) MiddlePostsCount(ctx context.Context, root, reply models.Post) (int, error) {
	n, err := r.store.CountChainBefore(ctx, root, reply.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("count middle posts: %w", err)
	}
	return n, nil
}

// Locate resolves the root of post and its position in the chain. On a
// cycle the entry point is used as the root and ErrCycleDetected is still
// returned so the caller can log it.
func (r *Resolver) Locate(ctx context.Context, post models.Post) (Position, error) {
	root, rootErr := r.RootOf(ctx, post)
	if rootErr != nil && !errors.Is(rootErr, ErrCycleDetected) {
		return Position{RootID: post.ID, IsRoot: true}, rootErr
	}

	pos := Position{RootID: root.ID, IsRoot: root.ID == post.ID}
	if pos.IsRoot {
		return pos, rootErr
	}

	n, err := r.MiddlePostsCount(ctx, root, post)
	if err != nil {
		return pos, err
	}
	pos.MiddlePostsCount = n
	return pos, rootErr
}

func byCreation(a, b models.Post) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
