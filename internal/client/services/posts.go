package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/circleup/circleup/internal/client/client"
	"github.com/circleup/circleup/internal/client/connectivity"
	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/client/repositories/cache"
	"github.com/circleup/circleup/internal/client/repositories/favorites"
	"github.com/circleup/circleup/internal/common"
	"github.com/circleup/circleup/internal/logging"
)

// PostService reads the feed with cache fallback and manages the favorite
// flag.
//
// Every fetch is a single attempt. When the connectivity check is negative
// or the remote call fails, the same range is served from the cache; only an
// empty cache turns that into ErrNoConnectionNoCache.
type PostService interface {
	FetchPage(ctx context.Context, page, limit int) ([]models.Post, error)
	FetchAll(ctx context.Context) ([]models.Post, error)
	FetchPost(ctx context.Context, id int) (*models.Post, error)

	// ToggleFavorite flips membership in the favorites set and returns the
	// new state. It never calls the remote API. On error the returned flag
	// is still the best known membership: a failed cache update after a
	// successful favorites write reports the new state.
	ToggleFavorite(ctx context.Context, post models.Post) (bool, error)

	// ReconcileCacheWithFavorites rewrites every cached flag that disagrees
	// with the favorites set and returns how many rows changed.
	ReconcileCacheWithFavorites(ctx context.Context) (int, error)

	SearchCache(ctx context.Context, query string) ([]models.Post, error)
	Search(ctx context.Context, query string) ([]models.Post, error)

	HasCachedData(ctx context.Context) (bool, error)
	ClearCache(ctx context.Context) error
	PurgeStaleCache(ctx context.Context) (int64, error)
}

type PostOption func(*postService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PostOption {
	return func(s *postService) { s.now = now }
}

// WithRetention sets how long cached rows survive PurgeStaleCache.
func WithRetention(d time.Duration) PostOption {
	return func(s *postService) {
		if d > 0 {
			s.retention = d
		}
	}
}

type postService struct {
	remote    client.PostSource
	cache     cache.Repository
	favorites favorites.Repository
	checker   connectivity.Checker
	logger    logging.Logger
	now       func() time.Time
	retention time.Duration
}

func NewPostService(remote client.PostSource, cacheRepo cache.Repository, favRepo favorites.Repository,
	checker connectivity.Checker, logger logging.Logger, opts ...PostOption) PostService {
	s := &postService{
		remote:    remote,
		cache:     cacheRepo,
		favorites: favRepo,
		checker:   checker,
		logger:    logger.With("service", "posts"),
		now:       time.Now,
		retention: common.DefaultCacheRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *postService) FetchPage(ctx context.Context, page, limit int) ([]models.Post, error) {
	if page < 1 || limit < 1 {
		return nil, ErrInvalidPage
	}

	if s.checker.IsOnline(ctx) {
		posts, err := s.remote.GetPosts(ctx, page, limit)
		if err == nil {
			merged := s.mergeFavorites(ctx, posts)
			s.store(ctx, merged, page)
			return merged, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Warn(ctx, "remote page fetch failed, using cache", "page", page, "error", err)
	}

	return s.fromCache(ctx, func(ctx context.Context) ([]models.CachedPost, error) {
		return s.cachedPage(ctx, page, limit)
	})
}

// cachedPage returns the rows saved for page. Without such rows it reads by
// position, but only when a full fetch is cached: rows of other pages alone
// do not say where page would start.
func (s *postService) cachedPage(ctx context.Context, page, limit int) ([]models.CachedPost, error) {
	rows, err := s.cache.GetByPage(ctx, page, limit)
	if err != nil || len(rows) > 0 {
		return rows, err
	}
	full, err := s.cache.HasPage(ctx, common.FullFetchPage)
	if err != nil {
		return nil, err
	}
	if !full {
		return []models.CachedPost{}, nil
	}
	return s.cache.GetPage(ctx, limit, (page-1)*limit)
}

func (s *postService) FetchAll(ctx context.Context) ([]models.Post, error) {
	if s.checker.IsOnline(ctx) {
		posts, err := s.remote.GetAllPosts(ctx)
		if err == nil {
			merged := s.mergeFavorites(ctx, posts)
			s.store(ctx, merged, common.FullFetchPage)
			return merged, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Warn(ctx, "remote full fetch failed, using cache", "error", err)
	}

	return s.fromCache(ctx, s.cache.GetAll)
}

func (s *postService) FetchPost(ctx context.Context, id int) (*models.Post, error) {
	if s.checker.IsOnline(ctx) {
		post, err := s.remote.GetPost(ctx, id)
		if err == nil {
			fav, ferr := s.favorites.IsFavorite(ctx, id)
			if ferr != nil {
				s.logger.Warn(ctx, "favorite lookup failed", "id", id, "error", ferr)
			}
			p := post.WithFavorite(fav)
			return &p, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Warn(ctx, "remote post fetch failed, using cache", "id", id, "error", err)
	}

	row, err := s.cache.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "cache read failed", "id", id, "error", err)
		}
		return nil, ErrPostNotAvailableOffline
	}
	posts := s.mergeFavorites(ctx, []models.Post{row.Post})
	return &posts[0], nil
}

func (s *postService) ToggleFavorite(ctx context.Context, post models.Post) (bool, error) {
	current, err := s.favorites.IsFavorite(ctx, post.ID)
	if err != nil {
		return post.IsFavorite, fmt.Errorf("%w: %w", ErrToggleFavorite, err)
	}

	next := !current
	if current {
		err = s.favorites.Remove(ctx, post.ID)
	} else {
		err = s.favorites.Add(ctx, models.FavoriteFromPost(post, s.now()))
	}
	if err != nil {
		return current, fmt.Errorf("%w: %w", ErrToggleFavorite, err)
	}

	// The favorites write stands even if this fails; the next reconcile
	// repairs the cached flag.
	if _, err := s.cache.UpdateFavorite(ctx, post.ID, next); err != nil {
		s.logger.Warn(ctx, "cached flag update failed", "id", post.ID, "error", err)
		return next, fmt.Errorf("%w: %w", ErrToggleFavorite, err)
	}
	return next, nil
}

func (s *postService) ReconcileCacheWithFavorites(ctx context.Context) (int, error) {
	ids, err := s.favorites.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load favorites: %w", err)
	}
	rows, err := s.cache.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load cache: %w", err)
	}

	changed := 0
	for _, row := range rows {
		_, want := ids[row.ID]
		if row.IsFavorite == want {
			continue
		}
		if _, err := s.cache.UpdateFavorite(ctx, row.ID, want); err != nil {
			return changed, fmt.Errorf("failed to update cached post %d: %w", row.ID, err)
		}
		changed++
	}
	if changed > 0 {
		s.logger.Debug(ctx, "cache reconciled with favorites", "changed", changed)
	}
	return changed, nil
}

func (s *postService) SearchCache(ctx context.Context, query string) ([]models.Post, error) {
	rows, err := s.cache.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("cache search failed: %w", err)
	}
	return s.mergeFavorites(ctx, unwrap(rows)), nil
}

func (s *postService) Search(ctx context.Context, query string) ([]models.Post, error) {
	if !s.checker.IsOnline(ctx) {
		return s.SearchCache(ctx, query)
	}
	posts, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterPosts(posts, query), nil
}

func (s *postService) HasCachedData(ctx context.Context) (bool, error) {
	return s.cache.HasData(ctx)
}

func (s *postService) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

func (s *postService) PurgeStaleCache(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.cache.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	if n > 0 {
		s.logger.Info(ctx, "stale cache purged", "rows", n, "cutoff", cutoff)
	}
	return n, nil
}

// FilterPosts keeps posts whose title or body contains query, ignoring case.
// A blank query keeps everything.
func FilterPosts(posts []models.Post, query string) []models.Post {
	if strings.TrimSpace(query) == "" {
		return posts
	}
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.Matches(query) {
			out = append(out, p)
		}
	}
	return out
}

func (s *postService) store(ctx context.Context, posts []models.Post, page int) {
	if err := s.cache.SavePosts(ctx, posts, page, s.now()); err != nil {
		s.logger.Warn(ctx, "failed to cache posts", "page", page, "count", len(posts), "error", err)
	}
}

func (s *postService) fromCache(ctx context.Context, read func(context.Context) ([]models.CachedPost, error)) ([]models.Post, error) {
	has, err := s.cache.HasData(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Error(ctx, "cache check failed", "error", err)
		return nil, ErrNoConnectionNoCache
	}
	if !has {
		return nil, ErrNoConnectionNoCache
	}

	rows, err := read(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Error(ctx, "cache read failed", "error", err)
		return nil, ErrNoConnectionNoCache
	}
	return s.mergeFavorites(ctx, unwrap(rows)), nil
}

// mergeFavorites sets IsFavorite from the favorites set. If the set cannot be
// read the posts keep whatever flag they carry.
func (s *postService) mergeFavorites(ctx context.Context, posts []models.Post) []models.Post {
	ids, err := s.favorites.IDs(ctx)
	if err != nil {
		s.logger.Warn(ctx, "favorites unavailable, flags not merged", "error", err)
		return posts
	}
	return models.MergeFavorites(posts, ids)
}

func unwrap(rows []models.CachedPost) []models.Post {
	posts := make([]models.Post, len(rows))
	for i, r := range rows {
		posts[i] = r.Post
	}
	return posts
}
