package cache

import (
	"context"
	"time"

	"github.com/circleup/circleup/internal/client/models"
)

// Repository is the cached feed table.
type Repository interface {
	// SavePosts upserts posts tagged with page, replacing rows with the same id.
	SavePosts(ctx context.Context, posts []models.Post, page int, cachedAt time.Time) error

	// GetPage returns up to limit rows starting at offset, ordered by id.
	GetPage(ctx context.Context, limit, offset int) ([]models.CachedPost, error)

	// GetByPage returns up to limit rows saved under page, ordered by id.
	GetByPage(ctx context.Context, page, limit int) ([]models.CachedPost, error)

	// HasPage reports whether any row is saved under page.
	HasPage(ctx context.Context, page int) (bool, error)

	// GetAll returns every cached row ordered by id.
	GetAll(ctx context.Context) ([]models.CachedPost, error)

	// GetByID returns one row or common.ErrorNotFound.
	GetByID(ctx context.Context, id int) (*models.CachedPost, error)

	Exists(ctx context.Context, id int) (bool, error)
	Count(ctx context.Context) (int, error)
	HasData(ctx context.Context) (bool, error)

	// Search matches query case-insensitively against title or body, with
	// the same Unicode folding as models.Post.Matches. An empty query
	// matches every row.
	Search(ctx context.Context, query string) ([]models.CachedPost, error)

	// UpdateFavorite sets the denormalized flag and reports whether a row existed.
	UpdateFavorite(ctx context.Context, id int, isFavorite bool) (bool, error)

	// DeleteOlderThan removes rows cached before cutoff and returns how many went.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	Clear(ctx context.Context) error
}
