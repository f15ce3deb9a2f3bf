// Package favorites persists the favorites set: the authoritative record of
// which posts the user has favorited.
package favorites

import (
	"context"

	"github.com/circleup/circleup/internal/client/models"
)

type Repository interface {
	// Add inserts f, replacing any previous row with the same id.
	Add(ctx context.Context, f models.FavoritePost) error
	Remove(ctx context.Context, id int) error
	IsFavorite(ctx context.Context, id int) (bool, error)
	// List returns favorites newest first.
	List(ctx context.Context) ([]models.FavoritePost, error)
	IDs(ctx context.Context) (map[int]struct{}, error)
	Count(ctx context.Context) (int, error)
}
