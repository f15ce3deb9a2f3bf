package services

import (
	"context"
	"fmt"
	"time"

	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/client/repositories/cache"
	"github.com/circleup/circleup/internal/client/repositories/favorites"
	"github.com/circleup/circleup/internal/logging"
)

// FavoritesService backs the favorites screen. Favorites are local only.
type FavoritesService interface {
	List(ctx context.Context) ([]models.FavoritePost, error)
	Add(ctx context.Context, post models.Post) error
	// Remove drops id from the favorites set and clears the cached flag.
	Remove(ctx context.Context, id int) error
	IsFavorite(ctx context.Context, id int) bool
	Count(ctx context.Context) (int, error)
}

type favoritesService struct {
	favorites favorites.Repository
	cache     cache.Repository
	logger    logging.Logger
	now       func() time.Time
}

func NewFavoritesService(favRepo favorites.Repository, cacheRepo cache.Repository, logger logging.Logger) FavoritesService {
	return &favoritesService{
		favorites: favRepo,
		cache:     cacheRepo,
		logger:    logger.With("service", "favorites"),
		now:       time.Now,
	}
}

func (s *favoritesService) List(ctx context.Context) ([]models.FavoritePost, error) {
	list, err := s.favorites.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	return list, nil
}

func (s *favoritesService) Add(ctx context.Context, post models.Post) error {
	if err := s.favorites.Add(ctx, models.FavoriteFromPost(post, s.now())); err != nil {
		return fmt.Errorf("failed to add to favorites: %w", err)
	}
	s.syncFlag(ctx, post.ID, true)
	return nil
}

func (s *favoritesService) Remove(ctx context.Context, id int) error {
	if err := s.favorites.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to remove from favorites: %w", err)
	}
	s.syncFlag(ctx, id, false)
	return nil
}

// IsFavorite reports false when the store cannot be read.
func (s *favoritesService) IsFavorite(ctx context.Context, id int) bool {
	ok, err := s.favorites.IsFavorite(ctx, id)
	if err != nil {
		s.logger.Warn(ctx, "favorite lookup failed", "id", id, "error", err)
		return false
	}
	return ok
}

func (s *favoritesService) Count(ctx context.Context) (int, error) {
	return s.favorites.Count(ctx)
}

func (s *favoritesService) syncFlag(ctx context.Context, id int, fav bool) {
	if _, err := s.cache.UpdateFavorite(ctx, id, fav); err != nil {
		s.logger.Warn(ctx, "cached flag update failed", "id", id, "error", err)
	}
}
