package cli

import (
	"context"
	"fmt"
)

func (a *App) Favorites(ctx context.Context) error {
	if err := a.favorites.Load(ctx); err != nil {
		return err
	}
	a.printFavorites()
	return nil
}

func (a *App) Unfavorite(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if err := a.favorites.Remove(ctx, id); err != nil {
		a.favorites.ClearError()
		return err
	}
	// Keep the feed view in line with the removal.
	if post, ok := findPost(a.feed.State().Posts, id); ok && post.IsFavorite {
		if err := a.feed.Load(ctx); err != nil {
			a.logger.Warn(ctx, "feed reload failed", "error", err)
		}
	}
	printlnFn(fmt.Sprintf("Post %d removed from favorites", id))
	return nil
}

func (a *App) printFavorites() {
	s := a.favorites.State()
	if len(s.Favorites) == 0 {
		printlnFn("No favorites yet")
		return
	}
	for _, f := range s.Favorites {
		printlnFn(formatPost(f.AsPost()) + "  (" + f.CreatedAt.Local().Format("2006-01-02 15:04") + ")")
	}
}
