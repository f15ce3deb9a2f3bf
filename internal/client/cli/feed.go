package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/circleup/circleup/internal/client/feed"
	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/common"
)

func (a *App) Feed(ctx context.Context) error {
	if err := a.feed.Load(ctx); err != nil {
		return errors.New(a.feed.State().Error)
	}
	a.printFeed()
	return nil
}

func (a *App) More(ctx context.Context) error {
	fetched, err := a.feed.LoadMore(ctx)
	if err != nil {
		return err
	}
	if !fetched {
		printlnFn(noMoreReason(a.feed.State()))
		return nil
	}
	a.printFeed()
	return nil
}

func (a *App) Search(ctx context.Context, query string) error {
	if err := a.feed.Search(ctx, query); err != nil {
		return err
	}
	a.printFeed()
	return nil
}

func (a *App) ClearSearch(ctx context.Context) error {
	a.feed.ClearSearch()
	a.printFeed()
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.feed.Refresh(ctx); err != nil {
		return errors.New(a.feed.State().Error)
	}
	a.printFeed()
	return nil
}

// Show prints a single post, from the API when online or from the cache.
func (a *App) Show(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	p, err := a.postService.FetchPost(ctx, id)
	if err != nil {
		return err
	}
	printlnFn(formatPost(*p))
	printlnFn(p.Body)
	return nil
}

// Favorite toggles the favorite flag of a post.
func (a *App) Favorite(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	post, ok := findPost(a.feed.State().Posts, id)
	if !ok {
		p, err := a.postService.FetchPost(ctx, id)
		if err != nil {
			return err
		}
		post = *p
	}

	if err := a.feed.ToggleFavorite(ctx, post); err != nil {
		a.feed.ClearError()
		return err
	}

	if p, ok := findPost(a.feed.State().Posts, id); ok {
		post = p
	} else {
		post.IsFavorite = !post.IsFavorite
	}
	if post.IsFavorite {
		printlnFn(fmt.Sprintf("Post %d added to favorites", id))
	} else {
		printlnFn(fmt.Sprintf("Post %d removed from favorites", id))
	}
	return nil
}

func (a *App) Purge(ctx context.Context) error {
	n, err := a.postService.PurgeStaleCache(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Removed %d stale cached posts", n))
	return nil
}

func (a *App) printFeed() {
	s := a.feed.State()
	if s.Offline {
		printlnFn("[offline: showing cached posts]")
	}
	if s.Query != "" {
		printlnFn(fmt.Sprintf("Search %q: %d result(s)", s.Query, len(s.Displayed)))
	}
	if len(s.Displayed) == 0 {
		printlnFn("No posts")
		return
	}
	for _, p := range s.Displayed {
		printlnFn(formatPost(p))
	}
	if s.HasMore && s.Query == "" {
		printlnFn("(type 'more' to load the next page)")
	}
}

func noMoreReason(s feed.State) string {
	switch {
	case s.Offline:
		return "Offline: paging is disabled"
	case s.Query != "":
		return "Clear the search to load more posts"
	case s.Loading:
		return "Already loading"
	default:
		return "No more posts"
	}
}

func formatPost(p models.Post) string {
	star := " "
	if p.IsFavorite {
		star = "*"
	}
	return fmt.Sprintf("%s %4d  %s", star, p.ID, p.Title)
}

func findPost(posts []models.Post, id int) (models.Post, bool) {
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: expected a post id, got %q", common.ErrorValidation, arg)
	}
	return id, nil
}
