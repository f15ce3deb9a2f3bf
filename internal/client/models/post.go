// Package models defines the client-side data models shared by the
// repositories, the remote client and the services.
package models

import (
	"strings"
	"time"
)

// Post is a feed item as the API returns it. IsFavorite is not part of the
// wire format; it is derived from the local favorites set.
type Post struct {
	ID         int    `json:"id"`
	UserID     int    `json:"userId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	IsFavorite bool   `json:"-"`
}

// WithFavorite returns a copy of p with IsFavorite set.
func (p Post) WithFavorite(fav bool) Post {
	p.IsFavorite = fav
	return p
}

// Matches reports whether query occurs in the title or body, ignoring case.
// Folding is Unicode-aware. A blank query matches every post.
func (p Post) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Body), q)
}

// CachedPost is a Post persisted in the local feed cache.
type CachedPost struct {
	Post

	// CachedAt is when the row was last written from a remote fetch.
	CachedAt time.Time

	// Page is the page number the row was fetched under; 0 marks a full fetch.
	Page int
}

// FavoritePost is a row of the favorites set. Its presence is what makes a
// post a favorite.
type FavoritePost struct {
	ID        int
	UserID    int
	Title     string
	Body      string
	CreatedAt time.Time
}

// AsPost converts the favorite back into a feed post flagged as favorite.
func (f FavoritePost) AsPost() Post {
	return Post{ID: f.ID, UserID: f.UserID, Title: f.Title, Body: f.Body, IsFavorite: true}
}

// FavoriteFromPost snapshots p into a favorites row created at now.
func FavoriteFromPost(p Post, now time.Time) FavoritePost {
	return FavoritePost{ID: p.ID, UserID: p.UserID, Title: p.Title, Body: p.Body, CreatedAt: now}
}

// MergeFavorites sets IsFavorite on every post according to membership in ids.
// The input slice is not modified.
func MergeFavorites(posts []Post, ids map[int]struct{}) []Post {
	out := make([]Post, len(posts))
	for i, p := range posts {
		_, fav := ids[p.ID]
		out[i] = p.WithFavorite(fav)
	}
	return out
}
