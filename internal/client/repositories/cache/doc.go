// Package cache persists the local copy of remotely fetched feed pages.
//
// Rows live in the cached_posts table and are keyed by post id: saving a page
// that re-fetches an id overwrites the row in place, so there is never more
// than one row per post and no history. Every read is ordered by id
// ascending. The isFavorite column is a denormalized copy of membership in
// the favorites table and is kept in line by the services layer.
//
// Typical usage:
//
//	repo := cache.NewSQLiteRepository(db)
//	_ = repo.SavePosts(ctx, posts, page, time.Now())
//	rows, _ := repo.GetPage(ctx, limit, (page-1)*limit)
//	hits, _ := repo.Search(ctx, "golang")
package cache
