package services

import (
	"context"
	"testing"
	"time"

	"github.com/circleup/circleup/internal/client/client"
	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/client/repositories/cache"
	"github.com/circleup/circleup/internal/common"
	"github.com/circleup/circleup/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPage_OnlineReturnsRemotePageWithFavorites(t *testing.T) {
	ctx := context.Background()
	svc, repos := newPostService(t, newFakeRemote(30), newSwitch(true))

	require.NoError(t, repos.Favorites.Add(ctx, models.FavoritePost{ID: 12, Title: "t"}))
	require.NoError(t, repos.Favorites.Add(ctx, models.FavoritePost{ID: 25, Title: "t"}))

	got, err := svc.FetchPage(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, postIDs(got))
	assert.Equal(t, []int{12}, favoriteIDs(got))
}

func TestFetchPage_CachesPageForOfflineReads(t *testing.T) {
	ctx := context.Background()
	checker := newSwitch(true)
	svc, repos := newPostService(t, newFakeRemote(30), checker)

	online, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	_, err = svc.FetchPage(ctx, 2, 10)
	require.NoError(t, err)

	rows, err := repos.Cache.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 20)
	assert.Equal(t, 1, rows[0].Page)
	assert.Equal(t, 2, rows[19].Page)

	checker.set(false)
	offline, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, postIDs(online), postIDs(offline))

	offline2, err := svc.FetchPage(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, postIDs(offline2))
}

func TestFetchPage_RemoteErrorFallsBackToCache(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(30)
	svc, _ := newPostService(t, remote, newSwitch(true))

	_, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)

	remote.fail(client.ErrUnavailable)
	got, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestFetchPage_OfflineEmptyCache(t *testing.T) {
	remote := newFakeRemote(30)
	svc, _ := newPostService(t, remote, newSwitch(false))

	_, err := svc.FetchPage(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrNoConnectionNoCache)
	assert.Equal(t, "no internet connection and no cached data available", err.Error())
	assert.Zero(t, remote.calls, "offline fetch must not call the remote")
}

func TestFetchPage_RemoteErrorAndEmptyCache(t *testing.T) {
	remote := newFakeRemote(30)
	remote.fail(errBoom)
	svc, _ := newPostService(t, remote, newSwitch(true))

	_, err := svc.FetchPage(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrNoConnectionNoCache)
	assert.Equal(t, 1, remote.calls, "single attempt, no retries")
}

func TestFetchPage_OfflineReturnsFiveCachedRows(t *testing.T) {
	ctx := context.Background()
	svc, repos := newPostService(t, newFakeRemote(0), newSwitch(false))

	require.NoError(t, repos.Cache.SavePosts(ctx, newFakeRemote(5).posts, 1, time.Now()))

	got, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, postIDs(got))
}

func TestFetchPage_OfflineBeyondCachedRange(t *testing.T) {
	ctx := context.Background()
	svc, repos := newPostService(t, newFakeRemote(0), newSwitch(false))
	require.NoError(t, repos.Cache.SavePosts(ctx, newFakeRemote(5).posts, 1, time.Now()))

	got, err := svc.FetchPage(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchPage_OfflineServesPageFetchedWithoutEarlierPages(t *testing.T) {
	ctx := context.Background()
	checker := newSwitch(true)
	svc, _ := newPostService(t, newFakeRemote(30), checker)

	online, err := svc.FetchPage(ctx, 2, 10)
	require.NoError(t, err)
	require.Equal(t, []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, postIDs(online))

	checker.set(false)
	offline, err := svc.FetchPage(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, postIDs(online), postIDs(offline))

	first, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, first, "page 1 was never fetched")
}

func TestFetchPage_OfflineAfterPurgeKeepsPageBoundaries(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	checker := newSwitch(true)
	svc, _ := newPostService(t, newFakeRemote(30), checker, WithClock(clock.Now))

	_, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	clock.Advance(20 * time.Hour)
	second, err := svc.FetchPage(ctx, 2, 10)
	require.NoError(t, err)

	clock.Advance(5 * time.Hour)
	n, err := svc.PurgeStaleCache(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(10), n)

	checker.set(false)
	first, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, first, "purged page must not be filled with another page's posts")

	got, err := svc.FetchPage(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, postIDs(second), postIDs(got))
}

func TestFetchPage_OfflineFullFetchReadsByPosition(t *testing.T) {
	ctx := context.Background()
	checker := newSwitch(true)
	svc, _ := newPostService(t, newFakeRemote(25), checker)

	_, err := svc.FetchAll(ctx)
	require.NoError(t, err)
	_, err = svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)

	checker.set(false)
	got, err := svc.FetchPage(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, postIDs(got))

	got, err = svc.FetchPage(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{21, 22, 23, 24, 25}, postIDs(got))
}

func TestFetchPage_ExpiredContextIsNotReportedAsNoCache(t *testing.T) {
	svc, repos := newPostService(t, newFakeRemote(0), newSwitch(false))
	require.NoError(t, repos.Cache.SavePosts(context.Background(), newFakeRemote(3).posts, 1, time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.FetchPage(ctx, 1, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNoConnectionNoCache)

	_, err = svc.FetchAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchPage_OfflineFlagsFollowFavoritesSet(t *testing.T) {
	ctx := context.Background()
	svc, repos := newPostService(t, newFakeRemote(0), newSwitch(false))

	// Cached flag says favorite, favorites set disagrees.
	stale := newFakeRemote(3).posts
	stale[0].IsFavorite = true
	require.NoError(t, repos.Cache.SavePosts(ctx, stale, 1, time.Now()))
	require.NoError(t, repos.Favorites.Add(ctx, models.FavoritePost{ID: 3}))

	got, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, favoriteIDs(got))
}

func TestFetchPage_InvalidArguments(t *testing.T) {
	svc, _ := newPostService(t, newFakeRemote(1), newSwitch(true))

	_, err := svc.FetchPage(context.Background(), 0, 10)
	require.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.FetchPage(context.Background(), 1, 0)
	require.ErrorIs(t, err, ErrInvalidPage)
}

func TestFetchPage_CancelledContextIsNotMaskedByCache(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(10)
	svc, _ := newPostService(t, remote, newSwitch(true))
	_, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)

	remote.fail(context.Canceled)
	_, err = svc.FetchPage(ctx, 1, 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchAll_OnlineTagsFullFetch(t *testing.T) {
	ctx := context.Background()
	checker := newSwitch(true)
	svc, repos := newPostService(t, newFakeRemote(15), checker)

	got, err := svc.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 15)

	rows, err := repos.Cache.GetAll(ctx)
	require.NoError(t, err)
	for _, r := range rows {
		assert.Equal(t, common.FullFetchPage, r.Page)
	}

	checker.set(false)
	cached, err := svc.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, postIDs(got), postIDs(cached))
}

func TestFetchAll_OfflineEmptyCache(t *testing.T) {
	svc, _ := newPostService(t, newFakeRemote(3), newSwitch(false))
	_, err := svc.FetchAll(context.Background())
	require.ErrorIs(t, err, ErrNoConnectionNoCache)
}

func TestFetchPost(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(10)
	checker := newSwitch(true)
	svc, repos := newPostService(t, remote, checker)

	require.NoError(t, repos.Favorites.Add(ctx, models.FavoritePost{ID: 4}))

	p, err := svc.FetchPost(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "title 4", p.Title)
	assert.True(t, p.IsFavorite)

	// Not cached yet: offline read misses.
	checker.set(false)
	_, err = svc.FetchPost(ctx, 4)
	require.ErrorIs(t, err, ErrPostNotAvailableOffline)

	checker.set(true)
	_, err = svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)

	remote.fail(client.ErrUnavailable)
	p, err = svc.FetchPost(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, p.ID)
	assert.True(t, p.IsFavorite)
}

func TestToggleFavorite_IsItsOwnInverse(t *testing.T) {
	ctx := context.Background()
	svc, repos := newPostService(t, newFakeRemote(10), newSwitch(true))

	_, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	post := models.Post{ID: 3, UserID: 1, Title: "title 3", Body: "body 3"}

	on, err := svc.ToggleFavorite(ctx, post)
	require.NoError(t, err)
	assert.True(t, on)
	isFav, err := repos.Favorites.IsFavorite(ctx, 3)
	require.NoError(t, err)
	assert.True(t, isFav)
	row, err := repos.Cache.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.True(t, row.IsFavorite)

	off, err := svc.ToggleFavorite(ctx, post.WithFavorite(true))
	require.NoError(t, err)
	assert.False(t, off)
	isFav, err = repos.Favorites.IsFavorite(ctx, 3)
	require.NoError(t, err)
	assert.False(t, isFav)
	row, err = repos.Cache.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.False(t, row.IsFavorite)
}

func TestToggleFavorite_UsesMembershipNotCallerFlag(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPostService(t, newFakeRemote(0), newSwitch(false))

	// Caller claims it is a favorite but the set is empty: it gets added.
	on, err := svc.ToggleFavorite(ctx, models.Post{ID: 9, IsFavorite: true})
	require.NoError(t, err)
	assert.True(t, on)
}

func TestToggleFavorite_NeverCallsRemote(t *testing.T) {
	remote := newFakeRemote(5)
	svc, _ := newPostService(t, remote, newSwitch(true))

	_, err := svc.ToggleFavorite(context.Background(), models.Post{ID: 1})
	require.NoError(t, err)
	assert.Zero(t, remote.calls)
}

// failingCache wraps a real cache and fails UpdateFavorite.
type failingCache struct {
	cache.Repository
}

func (f failingCache) UpdateFavorite(context.Context, int, bool) (bool, error) {
	return false, errBoom
}

func TestToggleFavorite_CacheFailureLeavesFavoriteInPlace(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)
	svc := NewPostService(newFakeRemote(0), failingCache{repos.Cache}, repos.Favorites, newSwitch(false), logging.Discard())

	require.NoError(t, repos.Cache.SavePosts(ctx, []models.Post{{ID: 7, Title: "t", Body: "b"}}, 1, time.Now()))

	on, err := svc.ToggleFavorite(ctx, models.Post{ID: 7})
	require.ErrorIs(t, err, ErrToggleFavorite)
	require.ErrorIs(t, err, errBoom)
	assert.True(t, on)

	isFav, err := repos.Favorites.IsFavorite(ctx, 7)
	require.NoError(t, err)
	assert.True(t, isFav, "favorites write is not rolled back")

	row, err := repos.Cache.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.False(t, row.IsFavorite)

	// A real reconcile repairs the drift.
	reconciler := NewPostService(newFakeRemote(0), repos.Cache, repos.Favorites, newSwitch(false), logging.Discard())
	n, err := reconciler.ReconcileCacheWithFavorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReconcile_OfflineToggleThenReconcile(t *testing.T) {
	ctx := context.Background()
	checker := newSwitch(true)
	svc, repos := newPostService(t, newFakeRemote(10), checker)

	_, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)

	checker.set(false)
	// Favorite added directly to the set, as if toggled by another path.
	require.NoError(t, repos.Favorites.Add(ctx, models.FavoritePost{ID: 7, Title: "title 7"}))

	row, err := repos.Cache.GetByID(ctx, 7)
	require.NoError(t, err)
	require.False(t, row.IsFavorite)

	n, err := svc.ReconcileCacheWithFavorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	row, err = repos.Cache.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.True(t, row.IsFavorite)
}

func TestReconcile_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, repos := newPostService(t, newFakeRemote(0), newSwitch(false))

	cached := newFakeRemote(6).posts
	cached[1].IsFavorite = true
	cached[4].IsFavorite = true
	require.NoError(t, repos.Cache.SavePosts(ctx, cached, 1, time.Now()))
	require.NoError(t, repos.Favorites.Add(ctx, models.FavoritePost{ID: 2}))
	require.NoError(t, repos.Favorites.Add(ctx, models.FavoritePost{ID: 6}))

	n, err := svc.ReconcileCacheWithFavorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n) // 5 cleared, 6 set

	n, err = svc.ReconcileCacheWithFavorites(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	rows, err := repos.Cache.GetAll(ctx)
	require.NoError(t, err)
	var favs []int
	for _, r := range rows {
		if r.IsFavorite {
			favs = append(favs, r.ID)
		}
	}
	assert.Equal(t, []int{2, 6}, favs)
}

func TestSearchCache(t *testing.T) {
	ctx := context.Background()
	svc, repos := newPostService(t, newFakeRemote(0), newSwitch(false))

	require.NoError(t, repos.Cache.SavePosts(ctx, []models.Post{
		{ID: 1, Title: "Hello XYZ world", Body: "a"},
		{ID: 2, Title: "other", Body: "contains xyz here"},
		{ID: 3, Title: "nothing", Body: "at all"},
	}, 1, time.Now()))

	got, err := svc.SearchCache(ctx, "xYz")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, postIDs(got))

	all, err := svc.SearchCache(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, postIDs(all))
}

func TestSearchCache_FoldsLikeOnlineFilter(t *testing.T) {
	ctx := context.Background()
	svc, repos := newPostService(t, newFakeRemote(0), newSwitch(false))

	cached := []models.Post{
		{ID: 1, Title: "Élan Über", Body: "a"},
		{ID: 2, Title: "plain", Body: "b"},
	}
	require.NoError(t, repos.Cache.SavePosts(ctx, cached, 1, time.Now()))

	got, err := svc.SearchCache(ctx, "élan")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, postIDs(got))
	assert.Equal(t, postIDs(FilterPosts(cached, "élan")), postIDs(got))

	got, err = svc.SearchCache(ctx, "ÜBER")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, postIDs(got))
}

func TestSearch_OnlineFiltersFullFeed(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(20)
	svc, repos := newPostService(t, remote, newSwitch(true))

	got, err := svc.Search(ctx, "TITLE 1")
	require.NoError(t, err)
	// "title 1", "title 10".."title 19"
	assert.Len(t, got, 11)

	n, err := repos.Cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n, "online search refreshes the cache")
}

func TestSearch_OfflineUsesCache(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(20)
	svc, repos := newPostService(t, remote, newSwitch(false))
	require.NoError(t, repos.Cache.SavePosts(ctx, remote.posts[:5], 1, time.Now()))

	got, err := svc.Search(ctx, "body 3")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, postIDs(got))
	assert.Zero(t, remote.calls)
}

func TestFilterPosts(t *testing.T) {
	posts := []models.Post{{ID: 1, Title: "Go"}, {ID: 2, Body: "gopher"}, {ID: 3, Title: "rust"}}
	assert.Equal(t, []int{1, 2}, postIDs(FilterPosts(posts, " GO ")))
	assert.Equal(t, posts, FilterPosts(posts, "   "))
	assert.Empty(t, FilterPosts(posts, "zig"))
}

func TestHasCachedDataAndClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPostService(t, newFakeRemote(5), newSwitch(true))

	has, err := svc.HasCachedData(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = svc.FetchAll(ctx)
	require.NoError(t, err)
	has, err = svc.HasCachedData(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, svc.ClearCache(ctx))
	has, err = svc.HasCachedData(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPurgeStaleCache(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	remote := newFakeRemote(20)
	svc, repos := newPostService(t, remote, newSwitch(true), WithClock(clock.Now), WithRetention(time.Hour))

	_, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	clock.Advance(90 * time.Minute)
	_, err = svc.FetchPage(ctx, 2, 10)
	require.NoError(t, err)

	n, err := svc.PurgeStaleCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	rows, err := repos.Cache.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, 11, rows[0].ID)
}

func TestWithRetention_IgnoresNonPositive(t *testing.T) {
	s := &postService{retention: common.DefaultCacheRetention}
	WithRetention(0)(s)
	assert.Equal(t, common.DefaultCacheRetention, s.retention)
}

func TestFetchPage_BreakerOpenTakesCachePath(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(10)
	breaker := client.NewBreakerSource(remote, client.BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour, MaxHalfOpen: 1}, logging.Discard())
	svc, _ := newPostService(t, breaker, newSwitch(true))

	_, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)

	remote.fail(client.ErrUnavailable)
	_, err = svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, "open", breaker.State())

	calls := remote.calls
	got, err := svc.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, calls, remote.calls)
}
