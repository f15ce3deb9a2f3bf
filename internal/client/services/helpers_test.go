package services

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/circleup/circleup/internal/client/client"
	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/common"
	"github.com/circleup/circleup/internal/logging"
	"github.com/stretchr/testify/require"
)

func setupRepos(t *testing.T) *client.Repositories {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

// switchChecker is a connectivity.Checker the test can flip.
type switchChecker struct{ online atomic.Bool }

func newSwitch(online bool) *switchChecker {
	c := &switchChecker{}
	c.online.Store(online)
	return c
}

func (c *switchChecker) IsOnline(context.Context) bool { return c.online.Load() }
func (c *switchChecker) set(online bool)                { c.online.Store(online) }

// fakeRemote serves a fixed feed of n posts, paged like the real API.
type fakeRemote struct {
	mu    sync.Mutex
	posts []models.Post
	err   error
	calls int
}

func newFakeRemote(n int) *fakeRemote {
	r := &fakeRemote{}
	for i := 1; i <= n; i++ {
		r.posts = append(r.posts, models.Post{
			ID:     i,
			UserID: (i-1)/10 + 1,
			Title:  "title " + strconv.Itoa(i),
			Body:   "body " + strconv.Itoa(i),
		})
	}
	return r
}

func (r *fakeRemote) fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *fakeRemote) GetPosts(ctx context.Context, page, limit int) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	start := (page - 1) * limit
	if start >= len(r.posts) {
		return []models.Post{}, nil
	}
	end := min(start+limit, len(r.posts))
	return append([]models.Post(nil), r.posts[start:end]...), nil
}

func (r *fakeRemote) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return append([]models.Post(nil), r.posts...), nil
}

func (r *fakeRemote) GetPost(ctx context.Context, id int) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.posts {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

var errBoom = errors.New("boom")

func postIDs(posts []models.Post) []int {
	out := make([]int, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func favoriteIDs(posts []models.Post) []int {
	var out []int
	for _, p := range posts {
		if p.IsFavorite {
			out = append(out, p.ID)
		}
	}
	return out
}

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newPostService(t *testing.T, remote client.PostSource, checker *switchChecker, opts ...PostOption) (PostService, *client.Repositories) {
	t.Helper()
	repos := setupRepos(t)
	svc := NewPostService(remote, repos.Cache, repos.Favorites, checker, logging.Discard(), opts...)
	return svc, repos
}
