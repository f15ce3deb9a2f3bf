package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/circleup/circleup/internal/client/connectivity"
	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/client/services"
	"github.com/circleup/circleup/internal/logging"
)

const DefaultPageSize = 100

const noDataMessage = "No internet connection and no cached data available. Please connect to the internet to load posts."

// ErrSearchSuperseded is returned by Search when a newer search or a
// ClearSearch replaced it before it finished. Its result was discarded.
var ErrSearchSuperseded = errors.New("search superseded")

// Source is the part of the post service the model drives.
type Source interface {
	FetchPage(ctx context.Context, page, limit int) ([]models.Post, error)
	ToggleFavorite(ctx context.Context, post models.Post) (bool, error)
	ReconcileCacheWithFavorites(ctx context.Context) (int, error)
	Search(ctx context.Context, query string) ([]models.Post, error)
	HasCachedData(ctx context.Context) (bool, error)
}

// Model is the feed screen's state holder.
type Model struct {
	src      Source
	checker  connectivity.Checker
	logger   logging.Logger
	pageSize int

	mu           sync.Mutex
	state        State
	searchSeq    uint64
	cancelSearch context.CancelFunc
	subs         broadcaster[State]
}

func NewModel(src Source, checker connectivity.Checker, pageSize int, logger logging.Logger) *Model {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Model{
		src:      src,
		checker:  checker,
		logger:   logger.With("model", "feed"),
		pageSize: pageSize,
		state:    State{HasMore: true, Page: 1},
	}
}

// State returns a copy of the current state.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe returns a channel that receives a snapshot after every change,
// and a function that closes it.
func (m *Model) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ch := m.subs.subscribe()
	return ch, func() {
		m.mu.Lock()
		m.subs.unsubscribe(id)
		m.mu.Unlock()
	}
}

// Load fetches page 1 from scratch and then reconciles the cached favorite
// flags.
func (m *Model) Load(ctx context.Context) error {
	m.update(func(s *State) {
		s.Loading = true
		s.Error = ""
		s.Page = 1
	})

	m.refreshStatus(ctx)

	posts, err := m.src.FetchPage(ctx, 1, m.pageSize)
	if err != nil {
		m.update(func(s *State) {
			s.Loading = false
			if s.Offline && !s.HasCachedData {
				s.Error = noDataMessage
			} else {
				s.Error = err.Error()
			}
		})
		return err
	}

	m.update(func(s *State) {
		s.Posts = posts
		if s.Query == "" {
			s.Displayed = posts
		} else {
			s.Displayed = services.FilterPosts(posts, s.Query)
		}
		s.Loading = false
		s.HasMore = len(posts) == m.pageSize && !s.Offline
		s.Page = 1
	})

	if _, err := m.src.ReconcileCacheWithFavorites(ctx); err != nil {
		m.logger.Warn(ctx, "reconcile after load failed", "error", err)
	}
	return nil
}

// LoadMore appends the next page. It does nothing while a load is running,
// when the last page was short, during a search, or while offline; the
// returned bool reports whether a fetch happened.
func (m *Model) LoadMore(ctx context.Context) (bool, error) {
	m.mu.Lock()
	s := m.state
	if s.Loading || !s.HasMore || s.Query != "" || s.Offline {
		m.mu.Unlock()
		return false, nil
	}
	m.state.Loading = true
	next := s.Page + 1
	m.publishLocked()
	m.mu.Unlock()

	posts, err := m.src.FetchPage(ctx, next, m.pageSize)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Loading = false
	if err != nil {
		m.state.Error = err.Error()
		m.publishLocked()
		return true, err
	}
	all := append(m.state.Posts[:len(m.state.Posts):len(m.state.Posts)], posts...)
	m.state.Posts = all
	m.state.Displayed = all
	m.state.HasMore = len(posts) == m.pageSize
	m.state.Page = next
	m.publishLocked()
	return true, nil
}

// ToggleFavorite flips post's favorite state and updates it in place in the
// loaded lists.
func (m *Model) ToggleFavorite(ctx context.Context, post models.Post) error {
	fav, err := m.src.ToggleFavorite(ctx, post)

	m.update(func(s *State) {
		s.Posts = replaceFavorite(s.Posts, post.ID, fav)
		s.Displayed = replaceFavorite(s.Displayed, post.ID, fav)
		if err != nil {
			s.Error = fmt.Sprintf("Failed to update favorite: %v", err)
		}
	})
	return err
}

// Search runs query through the service. Issuing a new search cancels the
// previous one; only the last issued search may change the displayed list.
// A blank query restores the loaded list. If the service fails the loaded
// list is filtered in memory instead.
func (m *Model) Search(ctx context.Context, query string) error {
	q := strings.TrimSpace(query)

	m.mu.Lock()
	if m.cancelSearch != nil {
		m.cancelSearch()
		m.cancelSearch = nil
	}
	m.searchSeq++
	seq := m.searchSeq
	m.state.Query = q
	if q == "" {
		m.state.Displayed = m.state.Posts
		m.publishLocked()
		m.mu.Unlock()
		return nil
	}
	sctx, cancel := context.WithCancel(ctx)
	m.cancelSearch = cancel
	m.mu.Unlock()

	results, err := m.src.Search(sctx, q)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.searchSeq {
		return ErrSearchSuperseded
	}
	m.cancelSearch = nil
	if err != nil {
		m.logger.Warn(ctx, "search failed, filtering loaded posts", "query", q, "error", err)
		results = services.FilterPosts(m.state.Posts, q)
	}
	m.state.Displayed = results
	m.publishLocked()
	return nil
}

func (m *Model) ClearSearch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelSearch != nil {
		m.cancelSearch()
		m.cancelSearch = nil
	}
	m.searchSeq++
	m.state.Query = ""
	m.state.Displayed = m.state.Posts
	m.publishLocked()
}

func (m *Model) ClearError() {
	m.update(func(s *State) { s.Error = "" })
}

// SetOffline records a connectivity change observed elsewhere.
func (m *Model) SetOffline(offline bool) {
	m.update(func(s *State) { s.Offline = offline })
}

// Refresh reloads from page 1.
func (m *Model) Refresh(ctx context.Context) error {
	return m.Load(ctx)
}

func (m *Model) refreshStatus(ctx context.Context) {
	has, err := m.src.HasCachedData(ctx)
	if err != nil {
		m.logger.Warn(ctx, "cache status unavailable", "error", err)
	}
	offline := !m.checker.IsOnline(ctx)
	m.update(func(s *State) {
		s.HasCachedData = has
		s.Offline = offline
	})
}

func (m *Model) update(fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
	m.publishLocked()
}

func (m *Model) publishLocked() {
	m.subs.publish(m.state.clone())
}

func replaceFavorite(posts []models.Post, id int, fav bool) []models.Post {
	out := make([]models.Post, len(posts))
	for i, p := range posts {
		if p.ID == id {
			p = p.WithFavorite(fav)
		}
		out[i] = p
	}
	return out
}
