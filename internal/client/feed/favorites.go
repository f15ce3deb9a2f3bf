package feed

import (
	"context"
	"slices"
	"sync"

	"github.com/circleup/circleup/internal/client/models"
)

type FavoritesState struct {
	Favorites []models.FavoritePost
	Loading   bool
	Error     string
}

// FavoritesSource is the part of the favorites service the model drives.
type FavoritesSource interface {
	List(ctx context.Context) ([]models.FavoritePost, error)
	Remove(ctx context.Context, id int) error
}

// FavoritesModel is the favorites screen's state holder.
type FavoritesModel struct {
	src FavoritesSource

	mu    sync.Mutex
	state FavoritesState
	subs  broadcaster[FavoritesState]
}

func NewFavoritesModel(src FavoritesSource) *FavoritesModel {
	return &FavoritesModel{src: src}
}

func (m *FavoritesModel) State() FavoritesState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *FavoritesModel) Subscribe() (<-chan FavoritesState, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ch := m.subs.subscribe()
	return ch, func() {
		m.mu.Lock()
		m.subs.unsubscribe(id)
		m.mu.Unlock()
	}
}

func (m *FavoritesModel) Load(ctx context.Context) error {
	m.update(func(s *FavoritesState) {
		s.Loading = true
		s.Error = ""
	})

	list, err := m.src.List(ctx)
	m.update(func(s *FavoritesState) {
		s.Loading = false
		if err != nil {
			s.Error = err.Error()
			return
		}
		s.Favorites = list
	})
	return err
}

func (m *FavoritesModel) Remove(ctx context.Context, id int) error {
	err := m.src.Remove(ctx, id)
	m.update(func(s *FavoritesState) {
		if err != nil {
			s.Error = err.Error()
			return
		}
		s.Favorites = slices.DeleteFunc(slices.Clone(s.Favorites), func(f models.FavoritePost) bool {
			return f.ID == id
		})
	})
	return err
}

func (m *FavoritesModel) Retry(ctx context.Context) error {
	return m.Load(ctx)
}

func (m *FavoritesModel) ClearError() {
	m.update(func(s *FavoritesState) { s.Error = "" })
}

func (m *FavoritesModel) update(fn func(*FavoritesState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
	m.subs.publish(m.snapshot())
}

func (m *FavoritesModel) snapshot() FavoritesState {
	s := m.state
	s.Favorites = slices.Clone(s.Favorites)
	return s
}
