package feed

import (
	"slices"

	"github.com/circleup/circleup/internal/client/models"
)

// State is a snapshot of the feed screen.
type State struct {
	// Posts is everything loaded so far, in page order.
	Posts []models.Post
	// Displayed is Posts narrowed by the active search.
	Displayed     []models.Post
	Loading       bool
	Error         string
	HasMore       bool
	Page          int
	Query         string
	Offline       bool
	HasCachedData bool
}

func (s State) clone() State {
	s.Posts = slices.Clone(s.Posts)
	s.Displayed = slices.Clone(s.Displayed)
	return s
}

// broadcaster fans snapshots out to subscribers. A slow subscriber only ever
// sees the latest snapshot.
type broadcaster[T any] struct {
	subs map[int]chan T
	next int
}

func (b *broadcaster[T]) subscribe() (int, chan T) {
	if b.subs == nil {
		b.subs = make(map[int]chan T)
	}
	id := b.next
	b.next++
	ch := make(chan T, 1)
	b.subs[id] = ch
	return id, ch
}

func (b *broadcaster[T]) unsubscribe(id int) {
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *broadcaster[T]) publish(v T) {
	for _, ch := range b.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
