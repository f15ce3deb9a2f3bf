package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/circleup/circleup/internal/logging"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Watcher polls a Checker on an interval and caches the answer. Until the
// first probe completes it falls through to the underlying checker.
type Watcher struct {
	checker  Checker
	interval time.Duration
	logger   logging.Logger

	mu        sync.RWMutex
	mode      Mode
	listeners []func(Mode)
}

func NewWatcher(checker Checker, interval time.Duration, logger logging.Logger) *Watcher {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Watcher{checker: checker, interval: interval, logger: logger}
}

// OnChange registers fn to be called after every transition. fn runs on the
// watcher goroutine and must not block.
func (w *Watcher) OnChange(fn func(Mode)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Mode returns the last observed mode.
func (w *Watcher) Mode() Mode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mode
}

func (w *Watcher) IsOnline(ctx context.Context) bool {
	switch w.Mode() {
	case ModeOnline:
		return true
	case ModeOffline:
		return false
	}
	return w.Check(ctx)
}

// Check probes once and records the result.
func (w *Watcher) Check(ctx context.Context) bool {
	online := w.checker.IsOnline(ctx)
	if online {
		w.setMode(ctx, ModeOnline)
	} else {
		w.setMode(ctx, ModeOffline)
	}
	return online
}

// Run probes immediately and then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) setMode(ctx context.Context, mode Mode) {
	w.mu.Lock()
	if w.mode == mode {
		w.mu.Unlock()
		return
	}
	prev := w.mode
	w.mode = mode
	listeners := append([]func(Mode){}, w.listeners...)
	w.mu.Unlock()

	if prev != ModeUnknown {
		w.logger.Info(ctx, "connectivity changed", "from", string(prev), "to", string(mode))
	}
	for _, fn := range listeners {
		fn(mode)
	}
}
