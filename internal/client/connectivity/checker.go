package connectivity

import (
	"context"
	"time"
)

// Checker reports whether the remote API is currently reachable.
type Checker interface {
	IsOnline(ctx context.Context) bool
}

// Pinger is anything that can probe the remote host.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 3 * time.Second

// PingChecker probes a Pinger on every IsOnline call.
type PingChecker struct {
	pinger  Pinger
	timeout time.Duration
}

func NewPingChecker(p Pinger, timeout time.Duration) *PingChecker {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &PingChecker{pinger: p, timeout: timeout}
}

func (c *PingChecker) IsOnline(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.pinger.Ping(ctx) == nil
}

// Static always answers the same way.
type Static bool

const (
	Online  Static = true
	Offline Static = false
)

func (s Static) IsOnline(context.Context) bool { return bool(s) }
