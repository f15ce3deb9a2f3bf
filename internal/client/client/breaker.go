package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/common"
	"github.com/circleup/circleup/internal/logging"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes BreakerSource.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
	// MaxHalfOpen is the number of requests allowed while half-open.
	MaxHalfOpen uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 3, OpenTimeout: 30 * time.Second, MaxHalfOpen: 1}
}

// BreakerSource guards a PostSource with a circuit breaker. While open every
// call fails immediately with ErrUnavailable; nothing is retried.
type BreakerSource struct {
	src PostSource
	cb  *gobreaker.CircuitBreaker[any]
}

func NewBreakerSource(src PostSource, cfg BreakerConfig, logger logging.Logger) *BreakerSource {
	settings := gobreaker.Settings{
		Name:        "posts",
		MaxRequests: cfg.MaxHalfOpen,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		// A missing post or a cancelled call says nothing about the server's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, common.ErrorNotFound) || errors.Is(err, context.Canceled)
		},
	}
	return &BreakerSource{src: src, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State reports the breaker state name ("closed", "open", "half-open").
func (b *BreakerSource) State() string {
	return b.cb.State().String()
}

func (b *BreakerSource) GetPosts(ctx context.Context, page, limit int) ([]models.Post, error) {
	v, err := b.execute(func() (any, error) { return b.src.GetPosts(ctx, page, limit) })
	if err != nil {
		return nil, err
	}
	return v.([]models.Post), nil
}

func (b *BreakerSource) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	v, err := b.execute(func() (any, error) { return b.src.GetAllPosts(ctx) })
	if err != nil {
		return nil, err
	}
	return v.([]models.Post), nil
}

func (b *BreakerSource) GetPost(ctx context.Context, id int) (*models.Post, error) {
	v, err := b.execute(func() (any, error) { return b.src.GetPost(ctx, id) })
	if err != nil {
		return nil, err
	}
	return v.(*models.Post), nil
}

func (b *BreakerSource) execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, err
}
