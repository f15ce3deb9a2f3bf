// Package metadata is a small key/value table for client state that is not
// part of the feed, such as the credentials verifier used for offline login.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyEmail    = "email"
	KeySalt     = "salt"
	KeyVerifier = "verifier"
	KeyUser     = "user"
)

type Repository interface {
	// Get returns common.ErrorNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
