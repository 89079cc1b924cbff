package core

import (
	"context"

	"github.com/pkg/errors"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenStore persists the backend token of a client session, keyed by session key.
// It is the only client state that survives restarts.
type TokenStore interface {
	// Load returns ErrTokenNotFound when no token is stored under key.
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, token string) error
	// Delete is a no-op for unknown keys.
	Delete(ctx context.Context, key string) error
	Close() error
}
