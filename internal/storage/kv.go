package storage

import (
	"context"
	"errors"
)

// Keys used by the cart store.
const (
	KeyCart     = "cart"
	KeySyncTime = "cart_sync_time"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// KV is the local durable store: a small string key-value table that
// survives restarts. Implementations must be safe for concurrent use.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
