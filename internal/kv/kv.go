// Package kv abstracts the application's small key-value needs:
// per-user settings documents and revoked token ids. Implementations
// are injected so handlers never depend on a concrete backend.
package kv

import (
	"context"
	"time"
)

// Store is a flat string key-value store with optional expiry.
// Get returns common.ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
