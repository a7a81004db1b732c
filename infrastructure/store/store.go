// Package store defines the opaque key-value port the rest of the
// application persists through, plus its concrete drivers.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key, hash field, or set is absent
// or has expired. Drivers translate their native miss signal into this
// sentinel so callers never see transport-specific errors.
var ErrKeyNotFound = errors.New("store: key not found")

// KVStore is the persistence port. Keys are flat strings; hashes and
// sets are the only structured values, matching the layout the map
// repository and share service write.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	HGet(ctx context.Context, key, field string) ([]byte, error)
	HSet(ctx context.Context, key, field string, value []byte) error
	HDelete(ctx context.Context, key, field string) error
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)

	// SAdd adds a member to a TTL'd set. The TTL applies to the whole
	// set and is refreshed on every add.
	SAdd(ctx context.Context, key, member string, ttl time.Duration) error
	SMembers(ctx context.Context, key string) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}
