package store

import (
	"context"
	"errors"
	"time"

	"sysmap-backend/pkg/observability"
)

// InstrumentedStore counts every store operation by name and outcome.
// It wraps the outermost decorator so breaker rejections are counted too.
type InstrumentedStore struct {
	inner   KVStore
	metrics *observability.Collector
}

// NewInstrumentedStore wraps the given store
func NewInstrumentedStore(inner KVStore, metrics *observability.Collector) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, metrics: metrics}
}

func (s *InstrumentedStore) record(op string, err error) {
	result := "ok"
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		result = "error"
	}
	s.metrics.StoreOperations.WithLabelValues(op, result).Inc()
}

// Get retrieves the value for a plain key
func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.inner.Get(ctx, key)
	s.record("get", err)
	return out, err
}

// Set writes a plain key without expiry
func (s *InstrumentedStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.inner.Set(ctx, key, value)
	s.record("set", err)
	return err
}

// SetWithTTL writes a plain key that expires after ttl
func (s *InstrumentedStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.inner.SetWithTTL(ctx, key, value, ttl)
	s.record("set_ttl", err)
	return err
}

// Delete removes a plain key
func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	err := s.inner.Delete(ctx, key)
	s.record("delete", err)
	return err
}

// HGet retrieves one field of a hash
func (s *InstrumentedStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	out, err := s.inner.HGet(ctx, key, field)
	s.record("hget", err)
	return out, err
}

// HSet writes one field of a hash
func (s *InstrumentedStore) HSet(ctx context.Context, key, field string, value []byte) error {
	err := s.inner.HSet(ctx, key, field, value)
	s.record("hset", err)
	return err
}

// HDelete removes one field of a hash
func (s *InstrumentedStore) HDelete(ctx context.Context, key, field string) error {
	err := s.inner.HDelete(ctx, key, field)
	s.record("hdelete", err)
	return err
}

// HGetAll returns every field of a hash
func (s *InstrumentedStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	out, err := s.inner.HGetAll(ctx, key)
	s.record("hgetall", err)
	return out, err
}

// SAdd records a set member with the set's TTL
func (s *InstrumentedStore) SAdd(ctx context.Context, key, member string, ttl time.Duration) error {
	err := s.inner.SAdd(ctx, key, member, ttl)
	s.record("sadd", err)
	return err
}

// SMembers returns the unexpired members of a set
func (s *InstrumentedStore) SMembers(ctx context.Context, key string) ([]string, error) {
	out, err := s.inner.SMembers(ctx, key)
	s.record("smembers", err)
	return out, err
}

// Ping reports whether the backing store is usable
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped store
func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
