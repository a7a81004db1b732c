package store

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerStore decorates a KVStore with a circuit breaker so a dead
// backing store fails requests fast instead of stacking up timeouts.
// A key miss is a successful call, not a failure.
type BreakerStore struct {
	inner KVStore
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps the given store
func NewBreakerStore(inner KVStore, name string, logger *zap.Logger) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrKeyNotFound)
		},
	})

	return &BreakerStore{inner: inner, cb: cb}
}

func (s *BreakerStore) execute(op func() (interface{}, error)) (interface{}, error) {
	return s.cb.Execute(op)
}

// Get retrieves the value for a plain key
func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.execute(func() (interface{}, error) { return s.inner.Get(ctx, key) })
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

// Set writes a plain key without expiry
func (s *BreakerStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.execute(func() (interface{}, error) { return nil, s.inner.Set(ctx, key, value) })
	return err
}

// SetWithTTL writes a plain key that expires after ttl
func (s *BreakerStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.execute(func() (interface{}, error) { return nil, s.inner.SetWithTTL(ctx, key, value, ttl) })
	return err
}

// Delete removes a plain key
func (s *BreakerStore) Delete(ctx context.Context, key string) error {
	_, err := s.execute(func() (interface{}, error) { return nil, s.inner.Delete(ctx, key) })
	return err
}

// HGet retrieves one field of a hash
func (s *BreakerStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	out, err := s.execute(func() (interface{}, error) { return s.inner.HGet(ctx, key, field) })
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

// HSet writes one field of a hash
func (s *BreakerStore) HSet(ctx context.Context, key, field string, value []byte) error {
	_, err := s.execute(func() (interface{}, error) { return nil, s.inner.HSet(ctx, key, field, value) })
	return err
}

// HDelete removes one field of a hash
func (s *BreakerStore) HDelete(ctx context.Context, key, field string) error {
	_, err := s.execute(func() (interface{}, error) { return nil, s.inner.HDelete(ctx, key, field) })
	return err
}

// HGetAll returns every field of a hash
func (s *BreakerStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	out, err := s.execute(func() (interface{}, error) { return s.inner.HGetAll(ctx, key) })
	if err != nil {
		return nil, err
	}
	return out.(map[string][]byte), nil
}

// SAdd records a set member with the set's TTL
func (s *BreakerStore) SAdd(ctx context.Context, key, member string, ttl time.Duration) error {
	_, err := s.execute(func() (interface{}, error) { return nil, s.inner.SAdd(ctx, key, member, ttl) })
	return err
}

// SMembers returns the unexpired members of a set
func (s *BreakerStore) SMembers(ctx context.Context, key string) ([]string, error) {
	out, err := s.execute(func() (interface{}, error) { return s.inner.SMembers(ctx, key) })
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

// Ping reports whether the backing store is usable
func (s *BreakerStore) Ping(ctx context.Context) error {
	_, err := s.execute(func() (interface{}, error) { return nil, s.inner.Ping(ctx) })
	return err
}

// Close closes the wrapped store
func (s *BreakerStore) Close() error {
	return s.inner.Close()
}
