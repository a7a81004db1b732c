package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process KVStore used by tests and as a fallback
// when no durable driver is configured. Expiry is checked lazily on read.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]memoryEntry
	hashes map[string]map[string][]byte
	sets   map[string]map[string]time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]memoryEntry),
		hashes: make(map[string]map[string][]byte),
		sets:   make(map[string]map[string]time.Time),
	}
}

// Get retrieves the value for a plain key
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.values[key]
	s.mu.RUnlock()

	if !ok || entry.expired(time.Now()) {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set writes a plain key without expiry
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = memoryEntry{value: append([]byte(nil), value...)}
	return nil
}

// SetWithTTL writes a plain key that expires after ttl
func (s *MemoryStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a plain key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// HGet retrieves one field of a hash
func (s *MemoryStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.hashes[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	value, ok := fields[field]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// HSet writes one field of a hash
func (s *MemoryStore) HSet(ctx context.Context, key, field string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.hashes[key]
	if !ok {
		fields = make(map[string][]byte)
		s.hashes[key] = fields
	}
	fields[field] = append([]byte(nil), value...)
	return nil
}

// HDelete removes one field of a hash
func (s *MemoryStore) HDelete(ctx context.Context, key, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fields, ok := s.hashes[key]; ok {
		delete(fields, field)
	}
	return nil
}

// HGetAll returns every field of a hash
func (s *MemoryStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]byte)
	for field, value := range s.hashes[key] {
		result[field] = append([]byte(nil), value...)
	}
	return result, nil
}

// SAdd records a set member with the set's TTL
func (s *MemoryStore) SAdd(ctx context.Context, key, member string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.sets[key]
	if !ok {
		members = make(map[string]time.Time)
		s.sets[key] = members
	}
	members[member] = time.Now().Add(ttl)
	return nil
}

// SMembers returns the unexpired members of a set
func (s *MemoryStore) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var out []string
	for member, deadline := range s.sets[key] {
		if now.Before(deadline) {
			out = append(out, member)
		}
	}
	return out, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }
