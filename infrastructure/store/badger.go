package store

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Composite-key prefixes. The null byte cannot appear in map ids or
// redacted ids, so it is a safe separator between hash key and field.
const (
	plainPrefix = "k:"
	hashPrefix  = "h:"
	setPrefix   = "s:"
	fieldSep    = "\x00"
)

// BadgerConfig holds configuration for the embedded Badger store
type BadgerConfig struct {
	// Path is the directory for the database files. Ignored in memory mode.
	Path string

	// InMemory disables disk persistence. Used by tests.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCInterval is how often value log garbage collection runs.
	// Zero disables the loop.
	GCInterval time.Duration
}

// BadgerStore is the default KVStore driver: an embedded key-value
// database with native per-entry TTL support.
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger
	stopGC chan struct{}
}

// NewBadgerStore opens the database and starts the GC loop
func NewBadgerStore(cfg BadgerConfig, logger *zap.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}

	s := &BadgerStore{
		db:     db,
		logger: logger,
		stopGC: make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.runGC(cfg.GCInterval)
	}

	return s, nil
}

func (s *BadgerStore) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			// Rerun until a pass reclaims nothing
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		}
	}
}

func (s *BadgerStore) get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Get retrieves the value for a plain key
func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.get([]byte(plainPrefix + key))
}

// Set writes a plain key without expiry
func (s *BadgerStore) Set(ctx context.Context, key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(plainPrefix+key), value)
	})
}

// SetWithTTL writes a plain key that expires after ttl
func (s *BadgerStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(plainPrefix+key), value).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// Delete removes a plain key. Deleting an absent key is not an error.
func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(plainPrefix + key))
	})
}

// HGet retrieves one field of a hash
func (s *BadgerStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	return s.get([]byte(hashPrefix + key + fieldSep + field))
}

// HSet writes one field of a hash
func (s *BadgerStore) HSet(ctx context.Context, key, field string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(hashPrefix+key+fieldSep+field), value)
	})
}

// HDelete removes one field of a hash
func (s *BadgerStore) HDelete(ctx context.Context, key, field string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(hashPrefix + key + fieldSep + field))
	})
}

// HGetAll returns every field of a hash. An absent hash yields an
// empty map, matching the semantics callers expect for list views.
func (s *BadgerStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	prefix := []byte(hashPrefix + key + fieldSep)
	result := make(map[string][]byte)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			field := string(bytes.TrimPrefix(item.KeyCopy(nil), prefix))
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[field] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SAdd records a set member with the set's TTL
func (s *BadgerStore) SAdd(ctx context.Context, key, member string, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(setPrefix+key+fieldSep+member), nil).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// SMembers returns the unexpired members of a set
func (s *BadgerStore) SMembers(ctx context.Context, key string) ([]string, error) {
	prefix := []byte(setPrefix + key + fieldSep)
	var members []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			members = append(members, string(bytes.TrimPrefix(it.Item().KeyCopy(nil), prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Ping reports whether the database is usable
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("badger database is closed")
	}
	return nil
}

// Close stops the GC loop and closes the database
func (s *BadgerStore) Close() error {
	close(s.stopGC)
	return s.db.Close()
}
