package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// drivers under test share one contract; DynamoDB is exercised against
// a real table and is covered separately.
func testStores(t *testing.T) map[string]KVStore {
	t.Helper()

	badgerStore, err := NewBadgerStore(BadgerConfig{InMemory: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { badgerStore.Close() })

	return map[string]KVStore{
		"memory": NewMemoryStore(),
		"badger": badgerStore,
	}
}

func TestKVStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, kv := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("get missing key", func(t *testing.T) {
				_, err := kv.Get(ctx, "missing")
				assert.ErrorIs(t, err, ErrKeyNotFound)
			})

			t.Run("set then get", func(t *testing.T) {
				require.NoError(t, kv.Set(ctx, "k1", []byte("v1")))

				got, err := kv.Get(ctx, "k1")
				require.NoError(t, err)
				assert.Equal(t, []byte("v1"), got)
			})

			t.Run("overwrite", func(t *testing.T) {
				require.NoError(t, kv.Set(ctx, "k2", []byte("old")))
				require.NoError(t, kv.Set(ctx, "k2", []byte("new")))

				got, err := kv.Get(ctx, "k2")
				require.NoError(t, err)
				assert.Equal(t, []byte("new"), got)
			})

			t.Run("delete", func(t *testing.T) {
				require.NoError(t, kv.Set(ctx, "k3", []byte("v")))
				require.NoError(t, kv.Delete(ctx, "k3"))

				_, err := kv.Get(ctx, "k3")
				assert.ErrorIs(t, err, ErrKeyNotFound)
			})

			t.Run("ttl expiry", func(t *testing.T) {
				// TTLs are second-granular in the badger driver.
				require.NoError(t, kv.SetWithTTL(ctx, "k4", []byte("v"), time.Second))

				got, err := kv.Get(ctx, "k4")
				require.NoError(t, err)
				assert.Equal(t, []byte("v"), got)

				time.Sleep(1200 * time.Millisecond)

				_, err = kv.Get(ctx, "k4")
				assert.ErrorIs(t, err, ErrKeyNotFound)
			})

			t.Run("hash fields", func(t *testing.T) {
				require.NoError(t, kv.HSet(ctx, "h1", "f1", []byte("a")))
				require.NoError(t, kv.HSet(ctx, "h1", "f2", []byte("b")))

				got, err := kv.HGet(ctx, "h1", "f1")
				require.NoError(t, err)
				assert.Equal(t, []byte("a"), got)

				all, err := kv.HGetAll(ctx, "h1")
				require.NoError(t, err)
				assert.Len(t, all, 2)

				require.NoError(t, kv.HDelete(ctx, "h1", "f1"))
				_, err = kv.HGet(ctx, "h1", "f1")
				assert.ErrorIs(t, err, ErrKeyNotFound)

				all, err = kv.HGetAll(ctx, "h1")
				require.NoError(t, err)
				assert.Len(t, all, 1)
			})

			t.Run("hash get all on missing key is empty", func(t *testing.T) {
				all, err := kv.HGetAll(ctx, "no-such-hash")
				require.NoError(t, err)
				assert.Empty(t, all)
			})

			t.Run("set members", func(t *testing.T) {
				require.NoError(t, kv.SAdd(ctx, "s1", "m1", time.Hour))
				require.NoError(t, kv.SAdd(ctx, "s1", "m2", time.Hour))
				require.NoError(t, kv.SAdd(ctx, "s1", "m1", time.Hour))

				members, err := kv.SMembers(ctx, "s1")
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"m1", "m2"}, members)
			})

			t.Run("set members expire", func(t *testing.T) {
				require.NoError(t, kv.SAdd(ctx, "s2", "m1", time.Second))

				time.Sleep(1200 * time.Millisecond)

				members, err := kv.SMembers(ctx, "s2")
				require.NoError(t, err)
				assert.Empty(t, members)
			})

			t.Run("ping", func(t *testing.T) {
				assert.NoError(t, kv.Ping(ctx))
			})
		})
	}
}
