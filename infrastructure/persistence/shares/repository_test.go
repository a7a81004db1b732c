package shares

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sysmap-backend/domain/redaction"
	"sysmap-backend/infrastructure/store"
	apperrors "sysmap-backend/pkg/errors"
)

func newTestRepository(t *testing.T) (*Repository, *store.MemoryStore) {
	t.Helper()
	kv := store.NewMemoryStore()
	return NewRepository(kv, 5*time.Second, zap.NewNop()), kv
}

func snapshot(id string) *redaction.RedactedMap {
	return &redaction.RedactedMap{
		ID: id,
		Nodes: []redaction.RedactedNode{
			{ID: "r-1", Group: "Server", Name: "Server_1"},
		},
		Links: []redaction.RedactedLink{},
	}
}

func TestSaveAndGetSnapshot(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	id := uuid.NewString()

	require.NoError(t, repo.SaveSnapshot(ctx, snapshot(id), "map-1", time.Hour))

	loaded, err := repo.GetSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "Server_1", loaded.Nodes[0].Name)
}

func TestGetSnapshotNotFound(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.GetSnapshot(context.Background(), uuid.NewString())

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetSnapshotRejectsNonUUIDIDs(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	id := uuid.NewString()

	require.NoError(t, repo.SaveSnapshot(ctx, snapshot(id), "map-secret", time.Hour))

	// A crafted id must not reach the private keys sharing the prefix.
	for _, crafted := range []string{"link:" + id, "index:map-secret", "not-a-uuid"} {
		_, err := repo.GetSnapshot(ctx, crafted)
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err), "id %q", crafted)
	}
}

func TestSnapshotExpires(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	id := uuid.NewString()

	require.NoError(t, repo.SaveSnapshot(ctx, snapshot(id), "map-1", 10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)

	_, err := repo.GetSnapshot(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.OriginalMapID(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSnapshotDoesNotContainOriginalMapID(t *testing.T) {
	ctx := context.Background()
	repo, kv := newTestRepository(t)
	id := uuid.NewString()

	require.NoError(t, repo.SaveSnapshot(ctx, snapshot(id), "map-secret", time.Hour))

	data, err := kv.Get(ctx, "redacted:"+id)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "map-secret")
}

func TestOriginalMapID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	id := uuid.NewString()

	require.NoError(t, repo.SaveSnapshot(ctx, snapshot(id), "map-1", time.Hour))

	mapID, err := repo.OriginalMapID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "map-1", mapID)
}

func TestIndex(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.AddToIndex(ctx, "map-1", "snap-a", time.Hour))
	require.NoError(t, repo.AddToIndex(ctx, "map-1", "snap-b", time.Hour))
	require.NoError(t, repo.AddToIndex(ctx, "map-2", "snap-c", time.Hour))

	ids, err := repo.ListIndex(ctx, "map-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"snap-a", "snap-b"}, ids)
}

func TestIndexMembersExpire(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.AddToIndex(ctx, "map-1", "snap-a", 10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)

	ids, err := repo.ListIndex(ctx, "map-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
