package maps

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sysmap-backend/domain/sysmap"
	"sysmap-backend/infrastructure/store"
	apperrors "sysmap-backend/pkg/errors"
)

func newTestRepository(t *testing.T) (*Repository, *store.MemoryStore) {
	t.Helper()
	kv := store.NewMemoryStore()
	return NewRepository(kv, 5*time.Second, zap.NewNop()), kv
}

func TestSaveAndGetMap(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	m := sysmap.NewMap("map-1", "Prod", "production layout",
		[]sysmap.Node{{ID: "web", Group: "Server"}},
		[]sysmap.Link{},
	)
	require.NoError(t, repo.SaveMap(ctx, m))

	loaded, err := repo.GetMap(ctx, "map-1")
	require.NoError(t, err)
	assert.Equal(t, "Prod", loaded.Name)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "web", loaded.Nodes[0].ID)
}

func TestGetMapNotFound(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.GetMap(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetMapCorruptDocument(t *testing.T) {
	ctx := context.Background()
	repo, kv := newTestRepository(t)

	require.NoError(t, kv.Set(ctx, "map:broken", []byte("{not json")))

	_, err := repo.GetMap(ctx, "broken")
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
}

func TestSaveMapUpdatesMetadataProjection(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	m := sysmap.NewMap("map-1", "Prod", "",
		[]sysmap.Node{{ID: "a"}, {ID: "b"}}, nil)
	require.NoError(t, repo.SaveMap(ctx, m))

	summaries, err := repo.ListMapSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "map-1", summaries[0].ID)
	assert.Equal(t, 2, summaries[0].NodeCount)
	assert.True(t, m.Updated.Equal(summaries[0].Updated))
}

func TestListMapSummariesSkipsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	repo, kv := newTestRepository(t)

	m := sysmap.NewMap("map-ok", "Good", "", nil, nil)
	require.NoError(t, repo.SaveMap(ctx, m))
	require.NoError(t, kv.HSet(ctx, "maps:list", "map-bad", []byte("{broken")))

	summaries, err := repo.ListMapSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "map-ok", summaries[0].ID)
}

func TestDeleteMap(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	m := sysmap.NewMap("map-1", "Prod", "", nil, nil)
	require.NoError(t, repo.SaveMap(ctx, m))

	require.NoError(t, repo.DeleteMap(ctx, "map-1"))

	_, err := repo.GetMap(ctx, "map-1")
	assert.True(t, apperrors.IsNotFound(err))

	summaries, err := repo.ListMapSummaries(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestDeleteMapNotFound(t *testing.T) {
	repo, _ := newTestRepository(t)

	err := repo.DeleteMap(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateMap(t *testing.T) {
	ctx := context.Background()

	t.Run("applies defaults", func(t *testing.T) {
		repo, _ := newTestRepository(t)

		m, err := repo.CreateMap(ctx, "", "", nil, nil, 0)

		require.NoError(t, err)
		assert.Equal(t, "Untitled Map", m.Name)
		require.Len(t, m.Nodes, 1)
		assert.Equal(t, "Internet", m.Nodes[0].ID)
		assert.Contains(t, m.ID, "map-")
		assert.False(t, m.Created.IsZero())
		assert.Equal(t, m.Created, m.Updated)
	})

	t.Run("enforces the node limit", func(t *testing.T) {
		repo, _ := newTestRepository(t)

		_, err := repo.CreateMap(ctx, "big", "",
			[]sysmap.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil, 2)

		require.Error(t, err)
		assert.True(t, apperrors.IsLimitExceeded(err))
	})

	t.Run("assigns distinct ids", func(t *testing.T) {
		repo, _ := newTestRepository(t)

		first, err := repo.CreateMap(ctx, "one", "", nil, nil, 0)
		require.NoError(t, err)
		second, err := repo.CreateMap(ctx, "two", "", nil, nil, 0)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestEnsureDefaultMap(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds on empty store", func(t *testing.T) {
		repo, _ := newTestRepository(t)

		require.NoError(t, repo.EnsureDefaultMap(ctx, "My System Map"))

		m, err := repo.GetMap(ctx, DefaultMapID)
		require.NoError(t, err)
		assert.Equal(t, "My System Map", m.Name)
		assert.True(t, m.HasNode("Internet"))
		assert.True(t, m.HasNode("Router"))
		assert.Contains(t, m.Links, sysmap.Link{Source: "Internet", Target: "Router"})
	})

	t.Run("does nothing when maps exist", func(t *testing.T) {
		repo, _ := newTestRepository(t)

		_, err := repo.CreateMap(ctx, "existing", "", nil, nil, 0)
		require.NoError(t, err)

		require.NoError(t, repo.EnsureDefaultMap(ctx, "My System Map"))

		_, err = repo.GetMap(ctx, DefaultMapID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestReconcileMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("drops entries without a document", func(t *testing.T) {
		repo, kv := newTestRepository(t)

		stale, _ := json.Marshal(sysmap.Metadata{ID: "gone", Name: "Gone"})
		require.NoError(t, kv.HSet(ctx, "maps:list", "gone", stale))

		repaired, err := repo.ReconcileMetadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, repaired)

		summaries, err := repo.ListMapSummaries(ctx)
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})

	t.Run("rewrites drifted entries", func(t *testing.T) {
		repo, kv := newTestRepository(t)

		m := sysmap.NewMap("map-1", "Current", "", []sysmap.Node{{ID: "a"}}, nil)
		require.NoError(t, repo.SaveMap(ctx, m))

		drifted, _ := json.Marshal(sysmap.Metadata{ID: "map-1", Name: "Stale", NodeCount: 9, Updated: m.Updated})
		require.NoError(t, kv.HSet(ctx, "maps:list", "map-1", drifted))

		repaired, err := repo.ReconcileMetadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, repaired)

		summaries, err := repo.ListMapSummaries(ctx)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "Current", summaries[0].Name)
		assert.Equal(t, 1, summaries[0].NodeCount)
	})

	t.Run("leaves consistent entries alone", func(t *testing.T) {
		repo, _ := newTestRepository(t)

		m := sysmap.NewMap("map-1", "Current", "", nil, nil)
		require.NoError(t, repo.SaveMap(ctx, m))

		repaired, err := repo.ReconcileMetadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, repaired)
	})
}
