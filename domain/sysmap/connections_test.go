package sysmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sysmap-backend/pkg/errors"
)

func TestConnections(t *testing.T) {
	t.Run("splits neighborhood into parents and children", func(t *testing.T) {
		m := testMap()

		view, err := m.Connections("db")

		require.NoError(t, err)
		assert.Equal(t, "db", view.NodeID)
		assert.Equal(t, "Database", view.NodeType)
		assert.Equal(t, 1, view.ParentCount)
		assert.Equal(t, 0, view.ChildCount)
		assert.Equal(t, 1, view.TotalConnections)
		require.Len(t, view.Connections.Parents, 1)
		assert.Equal(t, "web", view.Connections.Parents[0].ID)
		assert.Equal(t, "parent", view.Connections.Parents[0].Direction)
	})

	t.Run("counts distinct neighbors once", func(t *testing.T) {
		m := testMap()
		m.Links = append(m.Links, Link{Source: "web", Target: "db"})

		view, err := m.Connections("db")

		require.NoError(t, err)
		assert.Equal(t, 1, view.ParentCount)
	})

	t.Run("a self loop shows up on both sides", func(t *testing.T) {
		m := testMap()
		m.Links = append(m.Links, Link{Source: "db", Target: "db"})

		view, err := m.Connections("db")

		require.NoError(t, err)
		assert.Equal(t, 2, view.ParentCount)
		assert.Equal(t, 1, view.ChildCount)
	})

	t.Run("dangling neighbor is reported with the unknown type", func(t *testing.T) {
		m := testMap()
		m.Links = append(m.Links, Link{Source: "ghost", Target: "db"})

		view, err := m.Connections("db")

		require.NoError(t, err)
		require.Len(t, view.Connections.Parents, 2)

		var ghost *Connection
		for i := range view.Connections.Parents {
			if view.Connections.Parents[i].ID == "ghost" {
				ghost = &view.Connections.Parents[i]
			}
		}
		require.NotNil(t, ghost)
		assert.Equal(t, UnknownType, ghost.Type)
	})

	t.Run("all is the concatenation of parents and children", func(t *testing.T) {
		m := testMap()

		view, err := m.Connections("web")

		require.NoError(t, err)
		assert.Len(t, view.Connections.All, view.TotalConnections)
	})

	t.Run("returns not found for missing node", func(t *testing.T) {
		m := testMap()

		_, err := m.Connections("ghost")

		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestAllConnections(t *testing.T) {
	t.Run("enriches every link with endpoint data", func(t *testing.T) {
		m := testMap()

		out := m.AllConnections()

		assert.Equal(t, "map-test", out.MapID)
		assert.Equal(t, 2, out.TotalConnections)
		require.Len(t, out.Connections, 2)
		assert.Equal(t, "web", out.Connections[0].Source.ID)
		assert.Equal(t, "Server", out.Connections[0].Source.Type)
		assert.Equal(t, "web -> db", out.Connections[0].Relationship)
	})

	t.Run("keeps dangling links with unknown endpoints", func(t *testing.T) {
		m := testMap()
		m.Links = append(m.Links, Link{Source: "ghost", Target: "web"})

		out := m.AllConnections()

		require.Len(t, out.Connections, 3)
		assert.Equal(t, UnknownType, out.Connections[2].Source.Type)
		assert.Equal(t, "ghost", out.Connections[2].Source.Name)
	})
}
