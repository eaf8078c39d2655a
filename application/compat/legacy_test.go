package compat_test

import (
	"testing"

	"mindcanvas/application/compat"
	"mindcanvas/application/store"
	pkgevents "mindcanvas/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFacade(t *testing.T) (*compat.Facade, *store.Store) {
	t.Helper()
	logger := zap.NewNop()
	s := store.NewStore(pkgevents.NewBus(logger), 0, logger)
	return compat.NewFacade(s, logger), s
}

func TestIsLegacyDocument(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"legacy with nextNodeId", `{"nodes":[],"connections":[],"nextNodeId":5}`, true},
		{"legacy with rootNodeId", `{"nodes":[],"rootNodeId":"node-1"}`, true},
		{"current format", `{"nodes":[],"metadata":{"format":"mindcanvas"}}`, false},
		{"current format with legacy leftovers", `{"metadata":{},"nextNodeId":5}`, false},
		{"plain nodes only", `{"nodes":[]}`, false},
		{"not json", `nonsense`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compat.IsLegacyDocument([]byte(tt.raw)))
		})
	}
}

func TestMigrateLegacyKeepsIDsAndEndpoints(t *testing.T) {
	legacy := compat.LegacyDocument{
		Nodes: []compat.LegacyNode{
			{ID: "node-1", Title: "Center", IsRoot: true},
			{ID: "node-2", Title: "Leaf", X: 100, Y: 50},
		},
		Connections: []compat.LegacyConnection{
			{ID: "connection-1", Source: "node-1", Target: "node-2", Label: "link"},
		},
		NextNodeID: 3,
		RootNodeID: "node-1",
	}

	file, err := compat.MigrateLegacy(legacy, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, file.Nodes, 2)
	assert.Equal(t, "node-1", file.Nodes[0].ID)
	assert.True(t, file.Nodes[0].IsRoot)
	assert.Equal(t, 100.0, file.Nodes[1].X)

	require.Len(t, file.Connections, 1)
	assert.Equal(t, "node-1", file.Connections[0].From)
	assert.Equal(t, "node-2", file.Connections[0].To)
	assert.Equal(t, store.FormatName, file.Metadata.Format)
}

func TestMigrateLegacyRootReconciliation(t *testing.T) {
	t.Run("flags win over rootNodeId", func(t *testing.T) {
		legacy := compat.LegacyDocument{
			Nodes: []compat.LegacyNode{
				{ID: "node-1", IsRoot: true},
				{ID: "node-2"},
			},
			RootNodeID: "node-2",
		}
		file, err := compat.MigrateLegacy(legacy, zap.NewNop())
		require.NoError(t, err)
		assert.True(t, file.Nodes[0].IsRoot)
		assert.False(t, file.Nodes[1].IsRoot)
	})

	t.Run("extra root flags demoted", func(t *testing.T) {
		legacy := compat.LegacyDocument{
			Nodes: []compat.LegacyNode{
				{ID: "node-1", IsRoot: true},
				{ID: "node-2", IsRoot: true},
			},
		}
		file, err := compat.MigrateLegacy(legacy, zap.NewNop())
		require.NoError(t, err)
		assert.True(t, file.Nodes[0].IsRoot)
		assert.False(t, file.Nodes[1].IsRoot)
	})

	t.Run("rootNodeId used when no flags", func(t *testing.T) {
		legacy := compat.LegacyDocument{
			Nodes: []compat.LegacyNode{
				{ID: "node-1"},
				{ID: "node-2"},
			},
			RootNodeID: "node-2",
		}
		file, err := compat.MigrateLegacy(legacy, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, file.Nodes[0].IsRoot)
		assert.True(t, file.Nodes[1].IsRoot)
	})
}

func TestNextSequence(t *testing.T) {
	legacy := compat.LegacyDocument{
		Nodes: []compat.LegacyNode{
			{ID: "node-1"},
			{ID: "node-7"},
			{ID: "free-form-id"},
		},
		Connections: []compat.LegacyConnection{
			{ID: "connection-9"},
		},
		NextNodeID: 3,
	}
	assert.Equal(t, 10, compat.NextSequence(legacy))
}

func TestFacadeCreateAndConnect(t *testing.T) {
	facade, s := newFacade(t)

	a, err := facade.CreateNode("A", "", 0, 0)
	require.NoError(t, err)
	b, err := facade.CreateNode("B", "", 10, 10)
	require.NoError(t, err)

	conn, err := facade.CreateConnection(a.ID().String(), b.ID().String())
	require.NoError(t, err)

	assert.Equal(t, 2, s.NodeCount())
	assert.Equal(t, 1, s.ConnectionCount())
	assert.Equal(t, a.ID().String(), conn.From().String())
}

func TestFacadeEnsureNodeGuardsDoubleInsert(t *testing.T) {
	facade, s := newFacade(t)

	first, err := facade.EnsureNode(store.NodeInput{ID: "n", Title: "first"})
	require.NoError(t, err)
	second, err := facade.EnsureNode(store.NodeInput{ID: "n", Title: "second"})
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, "first", second.Title())
	assert.Equal(t, 1, s.NodeCount())
}

func TestFacadeDeleteCascades(t *testing.T) {
	facade, s := newFacade(t)

	a, err := facade.CreateNode("A", "", 0, 0)
	require.NoError(t, err)
	b, err := facade.CreateNode("B", "", 10, 10)
	require.NoError(t, err)
	_, err = facade.CreateConnection(a.ID().String(), b.ID().String())
	require.NoError(t, err)

	require.NoError(t, facade.DeleteNode(a.ID().String()))
	assert.Equal(t, 1, s.NodeCount())
	assert.Zero(t, s.ConnectionCount())

	// Deleting again is a no-op
	require.NoError(t, facade.DeleteNode(a.ID().String()))
}

func TestFacadeLoadLegacyData(t *testing.T) {
	facade, s := newFacade(t)

	raw := []byte(`{
		"nodes": [
			{"id": "node-1", "title": "Center", "x": 0, "y": 0, "isRoot": true},
			{"id": "node-2", "title": "Idea", "x": 120, "y": -40}
		],
		"connections": [
			{"id": "connection-1", "source": "node-1", "target": "node-2"}
		],
		"nextNodeId": 3,
		"rootNodeId": "node-1"
	}`)

	require.NoError(t, facade.LoadMindmapData(raw))

	assert.Equal(t, 2, s.NodeCount())
	assert.Equal(t, 1, s.ConnectionCount())

	root := s.GetNode("node-1")
	require.NotNil(t, root)
	assert.True(t, root.IsRoot())

	conn := s.GetConnection("connection-1")
	require.NotNil(t, conn)
	assert.Equal(t, "node-1", conn.From().String())
}

func TestFacadeLoadCurrentFormat(t *testing.T) {
	facade, s := newFacade(t)

	_, err := facade.CreateNode("keeper", "", 0, 0)
	require.NoError(t, err)
	raw := []byte(`{"nodes":[{"id":"a","title":"A","x":1,"y":2}],"connections":[],"metadata":{"format":"mindcanvas","version":"2.0.0"}}`)

	require.NoError(t, facade.LoadMindmapData(raw))
	assert.Equal(t, 1, s.NodeCount())
	assert.NotNil(t, s.GetNode("a"))
}

func TestFacadeLoadMalformedData(t *testing.T) {
	facade, _ := newFacade(t)
	assert.Error(t, facade.LoadMindmapData([]byte(`{"nextNodeId": "not-a-number"`)))
}

func TestInitMindmap(t *testing.T) {
	facade, s := newFacade(t)

	_, err := facade.CreateNode("junk", "", 0, 0)
	require.NoError(t, err)

	require.NoError(t, facade.InitMindmap())

	nodes := s.GetNodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "Central Idea", nodes[0].Title())
	assert.True(t, nodes[0].IsRoot())
	assert.False(t, s.CanUndo())
	assert.False(t, s.IsDirty())
}
