package file

import (
	"os"
	"path/filepath"
	"testing"

	"mindcanvas/application/store"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadMissingFileIsNotFound(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())

	_, err := repo.Load()
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.False(t, repo.Exists())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	repo := NewRepository(path, zap.NewNop())

	doc := store.DocumentFile{
		Nodes: []store.NodeRecord{
			{ID: "a", Title: "Root", IsRoot: true},
			{ID: "b", Title: "Child", X: 100, Y: 50},
		},
		Connections: []store.ConnectionRecord{
			{ID: "ab", From: "a", To: "b", Label: "link"},
		},
	}
	require.NoError(t, repo.Save(doc))
	assert.True(t, repo.Exists())
	assert.False(t, repo.LastSaved().IsZero())

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 2)
	assert.Equal(t, "Root", loaded.Nodes[0].Title)
	assert.True(t, loaded.Nodes[0].IsRoot)
	require.Len(t, loaded.Connections, 1)
	assert.Equal(t, "link", loaded.Connections[0].Label)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository(filepath.Join(dir, "doc.json"), zap.NewNop())
	require.NoError(t, repo.Save(store.DocumentFile{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.json", entries[0].Name())
}

func TestLoadMigratesLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	legacy := `{
		"nodes": [
			{"id": "node-1", "title": "Center", "x": 0, "y": 0, "isRoot": true},
			{"id": "node-2", "title": "Leaf", "x": 10, "y": 10}
		],
		"connections": [
			{"id": "connection-1", "source": "node-1", "target": "node-2"}
		],
		"rootNodeId": "node-1",
		"nextNodeId": 3
	}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	repo := NewRepository(path, zap.NewNop())
	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 2)
	assert.Equal(t, "node-1", loaded.Nodes[0].ID)
	assert.True(t, loaded.Nodes[0].IsRoot)
	require.Len(t, loaded.Connections, 1)
	assert.Equal(t, "node-2", loaded.Connections[0].To)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo := NewRepository(path, zap.NewNop())
	_, err := repo.Load()
	assert.Error(t, err)
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestSaveOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	repo := NewRepository(path, zap.NewNop())

	require.NoError(t, repo.Save(store.DocumentFile{Nodes: []store.NodeRecord{{ID: "a"}}}))
	require.NoError(t, repo.Save(store.DocumentFile{Nodes: []store.NodeRecord{{ID: "b"}}}))

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "b", loaded.Nodes[0].ID)
}
