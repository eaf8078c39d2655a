package entities_test

import (
	"strings"
	"testing"

	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeID(t *testing.T, id string) valueobjects.NodeID {
	t.Helper()
	parsed, err := valueobjects.ParseNodeID(id)
	require.NoError(t, err)
	return parsed
}

func connID(t *testing.T, id string) valueobjects.ConnectionID {
	t.Helper()
	parsed, err := valueobjects.ParseConnectionID(id)
	require.NoError(t, err)
	return parsed
}

func pos(t *testing.T, x, y float64) valueobjects.Position {
	t.Helper()
	p, err := valueobjects.NewPosition(x, y)
	require.NoError(t, err)
	return p
}

func TestNewNodeDefaults(t *testing.T) {
	node, err := entities.NewNode(nodeID(t, "n1"), "Idea", "", pos(t, 0, 0), "", "", false)
	require.NoError(t, err)

	assert.Equal(t, "#4a90d9", node.Color())
	assert.Equal(t, valueobjects.ShapeRounded, node.Shape())
	assert.False(t, node.IsRoot())
	assert.False(t, node.Created().IsZero())
}

func TestNewNodeValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() error
	}{
		{
			name: "zero id",
			build: func() error {
				_, err := entities.NewNode(valueobjects.NodeID{}, "x", "", pos(t, 0, 0), "", "", false)
				return err
			},
		},
		{
			name: "title too long",
			build: func() error {
				_, err := entities.NewNode(nodeID(t, "n1"), strings.Repeat("a", 201), "", pos(t, 0, 0), "", "", false)
				return err
			},
		},
		{
			name: "bad color",
			build: func() error {
				_, err := entities.NewNode(nodeID(t, "n1"), "x", "", pos(t, 0, 0), "not-a-color", "", false)
				return err
			},
		},
		{
			name: "bad shape",
			build: func() error {
				_, err := entities.NewNode(nodeID(t, "n1"), "x", "", pos(t, 0, 0), "", "hexagon", false)
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, pkgerrors.IsValidation(tt.build()))
		})
	}
}

func TestNodeApplyPatch(t *testing.T) {
	node, err := entities.NewNode(nodeID(t, "n1"), "Old", "body", pos(t, 1, 2), "", "", false)
	require.NoError(t, err)
	before := node.Modified()

	title := "New"
	x := 10.0
	shape := "circle"
	require.NoError(t, node.Apply(entities.NodePatch{Title: &title, X: &x, Shape: &shape}))

	assert.Equal(t, "New", node.Title())
	assert.Equal(t, 10.0, node.Position().X())
	assert.Equal(t, 2.0, node.Position().Y())
	assert.Equal(t, valueobjects.ShapeCircle, node.Shape())
	assert.Equal(t, "body", node.Content())
	assert.False(t, node.Modified().Before(before))
}

func TestNodeApplyInvalidPatchLeavesNodeUnchanged(t *testing.T) {
	node, err := entities.NewNode(nodeID(t, "n1"), "Old", "", pos(t, 1, 2), "", "", false)
	require.NoError(t, err)

	title := "New"
	shape := "star"
	err = node.Apply(entities.NodePatch{Title: &title, Shape: &shape})
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, "Old", node.Title())
	assert.Equal(t, valueobjects.ShapeRounded, node.Shape())
}

func TestNodeCloneIsIndependent(t *testing.T) {
	node, err := entities.NewNode(nodeID(t, "n1"), "Original", "", pos(t, 0, 0), "", "", false)
	require.NoError(t, err)

	clone := node.Clone()
	title := "Changed"
	require.NoError(t, clone.Apply(entities.NodePatch{Title: &title}))

	assert.Equal(t, "Original", node.Title())
	assert.Equal(t, "Changed", clone.Title())
}

func TestNewConnectionRejectsSelfLoop(t *testing.T) {
	_, err := entities.NewConnection(connID(t, "c1"), nodeID(t, "a"), nodeID(t, "a"), "", "", "", nil)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNewConnectionDefaults(t *testing.T) {
	conn, err := entities.NewConnection(connID(t, "c1"), nodeID(t, "a"), nodeID(t, "b"), "", "", "", nil)
	require.NoError(t, err)

	assert.Equal(t, valueobjects.LineStyleSolid, conn.Style())
	assert.Equal(t, valueobjects.ConnectionTypeDefault, conn.Type())
	assert.Nil(t, conn.ControlPoint())
}

func TestConnectionTouches(t *testing.T) {
	conn, err := entities.NewConnection(connID(t, "c1"), nodeID(t, "a"), nodeID(t, "b"), "", "", "", nil)
	require.NoError(t, err)

	assert.True(t, conn.Touches(nodeID(t, "a")))
	assert.True(t, conn.Touches(nodeID(t, "b")))
	assert.False(t, conn.Touches(nodeID(t, "c")))
}

func TestConnectionApplyPatch(t *testing.T) {
	conn, err := entities.NewConnection(connID(t, "c1"), nodeID(t, "a"), nodeID(t, "b"), "", "", "", nil)
	require.NoError(t, err)

	label := "depends on"
	style := "dashed"
	control := pos(t, 50, 50)
	require.NoError(t, conn.Apply(entities.ConnectionPatch{
		Label:        &label,
		Style:        &style,
		ControlPoint: &control,
	}))

	assert.Equal(t, "depends on", conn.Label())
	assert.Equal(t, valueobjects.LineStyleDashed, conn.Style())
	require.NotNil(t, conn.ControlPoint())
	assert.Equal(t, 50.0, conn.ControlPoint().X())

	require.NoError(t, conn.Apply(entities.ConnectionPatch{ClearControl: true}))
	assert.Nil(t, conn.ControlPoint())
}

func TestConnectionCloneCopiesControlPoint(t *testing.T) {
	control := pos(t, 5, 5)
	conn, err := entities.NewConnection(connID(t, "c1"), nodeID(t, "a"), nodeID(t, "b"), "", "", "", &control)
	require.NoError(t, err)

	clone := conn.Clone()
	require.NoError(t, clone.Apply(entities.ConnectionPatch{ClearControl: true}))

	assert.NotNil(t, conn.ControlPoint())
	assert.Nil(t, clone.ControlPoint())
}
