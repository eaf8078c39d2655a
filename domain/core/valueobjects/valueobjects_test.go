package valueobjects_test

import (
	"encoding/json"
	"math"
	"testing"

	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodeID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "uuid", id: "a9f0e61a-137d-36aa-9e58-8acd2b21c1ab"},
		{name: "legacy", id: "node-12"},
		{name: "opaque", id: "anything-goes"},
		{name: "empty", id: "", wantErr: true},
		{name: "surrounding whitespace", id: " node-1 ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := valueobjects.ParseNodeID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, id.String())
		})
	}
}

func TestNewNodeIDIsUnique(t *testing.T) {
	a := valueobjects.NewNodeID()
	b := valueobjects.NewNodeID()
	assert.False(t, a.Equals(b))
	assert.False(t, a.IsZero())
}

func TestLegacySequence(t *testing.T) {
	tests := []struct {
		id   string
		seq  int
		want bool
	}{
		{id: "node-7", seq: 7, want: true},
		{id: "connection-42", seq: 42, want: true},
		{id: "branch-3", seq: 3, want: true},
		{id: "node-", want: false},
		{id: "node-abc", want: false},
		{id: "7c2b8a9e-node-1", want: false},
		{id: "edge-1", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			seq, ok := valueobjects.LegacySequence(tt.id)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.seq, seq)
		})
	}
}

func TestNodeIDJSONRoundTrip(t *testing.T) {
	id, err := valueobjects.ParseNodeID("node-5")
	require.NoError(t, err)

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"node-5"`, string(data))

	var decoded valueobjects.NodeID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, id.Equals(decoded))

	assert.Error(t, json.Unmarshal([]byte(`42`), &decoded))
}

func TestNewPositionRejectsNonFinite(t *testing.T) {
	_, err := valueobjects.NewPosition(math.NaN(), 0)
	assert.True(t, pkgerrors.IsValidation(err))
	_, err = valueobjects.NewPosition(0, math.Inf(1))
	assert.True(t, pkgerrors.IsValidation(err))

	p, err := valueobjects.NewPosition(3, 4)
	require.NoError(t, err)
	assert.Equal(t, 3.0, p.X())
	assert.Equal(t, 4.0, p.Y())
}

func TestPositionDistanceAndMidpoint(t *testing.T) {
	a, _ := valueobjects.NewPosition(0, 0)
	b, _ := valueobjects.NewPosition(3, 4)
	assert.Equal(t, 5.0, a.DistanceTo(b))

	mid := a.Midpoint(b)
	assert.Equal(t, 1.5, mid.X())
	assert.Equal(t, 2.0, mid.Y())
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		color   string
		wantErr bool
	}{
		{color: "#fff"},
		{color: "#4A90D9"},
		{color: "teal"},
		{color: "Orange"},
		{color: "", wantErr: true},
		{color: "#12345", wantErr: true},
		{color: "chartreuse", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			err := valueobjects.ValidateColor(tt.color)
			if tt.wantErr {
				assert.True(t, pkgerrors.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLineStyleDashArray(t *testing.T) {
	assert.Equal(t, "", valueobjects.LineStyleSolid.DashArray())
	assert.Equal(t, "8,4", valueobjects.LineStyleDashed.DashArray())
	assert.Equal(t, "2,3", valueobjects.LineStyleDotted.DashArray())
}

func TestConnectionTypeStrokeWidth(t *testing.T) {
	assert.Equal(t, 2.0, valueobjects.ConnectionTypeDefault.StrokeWidth())
	assert.Equal(t, 3.0, valueobjects.ConnectionTypePrimary.StrokeWidth())
	assert.Equal(t, 1.5, valueobjects.ConnectionTypeSecondary.StrokeWidth())
}

func TestUIStateMerge(t *testing.T) {
	state := valueobjects.DefaultUIState()
	assert.Equal(t, valueobjects.ToolSelect, state.CurrentTool)
	assert.Equal(t, 1.0, state.ZoomLevel)

	zoom := 2.5
	tool := "pan"
	merged, err := state.Merge(valueobjects.UIPatch{
		ZoomLevel:   &zoom,
		CurrentTool: &tool,
		Offset:      &valueobjects.Offset{X: 10, Y: -20},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.5, merged.ZoomLevel)
	assert.Equal(t, valueobjects.ToolPan, merged.CurrentTool)
	assert.Equal(t, 10.0, merged.Offset.X)
}

func TestUIStateMergeRejectsInvalid(t *testing.T) {
	state := valueobjects.DefaultUIState()

	zoom := 0.0
	_, err := state.Merge(valueobjects.UIPatch{ZoomLevel: &zoom})
	assert.True(t, pkgerrors.IsValidation(err))

	zoom = valueobjects.MaxZoomLevel + 0.1
	_, err = state.Merge(valueobjects.UIPatch{ZoomLevel: &zoom})
	assert.True(t, pkgerrors.IsValidation(err))

	tool := "lasso"
	_, err = state.Merge(valueobjects.UIPatch{CurrentTool: &tool})
	assert.True(t, pkgerrors.IsValidation(err))

	// A rejected patch leaves the receiver untouched
	assert.Equal(t, 1.0, state.ZoomLevel)
}

func TestPreferencesValidate(t *testing.T) {
	prefs := valueobjects.DefaultPreferences()
	require.NoError(t, prefs.Validate())

	prefs.AutoSaveIntervalMs = 500
	assert.True(t, pkgerrors.IsValidation(prefs.Validate()))

	prefs = valueobjects.DefaultPreferences()
	prefs.Theme = "sepia"
	assert.True(t, pkgerrors.IsValidation(prefs.Validate()))
}
