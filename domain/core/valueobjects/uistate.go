package valueobjects

import (
	pkgerrors "mindcanvas/pkg/errors"
)

// Offset is the canvas pan translation
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UIState is the transient editor state: selection, active tool and
// viewport. It is not a structural part of the document and never
// triggers history snapshots.
type UIState struct {
	SelectedNodeID       string  `json:"selectedNodeId,omitempty"`
	SelectedConnectionID string  `json:"selectedConnectionId,omitempty"`
	CurrentTool          Tool    `json:"currentTool"`
	ZoomLevel            float64 `json:"zoomLevel"`
	Offset               Offset  `json:"offset"`
}

// MaxZoomLevel bounds the viewport zoom; zero and negatives are invalid
const MaxZoomLevel = 5.0

// DefaultUIState returns the state a fresh document opens with
func DefaultUIState() UIState {
	return UIState{
		CurrentTool: ToolSelect,
		ZoomLevel:   1.0,
	}
}

// UIPatch carries a partial UI state update. Nil fields are untouched.
type UIPatch struct {
	SelectedNodeID       *string
	SelectedConnectionID *string
	CurrentTool          *string
	ZoomLevel            *float64
	Offset               *Offset
}

// IsEmpty reports whether the patch changes nothing
func (p UIPatch) IsEmpty() bool {
	return p.SelectedNodeID == nil && p.SelectedConnectionID == nil &&
		p.CurrentTool == nil && p.ZoomLevel == nil && p.Offset == nil
}

// Merge validates the patch and returns the merged state. Out-of-range
// values fail rather than clamp.
func (s UIState) Merge(patch UIPatch) (UIState, error) {
	merged := s
	if patch.SelectedNodeID != nil {
		merged.SelectedNodeID = *patch.SelectedNodeID
	}
	if patch.SelectedConnectionID != nil {
		merged.SelectedConnectionID = *patch.SelectedConnectionID
	}
	if patch.CurrentTool != nil {
		tool, err := ParseTool(*patch.CurrentTool)
		if err != nil {
			return s, err
		}
		merged.CurrentTool = tool
	}
	if patch.ZoomLevel != nil {
		z := *patch.ZoomLevel
		if !isValidCoordinate(z) || z <= 0 || z > MaxZoomLevel {
			return s, pkgerrors.NewValidationErrorf("zoom level %v out of range (0, %v]", z, MaxZoomLevel)
		}
		merged.ZoomLevel = z
	}
	if patch.Offset != nil {
		if !isValidCoordinate(patch.Offset.X) || !isValidCoordinate(patch.Offset.Y) {
			return s, pkgerrors.NewValidationError("offset coordinates must be finite numbers")
		}
		merged.Offset = *patch.Offset
	}
	return merged, nil
}

// Preferences are persisted editor settings. Unlike UIState they
// survive serialize/deserialize by default.
type Preferences struct {
	AutoSave           bool   `json:"autoSave"`
	AutoSaveIntervalMs int    `json:"autoSaveIntervalMs"`
	Theme              string `json:"theme"`
	SnapToGrid         bool   `json:"snapToGrid"`
	GridSize           int    `json:"gridSize"`
	ShowMinimap        bool   `json:"showMinimap"`
}

// DefaultPreferences returns the out-of-the-box editor settings
func DefaultPreferences() Preferences {
	return Preferences{
		AutoSave:           true,
		AutoSaveIntervalMs: 30000,
		Theme:              "light",
		SnapToGrid:         false,
		GridSize:           20,
		ShowMinimap:        true,
	}
}

// Validate checks preference ranges
func (p Preferences) Validate() error {
	if p.AutoSaveIntervalMs < 1000 {
		return pkgerrors.NewValidationError("autoSaveIntervalMs must be at least 1000")
	}
	if p.GridSize < 1 {
		return pkgerrors.NewValidationError("gridSize must be positive")
	}
	switch p.Theme {
	case "light", "dark", "system":
	default:
		return pkgerrors.NewValidationErrorf("invalid theme %q: must be one of light, dark, system", p.Theme)
	}
	return nil
}
