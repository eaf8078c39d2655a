package valueobjects

import (
	"regexp"
	"strings"

	pkgerrors "mindcanvas/pkg/errors"
)

// Shape defines the outline drawn for a node
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeRounded   Shape = "rounded"
	ShapeCircle    Shape = "circle"
	ShapeDiamond   Shape = "diamond"
)

// ParseShape validates and returns a Shape
func ParseShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeRectangle, ShapeRounded, ShapeCircle, ShapeDiamond:
		return Shape(s), nil
	}
	return "", pkgerrors.NewValidationErrorf("invalid shape %q: must be one of rectangle, rounded, circle, diamond", s)
}

// LineStyle defines how a connection path is stroked
type LineStyle string

const (
	LineStyleSolid  LineStyle = "solid"
	LineStyleDashed LineStyle = "dashed"
	LineStyleDotted LineStyle = "dotted"
)

// ParseLineStyle validates and returns a LineStyle
func ParseLineStyle(s string) (LineStyle, error) {
	switch LineStyle(s) {
	case LineStyleSolid, LineStyleDashed, LineStyleDotted:
		return LineStyle(s), nil
	}
	return "", pkgerrors.NewValidationErrorf("invalid line style %q: must be one of solid, dashed, dotted", s)
}

// DashArray returns the SVG stroke-dasharray for the style, empty for solid
func (s LineStyle) DashArray() string {
	switch s {
	case LineStyleDashed:
		return "8,4"
	case LineStyleDotted:
		return "2,3"
	default:
		return ""
	}
}

// ConnectionType classifies a connection for styling and semantics
type ConnectionType string

const (
	ConnectionTypeDefault   ConnectionType = "default"
	ConnectionTypePrimary   ConnectionType = "primary"
	ConnectionTypeSecondary ConnectionType = "secondary"
	ConnectionTypeBranch    ConnectionType = "branch"
)

// ParseConnectionType validates and returns a ConnectionType
func ParseConnectionType(s string) (ConnectionType, error) {
	switch ConnectionType(s) {
	case ConnectionTypeDefault, ConnectionTypePrimary, ConnectionTypeSecondary, ConnectionTypeBranch:
		return ConnectionType(s), nil
	}
	return "", pkgerrors.NewValidationErrorf("invalid connection type %q: must be one of default, primary, secondary, branch", s)
}

// StrokeWidth returns the stroke width drawn for the type
func (t ConnectionType) StrokeWidth() float64 {
	switch t {
	case ConnectionTypePrimary:
		return 3
	case ConnectionTypeBranch:
		return 2.5
	case ConnectionTypeSecondary:
		return 1.5
	default:
		return 2
	}
}

// Tool identifies the active canvas tool
type Tool string

const (
	ToolSelect     Tool = "select"
	ToolNode       Tool = "node"
	ToolConnection Tool = "connection"
	ToolPan        Tool = "pan"
	ToolDelete     Tool = "delete"
)

// ParseTool validates and returns a Tool
func ParseTool(s string) (Tool, error) {
	switch Tool(s) {
	case ToolSelect, ToolNode, ToolConnection, ToolPan, ToolDelete:
		return Tool(s), nil
	}
	return "", pkgerrors.NewValidationErrorf("invalid tool %q: must be one of select, node, connection, pan, delete", s)
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// namedColors is the palette the editor ships with; anything else must
// be given as a hex triplet.
var namedColors = map[string]bool{
	"black": true, "white": true, "gray": true, "silver": true,
	"red": true, "orange": true, "yellow": true, "green": true,
	"teal": true, "blue": true, "navy": true, "purple": true,
	"pink": true, "brown": true,
}

// ValidateColor checks a stroke/accent color value (hex or named)
func ValidateColor(color string) error {
	if color == "" {
		return pkgerrors.NewValidationError("color cannot be empty")
	}
	if hexColorPattern.MatchString(color) {
		return nil
	}
	if namedColors[strings.ToLower(color)] {
		return nil
	}
	return pkgerrors.NewValidationErrorf("invalid color %q: must be a hex value or a named color", color)
}
