package render

import (
	"fmt"
	"strconv"

	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
)

// VirtualNode is a lightweight description of one rendered connection:
// path geometry plus stroke attributes plus optional children (label,
// control-point handle). Virtual nodes are rebuilt wholesale on every
// render pass, diffed against the previous pass, then discarded.
type VirtualNode struct {
	ID       string
	From     string
	To       string
	Attrs    Attributes
	Children []VirtualChild
}

// Attributes are the SVG paint properties of a connection path
type Attributes struct {
	Path            string
	Stroke          string
	StrokeWidth     float64
	StrokeDasharray string
	Opacity         float64
	ClassName       string
}

// VirtualChild is an optional sub-element of a rendered connection
type VirtualChild struct {
	Kind string // "label" or "handle"
	Text string
	X    float64
	Y    float64
}

// attrMap flattens the attributes for diffing and patch payloads
func (a Attributes) attrMap() map[string]string {
	return map[string]string{
		"path":             a.Path,
		"stroke":           a.Stroke,
		"stroke-width":     strconv.FormatFloat(a.StrokeWidth, 'g', -1, 64),
		"stroke-dasharray": a.StrokeDasharray,
		"opacity":          strconv.FormatFloat(a.Opacity, 'g', -1, 64),
		"class":            a.ClassName,
	}
}

// strokeColors maps connection types to their default stroke
var strokeColors = map[valueobjects.ConnectionType]string{
	valueobjects.ConnectionTypeDefault:   "#666666",
	valueobjects.ConnectionTypePrimary:   "#4a90d9",
	valueobjects.ConnectionTypeSecondary: "#999999",
	valueobjects.ConnectionTypeBranch:    "#7cb342",
}

const selectedStroke = "#ff9800"

// BuildVirtualNode computes the virtual representation of one
// connection given its endpoint nodes and the current selection
func BuildVirtualNode(conn *entities.Connection, from, to *entities.Node, selectedID string) *VirtualNode {
	path, control := connectionPath(conn, from, to)

	selected := selectedID != "" && selectedID == conn.ID().String()
	stroke := strokeColors[conn.Type()]
	opacity := 1.0
	if conn.Type() == valueobjects.ConnectionTypeSecondary {
		opacity = 0.7
	}
	className := "connection connection-" + string(conn.Type())
	if selected {
		stroke = selectedStroke
		className += " selected"
	}

	vnode := &VirtualNode{
		ID:   conn.ID().String(),
		From: conn.From().String(),
		To:   conn.To().String(),
		Attrs: Attributes{
			Path:            path,
			Stroke:          stroke,
			StrokeWidth:     conn.Type().StrokeWidth(),
			StrokeDasharray: conn.Style().DashArray(),
			Opacity:         opacity,
			ClassName:       className,
		},
	}

	if label := conn.Label(); label != "" {
		mid := from.Position().Midpoint(to.Position())
		vnode.Children = append(vnode.Children, VirtualChild{
			Kind: "label",
			Text: label,
			X:    mid.X(),
			Y:    mid.Y() - 6,
		})
	}
	if selected && control != nil {
		vnode.Children = append(vnode.Children, VirtualChild{
			Kind: "handle",
			X:    control.X(),
			Y:    control.Y(),
		})
	}

	return vnode
}

// connectionPath computes the SVG path for a connection: a straight
// line, or a quadratic bezier through an explicit or auto-computed
// control point. Returns the control point actually used, nil when
// straight.
func connectionPath(conn *entities.Connection, from, to *entities.Node) (string, *valueobjects.Position) {
	x1, y1 := from.Position().X(), from.Position().Y()
	x2, y2 := to.Position().X(), to.Position().Y()

	control := conn.ControlPoint()
	if control == nil && conn.Type() == valueobjects.ConnectionTypeBranch {
		// Branch connections curve by default: bow the midpoint out
		// perpendicular to the segment by a fixed fraction of its length
		auto := autoControlPoint(from.Position(), to.Position())
		control = &auto
	}

	if control == nil {
		return fmt.Sprintf("M %s %s L %s %s", coord(x1), coord(y1), coord(x2), coord(y2)), nil
	}
	path := fmt.Sprintf("M %s %s Q %s %s %s %s",
		coord(x1), coord(y1),
		coord(control.X()), coord(control.Y()),
		coord(x2), coord(y2))
	return path, control
}

// autoControlPoint bows the segment midpoint out by 15% of its length
func autoControlPoint(from, to valueobjects.Position) valueobjects.Position {
	mid := from.Midpoint(to)
	dx := to.X() - from.X()
	dy := to.Y() - from.Y()
	// Perpendicular offset; degenerate zero-length segments keep the midpoint
	offset, err := mid.Translate(-dy*0.15, dx*0.15)
	if err != nil {
		return mid
	}
	return offset
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
