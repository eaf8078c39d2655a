package entities

import (
	"encoding/json"
	"time"

	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"
)

// Node is a shape placed on the canvas.
// Private fields keep all writes flowing through methods so the store
// can stamp timestamps and validate consistently.
type Node struct {
	id       valueobjects.NodeID
	title    string
	content  string
	position valueobjects.Position
	color    string
	shape    valueobjects.Shape
	isRoot   bool
	created  time.Time
	modified time.Time
}

const (
	defaultNodeColor = "#4a90d9"
	maxTitleLength   = 200
)

// NewNode creates a node with validation. Zero-value shape and color
// fall back to the editor defaults.
func NewNode(id valueobjects.NodeID, title, content string, position valueobjects.Position, color string, shape valueobjects.Shape, isRoot bool) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node id cannot be empty")
	}
	if len(title) > maxTitleLength {
		return nil, pkgerrors.NewValidationErrorf("title exceeds %d characters", maxTitleLength)
	}
	if color == "" {
		color = defaultNodeColor
	}
	if err := valueobjects.ValidateColor(color); err != nil {
		return nil, err
	}
	if shape == "" {
		shape = valueobjects.ShapeRounded
	} else if _, err := valueobjects.ParseShape(string(shape)); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Node{
		id:       id,
		title:    title,
		content:  content,
		position: position,
		color:    color,
		shape:    shape,
		isRoot:   isRoot,
		created:  now,
		modified: now,
	}, nil
}

// ReconstructNode rebuilds a node from persisted data with preserved timestamps
func ReconstructNode(id valueobjects.NodeID, title, content string, position valueobjects.Position, color string, shape valueobjects.Shape, isRoot bool, created, modified time.Time) (*Node, error) {
	node, err := NewNode(id, title, content, position, color, shape, isRoot)
	if err != nil {
		return nil, err
	}
	if !created.IsZero() {
		node.created = created
	}
	if modified.Before(node.created) {
		modified = node.created
	}
	node.modified = modified
	return node, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Title returns the display title
func (n *Node) Title() string {
	return n.title
}

// Content returns the body text
func (n *Node) Content() string {
	return n.content
}

// Position returns the node's canvas position
func (n *Node) Position() valueobjects.Position {
	return n.position
}

// Color returns the stroke/accent color
func (n *Node) Color() string {
	return n.color
}

// Shape returns the node's outline shape
func (n *Node) Shape() valueobjects.Shape {
	return n.shape
}

// IsRoot reports whether this node is the document root
func (n *Node) IsRoot() bool {
	return n.isRoot
}

// Created returns when the node was created
func (n *Node) Created() time.Time {
	return n.created
}

// Modified returns when the node was last modified
func (n *Node) Modified() time.Time {
	return n.modified
}

// NodePatch carries a partial node update. Nil fields are left untouched.
type NodePatch struct {
	Title   *string
	Content *string
	X       *float64
	Y       *float64
	Color   *string
	Shape   *string
	IsRoot  *bool
}

// IsEmpty reports whether the patch changes nothing
func (p NodePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.X == nil && p.Y == nil &&
		p.Color == nil && p.Shape == nil && p.IsRoot == nil
}

// Apply merges a partial patch into the node. Fields that were
// validated at creation (shape, color, coordinates) are re-validated
// here; anything else merges as-is. Modified is always stamped.
func (n *Node) Apply(patch NodePatch) error {
	if patch.Title != nil {
		if len(*patch.Title) > maxTitleLength {
			return pkgerrors.NewValidationErrorf("title exceeds %d characters", maxTitleLength)
		}
	}
	if patch.Color != nil {
		if err := valueobjects.ValidateColor(*patch.Color); err != nil {
			return err
		}
	}
	var shape valueobjects.Shape
	if patch.Shape != nil {
		parsed, err := valueobjects.ParseShape(*patch.Shape)
		if err != nil {
			return err
		}
		shape = parsed
	}
	position := n.position
	if patch.X != nil || patch.Y != nil {
		x, y := n.position.X(), n.position.Y()
		if patch.X != nil {
			x = *patch.X
		}
		if patch.Y != nil {
			y = *patch.Y
		}
		moved, err := valueobjects.NewPosition(x, y)
		if err != nil {
			return err
		}
		position = moved
	}

	if patch.Title != nil {
		n.title = *patch.Title
	}
	if patch.Content != nil {
		n.content = *patch.Content
	}
	if patch.Color != nil {
		n.color = *patch.Color
	}
	if patch.Shape != nil {
		n.shape = shape
	}
	if patch.IsRoot != nil {
		n.isRoot = *patch.IsRoot
	}
	n.position = position
	n.touch()
	return nil
}

// MoveTo moves the node to a new position, stamping Modified
func (n *Node) MoveTo(position valueobjects.Position) {
	if position.Equals(n.position) {
		return
	}
	n.position = position
	n.touch()
}

// SetRoot flips the root flag, stamping Modified
func (n *Node) SetRoot(isRoot bool) {
	if n.isRoot == isRoot {
		return
	}
	n.isRoot = isRoot
	n.touch()
}

// Clone returns an independent copy of the node
func (n *Node) Clone() *Node {
	clone := *n
	return &clone
}

// MarshalJSON implements json.Marshaler so nodes embedded in events and
// API payloads serialize their full state
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string    `json:"id"`
		Title    string    `json:"title"`
		Content  string    `json:"content,omitempty"`
		X        float64   `json:"x"`
		Y        float64   `json:"y"`
		Color    string    `json:"color"`
		Shape    string    `json:"shape"`
		IsRoot   bool      `json:"isRoot"`
		Created  time.Time `json:"created"`
		Modified time.Time `json:"modified"`
	}{
		ID:       n.id.String(),
		Title:    n.title,
		Content:  n.content,
		X:        n.position.X(),
		Y:        n.position.Y(),
		Color:    n.color,
		Shape:    string(n.shape),
		IsRoot:   n.isRoot,
		Created:  n.created,
		Modified: n.modified,
	})
}

// touch stamps the modified time, keeping it monotonic per node
func (n *Node) touch() {
	now := time.Now()
	if now.Before(n.modified) {
		return
	}
	n.modified = now
}
