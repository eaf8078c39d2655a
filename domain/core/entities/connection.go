package entities

import (
	"encoding/json"
	"time"

	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"
)

// Connection is a directed edge between two nodes. Referential
// integrity against the node set is the document aggregate's job; the
// entity only enforces shape-level rules (no self-loop, valid enums).
type Connection struct {
	id           valueobjects.ConnectionID
	from         valueobjects.NodeID
	to           valueobjects.NodeID
	label        string
	style        valueobjects.LineStyle
	connType     valueobjects.ConnectionType
	controlPoint *valueobjects.Position
	created      time.Time
	modified     time.Time
}

// NewConnection creates a connection with validation
func NewConnection(id valueobjects.ConnectionID, from, to valueobjects.NodeID, label string, style valueobjects.LineStyle, connType valueobjects.ConnectionType, controlPoint *valueobjects.Position) (*Connection, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("connection id cannot be empty")
	}
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.NewValidationError("connection requires both from and to node ids")
	}
	if from.Equals(to) {
		return nil, pkgerrors.NewValidationError("connection cannot link a node to itself")
	}
	if style == "" {
		style = valueobjects.LineStyleSolid
	} else if _, err := valueobjects.ParseLineStyle(string(style)); err != nil {
		return nil, err
	}
	if connType == "" {
		connType = valueobjects.ConnectionTypeDefault
	} else if _, err := valueobjects.ParseConnectionType(string(connType)); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Connection{
		id:           id,
		from:         from,
		to:           to,
		label:        label,
		style:        style,
		connType:     connType,
		controlPoint: controlPoint,
		created:      now,
		modified:     now,
	}, nil
}

// ReconstructConnection rebuilds a connection from persisted data
func ReconstructConnection(id valueobjects.ConnectionID, from, to valueobjects.NodeID, label string, style valueobjects.LineStyle, connType valueobjects.ConnectionType, controlPoint *valueobjects.Position, created, modified time.Time) (*Connection, error) {
	conn, err := NewConnection(id, from, to, label, style, connType, controlPoint)
	if err != nil {
		return nil, err
	}
	if !created.IsZero() {
		conn.created = created
	}
	if modified.Before(conn.created) {
		modified = conn.created
	}
	conn.modified = modified
	return conn, nil
}

// ID returns the connection's unique identifier
func (c *Connection) ID() valueobjects.ConnectionID {
	return c.id
}

// From returns the source node id
func (c *Connection) From() valueobjects.NodeID {
	return c.from
}

// To returns the target node id
func (c *Connection) To() valueobjects.NodeID {
	return c.to
}

// Label returns the optional display text
func (c *Connection) Label() string {
	return c.label
}

// Style returns the stroke style
func (c *Connection) Style() valueobjects.LineStyle {
	return c.style
}

// Type returns the connection classification
func (c *Connection) Type() valueobjects.ConnectionType {
	return c.connType
}

// ControlPoint returns the optional curvature hint, nil for straight lines
func (c *Connection) ControlPoint() *valueobjects.Position {
	if c.controlPoint == nil {
		return nil
	}
	cp := *c.controlPoint
	return &cp
}

// Created returns when the connection was created
func (c *Connection) Created() time.Time {
	return c.created
}

// Modified returns when the connection was last modified
func (c *Connection) Modified() time.Time {
	return c.modified
}

// Touches reports whether the connection is incident to the given node
func (c *Connection) Touches(nodeID valueobjects.NodeID) bool {
	return c.from.Equals(nodeID) || c.to.Equals(nodeID)
}

// ConnectionPatch carries a partial connection update. Endpoints are
// immutable after creation; re-linking is a remove+add.
type ConnectionPatch struct {
	Label        *string
	Style        *string
	Type         *string
	ControlPoint *valueobjects.Position
	ClearControl bool
}

// IsEmpty reports whether the patch changes nothing
func (p ConnectionPatch) IsEmpty() bool {
	return p.Label == nil && p.Style == nil && p.Type == nil &&
		p.ControlPoint == nil && !p.ClearControl
}

// Apply merges a partial patch into the connection, stamping Modified
func (c *Connection) Apply(patch ConnectionPatch) error {
	var style valueobjects.LineStyle
	if patch.Style != nil {
		parsed, err := valueobjects.ParseLineStyle(*patch.Style)
		if err != nil {
			return err
		}
		style = parsed
	}
	var connType valueobjects.ConnectionType
	if patch.Type != nil {
		parsed, err := valueobjects.ParseConnectionType(*patch.Type)
		if err != nil {
			return err
		}
		connType = parsed
	}

	if patch.Label != nil {
		c.label = *patch.Label
	}
	if patch.Style != nil {
		c.style = style
	}
	if patch.Type != nil {
		c.connType = connType
	}
	if patch.ClearControl {
		c.controlPoint = nil
	} else if patch.ControlPoint != nil {
		cp := *patch.ControlPoint
		c.controlPoint = &cp
	}
	c.touch()
	return nil
}

// MarshalJSON implements json.Marshaler so connections embedded in
// events and API payloads serialize their full state
func (c *Connection) MarshalJSON() ([]byte, error) {
	var control *controlPointJSON
	if c.controlPoint != nil {
		control = &controlPointJSON{X: c.controlPoint.X(), Y: c.controlPoint.Y()}
	}
	return json.Marshal(struct {
		ID           string            `json:"id"`
		From         string            `json:"from"`
		To           string            `json:"to"`
		Label        string            `json:"label,omitempty"`
		Style        string            `json:"style"`
		Type         string            `json:"type"`
		ControlPoint *controlPointJSON `json:"controlPoint,omitempty"`
		Created      time.Time         `json:"created"`
		Modified     time.Time         `json:"modified"`
	}{
		ID:           c.id.String(),
		From:         c.from.String(),
		To:           c.to.String(),
		Label:        c.label,
		Style:        string(c.style),
		Type:         string(c.connType),
		ControlPoint: control,
		Created:      c.created,
		Modified:     c.modified,
	})
}

type controlPointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clone returns an independent copy of the connection
func (c *Connection) Clone() *Connection {
	clone := *c
	if c.controlPoint != nil {
		cp := *c.controlPoint
		clone.controlPoint = &cp
	}
	return &clone
}

func (c *Connection) touch() {
	now := time.Now()
	if now.Before(c.modified) {
		return
	}
	c.modified = now
}
