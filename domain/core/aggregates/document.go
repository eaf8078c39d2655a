package aggregates

import (
	"sort"

	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"
)

// Document is the aggregate root for one mindmap: the node and
// connection sets plus their consistency rules. It is the only place
// that enforces referential integrity and the cascade on node removal.
// The store wraps it with history, eventing and UI state.
type Document struct {
	nodes       map[valueobjects.NodeID]*entities.Node
	connections map[valueobjects.ConnectionID]*entities.Connection
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{
		nodes:       make(map[valueobjects.NodeID]*entities.Node),
		connections: make(map[valueobjects.ConnectionID]*entities.Connection),
	}
}

// AddNode inserts a node, rejecting duplicate ids
func (d *Document) AddNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}
	if _, exists := d.nodes[node.ID()]; exists {
		return pkgerrors.NewConflictError("node already exists: " + node.ID().String())
	}
	if node.IsRoot() {
		if root := d.Root(); root != nil {
			return pkgerrors.NewConflictError("document already has a root node: " + root.ID().String())
		}
	}
	d.nodes[node.ID()] = node
	return nil
}

// GetNode returns the node with the given id, or nil
func (d *Document) GetNode(id valueobjects.NodeID) *entities.Node {
	return d.nodes[id]
}

// HasNode reports whether the node exists
func (d *Document) HasNode(id valueobjects.NodeID) bool {
	_, ok := d.nodes[id]
	return ok
}

// RemoveNode deletes a node and cascades to every incident connection.
// It returns the removed node and the cascaded connections so callers
// can include them in notifications and history.
func (d *Document) RemoveNode(id valueobjects.NodeID) (*entities.Node, []*entities.Connection, error) {
	node, ok := d.nodes[id]
	if !ok {
		return nil, nil, pkgerrors.NewNotFoundError("node " + id.String())
	}

	var cascaded []*entities.Connection
	for connID, conn := range d.connections {
		if conn.Touches(id) {
			cascaded = append(cascaded, conn)
			delete(d.connections, connID)
		}
	}
	sort.Slice(cascaded, func(i, j int) bool {
		return cascaded[i].ID().String() < cascaded[j].ID().String()
	})

	delete(d.nodes, id)
	return node, cascaded, nil
}

// AddConnection inserts a connection after checking both endpoints
// exist. Duplicate from→to pairs are allowed; the returned flag lets
// the caller log them.
func (d *Document) AddConnection(conn *entities.Connection) (duplicate bool, err error) {
	if conn == nil {
		return false, pkgerrors.NewValidationError("connection cannot be nil")
	}
	if _, exists := d.connections[conn.ID()]; exists {
		return false, pkgerrors.NewConflictError("connection already exists: " + conn.ID().String())
	}
	if !d.HasNode(conn.From()) {
		return false, pkgerrors.NewValidationError("source node does not exist: " + conn.From().String())
	}
	if !d.HasNode(conn.To()) {
		return false, pkgerrors.NewValidationError("target node does not exist: " + conn.To().String())
	}

	for _, existing := range d.connections {
		if existing.From().Equals(conn.From()) && existing.To().Equals(conn.To()) {
			duplicate = true
			break
		}
	}

	d.connections[conn.ID()] = conn
	return duplicate, nil
}

// GetConnection returns the connection with the given id, or nil
func (d *Document) GetConnection(id valueobjects.ConnectionID) *entities.Connection {
	return d.connections[id]
}

// HasConnection reports whether the connection exists
func (d *Document) HasConnection(id valueobjects.ConnectionID) bool {
	_, ok := d.connections[id]
	return ok
}

// RemoveConnection deletes a connection
func (d *Document) RemoveConnection(id valueobjects.ConnectionID) (*entities.Connection, error) {
	conn, ok := d.connections[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("connection " + id.String())
	}
	delete(d.connections, id)
	return conn, nil
}

// Nodes returns all nodes sorted by id for deterministic iteration
func (d *Document) Nodes() []*entities.Node {
	nodes := make([]*entities.Node, 0, len(d.nodes))
	for _, node := range d.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID().String() < nodes[j].ID().String()
	})
	return nodes
}

// Connections returns all connections sorted by id
func (d *Document) Connections() []*entities.Connection {
	conns := make([]*entities.Connection, 0, len(d.connections))
	for _, conn := range d.connections {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].ID().String() < conns[j].ID().String()
	})
	return conns
}

// ConnectionsTouching returns the connections incident to a node
func (d *Document) ConnectionsTouching(id valueobjects.NodeID) []*entities.Connection {
	var conns []*entities.Connection
	for _, conn := range d.connections {
		if conn.Touches(id) {
			conns = append(conns, conn)
		}
	}
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].ID().String() < conns[j].ID().String()
	})
	return conns
}

// NodeCount returns the number of nodes
func (d *Document) NodeCount() int {
	return len(d.nodes)
}

// ConnectionCount returns the number of connections
func (d *Document) ConnectionCount() int {
	return len(d.connections)
}

// Root returns the node carrying the root flag, or nil. The flag is
// authoritative; any cached root pointer in legacy documents is
// derived from it.
func (d *Document) Root() *entities.Node {
	for _, node := range d.Nodes() {
		if node.IsRoot() {
			return node
		}
	}
	return nil
}

// PromoteRoot makes the given node the single root, demoting any other
// node that carries the flag. Returns the demoted nodes.
func (d *Document) PromoteRoot(id valueobjects.NodeID) ([]*entities.Node, error) {
	target, ok := d.nodes[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node " + id.String())
	}

	var demoted []*entities.Node
	for _, node := range d.Nodes() {
		if node.IsRoot() && !node.ID().Equals(id) {
			node.SetRoot(false)
			demoted = append(demoted, node)
		}
	}
	target.SetRoot(true)
	return demoted, nil
}

// Validate checks aggregate-level invariants: every connection
// endpoint resolves and at most one node carries the root flag.
func (d *Document) Validate() error {
	for _, conn := range d.connections {
		if !d.HasNode(conn.From()) {
			return pkgerrors.NewInternalError("dangling connection source: " + conn.From().String())
		}
		if !d.HasNode(conn.To()) {
			return pkgerrors.NewInternalError("dangling connection target: " + conn.To().String())
		}
	}

	roots := 0
	for _, node := range d.nodes {
		if node.IsRoot() {
			roots++
		}
	}
	if roots > 1 {
		return pkgerrors.NewConflictError("document has multiple root nodes")
	}
	return nil
}

// Clone returns a deep copy of the document. History snapshots and
// copy-on-read getters rely on this to keep internal state unreachable
// from callers.
func (d *Document) Clone() *Document {
	clone := NewDocument()
	for id, node := range d.nodes {
		clone.nodes[id] = node.Clone()
	}
	for id, conn := range d.connections {
		clone.connections[id] = conn.Clone()
	}
	return clone
}

// Replace swaps this document's contents for another's (used by undo,
// redo and deserialize, which restore state wholesale rather than merge)
func (d *Document) Replace(other *Document) {
	d.nodes = other.nodes
	d.connections = other.connections
}

// Equal compares node and connection sets by id, ignoring the volatile
// modified timestamps
func (d *Document) Equal(other *Document) bool {
	if len(d.nodes) != len(other.nodes) || len(d.connections) != len(other.connections) {
		return false
	}
	for id, node := range d.nodes {
		o, ok := other.nodes[id]
		if !ok {
			return false
		}
		if node.Title() != o.Title() || node.Content() != o.Content() ||
			!node.Position().Equals(o.Position()) || node.Color() != o.Color() ||
			node.Shape() != o.Shape() || node.IsRoot() != o.IsRoot() {
			return false
		}
	}
	for id, conn := range d.connections {
		o, ok := other.connections[id]
		if !ok {
			return false
		}
		if !conn.From().Equals(o.From()) || !conn.To().Equals(o.To()) ||
			conn.Label() != o.Label() || conn.Style() != o.Style() || conn.Type() != o.Type() {
			return false
		}
	}
	return true
}
