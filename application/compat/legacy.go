package compat

import (
	"encoding/json"
	"time"

	"mindcanvas/application/store"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// LegacyNode is a node in the flat pre-metadata document format
type LegacyNode struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Color   string  `json:"color"`
	Shape   string  `json:"shape"`
	IsRoot  bool    `json:"isRoot"`
}

// LegacyConnection is a connection in the flat format; endpoints are
// named source/target rather than from/to
type LegacyConnection struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Style  string `json:"style"`
	Type   string `json:"type"`
}

// LegacyDocument is the flat document shape written by old editor
// builds: no metadata wrapper, sequential integer-suffixed ids and a
// cached root pointer.
type LegacyDocument struct {
	Nodes       []LegacyNode       `json:"nodes"`
	Connections []LegacyConnection `json:"connections"`
	NextNodeID  int                `json:"nextNodeId"`
	RootNodeID  string             `json:"rootNodeId"`
}

// legacyProbe sniffs the fields that distinguish the two formats
type legacyProbe struct {
	Metadata   *json.RawMessage `json:"metadata"`
	NextNodeID *int             `json:"nextNodeId"`
	RootNodeID *string          `json:"rootNodeId"`
}

// IsLegacyDocument reports whether raw bytes hold the flat legacy
// format: anything without a metadata wrapper that carries the legacy
// markers.
func IsLegacyDocument(raw []byte) bool {
	var probe legacyProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	if probe.Metadata != nil {
		return false
	}
	return probe.NextNodeID != nil || probe.RootNodeID != nil
}

// MigrateLegacy converts a flat legacy document into the current
// format. Identifiers are kept verbatim so connections keep resolving;
// the per-node isRoot flag is authoritative and rootNodeId is treated
// as a derived pointer: disagreements resolve in favor of the flags,
// extra roots are demoted, and the pointer only matters when no node
// carries the flag.
func MigrateLegacy(legacy LegacyDocument, logger *zap.Logger) (store.DocumentFile, error) {
	now := time.Now()
	file := store.DocumentFile{
		Nodes:       make([]store.NodeRecord, 0, len(legacy.Nodes)),
		Connections: make([]store.ConnectionRecord, 0, len(legacy.Connections)),
		Metadata: store.Metadata{
			Version:      store.FormatVersion,
			Format:       store.FormatName,
			Created:      now,
			LastModified: now,
		},
	}

	rootSeen := false
	flaggedRoots := 0
	for _, node := range legacy.Nodes {
		if node.IsRoot {
			flaggedRoots++
		}
	}

	for _, node := range legacy.Nodes {
		isRoot := node.IsRoot
		if isRoot && rootSeen {
			logger.Warn("legacy document has multiple root flags, demoting",
				zap.String("id", node.ID))
			isRoot = false
		}
		if flaggedRoots == 0 && legacy.RootNodeID != "" && node.ID == legacy.RootNodeID {
			isRoot = true
		}
		if isRoot {
			rootSeen = true
		}
		file.Nodes = append(file.Nodes, store.NodeRecord{
			ID:      node.ID,
			Title:   node.Title,
			Content: node.Content,
			X:       node.X,
			Y:       node.Y,
			Color:   node.Color,
			Shape:   node.Shape,
			IsRoot:  isRoot,
		})
	}

	if flaggedRoots > 0 && legacy.RootNodeID != "" {
		for _, node := range legacy.Nodes {
			if node.ID == legacy.RootNodeID && !node.IsRoot {
				logger.Warn("legacy rootNodeId disagrees with isRoot flags; flags win",
					zap.String("rootNodeId", legacy.RootNodeID))
				break
			}
		}
	}

	for _, conn := range legacy.Connections {
		file.Connections = append(file.Connections, store.ConnectionRecord{
			ID:    conn.ID,
			From:  conn.Source,
			To:    conn.Target,
			Label: conn.Label,
			Style: conn.Style,
			Type:  conn.Type,
		})
	}

	return file, nil
}

// NextSequence returns the highest legacy sequence number across all
// ids plus one, for documents that still track nextNodeId
func NextSequence(legacy LegacyDocument) int {
	next := legacy.NextNodeID
	for _, node := range legacy.Nodes {
		if n, ok := valueobjects.LegacySequence(node.ID); ok && n >= next {
			next = n + 1
		}
	}
	for _, conn := range legacy.Connections {
		if n, ok := valueobjects.LegacySequence(conn.ID); ok && n >= next {
			next = n + 1
		}
	}
	return next
}

// Facade exposes the operation names old call sites were written
// against, forwarded to the typed store exactly once. This replaces
// the proxy generations of earlier builds: there is one explicit API
// and no global array aliasing.
type Facade struct {
	store  *store.Store
	logger *zap.Logger
}

// NewFacade creates a legacy facade over the store
func NewFacade(s *store.Store, logger *zap.Logger) *Facade {
	return &Facade{store: s, logger: logger}
}

// CreateNode creates a node with a generated id and editor defaults
func (f *Facade) CreateNode(title, content string, x, y float64) (*entities.Node, error) {
	return f.store.AddNode(store.NodeInput{
		ID:      valueobjects.NewNodeID().String(),
		Title:   title,
		Content: content,
		X:       x,
		Y:       y,
	})
}

// EnsureNode inserts a node only if its id is not already present,
// returning the existing node otherwise. This is the "already exists"
// guard that keeps old call paths from double-inserting.
func (f *Facade) EnsureNode(input store.NodeInput) (*entities.Node, error) {
	if existing := f.store.GetNode(input.ID); existing != nil {
		f.logger.Debug("ensure node: already exists", zap.String("id", input.ID))
		return existing, nil
	}
	return f.store.AddNode(input)
}

// DeleteNode removes a node, cascading to incident connections.
// Unknown ids are a soft no-op, as the old deleteNode was.
func (f *Facade) DeleteNode(id string) error {
	return f.store.RemoveNode(id)
}

// CreateConnection connects two nodes with a generated id and defaults
func (f *Facade) CreateConnection(fromID, toID string) (*entities.Connection, error) {
	return f.store.AddConnection(store.ConnectionInput{
		ID:   valueobjects.NewConnectionID().String(),
		From: fromID,
		To:   toID,
	})
}

// DeleteConnection removes a connection; unknown ids are a soft no-op
func (f *Facade) DeleteConnection(id string) error {
	return f.store.RemoveConnection(id)
}

// UpdateNodePosition moves a node, stamping its modified time
func (f *Facade) UpdateNodePosition(id string, x, y float64) error {
	_, err := f.store.UpdateNode(id, entities.NodePatch{X: &x, Y: &y})
	return err
}

// NodeList returns a fresh snapshot of all nodes. Every call reads
// through the store; there is no independent copy that can drift.
func (f *Facade) NodeList() []*entities.Node {
	return f.store.GetNodes()
}

// ConnectionList returns a fresh snapshot of all connections
func (f *Facade) ConnectionList() []*entities.Connection {
	return f.store.GetConnections()
}

// LoadMindmapData replaces the state from raw document bytes,
// accepting both the current format and the flat legacy format
func (f *Facade) LoadMindmapData(raw []byte) error {
	if IsLegacyDocument(raw) {
		var legacy LegacyDocument
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return pkgerrors.NewValidationError("malformed legacy document: " + err.Error())
		}
		file, err := MigrateLegacy(legacy, f.logger)
		if err != nil {
			return err
		}
		f.logger.Info("migrated legacy document",
			zap.Int("nodes", len(file.Nodes)),
			zap.Int("connections", len(file.Connections)))
		return f.store.Deserialize(file)
	}

	var file store.DocumentFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return pkgerrors.NewValidationError("malformed document: " + err.Error())
	}
	return f.store.Deserialize(file)
}

// InitMindmap resets to a fresh document holding a single root node,
// the state a new canvas opens with
func (f *Facade) InitMindmap() error {
	if err := f.store.Deserialize(store.DocumentFile{}); err != nil {
		return err
	}
	_, err := f.store.AddNode(store.NodeInput{
		ID:     valueobjects.NewNodeID().String(),
		Title:  "Central Idea",
		X:      0,
		Y:      0,
		IsRoot: true,
	})
	if err != nil {
		return err
	}
	f.store.ClearHistory()
	f.store.MarkClean()
	return nil
}
