package store

import (
	"time"

	"mindcanvas/domain/core/aggregates"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	domainevents "mindcanvas/domain/events"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// NodeRecord is the persisted form of a node
type NodeRecord struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Content  string    `json:"content,omitempty"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Color    string    `json:"color,omitempty"`
	Shape    string    `json:"shape,omitempty"`
	IsRoot   bool      `json:"isRoot,omitempty"`
	Created  time.Time `json:"created,omitempty"`
	Modified time.Time `json:"modified,omitempty"`
}

// ConnectionRecord is the persisted form of a connection
type ConnectionRecord struct {
	ID           string      `json:"id"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	Label        string      `json:"label,omitempty"`
	Style        string      `json:"style,omitempty"`
	Type         string      `json:"type,omitempty"`
	ControlPoint *PointInput `json:"controlPoint,omitempty"`
	Created      time.Time   `json:"created,omitempty"`
	Modified     time.Time   `json:"modified,omitempty"`
}

// DocumentFile is the full persisted document shape
type DocumentFile struct {
	Nodes       []NodeRecord              `json:"nodes"`
	Connections []ConnectionRecord        `json:"connections"`
	UI          *valueobjects.UIState     `json:"ui,omitempty"`
	Preferences *valueobjects.Preferences `json:"preferences,omitempty"`
	Metadata    Metadata                  `json:"metadata"`
}

// Serialize snapshots the full state: nodes, connections, UI,
// preferences and metadata
func (s *Store) Serialize() DocumentFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file := DocumentFile{
		Nodes:       make([]NodeRecord, 0, s.doc.NodeCount()),
		Connections: make([]ConnectionRecord, 0, s.doc.ConnectionCount()),
		Metadata:    s.meta,
	}
	for _, node := range s.doc.Nodes() {
		file.Nodes = append(file.Nodes, nodeToRecord(node))
	}
	for _, conn := range s.doc.Connections() {
		file.Connections = append(file.Connections, connectionToRecord(conn))
	}
	ui := s.ui
	prefs := s.pref
	file.UI = &ui
	file.Preferences = &prefs
	return file
}

// Deserialize replaces the whole state with the file's contents — a
// wholesale swap, never a merge. History is dropped (there is no undo
// across a restore) and the dirty flag is left as the caller set it.
// Emits RESTORE_STATE on success.
func (s *Store) Deserialize(file DocumentFile) error {
	doc := aggregates.NewDocument()

	for _, record := range file.Nodes {
		node, err := recordToNode(record)
		if err != nil {
			return pkgerrors.Wrapf(err, "node %s", record.ID)
		}
		if node.IsRoot() && doc.Root() != nil {
			s.logger.Warn("demoting extra root node", zap.String("id", record.ID))
			node.SetRoot(false)
		}
		if err := doc.AddNode(node); err != nil {
			return pkgerrors.Wrapf(err, "node %s", record.ID)
		}
	}
	for _, record := range file.Connections {
		conn, err := recordToConnection(record)
		if err != nil {
			return pkgerrors.Wrapf(err, "connection %s", record.ID)
		}
		if _, err := doc.AddConnection(conn); err != nil {
			return pkgerrors.Wrapf(err, "connection %s", record.ID)
		}
	}

	ui := valueobjects.DefaultUIState()
	if file.UI != nil {
		ui = *file.UI
		if ui.ZoomLevel <= 0 || ui.ZoomLevel > valueobjects.MaxZoomLevel {
			ui.ZoomLevel = 1.0
		}
		if ui.CurrentTool == "" {
			ui.CurrentTool = valueobjects.ToolSelect
		}
	}
	prefs := valueobjects.DefaultPreferences()
	if file.Preferences != nil {
		if err := file.Preferences.Validate(); err != nil {
			return pkgerrors.Wrap(err, "preferences")
		}
		prefs = *file.Preferences
	}
	meta := file.Metadata
	if meta.Format == "" {
		meta.Format = FormatName
	}
	if meta.Version == "" {
		meta.Version = FormatVersion
	}
	if meta.Created.IsZero() {
		meta.Created = time.Now()
	}

	s.mu.Lock()
	s.doc.Replace(doc)
	s.ui = ui
	s.pref = prefs
	s.meta = meta
	s.history.Clear()
	nodeCount := s.doc.NodeCount()
	connCount := s.doc.ConnectionCount()
	s.mu.Unlock()

	s.publish(domainevents.NewStateRestored(nodeCount, connCount))
	return nil
}

func nodeToRecord(node *entities.Node) NodeRecord {
	return NodeRecord{
		ID:       node.ID().String(),
		Title:    node.Title(),
		Content:  node.Content(),
		X:        node.Position().X(),
		Y:        node.Position().Y(),
		Color:    node.Color(),
		Shape:    string(node.Shape()),
		IsRoot:   node.IsRoot(),
		Created:  node.Created(),
		Modified: node.Modified(),
	}
}

func connectionToRecord(conn *entities.Connection) ConnectionRecord {
	record := ConnectionRecord{
		ID:       conn.ID().String(),
		From:     conn.From().String(),
		To:       conn.To().String(),
		Label:    conn.Label(),
		Style:    string(conn.Style()),
		Type:     string(conn.Type()),
		Created:  conn.Created(),
		Modified: conn.Modified(),
	}
	if cp := conn.ControlPoint(); cp != nil {
		record.ControlPoint = &PointInput{X: cp.X(), Y: cp.Y()}
	}
	return record
}

func recordToNode(record NodeRecord) (*entities.Node, error) {
	id, err := valueobjects.ParseNodeID(record.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("node id: " + err.Error())
	}
	position, err := valueobjects.NewPosition(record.X, record.Y)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructNode(id, record.Title, record.Content, position, record.Color, valueobjects.Shape(record.Shape), record.IsRoot, record.Created, record.Modified)
}

func recordToConnection(record ConnectionRecord) (*entities.Connection, error) {
	id, err := valueobjects.ParseConnectionID(record.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("connection id: " + err.Error())
	}
	from, err := valueobjects.ParseNodeID(record.From)
	if err != nil {
		return nil, pkgerrors.NewValidationError("connection from: " + err.Error())
	}
	to, err := valueobjects.ParseNodeID(record.To)
	if err != nil {
		return nil, pkgerrors.NewValidationError("connection to: " + err.Error())
	}
	var controlPoint *valueobjects.Position
	if record.ControlPoint != nil {
		cp, err := valueobjects.NewPosition(record.ControlPoint.X, record.ControlPoint.Y)
		if err != nil {
			return nil, err
		}
		controlPoint = &cp
	}
	return entities.ReconstructConnection(id, from, to, record.Label, valueobjects.LineStyle(record.Style), valueobjects.ConnectionType(record.Type), controlPoint, record.Created, record.Modified)
}
