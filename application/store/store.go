package store

import (
	"sync"
	"time"

	"mindcanvas/domain/core/aggregates"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	domainevents "mindcanvas/domain/events"
	pkgerrors "mindcanvas/pkg/errors"
	pkgevents "mindcanvas/pkg/events"

	"go.uber.org/zap"
)

const (
	// FormatName identifies the persisted document format
	FormatName = "mindcanvas"
	// FormatVersion is the current document schema version
	FormatVersion = "2.0.0"
)

// Metadata describes the open document
type Metadata struct {
	Version      string    `json:"version"`
	Format       string    `json:"format"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"lastModified"`
}

// PointInput is a raw coordinate pair supplied by callers
type PointInput struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeInput is the payload for AddNode. ID is required; callers that
// want generated ids go through the compat facade.
type NodeInput struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Color   string  `json:"color"`
	Shape   string  `json:"shape"`
	IsRoot  bool    `json:"isRoot"`
}

// ConnectionInput is the payload for AddConnection
type ConnectionInput struct {
	ID           string      `json:"id"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	Label        string      `json:"label"`
	Style        string      `json:"style"`
	Type         string      `json:"type"`
	ControlPoint *PointInput `json:"controlPoint,omitempty"`
}

// UpdateNodeAction is the middleware payload for UpdateNode
type UpdateNodeAction struct {
	ID    string
	Patch entities.NodePatch
}

// UpdateConnectionAction is the middleware payload for UpdateConnection
type UpdateConnectionAction struct {
	ID    string
	Patch entities.ConnectionPatch
}

// RemoveNodeAction is the middleware payload for RemoveNode
type RemoveNodeAction struct {
	ID string
}

// RemoveConnectionAction is the middleware payload for RemoveConnection
type RemoveConnectionAction struct {
	ID string
}

// Store is the canonical in-memory model: the document aggregate plus
// UI state, preferences, bounded history, middleware pipeline,
// computed-value cache and dirty tracking. All reads return copies;
// all writes are serialized by an internal mutex and notify
// subscribers synchronously after the critical section.
type Store struct {
	mu   sync.RWMutex
	doc  *aggregates.Document
	ui   valueobjects.UIState
	pref valueobjects.Preferences
	meta Metadata

	history *History
	dirty   bool

	mwMu       sync.RWMutex
	middleware []Middleware

	txMu     sync.Mutex
	txDepth  int
	txEvents []domainevents.DomainEvent

	computed *computedRegistry
	bus      *pkgevents.Bus
	logger   *zap.Logger
}

// NewStore creates an empty store. historyLimit <= 0 selects the
// default cap of 50 snapshots.
func NewStore(bus *pkgevents.Bus, historyLimit int, logger *zap.Logger) *Store {
	now := time.Now()
	s := &Store{
		doc:     aggregates.NewDocument(),
		ui:      valueobjects.DefaultUIState(),
		pref:    valueobjects.DefaultPreferences(),
		history: NewHistory(historyLimit),
		bus:     bus,
		logger:  logger,
		meta: Metadata{
			Version:      FormatVersion,
			Format:       FormatName,
			Created:      now,
			LastModified: now,
		},
	}
	s.computed = newComputedRegistry(s)
	return s
}

// Use appends a middleware to the pipeline. Middleware run in
// registration order before every mutation.
func (s *Store) Use(mw Middleware) {
	if mw == nil {
		return
	}
	s.mwMu.Lock()
	s.middleware = append(s.middleware, mw)
	s.mwMu.Unlock()
}

// Subscribe registers a handler for one event type and returns an
// unsubscribe closure
func (s *Store) Subscribe(eventType domainevents.EventType, handler pkgevents.Handler) func() {
	return s.bus.On(eventType, handler)
}

// SubscribeAll registers a wildcard handler receiving every event
func (s *Store) SubscribeAll(handler pkgevents.Handler) func() {
	return s.bus.On(domainevents.Wildcard, handler)
}

// Computed registers a memoized derived value, invalidated on every
// state change
func (s *Store) Computed(key string, fn ComputeFunc) (*Computed, error) {
	return s.computed.register(key, fn)
}

// AddNode validates and inserts a node, snapshots history and emits
// ADD_NODE. Fails with a validation error on missing id, non-finite
// coordinates, or bad shape/color.
func (s *Store) AddNode(input NodeInput) (*entities.Node, error) {
	action, err := s.runMiddleware(&Action{Type: domainevents.EventAddNode, Payload: input})
	if err != nil {
		return nil, err
	}
	input = action.Payload.(NodeInput)

	id, err := valueobjects.ParseNodeID(input.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("node id: " + err.Error())
	}
	position, err := valueobjects.NewPosition(input.X, input.Y)
	if err != nil {
		return nil, err
	}
	node, err := entities.NewNode(id, input.Title, input.Content, position, input.Color, valueobjects.Shape(input.Shape), input.IsRoot)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	pre := s.doc.Clone()
	if err := s.doc.AddNode(node); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.history.Push(pre)
	s.markDirtyLocked()
	clone := node.Clone()
	s.mu.Unlock()

	s.publish(domainevents.NewNodeAdded(clone))
	return clone, nil
}

// UpdateNode applies a partial patch, stamping Modified. Unknown ids
// fail with a not found error; shape/color/coordinate fields are
// re-validated, everything else merges as-is.
func (s *Store) UpdateNode(id string, patch entities.NodePatch) (*entities.Node, error) {
	action, err := s.runMiddleware(&Action{Type: domainevents.EventUpdateNode, Payload: UpdateNodeAction{ID: id, Patch: patch}})
	if err != nil {
		return nil, err
	}
	upd := action.Payload.(UpdateNodeAction)

	nodeID, err := valueobjects.ParseNodeID(upd.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("node id: " + err.Error())
	}

	s.mu.Lock()
	node := s.doc.GetNode(nodeID)
	if node == nil {
		s.mu.Unlock()
		return nil, pkgerrors.NewNotFoundError("node " + upd.ID)
	}
	if upd.Patch.IsRoot != nil && *upd.Patch.IsRoot {
		if root := s.doc.Root(); root != nil && !root.ID().Equals(nodeID) {
			s.mu.Unlock()
			return nil, pkgerrors.NewConflictError("document already has a root node: " + root.ID().String())
		}
	}
	pre := s.doc.Clone()
	if err := node.Apply(upd.Patch); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.history.Push(pre)
	s.markDirtyLocked()
	clone := node.Clone()
	s.mu.Unlock()

	s.publish(domainevents.NewNodeUpdated(clone, patchedNodeFields(upd.Patch)))
	return clone, nil
}

// RemoveNode deletes a node and cascades to its incident connections.
// An unknown id is a soft no-op logged as a warning: removal is
// idempotent and a double-fired delete is a benign race, not a bug.
func (s *Store) RemoveNode(id string) error {
	action, err := s.runMiddleware(&Action{Type: domainevents.EventRemoveNode, Payload: RemoveNodeAction{ID: id}})
	if err != nil {
		return err
	}
	rm := action.Payload.(RemoveNodeAction)

	nodeID, err := valueobjects.ParseNodeID(rm.ID)
	if err != nil {
		s.logger.Warn("remove node skipped: invalid id", zap.String("id", rm.ID))
		return nil
	}

	s.mu.Lock()
	if !s.doc.HasNode(nodeID) {
		s.mu.Unlock()
		s.logger.Warn("remove node skipped: not found", zap.String("id", rm.ID))
		return nil
	}
	pre := s.doc.Clone()
	node, cascaded, err := s.doc.RemoveNode(nodeID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.history.Push(pre)
	s.markDirtyLocked()

	if s.ui.SelectedNodeID == rm.ID {
		s.ui.SelectedNodeID = ""
	}
	for _, conn := range cascaded {
		if s.ui.SelectedConnectionID == conn.ID().String() {
			s.ui.SelectedConnectionID = ""
		}
	}
	s.mu.Unlock()

	s.publish(domainevents.NewNodeRemoved(node, cascaded))
	return nil
}

// AddConnection validates and inserts a connection. Both endpoints
// must exist and self-loops are rejected. A duplicate from→to pair is
// permitted but logged and flagged on the event.
func (s *Store) AddConnection(input ConnectionInput) (*entities.Connection, error) {
	action, err := s.runMiddleware(&Action{Type: domainevents.EventAddConnection, Payload: input})
	if err != nil {
		return nil, err
	}
	input = action.Payload.(ConnectionInput)

	id, err := valueobjects.ParseConnectionID(input.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("connection id: " + err.Error())
	}
	from, err := valueobjects.ParseNodeID(input.From)
	if err != nil {
		return nil, pkgerrors.NewValidationError("connection from: " + err.Error())
	}
	to, err := valueobjects.ParseNodeID(input.To)
	if err != nil {
		return nil, pkgerrors.NewValidationError("connection to: " + err.Error())
	}
	var controlPoint *valueobjects.Position
	if input.ControlPoint != nil {
		cp, err := valueobjects.NewPosition(input.ControlPoint.X, input.ControlPoint.Y)
		if err != nil {
			return nil, err
		}
		controlPoint = &cp
	}
	conn, err := entities.NewConnection(id, from, to, input.Label, valueobjects.LineStyle(input.Style), valueobjects.ConnectionType(input.Type), controlPoint)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	pre := s.doc.Clone()
	duplicate, err := s.doc.AddConnection(conn)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.history.Push(pre)
	s.markDirtyLocked()
	clone := conn.Clone()
	s.mu.Unlock()

	if duplicate {
		s.logger.Warn("duplicate connection pair",
			zap.String("from", input.From),
			zap.String("to", input.To),
			zap.String("id", input.ID))
	}
	s.publish(domainevents.NewConnectionAdded(clone, duplicate))
	return clone, nil
}

// UpdateConnection applies a partial patch to a connection
func (s *Store) UpdateConnection(id string, patch entities.ConnectionPatch) (*entities.Connection, error) {
	action, err := s.runMiddleware(&Action{Type: domainevents.EventUpdateConnection, Payload: UpdateConnectionAction{ID: id, Patch: patch}})
	if err != nil {
		return nil, err
	}
	upd := action.Payload.(UpdateConnectionAction)

	connID, err := valueobjects.ParseConnectionID(upd.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("connection id: " + err.Error())
	}

	s.mu.Lock()
	conn := s.doc.GetConnection(connID)
	if conn == nil {
		s.mu.Unlock()
		return nil, pkgerrors.NewNotFoundError("connection " + upd.ID)
	}
	pre := s.doc.Clone()
	if err := conn.Apply(upd.Patch); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.history.Push(pre)
	s.markDirtyLocked()
	clone := conn.Clone()
	s.mu.Unlock()

	s.publish(domainevents.NewConnectionUpdated(clone, patchedConnectionFields(upd.Patch)))
	return clone, nil
}

// RemoveConnection deletes a connection. Unknown ids are a soft no-op,
// symmetric with RemoveNode.
func (s *Store) RemoveConnection(id string) error {
	action, err := s.runMiddleware(&Action{Type: domainevents.EventRemoveConnection, Payload: RemoveConnectionAction{ID: id}})
	if err != nil {
		return err
	}
	rm := action.Payload.(RemoveConnectionAction)

	connID, err := valueobjects.ParseConnectionID(rm.ID)
	if err != nil {
		s.logger.Warn("remove connection skipped: invalid id", zap.String("id", rm.ID))
		return nil
	}

	s.mu.Lock()
	if !s.doc.HasConnection(connID) {
		s.mu.Unlock()
		s.logger.Warn("remove connection skipped: not found", zap.String("id", rm.ID))
		return nil
	}
	pre := s.doc.Clone()
	conn, err := s.doc.RemoveConnection(connID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.history.Push(pre)
	s.markDirtyLocked()
	if s.ui.SelectedConnectionID == rm.ID {
		s.ui.SelectedConnectionID = ""
	}
	s.mu.Unlock()

	s.publish(domainevents.NewConnectionRemoved(conn))
	return nil
}

// UpdateUI merges a partial UI patch. Not a structural mutation: no
// history snapshot, no dirty mark. Out-of-range values fail instead of
// clamping.
func (s *Store) UpdateUI(patch valueobjects.UIPatch) (valueobjects.UIState, error) {
	action, err := s.runMiddleware(&Action{Type: domainevents.EventUpdateUI, Payload: patch})
	if err != nil {
		return valueobjects.UIState{}, err
	}
	patch = action.Payload.(valueobjects.UIPatch)

	s.mu.Lock()
	merged, err := s.ui.Merge(patch)
	if err != nil {
		s.mu.Unlock()
		return s.ui, err
	}
	s.ui = merged
	s.mu.Unlock()

	s.publish(domainevents.NewUIUpdated(merged))
	return merged, nil
}

// SetPreferences replaces editor preferences after validation
func (s *Store) SetPreferences(prefs valueobjects.Preferences) error {
	action, err := s.runMiddleware(&Action{Type: domainevents.EventUpdatePreferences, Payload: prefs})
	if err != nil {
		return err
	}
	prefs = action.Payload.(valueobjects.Preferences)

	if err := prefs.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.pref = prefs
	s.markDirtyLocked()
	s.mu.Unlock()

	s.publish(domainevents.NewPreferencesUpdated(prefs))
	return nil
}

// Undo restores the most recent history snapshot. Returns false on an
// empty stack without raising an error.
func (s *Store) Undo() bool {
	s.mu.Lock()
	snapshot, ok := s.history.Undo(s.doc)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.doc.Replace(snapshot)
	s.markDirtyLocked()
	remaining := s.history.UndoDepth()
	s.mu.Unlock()

	s.publish(domainevents.NewUndoApplied(remaining))
	return true
}

// Redo reapplies the most recently undone snapshot
func (s *Store) Redo() bool {
	s.mu.Lock()
	snapshot, ok := s.history.Redo(s.doc)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.doc.Replace(snapshot)
	s.markDirtyLocked()
	remaining := s.history.RedoDepth()
	s.mu.Unlock()

	s.publish(domainevents.NewRedoApplied(remaining))
	return true
}

// CanUndo reports whether an undo step is available
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo step is available
func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanRedo()
}

// ClearHistory drops both history stacks and emits HISTORY_CLEARED
func (s *Store) ClearHistory() {
	s.mu.Lock()
	s.history.Clear()
	s.mu.Unlock()
	s.publish(domainevents.NewHistoryCleared())
}

// GetNode returns a copy of the node, or nil if unknown
func (s *Store) GetNode(id string) *entities.Node {
	nodeID, err := valueobjects.ParseNodeID(id)
	if err != nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	node := s.doc.GetNode(nodeID)
	if node == nil {
		return nil
	}
	return node.Clone()
}

// GetNodes returns copies of all nodes, sorted by id
func (s *Store) GetNodes() []*entities.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := s.doc.Nodes()
	clones := make([]*entities.Node, len(nodes))
	for i, node := range nodes {
		clones[i] = node.Clone()
	}
	return clones
}

// GetConnection returns a copy of the connection, or nil if unknown
func (s *Store) GetConnection(id string) *entities.Connection {
	connID, err := valueobjects.ParseConnectionID(id)
	if err != nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn := s.doc.GetConnection(connID)
	if conn == nil {
		return nil
	}
	return conn.Clone()
}

// GetConnections returns copies of all connections, sorted by id
func (s *Store) GetConnections() []*entities.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conns := s.doc.Connections()
	clones := make([]*entities.Connection, len(conns))
	for i, conn := range conns {
		clones[i] = conn.Clone()
	}
	return clones
}

// HasNode reports whether a node exists
func (s *Store) HasNode(id string) bool {
	nodeID, err := valueobjects.ParseNodeID(id)
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.HasNode(nodeID)
}

// HasConnection reports whether a connection exists
func (s *Store) HasConnection(id string) bool {
	connID, err := valueobjects.ParseConnectionID(id)
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.HasConnection(connID)
}

// NodeCount returns the number of nodes
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.NodeCount()
}

// ConnectionCount returns the number of connections
func (s *Store) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.ConnectionCount()
}

// GetUI returns the current UI state
func (s *Store) GetUI() valueobjects.UIState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui
}

// GetPreferences returns the current editor preferences
func (s *Store) GetPreferences() valueobjects.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pref
}

// GetMetadata returns the document metadata
func (s *Store) GetMetadata() Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// IsDirty reports whether unsaved changes exist
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkClean clears the dirty flag; called after a successful save
func (s *Store) MarkClean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// runMiddleware applies the pipeline outside the write lock. Each
// middleware may cancel (nil) or substitute the action. Substituted
// payloads must keep the original payload type.
func (s *Store) runMiddleware(action *Action) (*Action, error) {
	s.mwMu.RLock()
	pipeline := make([]Middleware, len(s.middleware))
	copy(pipeline, s.middleware)
	s.mwMu.RUnlock()

	originalType := action.Type
	for _, mw := range pipeline {
		next := mw(action, s)
		if next == nil {
			s.logger.Debug("action canceled by middleware", zap.String("type", string(originalType)))
			return nil, NewCanceledError(originalType)
		}
		action = next
	}
	return action, nil
}

// publish invalidates computed values and delivers the event, either
// directly or deferred into the open transaction batch. Delivery
// happens after the state mutex is released so handlers may read the
// store; events from mutations racing on different goroutines can
// therefore reach subscribers in either order. Callers that need a
// strict cross-mutation sequence must serialize their own calls.
func (s *Store) publish(event domainevents.DomainEvent) {
	s.computed.invalidate()

	s.txMu.Lock()
	if s.txDepth > 0 {
		s.txEvents = append(s.txEvents, event)
		s.txMu.Unlock()
		return
	}
	s.txMu.Unlock()

	s.bus.Emit(event)
}

// markDirtyLocked stamps metadata; caller holds the write lock
func (s *Store) markDirtyLocked() {
	s.dirty = true
	s.meta.LastModified = time.Now()
}

func patchedNodeFields(patch entities.NodePatch) []string {
	var fields []string
	if patch.Title != nil {
		fields = append(fields, "title")
	}
	if patch.Content != nil {
		fields = append(fields, "content")
	}
	if patch.X != nil {
		fields = append(fields, "x")
	}
	if patch.Y != nil {
		fields = append(fields, "y")
	}
	if patch.Color != nil {
		fields = append(fields, "color")
	}
	if patch.Shape != nil {
		fields = append(fields, "shape")
	}
	if patch.IsRoot != nil {
		fields = append(fields, "isRoot")
	}
	return fields
}

func patchedConnectionFields(patch entities.ConnectionPatch) []string {
	var fields []string
	if patch.Label != nil {
		fields = append(fields, "label")
	}
	if patch.Style != nil {
		fields = append(fields, "style")
	}
	if patch.Type != nil {
		fields = append(fields, "type")
	}
	if patch.ControlPoint != nil || patch.ClearControl {
		fields = append(fields, "controlPoint")
	}
	return fields
}
