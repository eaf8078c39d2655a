package events

import (
	"time"

	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
)

// EventType identifies one kind of store event. The values are the
// wire names subscribers (and the SSE relay) see.
type EventType string

const (
	EventAddNode           EventType = "ADD_NODE"
	EventUpdateNode        EventType = "UPDATE_NODE"
	EventRemoveNode        EventType = "REMOVE_NODE"
	EventAddConnection     EventType = "ADD_CONNECTION"
	EventUpdateConnection  EventType = "UPDATE_CONNECTION"
	EventRemoveConnection  EventType = "REMOVE_CONNECTION"
	EventUpdateUI          EventType = "UPDATE_UI"
	EventUpdatePreferences EventType = "UPDATE_PREFERENCES"
	EventUndo              EventType = "UNDO"
	EventRedo              EventType = "REDO"
	EventHistoryCleared    EventType = "HISTORY_CLEARED"
	EventTransactionCommit EventType = "TRANSACTION_COMMIT"
	EventRestoreState      EventType = "RESTORE_STATE"
)

// Wildcard subscribes a handler to every event type
const Wildcard EventType = "*"

// DomainEvent is the interface all store events implement. Payload
// entities are clones; handlers can never reach live store state
// through an event.
type DomainEvent interface {
	GetEventType() EventType
	GetAggregateID() string
	GetTimestamp() time.Time
}

// BaseEvent provides the common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   EventType `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetEventType() EventType { return e.EventType }
func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

func newBase(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   time.Now(),
	}
}

// NodeAdded is raised after a node is inserted
type NodeAdded struct {
	BaseEvent
	Node *entities.Node `json:"node"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(node *entities.Node) NodeAdded {
	return NodeAdded{
		BaseEvent: newBase(EventAddNode, node.ID().String()),
		Node:      node,
	}
}

// NodeUpdated is raised after a partial node patch is applied
type NodeUpdated struct {
	BaseEvent
	Node   *entities.Node `json:"node"`
	Fields []string       `json:"fields"`
}

// NewNodeUpdated creates a NodeUpdated event listing the patched fields
func NewNodeUpdated(node *entities.Node, fields []string) NodeUpdated {
	return NodeUpdated{
		BaseEvent: newBase(EventUpdateNode, node.ID().String()),
		Node:      node,
		Fields:    fields,
	}
}

// NodeRemoved is raised after a node is removed; Cascaded lists the
// incident connections deleted alongside it
type NodeRemoved struct {
	BaseEvent
	Node     *entities.Node         `json:"node"`
	Cascaded []*entities.Connection `json:"cascaded"`
}

// NewNodeRemoved creates a NodeRemoved event
func NewNodeRemoved(node *entities.Node, cascaded []*entities.Connection) NodeRemoved {
	return NodeRemoved{
		BaseEvent: newBase(EventRemoveNode, node.ID().String()),
		Node:      node,
		Cascaded:  cascaded,
	}
}

// ConnectionAdded is raised after a connection is inserted. Duplicate
// marks a repeated from→to pair, which is permitted but flagged.
type ConnectionAdded struct {
	BaseEvent
	Connection *entities.Connection `json:"connection"`
	Duplicate  bool                 `json:"duplicate"`
}

// NewConnectionAdded creates a ConnectionAdded event
func NewConnectionAdded(conn *entities.Connection, duplicate bool) ConnectionAdded {
	return ConnectionAdded{
		BaseEvent:  newBase(EventAddConnection, conn.ID().String()),
		Connection: conn,
		Duplicate:  duplicate,
	}
}

// ConnectionUpdated is raised after a connection patch is applied
type ConnectionUpdated struct {
	BaseEvent
	Connection *entities.Connection `json:"connection"`
	Fields     []string             `json:"fields"`
}

// NewConnectionUpdated creates a ConnectionUpdated event
func NewConnectionUpdated(conn *entities.Connection, fields []string) ConnectionUpdated {
	return ConnectionUpdated{
		BaseEvent:  newBase(EventUpdateConnection, conn.ID().String()),
		Connection: conn,
		Fields:     fields,
	}
}

// ConnectionRemoved is raised after a connection is removed
type ConnectionRemoved struct {
	BaseEvent
	Connection *entities.Connection `json:"connection"`
}

// NewConnectionRemoved creates a ConnectionRemoved event
func NewConnectionRemoved(conn *entities.Connection) ConnectionRemoved {
	return ConnectionRemoved{
		BaseEvent:  newBase(EventRemoveConnection, conn.ID().String()),
		Connection: conn,
	}
}

// UIUpdated is raised after the UI/viewport state changes
type UIUpdated struct {
	BaseEvent
	UI valueobjects.UIState `json:"ui"`
}

// NewUIUpdated creates a UIUpdated event
func NewUIUpdated(ui valueobjects.UIState) UIUpdated {
	return UIUpdated{
		BaseEvent: newBase(EventUpdateUI, "ui"),
		UI:        ui,
	}
}

// PreferencesUpdated is raised after editor preferences change
type PreferencesUpdated struct {
	BaseEvent
	Preferences valueobjects.Preferences `json:"preferences"`
}

// NewPreferencesUpdated creates a PreferencesUpdated event
func NewPreferencesUpdated(prefs valueobjects.Preferences) PreferencesUpdated {
	return PreferencesUpdated{
		BaseEvent:   newBase(EventUpdatePreferences, "preferences"),
		Preferences: prefs,
	}
}

// UndoApplied is raised after a successful undo
type UndoApplied struct {
	BaseEvent
	Remaining int `json:"remaining"`
}

// NewUndoApplied creates an UndoApplied event; Remaining is the number
// of further undo steps available
func NewUndoApplied(remaining int) UndoApplied {
	return UndoApplied{
		BaseEvent: newBase(EventUndo, "history"),
		Remaining: remaining,
	}
}

// RedoApplied is raised after a successful redo
type RedoApplied struct {
	BaseEvent
	Remaining int `json:"remaining"`
}

// NewRedoApplied creates a RedoApplied event
func NewRedoApplied(remaining int) RedoApplied {
	return RedoApplied{
		BaseEvent: newBase(EventRedo, "history"),
		Remaining: remaining,
	}
}

// HistoryCleared is raised when both history stacks are dropped
type HistoryCleared struct {
	BaseEvent
}

// NewHistoryCleared creates a HistoryCleared event
func NewHistoryCleared() HistoryCleared {
	return HistoryCleared{BaseEvent: newBase(EventHistoryCleared, "history")}
}

// TransactionCommitted aggregates the events raised inside one
// transaction, in their original order
type TransactionCommitted struct {
	BaseEvent
	Changes []DomainEvent `json:"changes"`
}

// NewTransactionCommitted creates a TransactionCommitted event
func NewTransactionCommitted(changes []DomainEvent) TransactionCommitted {
	return TransactionCommitted{
		BaseEvent: newBase(EventTransactionCommit, "transaction"),
		Changes:   changes,
	}
}

// StateRestored is raised after deserialize replaces the whole state
type StateRestored struct {
	BaseEvent
	NodeCount       int `json:"node_count"`
	ConnectionCount int `json:"connection_count"`
}

// NewStateRestored creates a StateRestored event
func NewStateRestored(nodeCount, connectionCount int) StateRestored {
	return StateRestored{
		BaseEvent:       newBase(EventRestoreState, "document"),
		NodeCount:       nodeCount,
		ConnectionCount: connectionCount,
	}
}
