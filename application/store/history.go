package store

import (
	"mindcanvas/domain/core/aggregates"
)

// DefaultHistoryLimit caps the undo stack unless configured otherwise
const DefaultHistoryLimit = 50

// History holds bounded undo/redo stacks of document snapshots.
// Snapshots are full deep copies taken before each structural
// mutation; UI-only changes never reach this type. Linear semantics:
// any new snapshot after an undo clears the redo stack.
type History struct {
	past   []*aggregates.Document
	future []*aggregates.Document
	limit  int
}

// NewHistory creates a history with the given snapshot cap
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push records a pre-mutation snapshot and clears the redo stack.
// The oldest snapshot is dropped once the cap is reached.
func (h *History) Push(snapshot *aggregates.Document) {
	h.past = append(h.past, snapshot)
	if len(h.past) > h.limit {
		h.past = h.past[1:]
	}
	h.future = h.future[:0]
}

// Undo pops the most recent snapshot, pushing the current state onto
// the redo stack. Returns false on an empty stack.
func (h *History) Undo(current *aggregates.Document) (*aggregates.Document, bool) {
	if len(h.past) == 0 {
		return nil, false
	}
	snapshot := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current.Clone())
	return snapshot, true
}

// Redo pops the redo stack, pushing the current state back onto the
// undo stack. Returns false on an empty stack.
func (h *History) Redo(current *aggregates.Document) (*aggregates.Document, bool) {
	if len(h.future) == 0 {
		return nil, false
	}
	snapshot := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current.Clone())
	return snapshot, true
}

// Clear drops both stacks
func (h *History) Clear() {
	h.past = h.past[:0]
	h.future = h.future[:0]
}

// CanUndo reports whether an undo snapshot is available
func (h *History) CanUndo() bool {
	return len(h.past) > 0
}

// CanRedo reports whether a redo snapshot is available
func (h *History) CanRedo() bool {
	return len(h.future) > 0
}

// UndoDepth returns the number of available undo steps
func (h *History) UndoDepth() int {
	return len(h.past)
}

// RedoDepth returns the number of available redo steps
func (h *History) RedoDepth() int {
	return len(h.future)
}
