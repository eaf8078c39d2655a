package handlers

import (
	"net/http"

	"mindcanvas/application/store"
	"mindcanvas/pkg/common"

	"go.uber.org/zap"
)

// HistoryHandler handles undo/redo HTTP requests
type HistoryHandler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(s *store.Store, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{store: s, logger: logger}
}

type historyStatus struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

func (h *HistoryHandler) status() historyStatus {
	return historyStatus{
		CanUndo: h.store.CanUndo(),
		CanRedo: h.store.CanRedo(),
	}
}

// GetStatus handles GET /history
func (h *HistoryHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.status())
}

// Undo handles POST /history/undo. Undo on an empty stack is a no-op
// reported in the response, not an error.
func (h *HistoryHandler) Undo(w http.ResponseWriter, r *http.Request) {
	applied := h.store.Undo()
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"applied": applied,
		"canUndo": h.store.CanUndo(),
		"canRedo": h.store.CanRedo(),
	})
}

// Redo handles POST /history/redo
func (h *HistoryHandler) Redo(w http.ResponseWriter, r *http.Request) {
	applied := h.store.Redo()
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"applied": applied,
		"canUndo": h.store.CanUndo(),
		"canRedo": h.store.CanRedo(),
	})
}

// Clear handles DELETE /history
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.store.ClearHistory()
	common.RespondJSON(w, http.StatusOK, h.status())
}
