package handlers

import (
	"encoding/json"
	"net/http"

	"mindcanvas/application/store"
	"mindcanvas/domain/core/valueobjects"
	"mindcanvas/pkg/common"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// ViewportHandler handles UI state and preference HTTP requests
type ViewportHandler struct {
	store  *store.Store
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewViewportHandler creates a new viewport handler
func NewViewportHandler(s *store.Store, eh *pkgerrors.ErrorHandler, logger *zap.Logger) *ViewportHandler {
	return &ViewportHandler{store: s, errors: eh, logger: logger}
}

// UIPatchRequest represents the request body for PATCH /ui
type UIPatchRequest struct {
	SelectedNodeID       *string              `json:"selectedNodeId,omitempty"`
	SelectedConnectionID *string              `json:"selectedConnectionId,omitempty"`
	CurrentTool          *string              `json:"currentTool,omitempty"`
	ZoomLevel            *float64             `json:"zoomLevel,omitempty"`
	Offset               *valueobjects.Offset `json:"offset,omitempty"`
}

// GetUI handles GET /ui
func (h *ViewportHandler) GetUI(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.store.GetUI())
}

// PatchUI handles PATCH /ui. Out-of-range values are rejected whole;
// nothing is clamped.
func (h *ViewportHandler) PatchUI(w http.ResponseWriter, r *http.Request) {
	var req UIPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}

	ui, err := h.store.UpdateUI(valueobjects.UIPatch{
		SelectedNodeID:       req.SelectedNodeID,
		SelectedConnectionID: req.SelectedConnectionID,
		CurrentTool:          req.CurrentTool,
		ZoomLevel:            req.ZoomLevel,
		Offset:               req.Offset,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, ui)
}

// GetPreferences handles GET /preferences
func (h *ViewportHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.store.GetPreferences())
}

// PutPreferences handles PUT /preferences
func (h *ViewportHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs valueobjects.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}

	if err := h.store.SetPreferences(prefs); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, prefs)
}
