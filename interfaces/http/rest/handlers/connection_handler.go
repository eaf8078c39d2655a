package handlers

import (
	"encoding/json"
	"net/http"

	"mindcanvas/application/compat"
	"mindcanvas/application/store"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	"mindcanvas/pkg/common"
	pkgerrors "mindcanvas/pkg/errors"
	"mindcanvas/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ConnectionHandler handles connection-related HTTP requests
type ConnectionHandler struct {
	store  *store.Store
	facade *compat.Facade
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(s *store.Store, facade *compat.Facade, eh *pkgerrors.ErrorHandler, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{store: s, facade: facade, errors: eh, logger: logger}
}

// CreateConnectionRequest represents the request body for creating a connection
type CreateConnectionRequest struct {
	ID           string     `json:"id,omitempty"`
	From         string     `json:"from" validate:"required"`
	To           string     `json:"to" validate:"required"`
	Label        string     `json:"label,omitempty"`
	Style        string     `json:"style,omitempty" validate:"omitempty,oneof=solid dashed dotted"`
	Type         string     `json:"type,omitempty" validate:"omitempty,oneof=default primary secondary branch"`
	ControlPoint *pointView `json:"controlPoint,omitempty"`
}

// UpdateConnectionRequest represents the request body for updating a connection
type UpdateConnectionRequest struct {
	Label        *string    `json:"label,omitempty"`
	Style        *string    `json:"style,omitempty" validate:"omitempty,oneof=solid dashed dotted"`
	Type         *string    `json:"type,omitempty" validate:"omitempty,oneof=default primary secondary branch"`
	ControlPoint *pointView `json:"controlPoint,omitempty"`
	ClearControl bool       `json:"clearControl,omitempty"`
}

// CreateConnection handles POST /connections
func (h *ConnectionHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	input := store.ConnectionInput{
		ID:    req.ID,
		From:  req.From,
		To:    req.To,
		Label: req.Label,
		Style: req.Style,
		Type:  req.Type,
	}
	if req.ControlPoint != nil {
		input.ControlPoint = &store.PointInput{X: req.ControlPoint.X, Y: req.ControlPoint.Y}
	}

	var conn *entities.Connection
	var err error
	if req.ID == "" && req.Label == "" && req.Style == "" && req.Type == "" && req.ControlPoint == nil {
		conn, err = h.facade.CreateConnection(req.From, req.To)
	} else {
		conn, err = h.store.AddConnection(input)
	}
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toConnectionView(conn))
}

// ListConnections handles GET /connections
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, toConnectionViews(h.store.GetConnections()))
}

// GetConnection handles GET /connections/{connectionID}
func (h *ConnectionHandler) GetConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "connectionID")
	conn := h.store.GetConnection(id)
	if conn == nil {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "Connection not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, toConnectionView(conn))
}

// UpdateConnection handles PATCH /connections/{connectionID}
func (h *ConnectionHandler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "connectionID")

	var req UpdateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	patch := entities.ConnectionPatch{
		Label:        req.Label,
		Style:        req.Style,
		Type:         req.Type,
		ClearControl: req.ClearControl,
	}
	if req.ControlPoint != nil {
		point, err := valueobjects.NewPosition(req.ControlPoint.X, req.ControlPoint.Y)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		patch.ControlPoint = &point
	}

	conn, err := h.store.UpdateConnection(id, patch)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toConnectionView(conn))
}

// DeleteConnection handles DELETE /connections/{connectionID}
func (h *ConnectionHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "connectionID")
	if err := h.store.RemoveConnection(id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": id})
}
