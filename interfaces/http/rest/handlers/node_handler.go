package handlers

import (
	"encoding/json"
	"net/http"

	"mindcanvas/application/compat"
	"mindcanvas/application/store"
	"mindcanvas/domain/core/entities"
	"mindcanvas/pkg/common"
	pkgerrors "mindcanvas/pkg/errors"
	"mindcanvas/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	store  *store.Store
	facade *compat.Facade
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(s *store.Store, facade *compat.Facade, eh *pkgerrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{store: s, facade: facade, errors: eh, logger: logger}
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	ID      string  `json:"id,omitempty"`
	Title   string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Content string  `json:"content,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Color   string  `json:"color,omitempty"`
	Shape   string  `json:"shape,omitempty" validate:"omitempty,oneof=rectangle rounded circle diamond"`
	IsRoot  bool    `json:"isRoot,omitempty"`
}

// UpdateNodeRequest represents the request body for updating a node
type UpdateNodeRequest struct {
	Title   *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Content *string  `json:"content,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Color   *string  `json:"color,omitempty"`
	Shape   *string  `json:"shape,omitempty" validate:"omitempty,oneof=rectangle rounded circle diamond"`
	IsRoot  *bool    `json:"isRoot,omitempty"`
}

// PositionRequest represents the request body for moving a node
type PositionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	var node *entities.Node
	var err error
	if req.ID == "" {
		node, err = h.facade.CreateNode(req.Title, req.Content, req.X, req.Y)
	} else {
		node, err = h.store.AddNode(store.NodeInput{
			ID:      req.ID,
			Title:   req.Title,
			Content: req.Content,
			X:       req.X,
			Y:       req.Y,
			Color:   req.Color,
			Shape:   req.Shape,
			IsRoot:  req.IsRoot,
		})
	}
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toNodeView(node))
}

// ListNodes handles GET /nodes
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, toNodeViews(h.store.GetNodes()))
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")
	node := h.store.GetNode(id)
	if node == nil {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "Node not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, toNodeView(node))
}

// UpdateNode handles PATCH /nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")

	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	node, err := h.store.UpdateNode(id, entities.NodePatch{
		Title:   req.Title,
		Content: req.Content,
		X:       req.X,
		Y:       req.Y,
		Color:   req.Color,
		Shape:   req.Shape,
		IsRoot:  req.IsRoot,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toNodeView(node))
}

// MoveNode handles PUT /nodes/{nodeID}/position
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")

	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}

	if err := h.facade.UpdateNodePosition(id, req.X, req.Y); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toNodeView(h.store.GetNode(id)))
}

// DeleteNode handles DELETE /nodes/{nodeID}. Deleting an unknown node
// is a no-op, mirroring store semantics.
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")
	if err := h.store.RemoveNode(id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": id})
}
