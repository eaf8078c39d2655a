package handlers

import (
	"io"
	"net/http"

	"mindcanvas/application/compat"
	"mindcanvas/application/render"
	"mindcanvas/application/store"
	"mindcanvas/pkg/common"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// maxDocumentSize caps uploaded document bodies at 16 MiB
const maxDocumentSize = 16 << 20

// DocumentStorage is the persistence surface the handler needs
type DocumentStorage interface {
	Load() (store.DocumentFile, error)
	Save(store.DocumentFile) error
	Path() string
}

// DocumentHandler handles whole-document HTTP requests: load, replace,
// save, init and SVG export.
type DocumentHandler struct {
	store    *store.Store
	facade   *compat.Facade
	storage  DocumentStorage
	renderer *render.Renderer
	canvas   *render.SVGTarget
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	s *store.Store,
	facade *compat.Facade,
	storage DocumentStorage,
	renderer *render.Renderer,
	canvas *render.SVGTarget,
	eh *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		store:    s,
		facade:   facade,
		storage:  storage,
		renderer: renderer,
		canvas:   canvas,
		errors:   eh,
		logger:   logger,
	}
}

// GetDocument handles GET /document, returning the full serialized state
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.store.Serialize())
}

// ReplaceDocument handles PUT /document. The body may be the current
// format or the legacy flat format; legacy documents are migrated on
// the way in. Replacing the document clears history.
func (h *DocumentHandler) ReplaceDocument(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Failed to read request body")
		return
	}

	if err := h.facade.LoadMindmapData(raw); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"nodes":       h.store.NodeCount(),
		"connections": h.store.ConnectionCount(),
	})
}

// InitDocument handles POST /document/init, resetting to a fresh
// mindmap with a single root node.
func (h *DocumentHandler) InitDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.facade.InitMindmap(); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.store.Serialize())
}

// SaveDocument handles POST /document/save, forcing an immediate write
func (h *DocumentHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Save(h.store.Serialize()); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.store.MarkClean()
	common.RespondJSON(w, http.StatusOK, map[string]string{"path": h.storage.Path()})
}

// ExportSVG handles GET /document/export.svg. The render queue is
// flushed first so the export reflects every applied mutation.
func (h *DocumentHandler) ExportSVG(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render()
	h.renderer.Flush()

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, h.canvas.String()); err != nil {
		h.logger.Error("failed to write SVG export", zap.Error(err))
	}
}
