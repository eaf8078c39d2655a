package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mindcanvas/application/compat"
	"mindcanvas/application/render"
	"mindcanvas/application/store"
	"mindcanvas/infrastructure/config"
	"mindcanvas/infrastructure/persistence/file"
	"mindcanvas/interfaces/http/rest/handlers"
	pkgerrors "mindcanvas/pkg/errors"
	pkgevents "mindcanvas/pkg/events"
	"mindcanvas/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	handler http.Handler
	store   *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	bus := pkgevents.NewBus(logger)
	s := store.NewStore(bus, 0, logger)
	facade := compat.NewFacade(s, logger)
	canvas := render.NewSVGTarget(800, 600)
	queue := render.NewQueue(canvas, time.Hour, logger)
	renderer := render.NewRenderer(s, queue, logger)
	collector := observability.NewCollector("mindcanvas_rest_test")
	monitor := observability.NewMonitor(collector, queue, time.Hour, logger)
	eh := pkgerrors.NewErrorHandler(logger)
	repo := file.NewRepository(filepath.Join(t.TempDir(), "doc.json"), logger)

	router := NewRouter(
		config.Default(),
		collector,
		handlers.NewDocumentHandler(s, facade, repo, renderer, canvas, eh, logger),
		handlers.NewNodeHandler(s, facade, eh, logger),
		handlers.NewConnectionHandler(s, facade, eh, logger),
		handlers.NewHistoryHandler(s, logger),
		handlers.NewViewportHandler(s, eh, logger),
		handlers.NewEventsHandler(bus, logger),
		handlers.NewMonitorHandler(monitor),
		logger,
	)
	return &testServer{handler: router.Setup(), store: s}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
}

func TestNodeLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"n1","title":"Root","isRoot":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Color string `json:"color"`
	}
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "n1", created.ID)
	assert.Equal(t, "#4a90d9", created.Color)

	rec = ts.do(t, http.MethodGet, "/api/v1/nodes/n1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/v1/nodes/n1", `{"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", ts.store.GetNode("n1").Title())

	rec = ts.do(t, http.MethodPut, "/api/v1/nodes/n1/position", `{"x":10,"y":20}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10.0, ts.store.GetNode("n1").Position().X())

	rec = ts.do(t, http.MethodDelete, "/api/v1/nodes/n1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, ts.store.GetNode("n1"))
}

func TestCreateNodeWithoutIDGeneratesOne(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/nodes", `{"title":"Auto"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
}

func TestCreateNodeValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"n1","shape":"hexagon"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestDuplicateNodeConflicts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"n1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"n1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetUnknownNodeIs404(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/nodes/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConnectionEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"a"}`)
	ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"b"}`)

	rec := ts.do(t, http.MethodPost, "/api/v1/connections", `{"id":"ab","from":"a","to":"b","label":"link"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/connections", `{"id":"bad","from":"a","to":"ghost"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/v1/connections/ab", `{"label":"renamed","style":"dashed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/connections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "renamed")

	rec = ts.do(t, http.MethodDelete, "/api/v1/connections/ab", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"n1","title":"First"}`)

	rec := ts.do(t, http.MethodPost, "/api/v1/history/undo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, ts.store.GetNode("n1"))

	rec = ts.do(t, http.MethodPost, "/api/v1/history/redo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, ts.store.GetNode("n1"))

	// Undo on an empty stack reports applied=false rather than failing
	ts.do(t, http.MethodPost, "/api/v1/history/undo", "")
	rec = ts.do(t, http.MethodPost, "/api/v1/history/undo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"applied":false`)
}

func TestUIEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPatch, "/api/v1/ui", `{"zoomLevel":2.0,"currentTool":"pan"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, ts.store.GetUI().ZoomLevel)

	rec = ts.do(t, http.MethodPatch, "/api/v1/ui", `{"zoomLevel":99}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2.0, ts.store.GetUI().ZoomLevel)

	rec = ts.do(t, http.MethodGet, "/api/v1/ui", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"zoomLevel":2`)
}

func TestDocumentRoundTripOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"n1","title":"Keep"}`)

	rec := ts.do(t, http.MethodGet, "/api/v1/document", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)

	fresh := newTestServer(t)
	rec = fresh.do(t, http.MethodPut, "/api/v1/document", string(env.Data))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fresh.store.GetNode("n1"))
	assert.Equal(t, "Keep", fresh.store.GetNode("n1").Title())
}

func TestReplaceDocumentAcceptsLegacyFormat(t *testing.T) {
	ts := newTestServer(t)
	legacy := `{
		"nodes": [{"id": "node-1", "title": "Old", "x": 0, "y": 0, "isRoot": true}],
		"connections": [],
		"rootNodeId": "node-1",
		"nextNodeId": 2
	}`
	rec := ts.do(t, http.MethodPut, "/api/v1/document", legacy)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ts.store.GetNode("node-1"))
	assert.True(t, ts.store.GetNode("node-1").IsRoot())
}

func TestExportSVG(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"a"}`)
	ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"b","x":50,"y":50}`)
	ts.do(t, http.MethodPost, "/api/v1/connections", `{"id":"ab","from":"a","to":"b"}`)

	rec := ts.do(t, http.MethodGet, "/api/v1/document/export.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(rec.Body.String(), "<svg"))
	assert.True(t, strings.Contains(rec.Body.String(), `id="ab"`))
}

func TestPerformanceEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/performance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "score")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/nodes", `{"id":"n1"}`)

	rec := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mindcanvas_rest_test_http_requests_total")
}
