package render

import (
	"strings"
	"testing"
	"time"

	"mindcanvas/application/store"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	pkgevents "mindcanvas/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRenderFixture(t *testing.T) (*store.Store, *Renderer, *Queue, *SVGTarget) {
	t.Helper()
	logger := zap.NewNop()
	s := store.NewStore(pkgevents.NewBus(logger), 0, logger)
	canvas := NewSVGTarget(800, 600)
	queue := NewQueue(canvas, time.Hour, logger)
	renderer := NewRenderer(s, queue, logger)
	return s, renderer, queue, canvas
}

func seedGraph(t *testing.T, s *store.Store) {
	t.Helper()
	_, err := s.AddNode(store.NodeInput{ID: "a", Title: "A", X: 0, Y: 0})
	require.NoError(t, err)
	_, err = s.AddNode(store.NodeInput{ID: "b", Title: "B", X: 100, Y: 100})
	require.NoError(t, err)
	_, err = s.AddConnection(store.ConnectionInput{ID: "ab", From: "a", To: "b", Label: "link"})
	require.NoError(t, err)
}

func TestRenderDrawsConnections(t *testing.T) {
	s, renderer, queue, canvas := newRenderFixture(t)
	seedGraph(t, s)

	renderer.Render()
	queue.ForceRender()

	assert.Equal(t, 1, canvas.ElementCount())
	attrs := canvas.Attributes("ab")
	require.NotNil(t, attrs)
	assert.Equal(t, "M 0 0 L 100 100", attrs["path"])
	assert.Equal(t, "#666666", attrs["stroke"])

	svg := canvas.String()
	assert.True(t, strings.Contains(svg, `id="ab"`))
	assert.True(t, strings.Contains(svg, ">link</text>"))
}

func TestRenderWithoutChangesEnqueuesNothing(t *testing.T) {
	s, renderer, queue, _ := newRenderFixture(t)
	seedGraph(t, s)

	renderer.Render()
	queue.ForceRender()

	renderer.Render()
	assert.Zero(t, queue.PendingCount())
}

func TestNodeMoveUpdatesPath(t *testing.T) {
	s, renderer, queue, canvas := newRenderFixture(t)
	seedGraph(t, s)
	renderer.Render()
	queue.ForceRender()

	x, y := 50.0, 60.0
	_, err := s.UpdateNode("a", entities.NodePatch{X: &x, Y: &y})
	require.NoError(t, err)

	renderer.Render()
	queue.ForceRender()

	attrs := canvas.Attributes("ab")
	assert.Equal(t, "M 50 60 L 100 100", attrs["path"])
	assert.Equal(t, "#666666", attrs["stroke"])
}

func TestNodeMoveWithStyleChangeKeepsGeometry(t *testing.T) {
	s, renderer, queue, canvas := newRenderFixture(t)
	seedGraph(t, s)
	renderer.Render()
	queue.ForceRender()

	err := s.Transaction(func() error {
		x, y := 50.0, 50.0
		if _, err := s.UpdateNode("a", entities.NodePatch{X: &x, Y: &y}); err != nil {
			return err
		}
		dashed := "dashed"
		_, err := s.UpdateConnection("ab", entities.ConnectionPatch{Style: &dashed})
		return err
	})
	require.NoError(t, err)

	renderer.Render()
	queue.ForceRender()

	attrs := canvas.Attributes("ab")
	assert.Equal(t, "M 50 50 L 100 100", attrs["path"])
	assert.Equal(t, "8,4", attrs["stroke-dasharray"])
}

func TestEndpointMetadataStaysOutOfMarkup(t *testing.T) {
	s, renderer, queue, canvas := newRenderFixture(t)
	seedGraph(t, s)
	renderer.Render()
	queue.ForceRender()

	attrs := canvas.Attributes("ab")
	assert.NotContains(t, attrs, "from")
	assert.NotContains(t, attrs, "to")

	svg := canvas.String()
	assert.NotContains(t, svg, `from="`)
	assert.NotContains(t, svg, ` to="`)
}

func TestSelectionHighlightsConnection(t *testing.T) {
	s, renderer, queue, canvas := newRenderFixture(t)
	seedGraph(t, s)
	renderer.Render()
	queue.ForceRender()

	selected := "ab"
	_, err := s.UpdateUI(valueobjects.UIPatch{SelectedConnectionID: &selected})
	require.NoError(t, err)

	renderer.Render()
	queue.ForceRender()

	attrs := canvas.Attributes("ab")
	assert.Equal(t, "#ff9800", attrs["stroke"])
	assert.Contains(t, attrs["class"], "selected")
}

func TestRemovedConnectionLeavesCanvas(t *testing.T) {
	s, renderer, queue, canvas := newRenderFixture(t)
	seedGraph(t, s)
	renderer.Render()
	queue.ForceRender()

	require.NoError(t, s.RemoveConnection("ab"))
	renderer.Render()
	queue.ForceRender()

	assert.Zero(t, canvas.ElementCount())
	assert.Nil(t, canvas.Attributes("ab"))
}

func TestBindRendersOnStoreEvents(t *testing.T) {
	logger := zap.NewNop()
	bus := pkgevents.NewBus(logger)
	s := store.NewStore(bus, 0, logger)
	canvas := NewSVGTarget(800, 600)
	queue := NewQueue(canvas, time.Hour, logger)
	renderer := NewRenderer(s, queue, logger)

	unbind := renderer.Bind(bus)
	defer unbind()

	seedGraph(t, s)
	queue.ForceRender()

	assert.Equal(t, 1, canvas.ElementCount())
}
