package render

import (
	"sync"

	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	domainevents "mindcanvas/domain/events"
	pkgevents "mindcanvas/pkg/events"

	"go.uber.org/zap"
)

// StateReader is the slice of store state the renderer reads
type StateReader interface {
	GetNodes() []*entities.Node
	GetConnections() []*entities.Connection
	GetUI() valueobjects.UIState
}

// Renderer rebuilds the virtual connection tree from current state,
// diffs it against the previous pass and feeds the minimal patch set
// into the render queue. Render calls arriving while a pass is running
// coalesce into exactly one follow-up pass.
type Renderer struct {
	state  StateReader
	queue  *Queue
	logger *zap.Logger

	mu        sync.Mutex
	prev      map[string]*VirtualNode
	rendering bool
	pending   bool
}

// NewRenderer creates a renderer over the given state and queue
func NewRenderer(state StateReader, queue *Queue, logger *zap.Logger) *Renderer {
	return &Renderer{
		state:  state,
		queue:  queue,
		logger: logger,
		prev:   make(map[string]*VirtualNode),
	}
}

// Bind subscribes the renderer to every event that can change
// connection appearance. Returns an unsubscribe function.
func (r *Renderer) Bind(bus *pkgevents.Bus) func() {
	types := []domainevents.EventType{
		domainevents.EventAddNode,
		domainevents.EventUpdateNode,
		domainevents.EventRemoveNode,
		domainevents.EventAddConnection,
		domainevents.EventUpdateConnection,
		domainevents.EventRemoveConnection,
		domainevents.EventUpdateUI,
		domainevents.EventUndo,
		domainevents.EventRedo,
		domainevents.EventRestoreState,
		domainevents.EventTransactionCommit,
	}
	unsubs := make([]func(), 0, len(types))
	for _, t := range types {
		unsubs = append(unsubs, bus.OnNamed(t, "renderer", func(domainevents.DomainEvent) error {
			r.Render()
			return nil
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Render performs one diff-and-enqueue pass. Calls made while a pass
// is in flight are coalesced: the running call loops exactly once more
// when it finishes, picking up all intervening state.
func (r *Renderer) Render() {
	r.mu.Lock()
	if r.rendering {
		r.pending = true
		r.mu.Unlock()
		return
	}
	r.rendering = true
	r.mu.Unlock()

	for {
		r.renderPass()

		r.mu.Lock()
		if !r.pending {
			r.rendering = false
			r.mu.Unlock()
			return
		}
		r.pending = false
		r.mu.Unlock()
	}
}

// Flush forces the queue to deliver everything enqueued so far
func (r *Renderer) Flush() {
	r.queue.ForceRender()
}

func (r *Renderer) renderPass() {
	next := r.buildTree()

	r.mu.Lock()
	prev := r.prev
	r.prev = next
	r.mu.Unlock()

	for _, patch := range Diff(prev, next) {
		switch patch.Op {
		case PatchAdd:
			data := fullData(patch.Node)
			data["op"] = "add"
			r.queue.MarkDirty(patch.ID, KindFull, data)
		case PatchDelete:
			r.queue.MarkDirty(patch.ID, KindFull, map[string]string{"op": "delete"})
		case PatchUpdate:
			kind := Classify(patch.Changed)
			var data map[string]string
			switch kind {
			case KindPosition:
				data = positionData(patch.Node)
			case KindStyle:
				data = styleData(patch.Node)
			default:
				data = fullData(patch.Node)
				data["op"] = "update"
			}
			r.queue.MarkDirty(patch.ID, kind, data)
		}
	}
}

// buildTree assembles the virtual tree for the current state.
// Connections whose endpoints vanished mid-read are skipped.
func (r *Renderer) buildTree() map[string]*VirtualNode {
	nodes := r.state.GetNodes()
	byID := make(map[string]*entities.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID().String()] = n
	}

	ui := r.state.GetUI()

	conns := r.state.GetConnections()
	tree := make(map[string]*VirtualNode, len(conns))
	for _, conn := range conns {
		from, okFrom := byID[conn.From().String()]
		to, okTo := byID[conn.To().String()]
		if !okFrom || !okTo {
			r.logger.Debug("skipping connection with missing endpoint",
				zap.String("connectionId", conn.ID().String()))
			continue
		}
		vnode := BuildVirtualNode(conn, from, to, ui.SelectedConnectionID)
		tree[vnode.ID] = vnode
	}
	return tree
}

func positionData(node *VirtualNode) map[string]string {
	data := map[string]string{"path": node.Attrs.Path}
	childData(node, data)
	return data
}

func styleData(node *VirtualNode) map[string]string {
	attrs := node.Attrs.attrMap()
	return map[string]string{
		"stroke":           attrs["stroke"],
		"stroke-width":     attrs["stroke-width"],
		"stroke-dasharray": attrs["stroke-dasharray"],
		"opacity":          attrs["opacity"],
		"class":            attrs["class"],
	}
}

func fullData(node *VirtualNode) map[string]string {
	data := node.Attrs.attrMap()
	data["from"] = node.From
	data["to"] = node.To
	data["label"] = ""
	data["handle"] = "false"
	childData(node, data)
	return data
}

func childData(node *VirtualNode, data map[string]string) {
	for _, child := range node.Children {
		switch child.Kind {
		case "label":
			data["label"] = child.Text
			data["labelX"] = coord(child.X)
			data["labelY"] = coord(child.Y)
		case "handle":
			data["handle"] = "true"
			data["handleX"] = coord(child.X)
			data["handleY"] = coord(child.Y)
		}
	}
}
