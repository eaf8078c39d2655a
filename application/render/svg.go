package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// svgElement is one rendered connection: a path plus optional label
// and drag handle children.
type svgElement struct {
	attrs  map[string]string
	label  string
	labelX string
	labelY string
	handle bool
	hx     string
	hy     string
}

// SVGTarget is an in-memory SVG document the queue flushes into. It
// implements the batch update interfaces plus the per-element
// fallback, so it exercises every dispatch path.
type SVGTarget struct {
	mu       sync.Mutex
	width    float64
	height   float64
	elements map[string]*svgElement
}

// NewSVGTarget creates an empty canvas with the given viewport size
func NewSVGTarget(width, height float64) *SVGTarget {
	return &SVGTarget{
		width:    width,
		height:   height,
		elements: make(map[string]*svgElement),
	}
}

// UpdatePositions applies geometry-only updates
func (t *SVGTarget) UpdatePositions(entries []Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range entries {
		t.apply(e)
	}
	return nil
}

// UpdateStyles applies paint-only updates
func (t *SVGTarget) UpdateStyles(entries []Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range entries {
		t.apply(e)
	}
	return nil
}

// FullUpdate applies structural updates including adds and deletes
func (t *SVGTarget) FullUpdate(entries []Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range entries {
		if e.Data["op"] == "delete" {
			delete(t.elements, e.ID)
			continue
		}
		t.apply(e)
	}
	return nil
}

// SetAttributes is the per-element fallback write
func (t *SVGTarget) SetAttributes(id string, attrs map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if attrs["op"] == "delete" {
		delete(t.elements, id)
		return nil
	}
	t.apply(Entry{ID: id, Data: attrs})
	return nil
}

// apply merges entry data into the element, creating it on first
// sight. Caller holds mu.
func (t *SVGTarget) apply(e Entry) {
	el, ok := t.elements[e.ID]
	if !ok {
		el = &svgElement{attrs: make(map[string]string)}
		t.elements[e.ID] = el
	}
	for k, v := range e.Data {
		switch k {
		case "op":
			// consumed by the caller
		case "from", "to":
			// endpoint metadata, not path attributes
		case "label":
			el.label = v
		case "labelX":
			el.labelX = v
		case "labelY":
			el.labelY = v
		case "handle":
			el.handle = v == "true"
		case "handleX":
			el.hx = v
		case "handleY":
			el.hy = v
		default:
			if v == "" {
				delete(el.attrs, k)
			} else {
				el.attrs[k] = v
			}
		}
	}
}

// ElementCount returns the number of live elements
func (t *SVGTarget) ElementCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.elements)
}

// Attributes returns a copy of one element's attributes, or nil when
// the element does not exist.
func (t *SVGTarget) Attributes(id string) map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, ok := t.elements[id]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(el.attrs))
	for k, v := range el.attrs {
		out[k] = v
	}
	return out
}

// String renders the current document as a standalone SVG, elements in
// id order so output is deterministic.
func (t *SVGTarget) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.elements))
	for id := range t.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g">`, t.width, t.height)
	b.WriteString("\n")
	for _, id := range ids {
		el := t.elements[id]
		fmt.Fprintf(&b, `  <g id=%q>`, id)
		b.WriteString("\n")

		b.WriteString(`    <path fill="none"`)
		keys := make([]string, 0, len(el.attrs))
		for k := range el.attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%q", k, el.attrs[k])
		}
		b.WriteString("/>\n")

		if el.label != "" {
			fmt.Fprintf(&b, `    <text x=%q y=%q text-anchor="middle" class="connection-label">%s</text>`,
				el.labelX, el.labelY, escapeText(el.label))
			b.WriteString("\n")
		}
		if el.handle {
			fmt.Fprintf(&b, `    <circle cx=%q cy=%q r="5" class="control-handle"/>`, el.hx, el.hy)
			b.WriteString("\n")
		}
		b.WriteString("  </g>\n")
	}
	b.WriteString("</svg>\n")
	return b.String()
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
