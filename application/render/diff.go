package render

import (
	"sort"
)

// PatchOp is the kind of change a patch describes
type PatchOp string

const (
	PatchAdd    PatchOp = "add"
	PatchUpdate PatchOp = "update"
	PatchDelete PatchOp = "delete"
)

// Patch is a minimal description of one difference between two virtual
// trees. Update patches list only the attribute keys that changed.
type Patch struct {
	Op      PatchOp
	ID      string
	Node    *VirtualNode // nil for deletes
	Changed []string     // set for updates only
}

// Diff compares two virtual-node maps and emits the minimal patch set:
// adds for new ids, deletes for vanished ids, updates (with changed
// keys) where attributes, endpoints or child counts differ. Output is
// sorted by id within each op for determinism.
func Diff(prev, next map[string]*VirtualNode) []Patch {
	var patches []Patch

	for id, node := range next {
		old, existed := prev[id]
		if !existed {
			patches = append(patches, Patch{Op: PatchAdd, ID: id, Node: node})
			continue
		}
		if changed := changedKeys(old, node); len(changed) > 0 {
			patches = append(patches, Patch{Op: PatchUpdate, ID: id, Node: node, Changed: changed})
		}
	}
	for id := range prev {
		if _, exists := next[id]; !exists {
			patches = append(patches, Patch{Op: PatchDelete, ID: id})
		}
	}

	sort.Slice(patches, func(i, j int) bool {
		if patches[i].Op != patches[j].Op {
			return opRank(patches[i].Op) < opRank(patches[j].Op)
		}
		return patches[i].ID < patches[j].ID
	})
	return patches
}

// changedKeys lists the attribute keys that differ between two virtual
// nodes. Endpoint and child-count changes surface as pseudo-keys so the
// classifier can treat them as structural.
func changedKeys(old, next *VirtualNode) []string {
	var changed []string
	oldAttrs := old.Attrs.attrMap()
	nextAttrs := next.Attrs.attrMap()
	for _, key := range []string{"path", "stroke", "stroke-width", "stroke-dasharray", "opacity", "class"} {
		if oldAttrs[key] != nextAttrs[key] {
			changed = append(changed, key)
		}
	}
	if old.From != next.From {
		changed = append(changed, "from")
	}
	if old.To != next.To {
		changed = append(changed, "to")
	}
	changed = append(changed, childrenKeys(old.Children, next.Children)...)
	return changed
}

// childrenKeys distinguishes child composition changes (count, kind or
// text, reported as "children") from pure coordinate shifts (reported
// as "children-pos") so a label or handle shift stays a position
// update.
func childrenKeys(old, next []VirtualChild) []string {
	if len(old) != len(next) {
		return []string{"children"}
	}
	moved := false
	for i := range old {
		if old[i].Kind != next[i].Kind || old[i].Text != next[i].Text {
			return []string{"children"}
		}
		if old[i].X != next[i].X || old[i].Y != next[i].Y {
			moved = true
		}
	}
	if moved {
		return []string{"children-pos"}
	}
	return nil
}

// Classify maps an update's changed keys to the cheapest queue kind:
// structural changes (path geometry, endpoints, child composition)
// need a full update, paint changes a style pass, and anything left
// (child coordinate shifts) stays a position update.
func Classify(changed []string) UpdateKind {
	kind := KindPosition
	for _, key := range changed {
		switch key {
		case "path", "from", "to", "children":
			return KindFull
		case "stroke", "stroke-width", "stroke-dasharray", "opacity", "class":
			kind = KindStyle
		}
	}
	return kind
}

func opRank(op PatchOp) int {
	switch op {
	case PatchAdd:
		return 0
	case PatchUpdate:
		return 1
	default:
		return 2
	}
}
