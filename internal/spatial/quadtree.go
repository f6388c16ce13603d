package spatial

import "github.com/lastlight/server/internal/core/ident"

// Quadtree defaults. maxObjects keeps local entry lists short enough that the
// remove-and-reinsert strategy for moving entities stays cheap.
const (
	DefaultMaxObjects = 5
	DefaultMaxDepth   = 4
)

// Entry is a position snapshot stored in a tree node. It references an entity
// by ID and never owns it — the authoritative instance lives in the object
// manager.
type Entry struct {
	ID     ident.ID
	Bounds Rect
}

// Node is one quadtree cell. A node either has no children or exactly four
// (NE/NW/SE/SW split at the midpoint). Entries whose bounds straddle a split
// line are retained at the parent rather than duplicated into children.
type Node struct {
	bounds     Rect
	maxObjects int
	maxDepth   int
	depth      int
	entries    []Entry
	children   []*Node // nil or len 4
}

func NewNode(bounds Rect, maxObjects, maxDepth int) *Node {
	if maxObjects <= 0 {
		maxObjects = DefaultMaxObjects
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return newNode(bounds, maxObjects, maxDepth, 0)
}

func newNode(bounds Rect, maxObjects, maxDepth, depth int) *Node {
	return &Node{
		bounds:     bounds,
		maxObjects: maxObjects,
		maxDepth:   maxDepth,
		depth:      depth,
		entries:    make([]Entry, 0, maxObjects),
	}
}

func (n *Node) Bounds() Rect { return n.bounds }

// Insert places an entry into the subtree. Returns false only when the entry
// does not intersect this node at all.
func (n *Node) Insert(e Entry) bool {
	if !n.bounds.Overlaps(e.Bounds) {
		return false
	}

	if n.children == nil {
		if len(n.entries) < n.maxObjects || n.depth >= n.maxDepth {
			n.entries = append(n.entries, e)
			return true
		}
		n.subdivide()
	}

	// Descend only into a child that wholly contains the entry; straddlers
	// stay at this level so queries see them exactly once.
	for _, c := range n.children {
		if c.bounds.Contains(e.Bounds) {
			return c.Insert(e)
		}
	}
	n.entries = append(n.entries, e)
	return true
}

func (n *Node) subdivide() {
	hw := n.bounds.Width / 2
	hh := n.bounds.Height / 2
	x := n.bounds.X
	y := n.bounds.Y
	d := n.depth + 1

	n.children = []*Node{
		newNode(Rect{X: x + hw, Y: y, Width: hw, Height: hh}, n.maxObjects, n.maxDepth, d),      // NE
		newNode(Rect{X: x, Y: y, Width: hw, Height: hh}, n.maxObjects, n.maxDepth, d),           // NW
		newNode(Rect{X: x + hw, Y: y + hh, Width: hw, Height: hh}, n.maxObjects, n.maxDepth, d), // SE
		newNode(Rect{X: x, Y: y + hh, Width: hw, Height: hh}, n.maxObjects, n.maxDepth, d),      // SW
	}

	// Push down entries that now fit cleanly in a child.
	kept := n.entries[:0]
	for _, e := range n.entries {
		moved := false
		for _, c := range n.children {
			if c.bounds.Contains(e.Bounds) {
				c.Insert(e)
				moved = true
				break
			}
		}
		if !moved {
			kept = append(kept, e)
		}
	}
	n.entries = kept
}

// Query appends every entry in the subtree whose bounds overlap r to out and
// returns the extended slice. Pass a reused buffer to avoid allocation in the
// game loop.
func (n *Node) Query(r Rect, out []Entry) []Entry {
	if !n.bounds.Overlaps(r) {
		return out
	}
	for _, e := range n.entries {
		if e.Bounds.Overlaps(r) {
			out = append(out, e)
		}
	}
	for _, c := range n.children {
		out = c.Query(r, out)
	}
	return out
}

// QueryCircle appends entries overlapping the circle at (cx,cy).
func (n *Node) QueryCircle(cx, cy, rad float64, out []Entry) []Entry {
	if !n.bounds.OverlapsCircle(cx, cy, rad) {
		return out
	}
	for _, e := range n.entries {
		if e.Bounds.OverlapsCircle(cx, cy, rad) {
			out = append(out, e)
		}
	}
	for _, c := range n.children {
		out = c.QueryCircle(cx, cy, rad, out)
	}
	return out
}

// QueryPoint appends entries whose bounds contain the point. Containment is
// half-open (left/top inclusive, right/bottom exclusive), matching grid-cell
// addressing so the tree and grid walkability checks agree at edges.
func (n *Node) QueryPoint(x, y float64, out []Entry) []Entry {
	if !n.bounds.ContainsPoint(x, y) {
		return out
	}
	for _, e := range n.entries {
		if e.Bounds.ContainsPoint(x, y) {
			out = append(out, e)
		}
	}
	for _, c := range n.children {
		out = c.QueryPoint(x, y, out)
	}
	return out
}

// Remove deletes the entry with the given ID from the subtree. Checks the
// local list first, then recurses. Returns false if the ID was not found.
func (n *Node) Remove(id ident.ID) bool {
	for i := range n.entries {
		if n.entries[i].ID == id {
			n.entries[i] = n.entries[len(n.entries)-1]
			n.entries = n.entries[:len(n.entries)-1]
			return true
		}
	}
	for _, c := range n.children {
		if c.Remove(id) {
			return true
		}
	}
	return false
}

// Len returns the total entry count in the subtree.
func (n *Node) Len() int {
	total := len(n.entries)
	for _, c := range n.children {
		total += c.Len()
	}
	return total
}
