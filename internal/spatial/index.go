package spatial

import "github.com/lastlight/server/internal/core/ident"

// Index holds two quadtrees over the same world bounds: a static tree seeded
// once per map with obstacle rects, and a dynamic tree tracking agents'
// current bounds. Accessed only from the game loop goroutine — no locks.
//
// The static tree is never mutated after NewIndex. Dynamic mutation happens
// only through Add/Remove/UpdatePosition; no other subsystem touches the
// trees directly, which is what keeps positions and index entries in step.
type Index struct {
	bounds  Rect
	static  *Node
	dynamic *Node

	queryBuf []Entry // reusable query buffer
}

// NewIndex builds an index for the given world bounds and seeds the static
// tree with obstacle rects.
func NewIndex(bounds Rect, obstacles []Rect) *Index {
	ix := &Index{
		bounds:  bounds,
		static:  NewNode(bounds, DefaultMaxObjects, DefaultMaxDepth),
		dynamic: NewNode(bounds, DefaultMaxObjects, DefaultMaxDepth),
	}
	for _, o := range obstacles {
		ix.static.Insert(Entry{Bounds: o})
	}
	return ix
}

func (ix *Index) Bounds() Rect { return ix.bounds }

// InBounds reports whether the point lies within the world rect.
func (ix *Index) InBounds(x, y float64) bool {
	return ix.bounds.ContainsPoint(x, y)
}

// QueryStatic returns obstacle entries overlapping r. The returned slice is
// valid until the next query on this index.
func (ix *Index) QueryStatic(r Rect) []Entry {
	ix.queryBuf = ix.static.Query(r, ix.queryBuf[:0])
	return ix.queryBuf
}

// QueryStaticPoint returns obstacle entries containing the point, with
// half-open edge semantics.
func (ix *Index) QueryStaticPoint(x, y float64) []Entry {
	ix.queryBuf = ix.static.QueryPoint(x, y, ix.queryBuf[:0])
	return ix.queryBuf
}

// QueryStaticCircle returns obstacle entries overlapping the circle.
func (ix *Index) QueryStaticCircle(cx, cy, rad float64) []Entry {
	ix.queryBuf = ix.static.QueryCircle(cx, cy, rad, ix.queryBuf[:0])
	return ix.queryBuf
}

// QueryDynamic returns agent entries overlapping r. The returned slice is
// valid until the next query on this index.
func (ix *Index) QueryDynamic(r Rect) []Entry {
	ix.queryBuf = ix.dynamic.Query(r, ix.queryBuf[:0])
	return ix.queryBuf
}

// Add registers an agent's bounds in the dynamic tree.
func (ix *Index) Add(id ident.ID, bounds Rect) bool {
	return ix.dynamic.Insert(Entry{ID: id, Bounds: bounds})
}

// Remove deletes an agent from the dynamic tree.
func (ix *Index) Remove(id ident.ID) bool {
	return ix.dynamic.Remove(id)
}

// UpdatePosition relocates an agent in the dynamic tree. The tree does no
// incremental in-place relocation; a moved agent is removed and reinserted at
// its new bounds, which is cheap because maxObjects keeps local lists small.
func (ix *Index) UpdatePosition(id ident.ID, newBounds Rect) bool {
	ix.dynamic.Remove(id)
	return ix.dynamic.Insert(Entry{ID: id, Bounds: newBounds})
}

// DynamicLen returns the number of tracked agents.
func (ix *Index) DynamicLen() int { return ix.dynamic.Len() }

// StaticLen returns the number of seeded obstacles.
func (ix *Index) StaticLen() int { return ix.static.Len() }
