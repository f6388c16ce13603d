package collision

import (
	"github.com/lastlight/server/internal/data"
	"github.com/lastlight/server/internal/spatial"
)

// Walkable answers "can a point be occupied". The grid and tree
// implementations are interchangeable at this interface: both report false
// for any point inside an obstacle and true elsewhere within map bounds.
type Walkable interface {
	IsWalkable(x, y float64) bool
}

// GridWalk resolves walkability against a uniform walk grid.
type GridWalk struct {
	grid *data.WalkGrid
}

func NewGridWalk(grid *data.WalkGrid) *GridWalk {
	return &GridWalk{grid: grid}
}

func (w *GridWalk) IsWalkable(x, y float64) bool {
	return w.grid.IsWalkable(x, y)
}

// TreeWalk resolves walkability against the static obstacle quadtree.
type TreeWalk struct {
	index *spatial.Index
}

func NewTreeWalk(index *spatial.Index) *TreeWalk {
	return &TreeWalk{index: index}
}

func (w *TreeWalk) IsWalkable(x, y float64) bool {
	if !w.index.InBounds(x, y) {
		return false
	}
	// Half-open containment keeps this equivalent to the grid lookup: a
	// point on an obstacle's left/top edge is blocked, a point on its
	// right/bottom edge belongs to the next (free) cell.
	hits := w.index.QueryStaticPoint(x, y)
	return len(hits) == 0
}
