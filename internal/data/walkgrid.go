package data

import (
	"math"

	"github.com/lastlight/server/internal/spatial"
)

// WalkGrid is a uniform-cell walkability map derived once from a map's
// obstacle list. Cell value 0 means passable. Flat array [row*cols+col],
// row-major. Read-only after construction.
type WalkGrid struct {
	cellSize float64
	width    float64
	height   float64
	cols     int
	rows     int
	cells    []uint8
}

// BuildWalkGrid rasterizes obstacles onto a uniform grid. A cell is blocked
// when its rect shares interior area with any obstacle; obstacles that only
// touch a cell's edge leave it passable, matching the quadtree overlap rule.
func BuildWalkGrid(obstacles []Obstacle, width, height, cellSize float64) *WalkGrid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	g := &WalkGrid{
		cellSize: cellSize,
		width:    width,
		height:   height,
		cols:     cols,
		rows:     rows,
		cells:    make([]uint8, cols*rows),
	}
	for _, o := range obstacles {
		b := o.Bounds()
		minCol := int(math.Floor(b.Left() / cellSize))
		maxCol := int(math.Ceil(b.Right()/cellSize)) - 1
		minRow := int(math.Floor(b.Top() / cellSize))
		maxRow := int(math.Ceil(b.Bottom()/cellSize)) - 1
		for row := max(minRow, 0); row <= maxRow && row < rows; row++ {
			for col := max(minCol, 0); col <= maxCol && col < cols; col++ {
				cell := spatial.Rect{
					X:      float64(col) * cellSize,
					Y:      float64(row) * cellSize,
					Width:  cellSize,
					Height: cellSize,
				}
				if cell.Overlaps(b) {
					g.cells[row*cols+col] = 1
				}
			}
		}
	}
	return g
}

func (g *WalkGrid) CellSize() float64 { return g.cellSize }
func (g *WalkGrid) Cols() int         { return g.cols }
func (g *WalkGrid) Rows() int         { return g.rows }

// IsWalkable reports whether the world-space point lies in a passable cell.
// Out-of-bounds points are not walkable.
func (g *WalkGrid) IsWalkable(x, y float64) bool {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return false
	}
	col := int(math.Floor(x / g.cellSize))
	row := int(math.Floor(y / g.cellSize))
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return false
	}
	return g.cells[row*g.cols+col] == 0
}

// BlockedCount returns the number of blocked cells (diagnostics).
func (g *WalkGrid) BlockedCount() int {
	n := 0
	for _, c := range g.cells {
		if c != 0 {
			n++
		}
	}
	return n
}
