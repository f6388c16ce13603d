package spatial

// Rect is an axis-aligned rectangle. X,Y is the top-left corner in world units.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// CenterRect builds a Rect from a center point and extents.
func CenterRect(cx, cy, w, h float64) Rect {
	return Rect{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
}

// Overlaps reports whether two rects share interior area. Edges that touch
// exactly do not count as overlapping, so entities in adjacent cells never
// produce false positives against a shared boundary.
func (r Rect) Overlaps(o Rect) bool {
	return r.Left() < o.Right() && r.Right() > o.Left() &&
		r.Top() < o.Bottom() && r.Bottom() > o.Top()
}

// Contains reports whether o fits wholly within r.
func (r Rect) Contains(o Rect) bool {
	return o.Left() >= r.Left() && o.Right() <= r.Right() &&
		o.Top() >= r.Top() && o.Bottom() <= r.Bottom()
}

// ContainsPoint reports whether the point lies inside r. The left/top edges
// are inclusive, right/bottom exclusive, matching grid-cell addressing.
func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.Left() && x < r.Right() && y >= r.Top() && y < r.Bottom()
}

// OverlapsCircle reports whether the circle at (cx,cy) with radius rad
// overlaps r, via the closest-point test. A circle just touching an edge does
// not overlap.
func (r Rect) OverlapsCircle(cx, cy, rad float64) bool {
	nx := clamp(cx, r.Left(), r.Right())
	ny := clamp(cy, r.Top(), r.Bottom())
	dx := cx - nx
	dy := cy - ny
	return dx*dx+dy*dy < rad*rad
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
