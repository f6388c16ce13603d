package collision

import (
	"errors"
	"math"
	"math/rand"

	"github.com/lastlight/server/internal/spatial"
)

const (
	// minSampleStep bounds the segment sampling interval in SmartMove so
	// tiny agents do not probe pixel by pixel.
	minSampleStep = 8.0
	// minWallStep bounds the line-search increment in WallFollow.
	minWallStep = 4.0
	// nearbyScale sizes the cardinal escape offsets around a stuck agent.
	nearbyScale = 1.5
	// marginFloor is the smallest neighbour-offset distance for the
	// walkable-with-margin test.
	marginFloor = 4.0

	spawnAttempts = 50
	cornerInset   = 100.0
)

// Resolver answers movement and placement queries against the spatial index.
// It holds no mutable state of its own — agent positions and targets live in
// the calling entities; every method either returns a position synchronously
// or falls back to "no movement this tick".
type Resolver struct {
	index *spatial.Index
	walk  Walkable
}

// NewResolver wires a resolver to an initialized index and one walkability
// source. A nil dependency is a configuration error: continuing would let
// agents walk through walls undetected.
func NewResolver(index *spatial.Index, walk Walkable) (*Resolver, error) {
	if index == nil {
		return nil, errors.New("collision: spatial index not initialized")
	}
	if walk == nil {
		return nil, errors.New("collision: walkability source not initialized")
	}
	return &Resolver{index: index, walk: walk}, nil
}

// IsWalkable reports whether a point can be occupied.
func (r *Resolver) IsWalkable(x, y float64) bool {
	return r.walk.IsWalkable(x, y)
}

// CircleHitsBuildings reports whether a circle footprint overlaps any static
// obstacle. Broad phase is the tree query, narrow phase the closest-point
// circle-vs-AABB test inside QueryCircle.
func (r *Resolver) CircleHitsBuildings(cx, cy, rad float64) bool {
	return len(r.index.QueryStaticCircle(cx, cy, rad)) > 0
}

// RectHitsBuildings reports whether a rect footprint centered at (cx,cy)
// overlaps any static obstacle.
func (r *Resolver) RectHitsBuildings(cx, cy, w, h float64) bool {
	return len(r.index.QueryStatic(spatial.CenterRect(cx, cy, w, h))) > 0
}

// walkableWithMargin accepts a point only if it and at least one of its 8
// neighbouring offsets at margin distance are walkable, so an agent is never
// steered into a gap barely wider than itself.
func (r *Resolver) walkableWithMargin(x, y, margin float64) bool {
	if !r.walk.IsWalkable(x, y) {
		return false
	}
	for _, off := range neighbourOffsets {
		if r.walk.IsWalkable(x+off[0]*margin, y+off[1]*margin) {
			return true
		}
	}
	return false
}

var neighbourOffsets = [8][2]float64{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// SmartMove returns a safe position along the segment from→to for an agent of
// the given radius. The straight-line target is returned unchanged when
// walkable — the cheap path taken almost every frame. Otherwise the segment
// is sampled and the farthest walkable-with-margin sample wins; failing that,
// the 8 offsets around the origin are probed; the final fallback is the
// unchanged origin.
func (r *Resolver) SmartMove(fromX, fromY, toX, toY, radius float64) (float64, float64) {
	if r.walk.IsWalkable(toX, toY) {
		return toX, toY
	}

	dx := toX - fromX
	dy := toY - fromY
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return fromX, fromY
	}

	step := math.Max(radius/2, minSampleStep)
	margin := math.Max(radius/2, marginFloor)

	for d := dist - step; d >= step; d -= step {
		t := d / dist
		sx := fromX + dx*t
		sy := fromY + dy*t
		if r.walkableWithMargin(sx, sy, margin) {
			return sx, sy
		}
	}

	for _, off := range neighbourOffsets {
		px := fromX + off[0]*radius
		py := fromY + off[1]*radius
		if r.walk.IsWalkable(px, py) {
			return px, py
		}
	}

	return fromX, fromY
}

// WallFollow produces sliding movement along obstacle edges instead of a dead
// stop. Attempt order, first success wins:
//  1. direct step toward the target
//  2. horizontal-only step, if strictly closer to the target
//  3. vertical-only step, if strictly closer
//  4. full diagonal step at unmodified per-axis speed, if strictly closer
//  5. line search along the direct path for the farthest walkable point
//  6. cardinal offsets around the origin
//  7. stay put
//
// Single-axis sliding is tried before diagonal creep so agents hug walls
// rather than jitter against them.
func (r *Resolver) WallFollow(fromX, fromY, toX, toY, radius, speed float64) (float64, float64) {
	dx := toX - fromX
	dy := toY - fromY
	dist := math.Hypot(dx, dy)
	if dist == 0 || speed <= 0 {
		return fromX, fromY
	}
	dirX := dx / dist
	dirY := dy / dist

	// 1. direct
	nx := fromX + dirX*speed
	ny := fromY + dirY*speed
	if r.walk.IsWalkable(nx, ny) {
		return nx, ny
	}

	closer := func(x, y float64) bool {
		return math.Hypot(toX-x, toY-y) < dist
	}

	// 2. horizontal slide
	hx := fromX + dirX*speed
	if r.walk.IsWalkable(hx, fromY) && closer(hx, fromY) {
		return hx, fromY
	}

	// 3. vertical slide
	vy := fromY + dirY*speed
	if r.walk.IsWalkable(fromX, vy) && closer(fromX, vy) {
		return fromX, vy
	}

	// 4. diagonal at full per-axis speed; deliberately not scaled by 1/sqrt2
	// so sliding speed stays isotropic with the single-axis steps.
	gx := fromX + sign(dx)*speed
	gy := fromY + sign(dy)*speed
	if r.walk.IsWalkable(gx, gy) && closer(gx, gy) {
		return gx, gy
	}

	// 5. farthest walkable point along the direct line, within this tick's
	// reach.
	step := math.Max(radius/2, minWallStep)
	reach := math.Min(dist, speed)
	for d := reach - step; d >= step; d -= step {
		t := d / dist
		sx := fromX + dx*t
		sy := fromY + dy*t
		if r.walk.IsWalkable(sx, sy) {
			return sx, sy
		}
	}

	// 6. cardinal escape offsets
	off := radius * nearbyScale
	for _, c := range [4][2]float64{{off, 0}, {-off, 0}, {0, off}, {0, -off}} {
		px := fromX + c[0]
		py := fromY + c[1]
		if r.walk.IsWalkable(px, py) {
			return px, py
		}
	}

	// 7. no movement this tick
	return fromX, fromY
}

// SafeSpawn searches for a free position at distance [minDist,maxDist] from
// the center for a footprint of the given size. Rejection sampling, up to 50
// attempts, then the four map corners inset by 100 units. ok=false means the
// caller must retry later or skip spawning, never spawn unconditionally.
func (r *Resolver) SafeSpawn(cx, cy, minDist, maxDist, w, h float64, circle bool) (float64, float64, bool) {
	for i := 0; i < spawnAttempts; i++ {
		ang := rand.Float64() * 2 * math.Pi
		d := minDist + rand.Float64()*(maxDist-minDist)
		x := cx + math.Cos(ang)*d
		y := cy + math.Sin(ang)*d
		if r.footprintFree(x, y, w, h, circle) {
			return x, y, true
		}
	}

	b := r.index.Bounds()
	corners := [4][2]float64{
		{b.Left() + cornerInset, b.Top() + cornerInset},
		{b.Right() - cornerInset, b.Top() + cornerInset},
		{b.Left() + cornerInset, b.Bottom() - cornerInset},
		{b.Right() - cornerInset, b.Bottom() - cornerInset},
	}
	for _, c := range corners {
		if r.footprintFree(c[0], c[1], w, h, circle) {
			return c[0], c[1], true
		}
	}

	return cx, cy, false
}

func (r *Resolver) footprintFree(x, y, w, h float64, circle bool) bool {
	if !r.index.InBounds(x, y) {
		return false
	}
	if !r.walk.IsWalkable(x, y) {
		return false
	}
	if circle {
		return !r.CircleHitsBuildings(x, y, w/2)
	}
	return !r.RectHitsBuildings(x, y, w, h)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
