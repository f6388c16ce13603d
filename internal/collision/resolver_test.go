package collision

import (
	"math"
	"testing"

	"github.com/lastlight/server/internal/data"
	"github.com/lastlight/server/internal/spatial"
)

func newTestResolver(t *testing.T, obstacles []data.Obstacle) *Resolver {
	t.Helper()
	world := spatial.Rect{Width: 1000, Height: 1000}
	rects := make([]spatial.Rect, len(obstacles))
	for i, o := range obstacles {
		rects[i] = o.Bounds()
	}
	ix := spatial.NewIndex(world, rects)
	r, err := NewResolver(ix, NewTreeWalk(ix))
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestNewResolverRejectsMissingInit(t *testing.T) {
	if _, err := NewResolver(nil, nil); err == nil {
		t.Fatalf("nil index must be a configuration error")
	}
	ix := spatial.NewIndex(spatial.Rect{Width: 10, Height: 10}, nil)
	if _, err := NewResolver(ix, nil); err == nil {
		t.Fatalf("nil walkability source must be a configuration error")
	}
}

func TestWalkabilityBoundary(t *testing.T) {
	obstacles := []data.Obstacle{{X: 100, Y: 100, Width: 50, Height: 50}}
	r := newTestResolver(t, obstacles)

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"obstacle corner", 100, 100, false},
		{"obstacle interior", 125, 125, false},
		{"just outside", 99, 99, true},
		{"far free point", 500, 500, true},
		{"right edge belongs to free space", 150, 125, true},
		{"out of bounds", -1, 50, false},
		{"past world edge", 1000, 500, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.IsWalkable(tt.x, tt.y); got != tt.want {
				t.Errorf("IsWalkable(%.0f,%.0f) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

// Grid and tree walkability must agree everywhere when obstacles are
// cell-aligned.
func TestGridAndTreeWalkEquivalence(t *testing.T) {
	obstacles := []data.Obstacle{
		{X: 100, Y: 100, Width: 50, Height: 50},
		{X: 400, Y: 250, Width: 75, Height: 25},
	}
	r := newTestResolver(t, obstacles)
	grid := data.BuildWalkGrid(obstacles, 1000, 1000, 25)
	gw := NewGridWalk(grid)

	for x := 0.0; x < 1000; x += 12.5 {
		for y := 0.0; y < 1000; y += 12.5 {
			treeGot := r.IsWalkable(x, y)
			gridGot := gw.IsWalkable(x, y)
			if treeGot != gridGot {
				t.Fatalf("implementations disagree at (%.1f,%.1f): tree=%v grid=%v", x, y, treeGot, gridGot)
			}
		}
	}
}

func TestCircleAndRectHits(t *testing.T) {
	r := newTestResolver(t, []data.Obstacle{{X: 100, Y: 100, Width: 50, Height: 50}})

	if !r.CircleHitsBuildings(90, 125, 15) {
		t.Errorf("circle reaching into obstacle should hit")
	}
	if r.CircleHitsBuildings(80, 125, 15) {
		t.Errorf("circle only touching the edge should not hit")
	}
	if !r.RectHitsBuildings(95, 125, 20, 20) {
		t.Errorf("rect overlapping obstacle should hit")
	}
	if r.RectHitsBuildings(80, 125, 20, 20) {
		t.Errorf("rect sharing only an edge should not hit")
	}
}

func TestSmartMoveDirectPath(t *testing.T) {
	r := newTestResolver(t, []data.Obstacle{{X: 100, Y: 100, Width: 50, Height: 50}})
	x, y := r.SmartMove(500, 500, 600, 600, 10)
	if x != 600 || y != 600 {
		t.Fatalf("unobstructed target must be returned unchanged, got (%.1f,%.1f)", x, y)
	}
}

func TestSmartMoveStopsShortOfObstacle(t *testing.T) {
	r := newTestResolver(t, []data.Obstacle{{X: 100, Y: 100, Width: 50, Height: 50}})
	// Target inside the obstacle: result must be a walkable point along the
	// segment, not the origin (there is free space before the wall).
	x, y := r.SmartMove(125, 300, 125, 125, 10)
	if !r.IsWalkable(x, y) {
		t.Fatalf("SmartMove returned a blocked point (%.1f,%.1f)", x, y)
	}
	if y <= 150 {
		t.Fatalf("SmartMove entered the obstacle region: y=%.1f", y)
	}
	if y >= 300 {
		t.Fatalf("SmartMove made no progress toward the target")
	}
}

func TestSmartMoveFallsBackToOrigin(t *testing.T) {
	// Box the agent in completely: all samples and escape offsets blocked.
	r := newTestResolver(t, []data.Obstacle{
		{X: 0, Y: 0, Width: 1000, Height: 490},
		{X: 0, Y: 510, Width: 1000, Height: 490},
		{X: 0, Y: 490, Width: 490, Height: 20},
		{X: 510, Y: 490, Width: 490, Height: 20},
	})
	// (500,500) sits in a 20x20 pocket; radius 30 samples and offsets all
	// land in walls.
	x, y := r.SmartMove(500, 500, 900, 500, 30)
	if x != 500 || y != 500 {
		t.Fatalf("boxed-in agent must stay put, got (%.1f,%.1f)", x, y)
	}
}

func TestWallFollowDirect(t *testing.T) {
	r := newTestResolver(t, nil)
	x, y := r.WallFollow(100, 100, 200, 100, 10, 5)
	if math.Abs(x-105) > 1e-9 || math.Abs(y-100) > 1e-9 {
		t.Fatalf("open-field step = (%.2f,%.2f), want (105,100)", x, y)
	}
}

// With an obstacle blocking the direct line, one of the single-axis tiers
// must still make strictly positive progress toward the target.
func TestWallFollowMonotonicProgress(t *testing.T) {
	r := newTestResolver(t, []data.Obstacle{{X: 240, Y: 280, Width: 20, Height: 40}})

	fromX, fromY := 235.0, 300.0
	toX, toY := 300.0, 340.0
	startDist := math.Hypot(toX-fromX, toY-fromY)

	x, y := r.WallFollow(fromX, fromY, toX, toY, 10, 10)
	if x == fromX && y == fromY {
		t.Fatalf("agent stalled although a sliding step was available")
	}
	if !r.IsWalkable(x, y) {
		t.Fatalf("WallFollow returned blocked point (%.1f,%.1f)", x, y)
	}
	if math.Hypot(toX-x, toY-y) >= startDist {
		t.Fatalf("no progress: moved to (%.1f,%.1f)", x, y)
	}
	// The wall is vertical, so the slide must be the vertical tier: x holds.
	if x != fromX {
		t.Fatalf("expected vertical wall slide, got x=%.1f", x)
	}
}

func TestWallFollowStaysPutWhenBoxedIn(t *testing.T) {
	r := newTestResolver(t, []data.Obstacle{
		{X: 0, Y: 0, Width: 1000, Height: 490},
		{X: 0, Y: 510, Width: 1000, Height: 490},
		{X: 0, Y: 490, Width: 490, Height: 20},
		{X: 510, Y: 490, Width: 490, Height: 20},
	})
	x, y := r.WallFollow(500, 500, 900, 500, 30, 10)
	if x != 500 || y != 500 {
		t.Fatalf("boxed-in agent must not move, got (%.1f,%.1f)", x, y)
	}
}

func TestSafeSpawnDistanceBound(t *testing.T) {
	r := newTestResolver(t, []data.Obstacle{{X: 100, Y: 100, Width: 50, Height: 50}})

	for i := 0; i < 20; i++ {
		x, y, ok := r.SafeSpawn(500, 500, 150, 300, 24, 24, true)
		if !ok {
			t.Fatalf("open map spawn search failed")
		}
		d := math.Hypot(x-500, y-500)
		if d < 150-1e-9 || d > 300+1e-9 {
			t.Fatalf("spawn distance %.1f outside [150,300]", d)
		}
		if !r.IsWalkable(x, y) {
			t.Fatalf("spawn point (%.1f,%.1f) not walkable", x, y)
		}
	}
}

func TestSafeSpawnCornerFallback(t *testing.T) {
	// Block the whole candidate annulus around the center.
	r := newTestResolver(t, []data.Obstacle{{X: 350, Y: 350, Width: 300, Height: 300}})
	x, y, ok := r.SafeSpawn(500, 500, 20, 120, 24, 24, true)
	if !ok {
		t.Fatalf("corner fallback should have produced a position")
	}
	corners := [4][2]float64{{100, 100}, {900, 100}, {100, 900}, {900, 900}}
	matched := false
	for _, c := range corners {
		if x == c[0] && y == c[1] {
			matched = true
		}
	}
	if !matched {
		t.Fatalf("fallback position (%.1f,%.1f) is not a defined corner", x, y)
	}
}

func TestSafeSpawnExhaustionReturnsCenter(t *testing.T) {
	// Everything blocked: annulus and all four corners.
	r := newTestResolver(t, []data.Obstacle{{X: 0, Y: 0, Width: 1000, Height: 1000}})
	x, y, ok := r.SafeSpawn(500, 500, 20, 120, 24, 24, true)
	if ok {
		t.Fatalf("fully blocked map must report failure")
	}
	if x != 500 || y != 500 {
		t.Fatalf("failed search must return the original center, got (%.1f,%.1f)", x, y)
	}
}
