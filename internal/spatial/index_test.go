package spatial

import (
	"testing"

	"github.com/lastlight/server/internal/core/ident"
)

func testIndex() *Index {
	world := Rect{Width: 1000, Height: 1000}
	obstacles := []Rect{
		{X: 100, Y: 100, Width: 50, Height: 50},
		{X: 400, Y: 400, Width: 80, Height: 30},
	}
	return NewIndex(world, obstacles)
}

func TestIndexStaticSeededOnce(t *testing.T) {
	ix := testIndex()
	if ix.StaticLen() != 2 {
		t.Fatalf("static entries = %d, want 2", ix.StaticLen())
	}
	hits := ix.QueryStatic(Rect{X: 90, Y: 90, Width: 20, Height: 20})
	if len(hits) != 1 {
		t.Fatalf("static query hits = %d, want 1", len(hits))
	}
}

func TestIndexDynamicMoveIsRemoveReinsert(t *testing.T) {
	ix := testIndex()
	id := ident.Make(7, 0)
	ix.Add(id, CenterRect(50, 50, 16, 16))

	if !ix.UpdatePosition(id, CenterRect(800, 800, 16, 16)) {
		t.Fatalf("update position failed")
	}
	if ix.DynamicLen() != 1 {
		t.Fatalf("dynamic entries after move = %d, want 1", ix.DynamicLen())
	}

	// Old location no longer matches, new one does.
	if hits := ix.QueryDynamic(CenterRect(50, 50, 40, 40)); len(hits) != 0 {
		t.Fatalf("stale entry at old position: %d hits", len(hits))
	}
	hits := ix.QueryDynamic(CenterRect(800, 800, 40, 40))
	if len(hits) != 1 || hits[0].ID != id {
		t.Fatalf("moved entry not found at new position")
	}
}

// No active entity may be "lost" after any sequence of moves: a query at the
// entity's own bounds must always include its ID.
func TestIndexConsistencyAfterManyMoves(t *testing.T) {
	ix := testIndex()
	type agent struct {
		id   ident.ID
		x, y float64
	}
	agents := make([]agent, 0, 30)
	for i := 0; i < 30; i++ {
		a := agent{id: ident.Make(uint32(i+1), 0), x: float64(10 + i*30), y: 500}
		ix.Add(a.id, CenterRect(a.x, a.y, 16, 16))
		agents = append(agents, a)
	}

	for step := 0; step < 10; step++ {
		for i := range agents {
			agents[i].x += 7
			agents[i].y -= 11
			ix.UpdatePosition(agents[i].id, CenterRect(agents[i].x, agents[i].y, 16, 16))
		}
	}

	for _, a := range agents {
		found := false
		for _, e := range ix.QueryDynamic(CenterRect(a.x, a.y, 17, 17)) {
			if e.ID == a.id {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("agent %v lost after moves (at %.0f,%.0f)", a.id, a.x, a.y)
		}
	}
	if ix.DynamicLen() != len(agents) {
		t.Fatalf("dynamic entries = %d, want %d", ix.DynamicLen(), len(agents))
	}
}

func TestIndexRemoveIdempotent(t *testing.T) {
	ix := testIndex()
	id := ident.Make(3, 1)
	ix.Add(id, CenterRect(200, 700, 16, 16))
	if !ix.Remove(id) {
		t.Fatalf("remove of tracked agent failed")
	}
	if ix.Remove(id) {
		t.Fatalf("second remove should report not found")
	}
	if ix.DynamicLen() != 0 {
		t.Fatalf("dynamic entries after remove = %d, want 0", ix.DynamicLen())
	}
}
