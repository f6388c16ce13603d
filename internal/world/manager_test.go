package world

import (
	"testing"

	"github.com/lastlight/server/internal/data"
	"github.com/lastlight/server/internal/spatial"
)

func testTable() *data.CreatureTable {
	return data.NewCreatureTable(
		data.CreatureTemplate{
			Kind: "walker", Role: "zombie", Name: "Walker",
			HP: 40, Radius: 12, MoveSpeed: 3, AtkDmg: 5, AggroRange: 250,
		},
		data.CreatureTemplate{
			Kind: "scout", Role: "partner", Name: "Scout",
			HP: 80, Radius: 12, MoveSpeed: 4, AtkDmg: 8, AggroRange: 300,
		},
	)
}

func newTestWorld(t *testing.T) (*Manager, *ZombieManager) {
	t.Helper()
	idx := spatial.NewIndex(spatial.Rect{Width: 1000, Height: 1000}, nil)
	mgr := NewManager(idx, nil)
	zm := NewZombieManager(mgr, testTable(), 50, nil)
	return mgr, zm
}

func TestSpawnRegistersAndIndexes(t *testing.T) {
	mgr, zm := newTestWorld(t)

	z, err := zm.Spawn("walker", 200, 300)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if z.ID().IsZero() {
		t.Fatal("spawned zombie has zero id")
	}
	if z.HP != 40 || z.Speed != 3 {
		t.Fatalf("template not applied: hp=%d speed=%v", z.HP, z.Speed)
	}
	if mgr.CountKind(KindZombie) != 1 || mgr.Count() != 1 {
		t.Fatalf("counts: kind=%d total=%d", mgr.CountKind(KindZombie), mgr.Count())
	}
	hits := mgr.Index().QueryDynamic(spatial.CenterRect(200, 300, 10, 10))
	if len(hits) != 1 || hits[0].ID != z.ID() {
		t.Fatalf("zombie not queryable at spawn point: %v", hits)
	}

	if _, err := zm.Spawn("no-such-kind", 0, 0); err == nil {
		t.Fatal("unknown template accepted")
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	mgr, zm := newTestWorld(t)
	z, _ := zm.Spawn("walker", 100, 100)
	id := z.ID()

	if !mgr.Destroy(id) {
		t.Fatal("first destroy failed")
	}
	if mgr.Destroy(id) {
		t.Fatal("second destroy reported success")
	}
	if mgr.Count() != 0 || mgr.CountKind(KindZombie) != 0 {
		t.Fatalf("counts after destroy: %d/%d", mgr.Count(), mgr.CountKind(KindZombie))
	}
	if mgr.Get(id) != nil {
		t.Fatal("destroyed id still resolvable")
	}
	if got := mgr.Index().DynamicLen(); got != 0 {
		t.Fatalf("spatial index kept %d entries", got)
	}
	// The instance went back to the pool.
	if st := zm.Pool().Stats(); st.Active != 0 {
		t.Fatalf("pool still tracks %d active", st.Active)
	}
}

func TestThreeZombieLifecycle(t *testing.T) {
	mgr, zm := newTestWorld(t)

	spawned := make([]*Zombie, 0, 3)
	for i := 0; i < 3; i++ {
		z, err := zm.Spawn("walker", float64(100+i*50), 100)
		if err != nil {
			t.Fatalf("spawn %d: %v", i, err)
		}
		spawned = append(spawned, z)
	}
	if zm.Count() != 3 {
		t.Fatalf("zombie count = %d", zm.Count())
	}

	for _, z := range spawned {
		zm.Kill(z.ID())
	}
	// Kill only queues; records persist until the cleanup flush.
	if zm.Count() != 3 {
		t.Fatalf("count dropped before flush: %d", zm.Count())
	}
	if n := mgr.FlushDestroyQueue(); n != 3 {
		t.Fatalf("flushed %d, want 3", n)
	}
	if zm.Count() != 0 || mgr.Count() != 0 {
		t.Fatalf("counts after flush: %d/%d", zm.Count(), mgr.Count())
	}
	if mgr.Index().DynamicLen() != 0 {
		t.Fatalf("index entries after flush: %d", mgr.Index().DynamicLen())
	}
	if bad := mgr.CheckConsistency(); bad != 0 {
		t.Fatalf("consistency check found %d issues", bad)
	}

	// A double Kill before flush must not double-destroy.
	z, _ := zm.Spawn("walker", 500, 500)
	zm.Kill(z.ID())
	zm.Kill(z.ID())
	mgr.QueueDestroy(z.ID())
	if n := mgr.FlushDestroyQueue(); n != 1 {
		t.Fatalf("duplicate queue entries destroyed %d objects", n)
	}
}

func TestUpdatePositionMovesIndexEntry(t *testing.T) {
	mgr, zm := newTestWorld(t)
	z, _ := zm.Spawn("walker", 100, 100)

	if !mgr.UpdatePosition(z.ID(), 700, 650) {
		t.Fatal("update rejected")
	}
	if x, y := z.Pos(); x != 700 || y != 650 {
		t.Fatalf("entity pos = (%v,%v)", x, y)
	}
	if hits := mgr.Index().QueryDynamic(spatial.CenterRect(100, 100, 30, 30)); len(hits) != 0 {
		t.Fatalf("stale entry at old position: %v", hits)
	}
	hits := mgr.Index().QueryDynamic(spatial.CenterRect(700, 650, 30, 30))
	if len(hits) != 1 || hits[0].ID != z.ID() {
		t.Fatalf("entry missing at new position: %v", hits)
	}

	mgr.Destroy(z.ID())
	if mgr.UpdatePosition(z.ID(), 1, 1) {
		t.Fatal("update accepted for destroyed id")
	}
}

func TestMarkDeadExcludesFromActiveEnumeration(t *testing.T) {
	mgr, zm := newTestWorld(t)
	alive, _ := zm.Spawn("walker", 100, 100)
	dying, _ := zm.Spawn("walker", 200, 200)

	if !mgr.MarkDead(dying.ID()) {
		t.Fatal("mark dead failed")
	}
	if mgr.MarkDead(dying.ID()) {
		t.Fatal("second mark dead reported a transition")
	}

	seen := 0
	mgr.AllActive(func(rec *Managed) {
		seen++
		if rec.ID != alive.ID() {
			t.Fatalf("dead object enumerated as active: %v", rec.ID)
		}
	})
	if seen != 1 {
		t.Fatalf("active count = %d", seen)
	}
	// Dead objects still enumerate by kind (corpse handling).
	total := 0
	zm.All(func(*Zombie) { total++ })
	if total != 2 {
		t.Fatalf("by-kind count = %d", total)
	}
}

type touchRecorder struct {
	touched  int
	recycled int
}

func (r *touchRecorder) Recycle(Entity) bool { r.recycled++; return true }
func (r *touchRecorder) Touch(Entity) bool   { r.touched++; return true }

func TestTouchRefreshesThroughRecycler(t *testing.T) {
	mgr, zm := newTestWorld(t)
	z, _ := zm.Spawn("walker", 100, 100)

	rec := &touchRecorder{}
	mgr.SetRecycler(KindZombie, rec)

	if !mgr.Touch(z.ID()) {
		t.Fatal("touch rejected live id")
	}
	// Position writes count as liveness too.
	mgr.UpdatePosition(z.ID(), 150, 150)
	if rec.touched != 2 {
		t.Fatalf("recycler touched %d times, want 2", rec.touched)
	}

	mgr.Destroy(z.ID())
	if mgr.Touch(z.ID()) {
		t.Fatal("touch accepted destroyed id")
	}
}

func TestItemTTLExpiry(t *testing.T) {
	idx := spatial.NewIndex(spatial.Rect{Width: 1000, Height: 1000}, nil)
	mgr := NewManager(idx, nil)
	im := NewItemManager(mgr, 50, nil)

	im.Drop("bandage", 2, 100, 100, 2)
	im.Drop("ammo", 30, 200, 200, 5)

	if n := im.TickTTL(); n != 0 {
		t.Fatalf("expired %d on first tick", n)
	}
	if n := im.TickTTL(); n != 1 {
		t.Fatalf("want 1 expiry on second tick, got %d", n)
	}
	mgr.FlushDestroyQueue()
	if im.Count() != 1 {
		t.Fatalf("item count after expiry = %d", im.Count())
	}
}
