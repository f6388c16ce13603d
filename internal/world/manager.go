package world

import (
	"time"

	"go.uber.org/zap"

	"github.com/lastlight/server/internal/core/ident"
	"github.com/lastlight/server/internal/spatial"
)

// Manager owns the id -> object table and is the single mutation path for
// object lifecycle and position. Per-kind managers (zombies, partners,
// characters, items) spawn and enumerate through it. Single-goroutine access
// only, like the rest of the world state.
type Manager struct {
	index *spatial.Index
	alloc *ident.Allocator
	log   *zap.Logger

	objects   map[ident.ID]*Managed
	counts    [kindCount]int
	recyclers [kindCount]Recycler

	// destroyQueue defers teardown requested mid-tick to the cleanup phase,
	// so systems never invalidate entries another system is iterating.
	destroyQueue []ident.ID

	now func() time.Time
}

func NewManager(index *spatial.Index, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		index:   index,
		alloc:   ident.NewAllocator(),
		log:     log,
		objects: make(map[ident.ID]*Managed, 256),
		now:     time.Now,
	}
}

// SetRecycler installs the pool-return hook for one kind. Kinds without a
// recycler (characters, buildings) are simply dropped on destroy.
func (m *Manager) SetRecycler(kind Kind, r Recycler) {
	m.recyclers[kind] = r
}

// Register allocates an id, stamps it on the entity and adds it to the
// spatial index. The object starts Active.
func (m *Manager) Register(e Entity, kind Kind) ident.ID {
	id := m.alloc.Alloc()
	e.SetID(id)
	now := m.now()
	m.objects[id] = &Managed{
		ID:        id,
		Entity:    e,
		Kind:      kind,
		State:     StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.counts[kind]++
	m.index.Add(id, entityBounds(e))
	return id
}

// Get returns the record for id, or nil when the id is unknown or stale.
func (m *Manager) Get(id ident.ID) *Managed {
	if !m.alloc.Alive(id) {
		return nil
	}
	return m.objects[id]
}

// Destroy tears the object down: spatial remove, pool return, record delete,
// count decrement, id release. Each step proceeds even if an earlier one
// reports a miss, so a half-registered object still gets cleaned up. A second
// Destroy for the same id returns false and does nothing.
func (m *Manager) Destroy(id ident.ID) bool {
	rec, ok := m.objects[id]
	if !ok {
		return false
	}
	if !m.index.Remove(id) {
		m.log.Warn("destroy: object missing from spatial index",
			zap.Uint64("id", uint64(id)), zap.String("kind", rec.Kind.String()))
	}
	if r := m.recyclers[rec.Kind]; r != nil {
		if !r.Recycle(rec.Entity) {
			m.log.Warn("destroy: pool rejected entity",
				zap.Uint64("id", uint64(id)), zap.String("kind", rec.Kind.String()))
		}
	}
	rec.State = StateDestroyed
	delete(m.objects, id)
	m.counts[rec.Kind]--
	m.alloc.Release(id)
	return true
}

// MarkDead flips the object to Dead without tearing it down.
func (m *Manager) MarkDead(id ident.ID) bool {
	rec := m.Get(id)
	if rec == nil || rec.State == StateDead {
		return false
	}
	rec.State = StateDead
	rec.UpdatedAt = m.now()
	return true
}

// QueueDestroy schedules id for teardown at the end of the tick. Safe to
// call multiple times for the same id; Destroy's idempotence absorbs dupes.
func (m *Manager) QueueDestroy(id ident.ID) {
	m.destroyQueue = append(m.destroyQueue, id)
}

// FlushDestroyQueue destroys everything queued this tick and returns how
// many objects were actually torn down.
func (m *Manager) FlushDestroyQueue() int {
	n := 0
	for _, id := range m.destroyQueue {
		if m.Destroy(id) {
			n++
		}
	}
	m.destroyQueue = m.destroyQueue[:0]
	return n
}

// UpdatePosition is the sole write path for object positions. It moves the
// entity and its spatial entry together; callers that bypass it would desync
// the index. Returns false for unknown ids.
func (m *Manager) UpdatePosition(id ident.ID, x, y float64) bool {
	rec := m.Get(id)
	if rec == nil {
		return false
	}
	rec.Entity.SetPos(x, y)
	if !m.index.UpdatePosition(id, entityBounds(rec.Entity)) {
		// Entry lost somehow; re-add so the object stays queryable.
		m.log.Warn("update position: spatial entry missing, re-adding",
			zap.Uint64("id", uint64(id)))
		m.index.Add(id, entityBounds(rec.Entity))
	}
	rec.UpdatedAt = m.now()
	if r := m.recyclers[rec.Kind]; r != nil {
		r.Touch(rec.Entity)
	}
	return true
}

// Touch marks the object as observed alive this tick, refreshing its pool
// last-use stamp. Systems call it for entities they process, moving or not,
// so the leak sweep only catches instances no system handles anymore.
func (m *Manager) Touch(id ident.ID) bool {
	rec := m.Get(id)
	if rec == nil {
		return false
	}
	rec.UpdatedAt = m.now()
	if r := m.recyclers[rec.Kind]; r != nil {
		r.Touch(rec.Entity)
	}
	return true
}

// AllActive calls fn for every Active object. fn must not register or
// destroy objects; queue destroys instead.
func (m *Manager) AllActive(fn func(*Managed)) {
	for _, rec := range m.objects {
		if rec.State == StateActive {
			fn(rec)
		}
	}
}

// ByKind calls fn for every object of the given kind regardless of state.
func (m *Manager) ByKind(kind Kind, fn func(*Managed)) {
	for _, rec := range m.objects {
		if rec.Kind == kind {
			fn(rec)
		}
	}
}

// Count returns the total number of registered objects.
func (m *Manager) Count() int { return len(m.objects) }

// CountKind returns the per-kind running count.
func (m *Manager) CountKind(kind Kind) int { return m.counts[kind] }

// Index exposes the spatial index for read-side queries (AI scans, health
// sweeps).
func (m *Manager) Index() *spatial.Index { return m.index }

// CheckConsistency recomputes per-kind counts from the object table and
// compares them with the running counters and the dynamic index size.
// Returns the number of mismatches; diagnostics only, nothing is repaired.
func (m *Manager) CheckConsistency() int {
	var actual [kindCount]int
	for _, rec := range m.objects {
		actual[rec.Kind]++
	}
	bad := 0
	for k := Kind(0); k < kindCount; k++ {
		if actual[k] != m.counts[k] {
			bad++
			m.log.Warn("count drift",
				zap.String("kind", k.String()),
				zap.Int("counter", m.counts[k]),
				zap.Int("actual", actual[k]))
		}
	}
	if got := m.index.DynamicLen(); got != len(m.objects) {
		bad++
		m.log.Warn("spatial index drift",
			zap.Int("index_entries", got),
			zap.Int("objects", len(m.objects)))
	}
	return bad
}
