package pool

import (
	"time"
)

const (
	InitialSize     = 20
	DefaultMaxSize  = 200
	expansionFactor = 1.5
	shrinkFactor    = 0.7
	// growRatio is the active:inactive ratio past which the reserve grows.
	growRatio = 0.8
)

// Stats is a read-only snapshot of pool counters for diagnostics.
type Stats struct {
	Kind      string
	Hits      uint64
	Misses    uint64
	Created   uint64
	Discarded uint64
	Leaked    uint64
	Active    int
	Inactive  int
}

// HitRate returns hits/(hits+misses), or 0 before the first Get.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type itemMeta struct {
	lastUsed  time.Time
	createdAt time.Time
	useCount  int
}

type item[T any] struct {
	obj  *T
	meta itemMeta
}

// Pool is a per-entity-type ring of reusable instances. Instances are created
// by factory and cleared by reset before re-entering the inactive reserve;
// reset must zero all gameplay state (hp, target references, timers) or stale
// state leaks across reuse. Single-goroutine access only (game loop).
//
// An instance is in exactly one of the active set or the inactive list at any
// time.
type Pool[T any] struct {
	kind    string
	maxSize int
	factory func() *T
	reset   func(*T)

	active   map[*T]*itemMeta
	inactive []item[T]

	hits      uint64
	misses    uint64
	created   uint64
	discarded uint64
	leaked    uint64

	now func() time.Time // test hook
}

// New creates a pool pre-populated with InitialSize inactive instances.
func New[T any](kind string, maxSize int, factory func() *T, reset func(*T)) *Pool[T] {
	if maxSize < InitialSize {
		maxSize = DefaultMaxSize
	}
	p := &Pool[T]{
		kind:     kind,
		maxSize:  maxSize,
		factory:  factory,
		reset:    reset,
		active:   make(map[*T]*itemMeta, InitialSize),
		inactive: make([]item[T], 0, InitialSize),
		now:      time.Now,
	}
	for i := 0; i < InitialSize; i++ {
		p.inactive = append(p.inactive, item[T]{obj: factory(), meta: itemMeta{createdAt: p.now()}})
		p.created++
	}
	return p
}

func (p *Pool[T]) Kind() string { return p.kind }

// Get returns a recycled instance when the reserve is non-empty (a hit) or a
// freshly constructed one (a miss). The instance joins the active set.
func (p *Pool[T]) Get() *T {
	var it item[T]
	if n := len(p.inactive); n > 0 {
		it = p.inactive[n-1]
		p.inactive = p.inactive[:n-1]
		p.hits++
	} else {
		it = item[T]{obj: p.factory(), meta: itemMeta{createdAt: p.now()}}
		p.created++
		p.misses++
	}
	it.meta.lastUsed = p.now()
	it.meta.useCount++
	meta := it.meta
	p.active[it.obj] = &meta
	return it.obj
}

// Put resets an active instance and moves it to the inactive reserve. When
// the reserve is already at capacity the instance is discarded instead, and
// the creation counter is decremented so create/destroy totals stay truthful
// for leak detection. Returns false for instances the pool does not own.
func (p *Pool[T]) Put(obj *T) bool {
	meta, ok := p.active[obj]
	if !ok {
		return false
	}
	delete(p.active, obj)
	p.reset(obj)

	if len(p.inactive) >= p.maxSize {
		p.discarded++
		if p.created > 0 {
			p.created--
		}
		return true
	}
	p.inactive = append(p.inactive, item[T]{obj: obj, meta: *meta})
	return true
}

// Touch refreshes the last-use stamp on an active instance. Callers that hold
// instances across many ticks touch them each time they process one, so the
// leak sweep only evicts instances nothing is processing anymore. Returns
// false for instances the pool does not own.
func (p *Pool[T]) Touch(obj *T) bool {
	meta, ok := p.active[obj]
	if !ok {
		return false
	}
	meta.lastUsed = p.now()
	return true
}

// Resize grows the reserve by 1.5x when the active:inactive ratio exceeds
// 0.8, or shrinks it to 0.7x when the reserve holds more than twice the
// active count, bounded by [InitialSize, maxSize]. Meant to run periodically
// (every ~600 ticks), not on every Get/Put, to avoid thrashing.
func (p *Pool[T]) Resize() {
	activeN := len(p.active)
	inactiveN := len(p.inactive)

	switch {
	case inactiveN == 0 || float64(activeN)/float64(inactiveN) > growRatio:
		target := int(float64(max(inactiveN, InitialSize)) * expansionFactor)
		if target > p.maxSize {
			target = p.maxSize
		}
		for len(p.inactive) < target {
			p.inactive = append(p.inactive, item[T]{obj: p.factory(), meta: itemMeta{createdAt: p.now()}})
			p.created++
		}
	case inactiveN > 2*activeN && inactiveN > InitialSize:
		target := int(float64(inactiveN) * shrinkFactor)
		if target < InitialSize {
			target = InitialSize
		}
		for len(p.inactive) > target {
			p.inactive = p.inactive[:len(p.inactive)-1]
			if p.created > 0 {
				p.created--
			}
		}
	}
}

// Cleanup evicts active instances unused for longer than maxAge — a leak
// heuristic, since a healthy caller returns instances within a few seconds —
// and prunes over-age inactive instances. Returns the number of leaks
// detected so the health checker can surface them; leaks are counted, never
// silently hidden.
func (p *Pool[T]) Cleanup(maxAge time.Duration) int {
	now := p.now()
	leaks := 0
	for obj, meta := range p.active {
		if now.Sub(meta.lastUsed) > maxAge {
			delete(p.active, obj)
			p.leaked++
			leaks++
		}
	}

	kept := p.inactive[:0]
	for _, it := range p.inactive {
		if !it.meta.lastUsed.IsZero() && now.Sub(it.meta.lastUsed) > maxAge && len(kept) >= InitialSize {
			if p.created > 0 {
				p.created--
			}
			continue
		}
		kept = append(kept, it)
	}
	p.inactive = kept
	return leaks
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Kind:      p.kind,
		Hits:      p.hits,
		Misses:    p.misses,
		Created:   p.created,
		Discarded: p.discarded,
		Leaked:    p.leaked,
		Active:    len(p.active),
		Inactive:  len(p.inactive),
	}
}
