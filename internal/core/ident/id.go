package ident

// ID encodes a 32-bit arena index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on release so stale references
// held by AI or render snapshots never resolve to a recycled slot.
type ID uint64

func Make(index uint32, generation uint32) ID {
	return ID(uint64(generation)<<32 | uint64(index))
}

func (id ID) Index() uint32      { return uint32(id) }
func (id ID) Generation() uint32 { return uint32(id >> 32) }
func (id ID) IsZero() bool       { return id == 0 }

// Allocator hands out generational IDs with a free list. Index 0 is burned at
// construction so the zero ID can serve as "no entity".
type Allocator struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewAllocator() *Allocator {
	a := &Allocator{
		generations: make([]uint32, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
	a.Alloc() // reserve index 0
	return a
}

func (a *Allocator) Alloc() ID {
	if len(a.freeList) > 0 {
		idx := a.freeList[len(a.freeList)-1]
		a.freeList = a.freeList[:len(a.freeList)-1]
		return Make(idx, a.generations[idx])
	}
	idx := a.nextIndex
	a.nextIndex++
	if int(idx) >= len(a.generations) {
		a.generations = append(a.generations, 0)
	}
	return Make(idx, a.generations[idx])
}

// Alive reports whether the ID refers to a slot that has not been released.
func (a *Allocator) Alive(id ID) bool {
	idx := id.Index()
	if idx >= a.nextIndex {
		return false
	}
	return a.generations[idx] == id.Generation()
}

// Release invalidates an ID and recycles its index. Releasing a stale ID is a
// no-op.
func (a *Allocator) Release(id ID) {
	idx := id.Index()
	if idx >= a.nextIndex {
		return
	}
	if a.generations[idx] != id.Generation() {
		return // already released
	}
	a.generations[idx]++
	a.freeList = append(a.freeList, idx)
}
