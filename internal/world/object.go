package world

import (
	"time"

	"github.com/lastlight/server/internal/core/ident"
	"github.com/lastlight/server/internal/spatial"
)

// Kind classifies every managed object. Closed set; gameplay code switches on
// it instead of type-asserting entity structs.
type Kind uint8

const (
	KindCharacter Kind = iota
	KindZombie
	KindPartner
	KindBuilding
	KindItem

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindZombie:
		return "zombie"
	case KindPartner:
		return "partner"
	case KindBuilding:
		return "building"
	case KindItem:
		return "item"
	}
	return "unknown"
}

// State is the lifecycle of a managed object. Dead objects stay registered
// (corpses, loot timers) until something queues them for destruction;
// Destroyed is terminal and only ever observed on records already torn down.
type State uint8

const (
	StateActive State = iota
	StateInactive
	StateDead
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	case StateDead:
		return "dead"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Entity is the capability surface the manager needs from every world object.
// Positions are only written through Manager.UpdatePosition so the spatial
// index never drifts from entity state.
type Entity interface {
	ID() ident.ID
	SetID(ident.ID)
	Pos() (x, y float64)
	SetPos(x, y float64)
	// Size reports the footprint used for the spatial index entry.
	Size() (w, h float64)
}

func entityBounds(e Entity) spatial.Rect {
	x, y := e.Pos()
	w, h := e.Size()
	return spatial.CenterRect(x, y, w, h)
}

// Managed is the manager's record for one registered object.
type Managed struct {
	ID        ident.ID
	Entity    Entity
	Kind      Kind
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recycler bridges the Manager to a per-kind pool without concrete types.
// Recycle returns a destroyed entity to its pool; Touch refreshes the pool's
// last-use stamp for an entity that is still alive, so long-lived entities
// are not swept as leaks.
type Recycler interface {
	Recycle(e Entity) bool
	Touch(e Entity) bool
}
