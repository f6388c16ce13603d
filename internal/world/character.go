package world

import (
	"github.com/lastlight/server/internal/core/ident"
)

// Character is a player survivor. Not pooled; players come and go rarely
// compared to infected.
type Character struct {
	id   ident.ID
	x, y float64

	Name   string
	HP     int32
	MaxHP  int32
	Radius float64
	Speed  float64

	DaysSurvived int32
	ZombieKills  int32

	// Dirty marks the profile for the next persistence batch.
	Dirty bool
}

func (c *Character) ID() ident.ID            { return c.id }
func (c *Character) SetID(id ident.ID)       { c.id = id }
func (c *Character) Pos() (float64, float64) { return c.x, c.y }
func (c *Character) SetPos(x, y float64) {
	c.x, c.y = x, y
	c.Dirty = true
}
func (c *Character) Size() (float64, float64) {
	return c.Radius * 2, c.Radius * 2
}

func (c *Character) TakeDamage(dmg int32) bool {
	if c.HP <= 0 {
		return false
	}
	c.HP -= dmg
	c.Dirty = true
	return c.HP <= 0
}

// CharacterManager tracks player survivors through the shared Manager.
type CharacterManager struct {
	mgr *Manager
}

func NewCharacterManager(mgr *Manager) *CharacterManager {
	return &CharacterManager{mgr: mgr}
}

// Add registers an already-populated character.
func (m *CharacterManager) Add(c *Character) ident.ID {
	return m.mgr.Register(c, KindCharacter)
}

func (m *CharacterManager) Remove(id ident.ID) bool {
	return m.mgr.Destroy(id)
}

func (m *CharacterManager) Get(id ident.ID) *Character {
	rec := m.mgr.Get(id)
	if rec == nil || rec.Kind != KindCharacter {
		return nil
	}
	return rec.Entity.(*Character)
}

func (m *CharacterManager) All(fn func(*Character)) {
	m.mgr.ByKind(KindCharacter, func(rec *Managed) {
		fn(rec.Entity.(*Character))
	})
}

func (m *CharacterManager) Count() int { return m.mgr.CountKind(KindCharacter) }
