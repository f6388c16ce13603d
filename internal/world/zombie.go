package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lastlight/server/internal/core/ident"
	"github.com/lastlight/server/internal/data"
	"github.com/lastlight/server/internal/pool"
)

// AIState is the coarse behaviour mode a zombie or partner is in. Decision
// scripts transition it; movement systems read it.
type AIState uint8

const (
	AIIdle AIState = iota
	AIWander
	AIChase
	AIAttack
	AIFlee
)

func (s AIState) String() string {
	switch s {
	case AIIdle:
		return "idle"
	case AIWander:
		return "wander"
	case AIChase:
		return "chase"
	case AIAttack:
		return "attack"
	case AIFlee:
		return "flee"
	}
	return "unknown"
}

// Zombie is one infected instance. Instances are pool-recycled; Reset must
// clear every field here or state bleeds into the next spawn.
type Zombie struct {
	id   ident.ID
	x, y float64

	TemplateKind string
	HP           int32
	MaxHP        int32
	Radius       float64
	Speed        float64
	AtkDmg       int32
	AtkRange     float64
	AtkCool      int
	AggroRange   float64

	AI        AIState
	Target    ident.ID
	Cooldown  int
	WanderX   float64
	WanderY   float64
	WanderFor int
}

func (z *Zombie) ID() ident.ID            { return z.id }
func (z *Zombie) SetID(id ident.ID)       { z.id = id }
func (z *Zombie) Pos() (float64, float64) { return z.x, z.y }
func (z *Zombie) SetPos(x, y float64)     { z.x, z.y = x, y }
func (z *Zombie) Size() (float64, float64) {
	return z.Radius * 2, z.Radius * 2
}

// Reset is the pool reset hook.
func (z *Zombie) Reset() {
	*z = Zombie{}
}

// ApplyTemplate stamps template stats onto a recycled instance.
func (z *Zombie) ApplyTemplate(tpl *data.CreatureTemplate) {
	z.TemplateKind = tpl.Kind
	z.HP = tpl.HP
	z.MaxHP = tpl.HP
	z.Radius = tpl.Radius
	z.Speed = tpl.MoveSpeed
	z.AtkDmg = tpl.AtkDmg
	z.AtkRange = tpl.AtkRange
	z.AtkCool = tpl.AtkCool
	z.AggroRange = tpl.AggroRange
}

// TakeDamage applies dmg and reports whether the zombie died from it.
func (z *Zombie) TakeDamage(dmg int32) bool {
	if z.HP <= 0 {
		return false
	}
	z.HP -= dmg
	return z.HP <= 0
}

// ZombieManager spawns and destroys zombies through the shared Manager,
// recycling instances through a pool. It is the Recycler for KindZombie.
type ZombieManager struct {
	mgr   *Manager
	pool  *pool.Pool[Zombie]
	table *data.CreatureTable
	log   *zap.Logger
}

func NewZombieManager(mgr *Manager, table *data.CreatureTable, maxPool int, log *zap.Logger) *ZombieManager {
	if log == nil {
		log = zap.NewNop()
	}
	zm := &ZombieManager{
		mgr:   mgr,
		pool:  pool.New[Zombie]("zombie", maxPool, func() *Zombie { return &Zombie{} }, (*Zombie).Reset),
		table: table,
		log:   log,
	}
	mgr.SetRecycler(KindZombie, zm)
	return zm
}

// Spawn takes an instance from the pool, stamps the template and registers
// it at (x, y).
func (m *ZombieManager) Spawn(kind string, x, y float64) (*Zombie, error) {
	tpl := m.table.Get(kind)
	if tpl == nil {
		return nil, fmt.Errorf("spawn zombie: unknown template %q", kind)
	}
	z := m.pool.Get()
	z.ApplyTemplate(tpl)
	z.SetPos(x, y)
	z.AI = AIWander
	m.mgr.Register(z, KindZombie)
	return z, nil
}

// Kill marks the zombie dead and queues it for end-of-tick teardown.
func (m *ZombieManager) Kill(id ident.ID) {
	if m.mgr.MarkDead(id) {
		m.mgr.QueueDestroy(id)
	}
}

// Recycle implements Recycler; called by Manager.Destroy.
func (m *ZombieManager) Recycle(e Entity) bool {
	z, ok := e.(*Zombie)
	if !ok {
		return false
	}
	return m.pool.Put(z)
}

// Touch implements Recycler; refreshes the pool's leak-sweep stamp.
func (m *ZombieManager) Touch(e Entity) bool {
	z, ok := e.(*Zombie)
	if !ok {
		return false
	}
	return m.pool.Touch(z)
}

// All calls fn for every registered zombie.
func (m *ZombieManager) All(fn func(*Zombie)) {
	m.mgr.ByKind(KindZombie, func(rec *Managed) {
		fn(rec.Entity.(*Zombie))
	})
}

func (m *ZombieManager) Count() int { return m.mgr.CountKind(KindZombie) }

func (m *ZombieManager) Pool() *pool.Pool[Zombie] { return m.pool }
