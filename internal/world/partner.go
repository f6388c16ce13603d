package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lastlight/server/internal/core/ident"
	"github.com/lastlight/server/internal/data"
	"github.com/lastlight/server/internal/pool"
)

// Partner is a survivor NPC attached to a player. It shares the zombie
// movement stats but follows its owner and engages nearby infected.
type Partner struct {
	id   ident.ID
	x, y float64

	TemplateKind string
	Name         string
	HP           int32
	MaxHP        int32
	Radius       float64
	Speed        float64
	AtkDmg       int32
	AtkRange     float64
	AtkCool      int
	AggroRange   float64

	Owner      ident.ID
	FollowDist float64
	AI         AIState
	Target     ident.ID
	Cooldown   int
}

func (p *Partner) ID() ident.ID            { return p.id }
func (p *Partner) SetID(id ident.ID)       { p.id = id }
func (p *Partner) Pos() (float64, float64) { return p.x, p.y }
func (p *Partner) SetPos(x, y float64)     { p.x, p.y = x, y }
func (p *Partner) Size() (float64, float64) {
	return p.Radius * 2, p.Radius * 2
}

func (p *Partner) Reset() {
	*p = Partner{}
}

func (p *Partner) ApplyTemplate(tpl *data.CreatureTemplate) {
	p.TemplateKind = tpl.Kind
	p.Name = tpl.Name
	p.HP = tpl.HP
	p.MaxHP = tpl.HP
	p.Radius = tpl.Radius
	p.Speed = tpl.MoveSpeed
	p.AtkDmg = tpl.AtkDmg
	p.AtkRange = tpl.AtkRange
	p.AtkCool = tpl.AtkCool
	p.AggroRange = tpl.AggroRange
}

func (p *Partner) TakeDamage(dmg int32) bool {
	if p.HP <= 0 {
		return false
	}
	p.HP -= dmg
	return p.HP <= 0
}

// PartnerManager mirrors ZombieManager for survivor NPCs.
type PartnerManager struct {
	mgr   *Manager
	pool  *pool.Pool[Partner]
	table *data.CreatureTable
	log   *zap.Logger
}

func NewPartnerManager(mgr *Manager, table *data.CreatureTable, maxPool int, log *zap.Logger) *PartnerManager {
	if log == nil {
		log = zap.NewNop()
	}
	pm := &PartnerManager{
		mgr:   mgr,
		pool:  pool.New[Partner]("partner", maxPool, func() *Partner { return &Partner{} }, (*Partner).Reset),
		table: table,
		log:   log,
	}
	mgr.SetRecycler(KindPartner, pm)
	return pm
}

// Spawn creates a partner bound to owner at (x, y).
func (m *PartnerManager) Spawn(kind string, owner ident.ID, x, y float64) (*Partner, error) {
	tpl := m.table.Get(kind)
	if tpl == nil {
		return nil, fmt.Errorf("spawn partner: unknown template %q", kind)
	}
	p := m.pool.Get()
	p.ApplyTemplate(tpl)
	p.Owner = owner
	p.FollowDist = tpl.Radius * 6
	p.SetPos(x, y)
	p.AI = AIIdle
	m.mgr.Register(p, KindPartner)
	return p, nil
}

func (m *PartnerManager) Kill(id ident.ID) {
	if m.mgr.MarkDead(id) {
		m.mgr.QueueDestroy(id)
	}
}

func (m *PartnerManager) Recycle(e Entity) bool {
	p, ok := e.(*Partner)
	if !ok {
		return false
	}
	return m.pool.Put(p)
}

func (m *PartnerManager) Touch(e Entity) bool {
	p, ok := e.(*Partner)
	if !ok {
		return false
	}
	return m.pool.Touch(p)
}

func (m *PartnerManager) All(fn func(*Partner)) {
	m.mgr.ByKind(KindPartner, func(rec *Managed) {
		fn(rec.Entity.(*Partner))
	})
}

func (m *PartnerManager) Count() int { return m.mgr.CountKind(KindPartner) }

func (m *PartnerManager) Pool() *pool.Pool[Partner] { return m.pool }
