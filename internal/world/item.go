package world

import (
	"go.uber.org/zap"

	"github.com/lastlight/server/internal/core/ident"
	"github.com/lastlight/server/internal/pool"
)

// GroundItem is a dropped pickup. TTL counts down in ticks; the spawn system
// queues expired items for destruction.
type GroundItem struct {
	id   ident.ID
	x, y float64

	ItemKind string
	Count    int32
	TTL      int
}

func (g *GroundItem) ID() ident.ID             { return g.id }
func (g *GroundItem) SetID(id ident.ID)        { g.id = id }
func (g *GroundItem) Pos() (float64, float64)  { return g.x, g.y }
func (g *GroundItem) SetPos(x, y float64)      { g.x, g.y = x, y }
func (g *GroundItem) Size() (float64, float64) { return 16, 16 }

func (g *GroundItem) Reset() {
	*g = GroundItem{}
}

// ItemManager drops and expires ground items, pooling instances.
type ItemManager struct {
	mgr  *Manager
	pool *pool.Pool[GroundItem]
	log  *zap.Logger
}

func NewItemManager(mgr *Manager, maxPool int, log *zap.Logger) *ItemManager {
	if log == nil {
		log = zap.NewNop()
	}
	im := &ItemManager{
		mgr:  mgr,
		pool: pool.New[GroundItem]("item", maxPool, func() *GroundItem { return &GroundItem{} }, (*GroundItem).Reset),
		log:  log,
	}
	mgr.SetRecycler(KindItem, im)
	return im
}

// Drop places an item stack at (x, y) with a tick TTL.
func (m *ItemManager) Drop(itemKind string, count int32, x, y float64, ttl int) *GroundItem {
	g := m.pool.Get()
	g.ItemKind = itemKind
	g.Count = count
	g.TTL = ttl
	g.SetPos(x, y)
	m.mgr.Register(g, KindItem)
	return g
}

// TickTTL decrements every item's TTL and queues expired ones for teardown.
// Returns the number expired this tick.
func (m *ItemManager) TickTTL() int {
	expired := 0
	m.mgr.ByKind(KindItem, func(rec *Managed) {
		g := rec.Entity.(*GroundItem)
		g.TTL--
		if g.TTL <= 0 {
			m.mgr.QueueDestroy(rec.ID)
			expired++
			return
		}
		m.pool.Touch(g)
	})
	return expired
}

func (m *ItemManager) Recycle(e Entity) bool {
	g, ok := e.(*GroundItem)
	if !ok {
		return false
	}
	return m.pool.Put(g)
}

func (m *ItemManager) Touch(e Entity) bool {
	g, ok := e.(*GroundItem)
	if !ok {
		return false
	}
	return m.pool.Touch(g)
}

func (m *ItemManager) Count() int { return m.mgr.CountKind(KindItem) }

func (m *ItemManager) Pool() *pool.Pool[GroundItem] { return m.pool }
