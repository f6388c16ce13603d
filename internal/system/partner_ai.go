package system

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/lastlight/server/internal/collision"
	"github.com/lastlight/server/internal/config"
	coresys "github.com/lastlight/server/internal/core/system"
	"github.com/lastlight/server/internal/scripting"
	"github.com/lastlight/server/internal/spatial"
	"github.com/lastlight/server/internal/world"
)

// PartnerAISystem drives survivor NPCs: stay near the owner, engage infected
// that come close. Same Go-detects/Lua-decides split as the zombies.
// Phase Update.
type PartnerAISystem struct {
	mgr      *world.Manager
	partners *world.PartnerManager
	zombies  *world.ZombieManager
	items    *world.ItemManager
	resolver *collision.Resolver
	engine   *scripting.Engine
	cfg      config.WorldConfig
	log      *zap.Logger
}

func NewPartnerAISystem(mgr *world.Manager, partners *world.PartnerManager, zombies *world.ZombieManager, items *world.ItemManager, resolver *collision.Resolver, engine *scripting.Engine, cfg config.WorldConfig, log *zap.Logger) *PartnerAISystem {
	return &PartnerAISystem{
		mgr:      mgr,
		partners: partners,
		zombies:  zombies,
		items:    items,
		resolver: resolver,
		engine:   engine,
		cfg:      cfg,
		log:      log,
	}
}

func (s *PartnerAISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *PartnerAISystem) Update(_ time.Duration) {
	s.partners.All(func(p *world.Partner) {
		rec := s.mgr.Get(p.ID())
		if rec == nil || rec.State != world.StateActive {
			return
		}
		s.mgr.Touch(p.ID())
		s.tickPartner(p)
	})
}

func (s *PartnerAISystem) tickPartner(p *world.Partner) {
	if p.Cooldown > 0 {
		p.Cooldown--
	}

	px, py := p.Pos()
	ctx := scripting.AIContext{
		Kind:       p.TemplateKind,
		X:          px,
		Y:          py,
		HP:         p.HP,
		MaxHP:      p.MaxHP,
		Speed:      p.Speed,
		AtkRange:   p.AtkRange,
		CanAttack:  p.Cooldown == 0,
		FollowDist: p.FollowDist,
	}

	owner := s.ownerOf(p)
	if owner != nil {
		ox, oy := owner.Pos()
		ctx.OwnerX = ox
		ctx.OwnerY = oy
		ctx.OwnerDist = math.Hypot(ox-px, oy-py)
	}

	target, dist := s.nearestZombie(p)
	if target != nil {
		tx, ty := target.Pos()
		ctx.TargetID = uint64(target.ID())
		ctx.TargetX = tx
		ctx.TargetY = ty
		ctx.TargetDist = dist
	}

	cmd := s.engine.RunPartnerAI(ctx)
	switch cmd.Type {
	case "attack":
		if target == nil || p.Cooldown > 0 || dist > p.AtkRange {
			return
		}
		p.AI = world.AIAttack
		p.Target = target.ID()
		p.Cooldown = p.AtkCool
		if target.TakeDamage(p.AtkDmg) {
			s.onKill(p, target)
		}

	case "chase":
		p.AI = world.AIChase
		s.moveToward(p, cmd.X, cmd.Y)

	case "follow":
		p.AI = world.AIChase
		p.Target = 0
		s.moveToward(p, cmd.X, cmd.Y)

	case "idle", "lose_aggro":
		p.AI = world.AIIdle
		p.Target = 0
	}
}

func (s *PartnerAISystem) onKill(p *world.Partner, z *world.Zombie) {
	s.zombies.Kill(z.ID())
	if owner := s.ownerOf(p); owner != nil {
		owner.ZombieKills++
		owner.Dirty = true
	}
	if rand.Float64() < s.cfg.DropChance {
		zx, zy := z.Pos()
		s.items.Drop("scrap", 1, zx, zy, s.cfg.ItemTTLTicks)
	}
	s.log.Debug("partner kill",
		zap.String("partner", p.Name),
		zap.String("zombie", z.TemplateKind))
}

func (s *PartnerAISystem) moveToward(p *world.Partner, x, y float64) {
	px, py := p.Pos()
	nx, ny := s.resolver.WallFollow(px, py, x, y, p.Radius, p.Speed)
	if nx != px || ny != py {
		s.mgr.UpdatePosition(p.ID(), nx, ny)
	}
}

func (s *PartnerAISystem) ownerOf(p *world.Partner) *world.Character {
	rec := s.mgr.Get(p.Owner)
	if rec == nil || rec.Kind != world.KindCharacter || rec.State != world.StateActive {
		return nil
	}
	return rec.Entity.(*world.Character)
}

func (s *PartnerAISystem) nearestZombie(p *world.Partner) (*world.Zombie, float64) {
	px, py := p.Pos()
	reach := p.AggroRange
	hits := s.mgr.Index().QueryDynamic(spatial.CenterRect(px, py, reach*2, reach*2))

	var best *world.Zombie
	bestDist := math.MaxFloat64
	for _, hit := range hits {
		rec := s.mgr.Get(hit.ID)
		if rec == nil || rec.Kind != world.KindZombie || rec.State != world.StateActive {
			continue
		}
		z := rec.Entity.(*world.Zombie)
		zx, zy := z.Pos()
		d := math.Hypot(zx-px, zy-py)
		if d <= reach && d < bestDist {
			best = z
			bestDist = d
		}
	}
	if best == nil {
		return nil, 0
	}
	return best, bestDist
}
