package system

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/lastlight/server/internal/collision"
	"github.com/lastlight/server/internal/config"
	"github.com/lastlight/server/internal/core/ident"
	coresys "github.com/lastlight/server/internal/core/system"
	"github.com/lastlight/server/internal/scripting"
	"github.com/lastlight/server/internal/spatial"
	"github.com/lastlight/server/internal/world"
)

// ZombieAISystem drives the infected via Lua: Go handles target detection and
// command execution, Lua handles decision logic. Zombies far from every
// survivor tick at a reduced rate. Phase Update.
type ZombieAISystem struct {
	mgr      *world.Manager
	zombies  *world.ZombieManager
	resolver *collision.Resolver
	engine   *scripting.Engine
	cfg      config.WorldConfig
	log      *zap.Logger

	tick uint64
}

func NewZombieAISystem(mgr *world.Manager, zombies *world.ZombieManager, resolver *collision.Resolver, engine *scripting.Engine, cfg config.WorldConfig, log *zap.Logger) *ZombieAISystem {
	return &ZombieAISystem{
		mgr:      mgr,
		zombies:  zombies,
		resolver: resolver,
		engine:   engine,
		cfg:      cfg,
		log:      log,
	}
}

func (s *ZombieAISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ZombieAISystem) Update(_ time.Duration) {
	s.tick++
	s.zombies.All(func(z *world.Zombie) {
		rec := s.mgr.Get(z.ID())
		if rec == nil || rec.State != world.StateActive {
			return
		}
		s.mgr.Touch(z.ID())
		s.tickZombie(z)
	})
}

func (s *ZombieAISystem) tickZombie(z *world.Zombie) {
	if z.Cooldown > 0 {
		z.Cooldown--
	}

	// --- Target detection (Go responsibility) ---
	target, dist := s.nearestSurvivor(z)

	// Far-tick throttling: zombies nobody can see update every Nth tick.
	// Stagger by id so a wave spawned together does not tick in lockstep.
	if s.cfg.FarTickEvery > 1 && (target == nil || dist > s.cfg.FarTickRange) {
		if (s.tick+uint64(z.ID().Index()))%uint64(s.cfg.FarTickEvery) != 0 {
			return
		}
	}

	zx, zy := z.Pos()
	ctx := scripting.AIContext{
		Kind:      z.TemplateKind,
		X:         zx,
		Y:         zy,
		HP:        z.HP,
		MaxHP:     z.MaxHP,
		Speed:     z.Speed,
		AtkRange:  z.AtkRange,
		CanAttack: z.Cooldown == 0,
	}
	if target != nil {
		tx, ty := target.Pos()
		ctx.TargetID = uint64(target.ID())
		ctx.TargetX = tx
		ctx.TargetY = ty
		ctx.TargetDist = dist
	}

	cmd := s.engine.RunZombieAI(ctx)
	s.execute(z, target, dist, cmd)
}

func (s *ZombieAISystem) execute(z *world.Zombie, target survivor, dist float64, cmd scripting.Command) {
	zx, zy := z.Pos()
	switch cmd.Type {
	case "attack":
		if target == nil || z.Cooldown > 0 || dist > z.AtkRange {
			return
		}
		z.AI = world.AIAttack
		z.Target = target.ID()
		z.Cooldown = z.AtkCool
		if target.TakeDamage(z.AtkDmg) {
			s.mgr.MarkDead(target.ID())
			s.log.Info("survivor down",
				zap.Uint64("victim", uint64(target.ID())),
				zap.String("zombie", z.TemplateKind))
		}

	case "chase":
		z.AI = world.AIChase
		if target != nil {
			z.Target = target.ID()
		}
		nx, ny := s.resolver.WallFollow(zx, zy, cmd.X, cmd.Y, z.Radius, z.Speed)
		if nx != zx || ny != zy {
			s.mgr.UpdatePosition(z.ID(), nx, ny)
		}

	case "flee":
		z.AI = world.AIFlee
		// cmd carries a direction away from the threat, not a destination.
		mag := math.Hypot(cmd.X, cmd.Y)
		if mag == 0 {
			return
		}
		nx, ny := s.resolver.WallFollow(zx, zy, zx+cmd.X/mag*z.Speed*4, zy+cmd.Y/mag*z.Speed*4, z.Radius, z.Speed)
		if nx != zx || ny != zy {
			s.mgr.UpdatePosition(z.ID(), nx, ny)
		}

	case "wander":
		z.AI = world.AIWander
		z.Target = 0
		s.wander(z)

	case "lose_aggro", "idle":
		z.AI = world.AIIdle
		z.Target = 0
	}
}

// wander keeps a heading for a while, then picks a new one. Movement goes
// through SmartMove so zombies drift around building edges instead of
// grinding against them.
func (s *ZombieAISystem) wander(z *world.Zombie) {
	if z.WanderFor <= 0 {
		ang := rand.Float64() * 2 * math.Pi
		z.WanderX = math.Cos(ang)
		z.WanderY = math.Sin(ang)
		z.WanderFor = 40 + rand.Intn(80)
	}
	z.WanderFor--

	zx, zy := z.Pos()
	nx, ny := s.resolver.SmartMove(zx, zy, zx+z.WanderX*z.Speed, zy+z.WanderY*z.Speed, z.Radius)
	if nx == zx && ny == zy {
		z.WanderFor = 0 // blocked, re-roll next tick
		return
	}
	s.mgr.UpdatePosition(z.ID(), nx, ny)
}

// survivor is what a zombie can aggro onto: a character or a partner.
type survivor interface {
	ID() ident.ID
	Pos() (float64, float64)
	TakeDamage(int32) bool
}

// nearestSurvivor scans the aggro range for the closest living character or
// partner via the dynamic index.
func (s *ZombieAISystem) nearestSurvivor(z *world.Zombie) (survivor, float64) {
	zx, zy := z.Pos()
	reach := z.AggroRange
	hits := s.mgr.Index().QueryDynamic(spatial.CenterRect(zx, zy, reach*2, reach*2))

	var best survivor
	bestDist := math.MaxFloat64
	for _, hit := range hits {
		rec := s.mgr.Get(hit.ID)
		if rec == nil || rec.State != world.StateActive {
			continue
		}
		var cand survivor
		switch rec.Kind {
		case world.KindCharacter:
			cand = rec.Entity.(*world.Character)
		case world.KindPartner:
			cand = rec.Entity.(*world.Partner)
		default:
			continue
		}
		cx, cy := cand.Pos()
		d := math.Hypot(cx-zx, cy-zy)
		if d <= reach && d < bestDist {
			best = cand
			bestDist = d
		}
	}
	if best == nil {
		return nil, 0
	}
	return best, bestDist
}
