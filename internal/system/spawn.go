package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/lastlight/server/internal/collision"
	"github.com/lastlight/server/internal/config"
	coresys "github.com/lastlight/server/internal/core/system"
	"github.com/lastlight/server/internal/data"
	"github.com/lastlight/server/internal/world"
)

// SpawnSystem respawns zombie waves around the player and expires ground
// items. A wave spawn that finds no safe position is skipped, never forced.
// Phase PreUpdate, so fresh spawns act on the same tick's AI pass.
type SpawnSystem struct {
	mgr      *world.Manager
	zombies  *world.ZombieManager
	chars    *world.CharacterManager
	items    *world.ItemManager
	resolver *collision.Resolver
	table    *data.CreatureTable
	cfg      config.WorldConfig
	log      *zap.Logger

	kinds []string // zombie template kinds eligible for waves
	tick  uint64
}

func NewSpawnSystem(mgr *world.Manager, zombies *world.ZombieManager, chars *world.CharacterManager, items *world.ItemManager, resolver *collision.Resolver, table *data.CreatureTable, kinds []string, cfg config.WorldConfig, log *zap.Logger) *SpawnSystem {
	return &SpawnSystem{
		mgr:      mgr,
		zombies:  zombies,
		chars:    chars,
		items:    items,
		resolver: resolver,
		table:    table,
		cfg:      cfg,
		log:      log,
		kinds:    kinds,
	}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *SpawnSystem) Update(_ time.Duration) {
	s.tick++
	s.items.TickTTL()

	if s.cfg.WaveInterval <= 0 || s.tick%uint64(s.cfg.WaveInterval) != 0 {
		return
	}
	s.spawnWave()
}

func (s *SpawnSystem) spawnWave() {
	if len(s.kinds) == 0 {
		return
	}
	var anchor *world.Character
	s.chars.All(func(c *world.Character) {
		if anchor == nil && c.HP > 0 {
			anchor = c
		}
	})
	if anchor == nil {
		return // nobody left to menace
	}

	budget := s.cfg.MaxZombies - s.zombies.Count()
	n := s.cfg.WaveSize
	if n > budget {
		n = budget
	}
	if n <= 0 {
		return
	}

	ax, ay := anchor.Pos()
	spawned := 0
	for i := 0; i < n; i++ {
		kind := s.kinds[rand.Intn(len(s.kinds))]
		radius := 12.0
		if tpl := s.table.Get(kind); tpl != nil {
			radius = tpl.Radius
		}
		x, y, ok := s.resolver.SafeSpawn(ax, ay, s.cfg.SpawnMinDist, s.cfg.SpawnMaxDist, radius*2, radius*2, true)
		if !ok {
			s.log.Warn("wave spawn found no safe position, skipping rest",
				zap.Int("placed", spawned), zap.Int("wanted", n))
			break
		}
		if _, err := s.zombies.Spawn(kind, x, y); err != nil {
			s.log.Error("wave spawn failed", zap.String("kind", kind), zap.Error(err))
			continue
		}
		spawned++
	}
	if spawned > 0 {
		s.log.Info("zombie wave",
			zap.Int("spawned", spawned),
			zap.Int("total", s.zombies.Count()))
	}
}
