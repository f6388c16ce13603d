package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/lastlight/server/internal/config"
	coresys "github.com/lastlight/server/internal/core/system"
	"github.com/lastlight/server/internal/world"
)

// HealthCheckSystem runs periodic consistency diagnostics: manager counters
// against the object table, spatial index size, and pool hit rates. It only
// warns; repairs would mask the bug that caused the drift. Phase PostUpdate.
type HealthCheckSystem struct {
	mgr   *world.Manager
	pools []Maintainer
	cfg   config.WorldConfig
	log   *zap.Logger

	tick uint64
}

func NewHealthCheckSystem(mgr *world.Manager, cfg config.WorldConfig, log *zap.Logger, pools ...Maintainer) *HealthCheckSystem {
	return &HealthCheckSystem{mgr: mgr, pools: pools, cfg: cfg, log: log}
}

func (s *HealthCheckSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *HealthCheckSystem) Update(_ time.Duration) {
	s.tick++
	if s.cfg.HealthEvery <= 0 || s.tick%uint64(s.cfg.HealthEvery) != 0 {
		return
	}

	if bad := s.mgr.CheckConsistency(); bad > 0 {
		s.log.Warn("world consistency issues", zap.Int("count", bad))
	}

	for _, p := range s.pools {
		st := p.Stats()
		s.log.Debug("pool stats",
			zap.String("pool", st.Kind),
			zap.Int("active", st.Active),
			zap.Int("inactive", st.Inactive),
			zap.Uint64("leaked", st.Leaked),
			zap.Float64("hit_rate", st.HitRate()))
		if st.Leaked > 0 {
			s.log.Warn("pool has leaked instances",
				zap.String("pool", st.Kind),
				zap.Uint64("leaked", st.Leaked))
		}
	}

	s.log.Debug("world census",
		zap.Int("objects", s.mgr.Count()),
		zap.Int("characters", s.mgr.CountKind(world.KindCharacter)),
		zap.Int("zombies", s.mgr.CountKind(world.KindZombie)),
		zap.Int("partners", s.mgr.CountKind(world.KindPartner)),
		zap.Int("items", s.mgr.CountKind(world.KindItem)),
		zap.Int("index_entries", s.mgr.Index().DynamicLen()))
}
