package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/lastlight/server/internal/config"
	coresys "github.com/lastlight/server/internal/core/system"
	"github.com/lastlight/server/internal/pool"
)

// Maintainer is the slice of the pool API the maintenance pass needs; each
// generic pool instantiation satisfies it.
type Maintainer interface {
	Kind() string
	Resize()
	Cleanup(maxAge time.Duration) int
	Stats() pool.Stats
}

// PoolMaintenanceSystem resizes and leak-checks every registered pool on a
// slow cadence. Phase PostUpdate.
type PoolMaintenanceSystem struct {
	pools []Maintainer
	cfg   config.PoolConfig
	log   *zap.Logger

	tick uint64
}

func NewPoolMaintenanceSystem(cfg config.PoolConfig, log *zap.Logger, pools ...Maintainer) *PoolMaintenanceSystem {
	return &PoolMaintenanceSystem{pools: pools, cfg: cfg, log: log}
}

func (s *PoolMaintenanceSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *PoolMaintenanceSystem) Update(_ time.Duration) {
	s.tick++
	if s.cfg.MaintenanceInterval <= 0 || s.tick%uint64(s.cfg.MaintenanceInterval) != 0 {
		return
	}
	for _, p := range s.pools {
		p.Resize()
		if leaks := p.Cleanup(s.cfg.MaxItemAge); leaks > 0 {
			s.log.Warn("pool leak eviction",
				zap.String("pool", p.Kind()),
				zap.Int("leaks", leaks))
		}
	}
}
