package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/lastlight/server/internal/core/system"
	"github.com/lastlight/server/internal/world"
)

// CleanupSystem flushes the manager's deferred destroy queue at the end of
// every tick, after all other systems have finished iterating.
// Phase Cleanup.
type CleanupSystem struct {
	mgr *world.Manager
	log *zap.Logger
}

func NewCleanupSystem(mgr *world.Manager, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{mgr: mgr, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.mgr.FlushDestroyQueue(); n > 0 {
		s.log.Debug("destroyed queued objects", zap.Int("count", n))
	}
}
