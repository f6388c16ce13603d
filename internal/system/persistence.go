package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lastlight/server/internal/config"
	coresys "github.com/lastlight/server/internal/core/system"
	"github.com/lastlight/server/internal/persist"
	"github.com/lastlight/server/internal/world"
)

// PersistenceSystem batch-saves dirty survivor profiles. Registered only when
// the database is enabled; the sim runs purely in-memory without it.
// Phase Persist.
type PersistenceSystem struct {
	chars *world.CharacterManager
	repo  *persist.ProfileRepo
	cfg   config.WorldConfig
	log   *zap.Logger

	tick uint64
}

func NewPersistenceSystem(chars *world.CharacterManager, repo *persist.ProfileRepo, cfg config.WorldConfig, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{chars: chars, repo: repo, cfg: cfg, log: log}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tick++
	if s.cfg.PersistEvery <= 0 || s.tick%uint64(s.cfg.PersistEvery) != 0 {
		return
	}
	s.SaveDirty(context.Background())
}

// SaveDirty flushes every dirty profile in one batch. Also called on
// shutdown for the final save.
func (s *PersistenceSystem) SaveDirty(ctx context.Context) {
	var rows []*persist.ProfileRow
	var saved []*world.Character
	s.chars.All(func(c *world.Character) {
		if !c.Dirty {
			return
		}
		x, y := c.Pos()
		rows = append(rows, &persist.ProfileRow{
			Name:         c.Name,
			MapID:        s.cfg.MapID,
			X:            x,
			Y:            y,
			HP:           c.HP,
			MaxHP:        c.MaxHP,
			DaysSurvived: c.DaysSurvived,
			ZombieKills:  c.ZombieKills,
		})
		saved = append(saved, c)
	})
	if len(rows) == 0 {
		return
	}

	if err := s.repo.UpsertBatch(ctx, rows); err != nil {
		// Keep the dirty flags; the next interval retries.
		s.log.Error("profile batch save failed", zap.Int("profiles", len(rows)), zap.Error(err))
		return
	}
	for _, c := range saved {
		c.Dirty = false
	}
	s.log.Debug("profiles saved", zap.Int("count", len(rows)))
}
