package system

import "time"

// Phase defines execution ordering within a single tick. Movement writes must
// land before any later phase queries positions, so AI/movement runs in
// PhaseUpdate and everything that reads the world (spawning, diagnostics,
// persistence) runs after it.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain player commands
	PhasePreUpdate               // 1: process last tick's events
	PhaseUpdate                  // 2: AI decisions + movement resolution
	PhasePostUpdate              // 3: spawning, item TTL, diagnostics
	PhasePersist                 // 4: batch profile saves
	PhaseCleanup                 // 5: destroy queued entities, pool upkeep
)

// System is the interface every game system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
