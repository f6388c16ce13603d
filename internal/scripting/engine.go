package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for AI decision scripts.
// Single-goroutine access only (game loop).
//
// The split is Go-detects, Lua-decides: Go packs perception data into an
// AIContext, Lua returns commands, Go executes them against the world. When
// no script defines the decision function the built-in Go fallback runs, so
// the sim works with an empty scripts directory.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts under scriptsDir.
// Missing subdirectories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "ai"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString executes raw Lua source. Test hook.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// AIContext holds pre-packed perception data for one creature's decision.
// Target fields are zero when Go detected nothing in aggro range.
type AIContext struct {
	Kind      string // template kind, e.g. "walker"
	X, Y      float64
	HP, MaxHP int32
	Speed     float64
	AtkRange  float64
	CanAttack bool // attack cooldown elapsed

	TargetID   uint64 // 0 = no target
	TargetX    float64
	TargetY    float64
	TargetDist float64

	// Partner-only: owner position and leash distance.
	OwnerX     float64
	OwnerY     float64
	OwnerDist  float64
	FollowDist float64
}

// Command is a single action returned by a decision function.
type Command struct {
	Type string // "chase", "wander", "attack", "flee", "follow", "lose_aggro", "idle"
	X, Y float64
}

// RunZombieAI calls Lua zombie_ai(ctx), falling back to built-in behaviour
// when the function is undefined or errors.
func (e *Engine) RunZombieAI(ctx AIContext) Command {
	if cmd, ok := e.runAI("zombie_ai", ctx); ok {
		return cmd
	}
	return fallbackZombieAI(ctx)
}

// RunPartnerAI calls Lua partner_ai(ctx) with a built-in fallback.
func (e *Engine) RunPartnerAI(ctx AIContext) Command {
	if cmd, ok := e.runAI("partner_ai", ctx); ok {
		return cmd
	}
	return fallbackPartnerAI(ctx)
}

func (e *Engine) runAI(fnName string, ctx AIContext) (Command, bool) {
	fn := e.vm.GetGlobal(fnName)
	if fn == lua.LNil {
		return Command{}, false
	}

	t := e.vm.NewTable()
	t.RawSetString("kind", lua.LString(ctx.Kind))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("hp", lua.LNumber(ctx.HP))
	t.RawSetString("max_hp", lua.LNumber(ctx.MaxHP))
	t.RawSetString("speed", lua.LNumber(ctx.Speed))
	t.RawSetString("atk_range", lua.LNumber(ctx.AtkRange))
	t.RawSetString("can_attack", lua.LBool(ctx.CanAttack))

	t.RawSetString("target_id", lua.LNumber(ctx.TargetID))
	t.RawSetString("target_x", lua.LNumber(ctx.TargetX))
	t.RawSetString("target_y", lua.LNumber(ctx.TargetY))
	t.RawSetString("target_dist", lua.LNumber(ctx.TargetDist))

	t.RawSetString("owner_x", lua.LNumber(ctx.OwnerX))
	t.RawSetString("owner_y", lua.LNumber(ctx.OwnerY))
	t.RawSetString("owner_dist", lua.LNumber(ctx.OwnerDist))
	t.RawSetString("follow_dist", lua.LNumber(ctx.FollowDist))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua ai error", zap.String("func", fnName), zap.Error(err))
		return Command{}, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return Command{}, false
	}
	return Command{
		Type: lStr(rt, "type"),
		X:    lFloat(rt, "x"),
		Y:    lFloat(rt, "y"),
	}, true
}

// fallbackZombieAI: attack in range, chase a detected target, wander
// otherwise. Same behaviour the default scripts/ai/zombie.lua encodes.
func fallbackZombieAI(ctx AIContext) Command {
	if ctx.TargetID != 0 {
		if ctx.TargetDist <= ctx.AtkRange && ctx.CanAttack {
			return Command{Type: "attack"}
		}
		return Command{Type: "chase", X: ctx.TargetX, Y: ctx.TargetY}
	}
	return Command{Type: "wander"}
}

// fallbackPartnerAI: engage a target in aggro range, return to the owner
// past the leash, idle next to them otherwise.
func fallbackPartnerAI(ctx AIContext) Command {
	if ctx.OwnerDist > ctx.FollowDist {
		return Command{Type: "follow", X: ctx.OwnerX, Y: ctx.OwnerY}
	}
	if ctx.TargetID != 0 {
		if ctx.TargetDist <= ctx.AtkRange && ctx.CanAttack {
			return Command{Type: "attack"}
		}
		return Command{Type: "chase", X: ctx.TargetX, Y: ctx.TargetY}
	}
	return Command{Type: "idle"}
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// lFloat reads a number field from a Lua table.
func lFloat(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
