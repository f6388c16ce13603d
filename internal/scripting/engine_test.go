package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestFallbackZombieAI(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name string
		ctx  AIContext
		want string
	}{
		{"no target wanders", AIContext{}, "wander"},
		{"target out of reach chases", AIContext{TargetID: 9, TargetDist: 120, AtkRange: 24, CanAttack: true}, "chase"},
		{"target in reach attacks", AIContext{TargetID: 9, TargetDist: 20, AtkRange: 24, CanAttack: true}, "attack"},
		{"cooldown blocks attack", AIContext{TargetID: 9, TargetDist: 20, AtkRange: 24}, "chase"},
	}
	for _, tt := range tests {
		if got := e.RunZombieAI(tt.ctx); got.Type != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got.Type, tt.want)
		}
	}
}

func TestFallbackPartnerAI(t *testing.T) {
	e := newTestEngine(t)

	cmd := e.RunPartnerAI(AIContext{OwnerDist: 300, FollowDist: 72, OwnerX: 10, OwnerY: 20})
	if cmd.Type != "follow" || cmd.X != 10 || cmd.Y != 20 {
		t.Fatalf("leash break: got %+v", cmd)
	}
	cmd = e.RunPartnerAI(AIContext{OwnerDist: 30, FollowDist: 72, TargetID: 4, TargetDist: 15, AtkRange: 24, CanAttack: true})
	if cmd.Type != "attack" {
		t.Fatalf("in-range engage: got %q", cmd.Type)
	}
	cmd = e.RunPartnerAI(AIContext{OwnerDist: 30, FollowDist: 72})
	if cmd.Type != "idle" {
		t.Fatalf("at rest: got %q", cmd.Type)
	}
}

func TestLuaScriptOverridesFallback(t *testing.T) {
	dir := t.TempDir()
	aiDir := filepath.Join(dir, "ai")
	if err := os.MkdirAll(aiDir, 0o755); err != nil {
		t.Fatal(err)
	}
	script := `
function zombie_ai(ctx)
	if ctx.hp * 2 < ctx.max_hp then
		return { type = "flee", x = ctx.x - ctx.target_x, y = ctx.y - ctx.target_y }
	end
	return { type = "wander" }
end
`
	if err := os.WriteFile(filepath.Join(aiDir, "zombie.lua"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	cmd := e.RunZombieAI(AIContext{HP: 10, MaxHP: 40, X: 5, Y: 8, TargetX: 2, TargetY: 3})
	if cmd.Type != "flee" {
		t.Fatalf("script not consulted: got %q", cmd.Type)
	}
	if cmd.X != 3 || cmd.Y != 5 {
		t.Fatalf("command coords: got (%v,%v)", cmd.X, cmd.Y)
	}

	cmd = e.RunZombieAI(AIContext{HP: 40, MaxHP: 40})
	if cmd.Type != "wander" {
		t.Fatalf("healthy path: got %q", cmd.Type)
	}
}

func TestBrokenScriptFallsBack(t *testing.T) {
	e := newTestEngine(t)
	if err := e.DoString(`function zombie_ai(ctx) error("boom") end`); err != nil {
		t.Fatal(err)
	}
	cmd := e.RunZombieAI(AIContext{})
	if cmd.Type != "wander" {
		t.Fatalf("error path must fall back, got %q", cmd.Type)
	}
}
