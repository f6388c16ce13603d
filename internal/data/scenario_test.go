package data

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "map_list.yaml", `
maps:
  - map_id: 1
    name: "Ruined Town"
    width: 2000
    height: 1500
    cell_size: 25
    start_x: 1000
    start_y: 750
  - map_id: 2
    name: "Open Field"
    width: 800
    height: 800
`)
	writeFile(t, dir, "1.yaml", `
obstacles:
  - {x: 100, y: 100, w: 50, h: 50}
  - {x: 400, y: 200, w: 120, h: 60}
`)

	table, err := LoadScenario(dir)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if table.Count() != 2 {
		t.Fatalf("maps loaded = %d, want 2", table.Count())
	}

	info := table.Info(1)
	if info == nil || info.Name != "Ruined Town" {
		t.Fatalf("map 1 info missing or wrong: %+v", info)
	}
	if len(table.Obstacles(1)) != 2 {
		t.Fatalf("map 1 obstacles = %d, want 2", len(table.Obstacles(1)))
	}

	grid := table.Grid(1)
	if grid == nil {
		t.Fatalf("map 1 grid not derived")
	}
	if grid.IsWalkable(110, 110) {
		t.Fatalf("point inside obstacle reported walkable")
	}
	if !grid.IsWalkable(1000, 750) {
		t.Fatalf("spawn hint reported blocked")
	}

	// Map 2 has no obstacle file: open map, default cell size.
	grid2 := table.Grid(2)
	if grid2 == nil || !grid2.IsWalkable(400, 400) {
		t.Fatalf("obstacle-free map should be fully walkable")
	}

	if table.Info(99) != nil {
		t.Fatalf("unknown map lookup must return nil")
	}
	if len(table.ObstacleBounds(1)) != 2 {
		t.Fatalf("obstacle bounds conversion lost entries")
	}
}

func TestLoadScenarioRejectsCorruptObstacleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "map_list.yaml", `
maps:
  - map_id: 1
    name: "Ruined Town"
    width: 2000
    height: 1500
`)
	writeFile(t, dir, "1.yaml", "obstacles:\n  - {x: 100, y: 100, w: 50\n")

	if _, err := LoadScenario(dir); err == nil {
		t.Fatalf("malformed obstacle file must fail the load, not yield an open map")
	}
}

func TestLoadCreatureTableDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "creature_list.yaml", `
creatures:
  - kind: walker
    role: zombie
    name: "Walker"
    hp: 60
    move_speed: 2.5
    atk_dmg: 8
    aggro_range: 250
  - kind: medic
    role: partner
    name: "Medic"
    hp: 100
    radius: 14
    move_speed: 3.5
    atk_dmg: 12
    atk_range: 40
    atk_cool: 15
    aggro_range: 300
`)
	table, err := LoadCreatureTable(filepath.Join(dir, "creature_list.yaml"))
	if err != nil {
		t.Fatalf("LoadCreatureTable: %v", err)
	}
	if table.Count() != 2 {
		t.Fatalf("templates = %d, want 2", table.Count())
	}

	walker := table.Get("walker")
	if walker == nil {
		t.Fatalf("walker template missing")
	}
	if walker.Radius != 12 {
		t.Errorf("default radius = %v, want 12", walker.Radius)
	}
	if walker.AtkRange != 24 {
		t.Errorf("default atk range = %v, want 2x radius", walker.AtkRange)
	}
	if walker.AtkCool != 20 {
		t.Errorf("default atk cooldown = %v, want 20", walker.AtkCool)
	}

	medic := table.Get("medic")
	if medic == nil || medic.Role != "partner" || medic.AtkCool != 15 {
		t.Fatalf("explicit template values not preserved: %+v", medic)
	}

	if table.Get("ghost") != nil {
		t.Fatalf("unknown kind lookup must return nil")
	}
}

func TestKindsByRole(t *testing.T) {
	table := NewCreatureTable(
		CreatureTemplate{Kind: "walker", Role: "zombie"},
		CreatureTemplate{Kind: "brute", Role: "zombie"},
		CreatureTemplate{Kind: "scout", Role: "partner"},
	)

	zombies := table.KindsByRole("zombie")
	if len(zombies) != 2 || zombies[0] != "brute" || zombies[1] != "walker" {
		t.Fatalf("zombie kinds = %v, want sorted [brute walker]", zombies)
	}
	if got := table.KindsByRole("partner"); len(got) != 1 || got[0] != "scout" {
		t.Fatalf("partner kinds = %v", got)
	}
	if got := table.KindsByRole("boss"); got != nil {
		t.Fatalf("unknown role must yield no kinds, got %v", got)
	}
}
