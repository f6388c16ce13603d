package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lastlight/server/internal/spatial"
)

// MapInfo holds metadata for a single map, loaded from map_list.yaml.
type MapInfo struct {
	MapID    int16   `yaml:"map_id"`
	Name     string  `yaml:"name"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	CellSize float64 `yaml:"cell_size"`
	StartX   float64 `yaml:"start_x"` // player spawn hint
	StartY   float64 `yaml:"start_y"`
}

// Obstacle is a static impassable rectangle. X,Y is the top-left corner in
// world units. Immutable after map load.
type Obstacle struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"w"`
	Height float64 `yaml:"h"`
}

func (o Obstacle) Bounds() spatial.Rect {
	return spatial.Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
}

// mapEntry stores loaded obstacles + derived walk grid for one map.
type mapEntry struct {
	info      MapInfo
	obstacles []Obstacle
	grid      *WalkGrid
}

// ScenarioTable provides map metadata, obstacle lists, and walk grids.
type ScenarioTable struct {
	maps map[int16]*mapEntry
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

type obstacleFile struct {
	Obstacles []Obstacle `yaml:"obstacles"`
}

// LoadScenario loads map metadata from map_list.yaml and per-map obstacle
// files {mapid}.yaml from the same directory. The walk grid for each map is
// derived once here; it is read-only afterwards.
func LoadScenario(dir string) (*ScenarioTable, error) {
	listPath := filepath.Join(dir, "map_list.yaml")
	raw, err := os.ReadFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", listPath, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	table := &ScenarioTable{
		maps: make(map[int16]*mapEntry, len(file.Maps)),
	}

	for _, info := range file.Maps {
		if info.Width <= 0 || info.Height <= 0 {
			continue
		}
		if info.CellSize <= 0 {
			info.CellSize = 32
		}

		obstacles, err := loadObstacleFile(dir, int(info.MapID))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			// No obstacle file means an open map.
			obstacles = nil
		}

		table.maps[info.MapID] = &mapEntry{
			info:      info,
			obstacles: obstacles,
			grid:      BuildWalkGrid(obstacles, info.Width, info.Height, info.CellSize),
		}
	}

	return table, nil
}

func loadObstacleFile(dir string, mapID int) ([]Obstacle, error) {
	path := filepath.Join(dir, strconv.Itoa(mapID)+".yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file obstacleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse obstacles %s: %w", path, err)
	}
	return file.Obstacles, nil
}

// Count returns the number of maps loaded.
func (t *ScenarioTable) Count() int {
	return len(t.maps)
}

// Info returns metadata for a map, or nil if not found.
func (t *ScenarioTable) Info(mapID int16) *MapInfo {
	e := t.maps[mapID]
	if e == nil {
		return nil
	}
	return &e.info
}

// Obstacles returns the obstacle list for a map, or nil if not found.
func (t *ScenarioTable) Obstacles(mapID int16) []Obstacle {
	e := t.maps[mapID]
	if e == nil {
		return nil
	}
	return e.obstacles
}

// Grid returns the derived walk grid for a map, or nil if not found.
func (t *ScenarioTable) Grid(mapID int16) *WalkGrid {
	e := t.maps[mapID]
	if e == nil {
		return nil
	}
	return e.grid
}

// ObstacleBounds returns the obstacle rects for seeding a spatial index.
func (t *ScenarioTable) ObstacleBounds(mapID int16) []spatial.Rect {
	obs := t.Obstacles(mapID)
	rects := make([]spatial.Rect, len(obs))
	for i, o := range obs {
		rects[i] = o.Bounds()
	}
	return rects
}
