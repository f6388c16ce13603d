package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// CreatureTemplate describes a spawnable creature kind, loaded from
// creature_list.yaml. Role selects the AI family.
type CreatureTemplate struct {
	Kind       string  `yaml:"kind"` // template key, e.g. "walker", "runner", "scout"
	Role       string  `yaml:"role"` // "zombie" or "partner"
	Name       string  `yaml:"name"`
	HP         int32   `yaml:"hp"`
	Radius     float64 `yaml:"radius"`
	MoveSpeed  float64 `yaml:"move_speed"` // world units per tick
	AtkDmg     int32   `yaml:"atk_dmg"`
	AtkRange   float64 `yaml:"atk_range"`
	AtkCool    int     `yaml:"atk_cool"` // ticks between attacks
	AggroRange float64 `yaml:"aggro_range"`
}

// SpawnEntry is one line of spawn_list.yaml: where and how many of a kind to
// place at scenario start.
type SpawnEntry struct {
	Kind    string  `yaml:"kind"`
	MapID   int16   `yaml:"map_id"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Count   int     `yaml:"count"`
	RandomR float64 `yaml:"random_r"` // scatter radius around (x,y)
}

// CreatureTable provides creature template lookups by kind.
type CreatureTable struct {
	byKind map[string]*CreatureTemplate
}

type creatureListFile struct {
	Creatures []CreatureTemplate `yaml:"creatures"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// NewCreatureTable builds a table from in-memory templates, applying the
// same defaults as the YAML loader.
func NewCreatureTable(templates ...CreatureTemplate) *CreatureTable {
	table := &CreatureTable{
		byKind: make(map[string]*CreatureTemplate, len(templates)),
	}
	for i := range templates {
		tmpl := &templates[i]
		if tmpl.Kind == "" {
			continue
		}
		applyTemplateDefaults(tmpl)
		table.byKind[tmpl.Kind] = tmpl
	}
	return table
}

func applyTemplateDefaults(tmpl *CreatureTemplate) {
	if tmpl.Radius <= 0 {
		tmpl.Radius = 12
	}
	if tmpl.AtkRange <= 0 {
		tmpl.AtkRange = tmpl.Radius * 2
	}
	if tmpl.AtkCool <= 0 {
		tmpl.AtkCool = 20
	}
}

// LoadCreatureTable loads creature templates from YAML.
func LoadCreatureTable(path string) (*CreatureTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read creature list %s: %w", path, err)
	}
	var file creatureListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse creature list: %w", err)
	}

	table := &CreatureTable{
		byKind: make(map[string]*CreatureTemplate, len(file.Creatures)),
	}
	for i := range file.Creatures {
		tmpl := &file.Creatures[i]
		if tmpl.Kind == "" {
			continue
		}
		applyTemplateDefaults(tmpl)
		table.byKind[tmpl.Kind] = tmpl
	}
	return table, nil
}

// Get returns the template for a kind, or nil if unknown.
func (t *CreatureTable) Get(kind string) *CreatureTemplate {
	return t.byKind[kind]
}

// Count returns the number of loaded templates.
func (t *CreatureTable) Count() int {
	return len(t.byKind)
}

// KindsByRole returns every template kind with the given role, sorted so
// callers iterate deterministically.
func (t *CreatureTable) KindsByRole(role string) []string {
	var kinds []string
	for kind, tmpl := range t.byKind {
		if tmpl.Role == role {
			kinds = append(kinds, kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// LoadSpawnList loads the scenario spawn entries from YAML.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn list %s: %w", path, err)
	}
	var file spawnListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse spawn list: %w", err)
	}
	return file.Spawns, nil
}
