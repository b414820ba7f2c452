package data

import (
	"fmt"
	"os"

	"github.com/civsim/engine/internal/grid"
	"gopkg.in/yaml.v3"
)

// TerrainType is one terrain kind from terrain_list.yaml. Tile files refer
// to terrain by Code.
type TerrainType struct {
	Code     int          `yaml:"code"`
	Name     string       `yaml:"name"`
	MoveCost int          `yaml:"move_cost"`
	Passable bool         `yaml:"passable"`
	Water    bool         `yaml:"water"`
	Yields   *grid.Yields `yaml:"yields"` // nil = tile is never worked
}

// Info converts the type into the simulation's per-tile record.
func (t *TerrainType) Info() grid.TerrainInfo {
	info := grid.TerrainInfo{
		Name:     t.Name,
		MoveCost: t.MoveCost,
		Passable: t.Passable,
		Water:    t.Water,
	}
	if t.Yields != nil {
		info.Yields = *t.Yields
		info.HasYields = true
	}
	return info
}

type terrainListFile struct {
	Terrain []TerrainType `yaml:"terrain"`
}

// TerrainTable indexes terrain types by code and by name.
type TerrainTable struct {
	byCode map[int]*TerrainType
	byName map[string]*TerrainType
}

// LoadTerrainTable loads terrain types from a YAML file.
func LoadTerrainTable(path string) (*TerrainTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read terrain_list: %w", err)
	}
	var f terrainListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse terrain_list: %w", err)
	}
	return NewTerrainTable(f.Terrain)
}

func NewTerrainTable(types []TerrainType) (*TerrainTable, error) {
	t := &TerrainTable{
		byCode: make(map[int]*TerrainType, len(types)),
		byName: make(map[string]*TerrainType, len(types)),
	}
	for i := range types {
		tt := types[i]
		if _, dup := t.byCode[tt.Code]; dup {
			return nil, fmt.Errorf("duplicate terrain code %d", tt.Code)
		}
		// passable terrain must cost at least one MP to enter
		if tt.Passable && tt.MoveCost < 1 {
			return nil, fmt.Errorf("terrain %q: passable with move cost %d", tt.Name, tt.MoveCost)
		}
		t.byCode[tt.Code] = &tt
		t.byName[key(tt.Name)] = &tt
	}
	return t, nil
}

// ByCode returns the terrain type with code.
func (t *TerrainTable) ByCode(code int) *TerrainType {
	return t.byCode[code]
}

// Get returns the terrain type by name.
func (t *TerrainTable) Get(name string) *TerrainType {
	return t.byName[key(name)]
}

func (t *TerrainTable) Count() int { return len(t.byCode) }
