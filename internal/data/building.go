package data

import (
	"fmt"
	"os"

	"github.com/civsim/engine/internal/grid"
	"gopkg.in/yaml.v3"
)

// BuildingTemplate holds static data for a building type.
type BuildingTemplate struct {
	Name   string      `yaml:"name"`
	Cost   int         `yaml:"cost"`
	Yields grid.Yields `yaml:"yields"`
	// Sight > 0 makes the building a fog source for its owner.
	Sight int `yaml:"sight"`
	// Terrain names the building may be placed on; empty = any enterable land.
	Terrain []string `yaml:"terrain"`
}

// Allows reports whether the building may stand on terrain named name.
func (b *BuildingTemplate) Allows(name string) bool {
	if len(b.Terrain) == 0 {
		return true
	}
	for _, t := range b.Terrain {
		if key(t) == key(name) {
			return true
		}
	}
	return false
}

type buildingListFile struct {
	Buildings []BuildingTemplate `yaml:"buildings"`
}

// BuildingTable holds building templates indexed by case-folded name.
type BuildingTable struct {
	templates map[string]*BuildingTemplate
}

// LoadBuildingTable loads building templates from a YAML file.
func LoadBuildingTable(path string) (*BuildingTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read building_list: %w", err)
	}
	var f buildingListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse building_list: %w", err)
	}
	return NewBuildingTable(f.Buildings)
}

func NewBuildingTable(buildings []BuildingTemplate) (*BuildingTable, error) {
	t := &BuildingTable{templates: make(map[string]*BuildingTemplate, len(buildings))}
	for i := range buildings {
		b := buildings[i]
		if b.Name == "" {
			return nil, fmt.Errorf("building #%d has no name", i)
		}
		if b.Cost < 0 {
			return nil, fmt.Errorf("building %q: negative cost", b.Name)
		}
		t.templates[key(b.Name)] = &b
	}
	return t, nil
}

// Get returns a building template by name.
func (t *BuildingTable) Get(name string) *BuildingTemplate {
	return t.templates[key(name)]
}

func (t *BuildingTable) Count() int { return len(t.templates) }
