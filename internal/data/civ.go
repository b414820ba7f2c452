package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// UnitOverride replaces base unit fields for one civilization. Nil fields
// keep the base value.
type UnitOverride struct {
	MP      *int `yaml:"mp"`
	Sight   *int `yaml:"sight"`
	Health  *int `yaml:"health"`
	Attack  *int `yaml:"attack"`
	Defense *int `yaml:"defense"`
	Cost    *int `yaml:"cost"`
}

// CivTemplate is a civilization definition.
type CivTemplate struct {
	ID                 string                  `yaml:"id"`
	Name               string                  `yaml:"name"`
	Color              string                  `yaml:"color"`
	StartingProduction int                     `yaml:"starting_production"`
	StartingUnits      []string                `yaml:"starting_units"`
	CityNames          []string                `yaml:"city_names"`
	UnitOverrides      map[string]UnitOverride `yaml:"unit_overrides"`
}

type civListFile struct {
	Civs []CivTemplate `yaml:"civilizations"`
}

// CivTable holds civilization definitions indexed by case-folded id.
type CivTable struct {
	civs map[string]*CivTemplate
}

// LoadCivTable loads civilization definitions from a YAML file.
func LoadCivTable(path string) (*CivTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read civ_list: %w", err)
	}
	var f civListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse civ_list: %w", err)
	}
	return NewCivTable(f.Civs)
}

func NewCivTable(civs []CivTemplate) (*CivTable, error) {
	t := &CivTable{civs: make(map[string]*CivTemplate, len(civs))}
	for i := range civs {
		c := civs[i]
		if c.ID == "" {
			return nil, fmt.Errorf("civilization #%d has no id", i)
		}
		if c.StartingProduction < 0 {
			return nil, fmt.Errorf("civilization %q: negative starting production", c.ID)
		}
		overrides := make(map[string]UnitOverride, len(c.UnitOverrides))
		for unitType, o := range c.UnitOverrides {
			overrides[key(unitType)] = o
		}
		c.UnitOverrides = overrides
		t.civs[key(c.ID)] = &c
	}
	return t, nil
}

// Get returns a civilization by id.
func (t *CivTable) Get(id string) *CivTemplate {
	if t == nil {
		return nil
	}
	return t.civs[key(id)]
}

// IDs returns every civilization id, sorted.
func (t *CivTable) IDs() []string {
	out := make([]string, 0, len(t.civs))
	for _, c := range t.civs {
		out = append(out, c.ID)
	}
	sort.Strings(out)
	return out
}

// Merge applies o on top of base. Pure: base is not modified.
func Merge(base UnitTemplate, o UnitOverride) UnitTemplate {
	out := base
	if o.MP != nil {
		out.MP = *o.MP
	}
	if o.Sight != nil {
		out.Sight = *o.Sight
	}
	if o.Health != nil {
		out.Health = *o.Health
	}
	if o.Attack != nil {
		out.Attack = *o.Attack
	}
	if o.Defense != nil {
		out.Defense = *o.Defense
	}
	if o.Cost != nil {
		out.Cost = *o.Cost
	}
	return out
}

// UnitStats resolves the stats of unitType as played by civ.
func (t *CivTable) UnitStats(units *UnitTable, civ, unitType string) (UnitTemplate, bool) {
	base := units.Get(unitType)
	if base == nil {
		return UnitTemplate{}, false
	}
	c := t.Get(civ)
	if c == nil {
		return *base, true
	}
	o, ok := c.UnitOverrides[key(unitType)]
	if !ok {
		return *base, true
	}
	return Merge(*base, o), true
}
