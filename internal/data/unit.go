package data

import (
	"fmt"
	"os"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// UnitTemplate holds the base stats of a unit type loaded from YAML.
type UnitTemplate struct {
	Type       string `yaml:"type"`
	Name       string `yaml:"name"`
	MP         int    `yaml:"mp"`
	Sight      int    `yaml:"sight"`
	Health     int    `yaml:"health"`
	Attack     int    `yaml:"attack"`
	Defense    int    `yaml:"defense"`
	Cost       int    `yaml:"cost"`
	FoundsCity bool   `yaml:"founds_city"`
}

type unitListFile struct {
	Units []UnitTemplate `yaml:"units"`
}

// UnitTable holds unit templates indexed by case-folded type.
type UnitTable struct {
	templates map[string]*UnitTemplate
	order     []string
}

// key normalises a lookup name so "Warrior" and "warrior" match.
// A Caser is stateful, so each call gets its own.
func key(name string) string { return cases.Fold().String(name) }

// LoadUnitTable loads unit templates from a YAML file.
func LoadUnitTable(path string) (*UnitTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit_list: %w", err)
	}
	var f unitListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse unit_list: %w", err)
	}
	return NewUnitTable(f.Units)
}

// NewUnitTable builds a table from in-memory templates.
func NewUnitTable(units []UnitTemplate) (*UnitTable, error) {
	t := &UnitTable{templates: make(map[string]*UnitTemplate, len(units))}
	for i := range units {
		u := units[i]
		if u.Type == "" {
			return nil, fmt.Errorf("unit #%d has no type", i)
		}
		k := key(u.Type)
		if _, dup := t.templates[k]; dup {
			return nil, fmt.Errorf("duplicate unit type %q", u.Type)
		}
		if u.MP < 0 || u.Sight < 0 || u.Cost < 0 {
			return nil, fmt.Errorf("unit %q: negative stat", u.Type)
		}
		t.templates[k] = &u
		t.order = append(t.order, k)
	}
	return t, nil
}

// Get returns a unit template by type.
func (t *UnitTable) Get(unitType string) *UnitTemplate {
	return t.templates[key(unitType)]
}

// All returns the templates in file order.
func (t *UnitTable) All() []*UnitTemplate {
	out := make([]*UnitTemplate, len(t.order))
	for i, k := range t.order {
		out[i] = t.templates[k]
	}
	return out
}

// Count returns the number of loaded templates.
func (t *UnitTable) Count() int { return len(t.templates) }
