package data

import (
	"fmt"
	"path/filepath"
)

// Tables bundles every static lookup table the simulation reads.
type Tables struct {
	Units     *UnitTable
	Buildings *BuildingTable
	Civs      *CivTable
	Terrain   *TerrainTable
}

// LoadTables loads unit_list, building_list, civ_list and terrain_list
// from dir.
func LoadTables(dir string) (*Tables, error) {
	units, err := LoadUnitTable(filepath.Join(dir, "unit_list.yaml"))
	if err != nil {
		return nil, err
	}
	buildings, err := LoadBuildingTable(filepath.Join(dir, "building_list.yaml"))
	if err != nil {
		return nil, err
	}
	civs, err := LoadCivTable(filepath.Join(dir, "civ_list.yaml"))
	if err != nil {
		return nil, err
	}
	terrain, err := LoadTerrainTable(filepath.Join(dir, "terrain_list.yaml"))
	if err != nil {
		return nil, err
	}
	for _, id := range civs.IDs() {
		for _, u := range civs.Get(id).StartingUnits {
			if units.Get(u) == nil {
				return nil, fmt.Errorf("civilization %q starts with unknown unit %q", id, u)
			}
		}
	}
	return &Tables{Units: units, Buildings: buildings, Civs: civs, Terrain: terrain}, nil
}
