package handler

import (
	"fmt"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	"github.com/civsim/engine/internal/grid"
	"go.uber.org/zap"
)

// FoundCity turns a settler into a city on its tile. The settler is
// consumed.
func FoundCity(d *Deps, unitID ecs.EntityID, player component.PlayerID, name string) (ecs.EntityID, error) {
	if err := checkTurn(d, player); err != nil {
		return 0, err
	}
	u, pos, own, err := ownedUnit(d, unitID, player)
	if err != nil {
		return 0, err
	}
	if !u.FoundsCity {
		return 0, fmt.Errorf("%w: %s", ErrNotSettler, u.Type)
	}
	if _, taken := CityAt(d, pos.Tile); taken {
		return 0, fmt.Errorf("%w: %s", ErrTileTaken, pos.Tile)
	}
	if name == "" {
		name = nextCityName(d, own.Civ)
	}

	at := pos.Tile
	id := CreateCity(d, *own, at, name)
	d.World.DestroyEntity(unitID)
	d.Record(Outcome{Kind: OutcomeFound, Player: player, Entity: unitID, Created: id, Name: name, Tile: at})
	if d.State.Selected == unitID {
		d.State.Selected = id
	}
	d.Log.Debug("city founded",
		zap.Uint64("city", uint64(id)),
		zap.String("name", name),
		zap.Stringer("tile", at))
	return id, nil
}

// CreateCity builds a city entity without any validation. Used by
// FoundCity and by the reconciler for authoritative snapshots.
func CreateCity(d *Deps, owner component.Owner, at grid.Tile, name string) ecs.EntityID {
	w := d.World
	id := w.CreateEntity()
	city := &component.City{
		Name:        name,
		Population:  max(d.Config.City.StartPopulation, 1),
		FoundedTurn: d.State.Turn,
	}
	if d.Growth != nil {
		d.Growth.Init(city)
	}
	ecs.Add(w, id, &component.Position{Tile: at})
	ecs.Add(w, id, &owner)
	ecs.Add(w, id, city)
	ecs.Add(w, id, &component.Stockpile{})
	ecs.Add(w, id, &component.ProductionQueue{})
	ecs.Add(w, id, &component.Selectable{})
	d.raise(event.ReasonCity)
	return id
}

// CityAt returns the city standing on tile, if any.
func CityAt(d *Deps, tile grid.Tile) (ecs.EntityID, bool) {
	for _, id := range d.World.View(component.TypeCity, component.TypePosition) {
		if pos, _ := ecs.Get[component.Position](d.World, id); pos.Tile == tile {
			return id, true
		}
	}
	return 0, false
}

// BuildingAt returns the building standing on tile, if any.
func BuildingAt(d *Deps, tile grid.Tile) (ecs.EntityID, bool) {
	for _, id := range d.World.View(component.TypeBuilding, component.TypePosition) {
		if pos, _ := ecs.Get[component.Position](d.World, id); pos.Tile == tile {
			return id, true
		}
	}
	return 0, false
}

// CityRadius is the sight and work radius of a city: 1 + population/3,
// capped by city.max_sight.
func CityRadius(d *Deps, population int) int {
	r := 1 + population/3
	if limit := d.Config.City.MaxSight; limit > 0 && r > limit {
		r = limit
	}
	return r
}

func nextCityName(d *Deps, civ component.CivID) string {
	used := make(map[string]bool)
	count := 0
	for _, id := range d.World.View(component.TypeCity, component.TypeOwner) {
		own, _ := ecs.Get[component.Owner](d.World, id)
		if own.Civ != civ {
			continue
		}
		c, _ := ecs.Get[component.City](d.World, id)
		used[c.Name] = true
		count++
	}
	if tmpl := d.Tables.Civs.Get(string(civ)); tmpl != nil {
		for _, n := range tmpl.CityNames {
			if !used[n] {
				return n
			}
		}
	}
	return fmt.Sprintf("%s %d", civ, count+1)
}
