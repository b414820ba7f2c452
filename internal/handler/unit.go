package handler

import (
	"fmt"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/grid"
)

// SpawnUnit creates a unit of unitType for player at tile, with stats
// resolved through the civilization's overrides.
func SpawnUnit(d *Deps, player component.PlayerID, civ component.CivID, unitType string, at grid.Tile) (ecs.EntityID, error) {
	stats, ok := d.Tables.Civs.UnitStats(d.Tables.Units, string(civ), unitType)
	if !ok {
		return 0, fmt.Errorf("%w: unit %q", ErrUnknownType, unitType)
	}
	info, ok := d.Terrain.At(at)
	if !ok || !info.Enterable() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTile, at)
	}

	w := d.World
	id := w.CreateEntity()
	ecs.Add(w, id, &component.Position{Tile: at})
	ecs.Add(w, id, &component.Owner{Player: player, Civ: civ})
	ecs.Add(w, id, &component.Unit{
		Type:       stats.Type,
		MP:         stats.MP,
		MaxMP:      stats.MP,
		Sight:      stats.Sight,
		Health:     stats.Health,
		MaxHealth:  stats.Health,
		Attack:     stats.Attack,
		Defense:    stats.Defense,
		FoundsCity: stats.FoundsCity,
	})
	ecs.Add(w, id, &component.Selectable{})
	return id, nil
}

// RestoreUnits resets every unit's movement points and clears the
// purchased-this-turn tag. Returns the number of units touched.
func RestoreUnits(d *Deps) int {
	w := d.World
	n := 0
	if units := ecs.StoreOf[component.Unit](w); units != nil {
		units.Each(func(_ ecs.EntityID, u *component.Unit) {
			u.MP = u.MaxMP
			n++
		})
	}
	for _, id := range w.View(component.TypeNewlyPurchased) {
		w.Remove(id, component.TypeNewlyPurchased)
	}
	return n
}

// ownedUnit loads a unit and checks it belongs to player.
func ownedUnit(d *Deps, id ecs.EntityID, player component.PlayerID) (*component.Unit, *component.Position, *component.Owner, error) {
	w := d.World
	u, ok := ecs.Get[component.Unit](w, id)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %d is not a unit", ErrInvalidTarget, id)
	}
	pos, ok := ecs.Get[component.Position](w, id)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: unit %d has no position", ErrInvalidTarget, id)
	}
	own, ok := ecs.Get[component.Owner](w, id)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: unit %d has no owner", ErrInvalidTarget, id)
	}
	if own.Player != player {
		return nil, nil, nil, fmt.Errorf("%w: unit %d belongs to %d, not %d", ErrNotOwner, id, own.Player, player)
	}
	return u, pos, own, nil
}

// checkTurn rejects commands from a player who is not on turn.
func checkTurn(d *Deps, player component.PlayerID) error {
	if d.State.CurrentPlayer != player {
		return fmt.Errorf("%w: current is %d, got %d", ErrNotYourTurn, d.State.CurrentPlayer, player)
	}
	return nil
}
