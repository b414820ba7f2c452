package handler

import (
	"fmt"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	"github.com/civsim/engine/internal/grid"
	"github.com/civsim/engine/internal/pathfind"
	"go.uber.org/zap"
)

// OrderMove plans a path for a unit and moves it as far as its movement
// points allow this turn. The rest of the path is kept on the unit and
// resumed by AdvanceUnit on later turns without re-planning.
func OrderMove(d *Deps, id ecs.EntityID, player component.PlayerID, to grid.Tile) error {
	if err := checkTurn(d, player); err != nil {
		return err
	}
	_, pos, _, err := ownedUnit(d, id, player)
	if err != nil {
		return err
	}
	if ecs.HasOf[component.NewlyPurchased](d.World, id) {
		return fmt.Errorf("%w: unit %d", ErrNewlyPurchased, id)
	}

	path, ok := pathfind.FindPath(pos.Tile, to, d.Terrain)
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrNoPath, pos.Tile, to)
	}
	if len(path) < 2 {
		ecs.RemoveOf[component.Path](d.World, id)
		return nil
	}
	ecs.Add(d.World, id, &component.Path{Tiles: path, Goal: to})
	AdvanceUnit(d, id)
	return nil
}

// AdvanceUnit spends the unit's movement points along its stored path.
// Returns true if the unit changed tile.
func AdvanceUnit(d *Deps, id ecs.EntityID) bool {
	w := d.World
	p, ok := ecs.Get[component.Path](w, id)
	if !ok {
		return false
	}
	u, okU := ecs.Get[component.Unit](w, id)
	pos, okP := ecs.Get[component.Position](w, id)
	if !okU || !okP || len(p.Tiles) < 2 || p.Tiles[0] != pos.Tile {
		// order no longer matches the unit
		ecs.RemoveOf[component.Path](w, id)
		return false
	}

	b := pathfind.MovementBudget(p.Tiles, u.MP, d.Terrain)
	if b.Steps() == 0 {
		cost, passable := pathfind.StepCost(d.Terrain, p.Tiles[1])
		if !passable || cost > u.MaxMP {
			// never affordable, even on a fresh turn
			ecs.RemoveOf[component.Path](w, id)
			d.Log.Debug("move order dropped",
				zap.Uint64("entity", uint64(id)),
				zap.Stringer("next", p.Tiles[1]))
		}
		return false
	}

	spent := u.MP - b.RemainingMP
	pos.Tile = b.Consumed[len(b.Consumed)-1]
	u.MP = b.RemainingMP
	if len(b.Remaining) == 0 {
		ecs.RemoveOf[component.Path](w, id)
	} else {
		p.Tiles = append([]grid.Tile{pos.Tile}, b.Remaining...)
	}
	if own, ok := ecs.Get[component.Owner](w, id); ok {
		d.Record(Outcome{Kind: OutcomeMove, Player: own.Player, Entity: id, Tile: pos.Tile, Cost: spent})
	}
	d.raise(event.ReasonUnitMoved)
	return true
}

// PlaceUnit applies an authoritative move: the unit is put on to and
// charged cost movement points, never below zero. The cost is the one the
// authority resolved; a multi-tile move cannot be re-derived from its end
// tile. Any pending path is dropped.
func PlaceUnit(d *Deps, id ecs.EntityID, to grid.Tile, cost int) error {
	w := d.World
	u, ok := ecs.Get[component.Unit](w, id)
	if !ok {
		return fmt.Errorf("%w: %d is not a unit", ErrInvalidTarget, id)
	}
	pos, ok := ecs.Get[component.Position](w, id)
	if !ok {
		return fmt.Errorf("%w: unit %d has no position", ErrInvalidTarget, id)
	}
	if !grid.InBounds(to, d.Terrain.Width(), d.Terrain.Height()) {
		return fmt.Errorf("%w: %s", ErrInvalidTile, to)
	}
	if cost < 0 {
		return fmt.Errorf("%w: move cost %d", ErrInvalidTarget, cost)
	}
	pos.Tile = to
	u.MP = max(u.MP-cost, 0)
	ecs.RemoveOf[component.Path](w, id)
	d.raise(event.ReasonUnitMoved)
	return nil
}
