package pathfind

import "github.com/civsim/engine/internal/grid"

// Budget splits a path into the part affordable this turn and the rest.
type Budget struct {
	// Consumed are the tiles entered this turn, in order.
	Consumed []grid.Tile
	// Remaining continues from the tile after the last consumed one. When
	// nothing was affordable it is the original path, unchanged.
	Remaining   []grid.Tile
	RemainingMP int
}

// Steps returns how many tiles were entered.
func (b Budget) Steps() int { return len(b.Consumed) }

// MovementBudget walks path from its second tile, paying each tile's entry
// cost, and stops at the first step that costs more than the movement points
// left. Blocked tiles stop the walk the same way.
func MovementBudget(path []grid.Tile, movementPoints int, terrain grid.Terrain) Budget {
	left := movementPoints
	k := 0
	for i := 1; i < len(path); i++ {
		cost, ok := StepCost(terrain, path[i])
		if !ok || cost > left {
			break
		}
		left -= cost
		k++
	}

	if k == 0 {
		return Budget{
			Remaining:   append([]grid.Tile(nil), path...),
			RemainingMP: movementPoints,
		}
	}
	return Budget{
		Consumed:    append([]grid.Tile(nil), path[1:k+1]...),
		Remaining:   append([]grid.Tile(nil), path[k+1:]...),
		RemainingMP: left,
	}
}
