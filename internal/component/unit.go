package component

import (
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/grid"
)

// Position is the tile an entity occupies.
type Position struct {
	grid.Tile
}

// Owner links an entity to a player seat and that player's civilization.
type Owner struct {
	Player PlayerID
	Civ    CivID
}

// Unit stores the mutable stats of a unit.
// Pure data. All mutations happen in System/handler functions.
type Unit struct {
	Type       string
	MP         int
	MaxMP      int
	Sight      int
	Health     int
	MaxHealth  int
	Attack     int
	Defense    int
	FoundsCity bool
}

// Path is the remaining route of a multi-turn move order. Tiles[0] is the
// unit's current tile.
type Path struct {
	Tiles []grid.Tile
	Goal  grid.Tile
}

// NewlyPurchased marks a unit completed this turn; it may not act until the
// next turn transition.
type NewlyPurchased struct{}

// Selectable marks entities the input layer may select.
type Selectable struct{}

// ScreenPos caches the isometric projection of Position for the renderer.
type ScreenPos struct {
	X, Y float64
	From grid.Tile
}

func (Position) ComponentType() ecs.ComponentType       { return TypePosition }
func (Owner) ComponentType() ecs.ComponentType          { return TypeOwner }
func (Unit) ComponentType() ecs.ComponentType           { return TypeUnit }
func (Path) ComponentType() ecs.ComponentType           { return TypePath }
func (NewlyPurchased) ComponentType() ecs.ComponentType { return TypeNewlyPurchased }
func (Selectable) ComponentType() ecs.ComponentType     { return TypeSelectable }
func (ScreenPos) ComponentType() ecs.ComponentType      { return TypeScreenPos }
