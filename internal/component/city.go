package component

import (
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/grid"
)

// City holds settlement state. Population is always >= 1.
// GrowthProgress/GrowthTarget are interpreted by the active growth policy
// (turns elapsed vs turns required, or stored food vs food threshold).
type City struct {
	Name           string
	Population     int
	GrowthProgress int
	GrowthTarget   int
	FoundedTurn    uint64
}

// Building is a constructed improvement on a tile.
type Building struct {
	Name   string
	Yields grid.Yields
	Sight  int
	// Builder is the city that paid for it; attribution of yields is by
	// radius, not by builder.
	Builder ecs.EntityID
}

// Stockpile holds a city's non-pooled resources.
type Stockpile struct {
	Food int
	Gold int
}

type ItemKind uint8

const (
	ItemUnit ItemKind = iota + 1
	ItemBuilding
)

func (k ItemKind) String() string {
	switch k {
	case ItemUnit:
		return "unit"
	case ItemBuilding:
		return "building"
	default:
		return "unknown"
	}
}

// QueueItem is one entry of a city's production queue.
type QueueItem struct {
	Kind ItemKind
	Name string
	Cost int
	// Tile is the placement target for buildings.
	Tile grid.Tile
}

// ProductionQueue is the ordered build list of a city; Items[0] is worked first.
type ProductionQueue struct {
	Items []QueueItem
}

func (City) ComponentType() ecs.ComponentType            { return TypeCity }
func (Building) ComponentType() ecs.ComponentType        { return TypeBuilding }
func (Stockpile) ComponentType() ecs.ComponentType       { return TypeStockpile }
func (ProductionQueue) ComponentType() ecs.ComponentType { return TypeProductionQueue }
