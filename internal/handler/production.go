package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	"github.com/civsim/engine/internal/grid"
	"github.com/civsim/engine/internal/ledger"
	"go.uber.org/zap"
)

func ownedCity(d *Deps, id ecs.EntityID, player component.PlayerID) (*component.City, *component.Position, *component.Owner, error) {
	w := d.World
	c, ok := ecs.Get[component.City](w, id)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %d is not a city", ErrInvalidTarget, id)
	}
	pos, okP := ecs.Get[component.Position](w, id)
	own, okO := ecs.Get[component.Owner](w, id)
	if !okP || !okO {
		return nil, nil, nil, fmt.Errorf("%w: city %d incomplete", ErrInvalidTarget, id)
	}
	if own.Player != player {
		return nil, nil, nil, fmt.Errorf("%w: city %d belongs to %d", ErrNotOwner, id, own.Player)
	}
	return c, pos, own, nil
}

func queueOf(d *Deps, id ecs.EntityID) *component.ProductionQueue {
	q, ok := ecs.Get[component.ProductionQueue](d.World, id)
	if !ok {
		q = &component.ProductionQueue{}
		ecs.Add(d.World, id, q)
	}
	return q
}

// EnqueueUnit appends a unit to a city's production queue.
func EnqueueUnit(d *Deps, cityID ecs.EntityID, player component.PlayerID, unitType string) error {
	if err := checkTurn(d, player); err != nil {
		return err
	}
	_, _, own, err := ownedCity(d, cityID, player)
	if err != nil {
		return err
	}
	stats, ok := d.Tables.Civs.UnitStats(d.Tables.Units, string(own.Civ), unitType)
	if !ok {
		return fmt.Errorf("%w: unit %q", ErrUnknownType, unitType)
	}
	q := queueOf(d, cityID)
	q.Items = append(q.Items, component.QueueItem{Kind: component.ItemUnit, Name: stats.Type, Cost: stats.Cost})
	d.Record(Outcome{Kind: OutcomeEnqueue, Player: player, Target: cityID, Item: component.ItemUnit, Name: stats.Type, Cost: stats.Cost})
	d.raise(event.ReasonProduction)
	return nil
}

// EnqueueBuilding appends a building to a city's production queue. The
// placement is validated now and again when the building completes.
func EnqueueBuilding(d *Deps, cityID ecs.EntityID, player component.PlayerID, name string, at grid.Tile) error {
	if err := checkTurn(d, player); err != nil {
		return err
	}
	if _, _, _, err := ownedCity(d, cityID, player); err != nil {
		return err
	}
	tmpl := d.Tables.Buildings.Get(name)
	if tmpl == nil {
		return fmt.Errorf("%w: building %q", ErrUnknownType, name)
	}
	if err := checkPlacement(d, cityID, tmpl.Name, at); err != nil {
		return err
	}
	q := queueOf(d, cityID)
	q.Items = append(q.Items, component.QueueItem{Kind: component.ItemBuilding, Name: tmpl.Name, Cost: tmpl.Cost, Tile: at})
	d.Record(Outcome{Kind: OutcomeEnqueue, Player: player, Target: cityID, Item: component.ItemBuilding, Name: tmpl.Name, Cost: tmpl.Cost, Tile: at})
	d.raise(event.ReasonProduction)
	return nil
}

func checkPlacement(d *Deps, cityID ecs.EntityID, name string, at grid.Tile) error {
	tmpl := d.Tables.Buildings.Get(name)
	if tmpl == nil {
		return fmt.Errorf("%w: building %q", ErrUnknownType, name)
	}
	c, _ := ecs.Get[component.City](d.World, cityID)
	pos, _ := ecs.Get[component.Position](d.World, cityID)
	if c == nil || pos == nil {
		return fmt.Errorf("%w: city %d gone", ErrInvalidTarget, cityID)
	}
	info, ok := d.Terrain.At(at)
	if !ok || !info.Enterable() || !tmpl.Allows(info.Name) {
		return fmt.Errorf("%w: %s cannot hold %s", ErrInvalidTile, at, tmpl.Name)
	}
	if grid.Chebyshev(pos.Tile, at) > CityRadius(d, c.Population) {
		return fmt.Errorf("%w: %s outside city radius", ErrInvalidTile, at)
	}
	if _, taken := BuildingAt(d, at); taken {
		return fmt.Errorf("%w: %s", ErrTileTaken, at)
	}
	return nil
}

// CreateBuilding places a building for cityID. It fails if the tile is no
// longer valid.
func CreateBuilding(d *Deps, cityID ecs.EntityID, name string, at grid.Tile) (ecs.EntityID, error) {
	if err := checkPlacement(d, cityID, name, at); err != nil {
		return 0, err
	}
	own, _ := ecs.Get[component.Owner](d.World, cityID)
	return PlaceBuilding(d, *own, cityID, name, at)
}

// PlaceBuilding creates a building entity without placement checks. The
// reconciler uses it for authoritative completions.
func PlaceBuilding(d *Deps, owner component.Owner, builder ecs.EntityID, name string, at grid.Tile) (ecs.EntityID, error) {
	tmpl := d.Tables.Buildings.Get(name)
	if tmpl == nil {
		return 0, fmt.Errorf("%w: building %q", ErrUnknownType, name)
	}
	w := d.World
	id := w.CreateEntity()
	ecs.Add(w, id, &component.Position{Tile: at})
	ecs.Add(w, id, &owner)
	ecs.Add(w, id, &component.Building{Name: tmpl.Name, Yields: tmpl.Yields, Sight: tmpl.Sight, Builder: builder})
	d.raise(event.ReasonProduction)
	return id, nil
}

// AppendQueue adds an already validated item to a city's queue.
func AppendQueue(d *Deps, cityID ecs.EntityID, item component.QueueItem) error {
	if !ecs.HasOf[component.City](d.World, cityID) {
		return fmt.Errorf("%w: %d is not a city", ErrInvalidTarget, cityID)
	}
	q := queueOf(d, cityID)
	q.Items = append(q.Items, item)
	d.raise(event.ReasonProduction)
	return nil
}

// PopQueueHead removes the head of a city's queue if it names the given
// item. Returns whether an item was removed.
func PopQueueHead(d *Deps, cityID ecs.EntityID, kind component.ItemKind, name string) bool {
	q, ok := ecs.Get[component.ProductionQueue](d.World, cityID)
	if !ok || len(q.Items) == 0 {
		return false
	}
	head := q.Items[0]
	if head.Kind != kind || !strings.EqualFold(head.Name, name) {
		return false
	}
	q.Items = q.Items[1:]
	d.raise(event.ReasonProduction)
	return true
}

// CompleteProduction finishes queue items of one city, head first, while
// the civilization's stockpile covers them. Each completion spends, creates,
// and refunds if creation fails; a failed item is dropped. Returns the
// number of items completed.
func CompleteProduction(d *Deps, cityID ecs.EntityID) int {
	q, ok := ecs.Get[component.ProductionQueue](d.World, cityID)
	if !ok {
		return 0
	}
	own, okO := ecs.Get[component.Owner](d.World, cityID)
	pos, okP := ecs.Get[component.Position](d.World, cityID)
	if !okO || !okP {
		return 0
	}

	done := 0
	for len(q.Items) > 0 {
		item := q.Items[0]
		err := d.Ledger.Transact(own.Civ, item.Cost, func() error {
			return produce(d, cityID, *own, pos.Tile, item)
		})
		if errors.Is(err, ledger.ErrInsufficient) {
			break
		}
		q.Items = q.Items[1:]
		if err != nil {
			d.Log.Debug("production item dropped",
				zap.Uint64("city", uint64(cityID)),
				zap.String("item", item.Name),
				zap.Error(err))
			continue
		}
		done++
		d.raise(event.ReasonProduction | event.ReasonResources)
	}
	return done
}

func produce(d *Deps, cityID ecs.EntityID, own component.Owner, at grid.Tile, item component.QueueItem) error {
	switch item.Kind {
	case component.ItemUnit:
		id, err := SpawnUnit(d, own.Player, own.Civ, item.Name, at)
		if err != nil {
			return err
		}
		ecs.Add(d.World, id, &component.NewlyPurchased{})
		d.Record(Outcome{Kind: OutcomeSpawn, Player: own.Player, Target: cityID, Created: id, Item: item.Kind, Name: item.Name, Tile: at})
		return nil
	case component.ItemBuilding:
		id, err := CreateBuilding(d, cityID, item.Name, item.Tile)
		if err != nil {
			return err
		}
		d.Record(Outcome{Kind: OutcomeSpawn, Player: own.Player, Target: cityID, Created: id, Item: item.Kind, Name: item.Name, Tile: item.Tile})
		return nil
	default:
		return fmt.Errorf("%w: queue item kind %s", ErrUnknownType, item.Kind)
	}
}
