package netsync

import (
	"encoding/json"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/handler"
)

// Snapshot builds the full state of an authoritative World. Local entity
// ids serve as the remote ids.
func Snapshot(d *handler.Deps, seq uint64) *FullState {
	w := d.World
	fs := &FullState{
		Seq:           seq,
		Turn:          d.State.Turn,
		CurrentPlayer: int(d.State.CurrentPlayer),
		Stockpiles:    stockpiles(d.Ledger),
	}
	for _, id := range w.View(component.TypePosition, component.TypeOwner) {
		if w.PendingDestruction(id) {
			continue
		}
		pos, _ := ecs.Get[component.Position](w, id)
		own, _ := ecs.Get[component.Owner](w, id)
		es := EntityState{
			ID:     uint64(id),
			Player: int(own.Player),
			Civ:    string(own.Civ),
			X:      pos.X,
			Y:      pos.Y,
		}
		var data any
		switch {
		case ecs.HasOf[component.Unit](w, id):
			u, _ := ecs.Get[component.Unit](w, id)
			es.Kind, es.Type = KindUnit, u.Type
			data = UnitData{
				MP:             u.MP,
				MaxMP:          u.MaxMP,
				Health:         u.Health,
				NewlyPurchased: ecs.HasOf[component.NewlyPurchased](w, id),
			}
		case ecs.HasOf[component.City](w, id):
			data = cityData(w, id)
			es.Kind = KindCity
		case ecs.HasOf[component.Building](w, id):
			b, _ := ecs.Get[component.Building](w, id)
			es.Kind, es.Type = KindBuilding, b.Name
			data = BuildingData{Builder: uint64(b.Builder)}
		default:
			continue
		}
		raw, err := json.Marshal(data)
		if err != nil {
			continue
		}
		es.Data = raw
		fs.Entities = append(fs.Entities, es)
	}
	return fs
}

func cityData(w *ecs.World, id ecs.EntityID) CityData {
	c, _ := ecs.Get[component.City](w, id)
	cd := CityData{
		Name:           c.Name,
		Population:     c.Population,
		GrowthProgress: c.GrowthProgress,
		GrowthTarget:   c.GrowthTarget,
	}
	if s, ok := ecs.Get[component.Stockpile](w, id); ok {
		cd.Food, cd.Gold = s.Food, s.Gold
	}
	if q, ok := ecs.Get[component.ProductionQueue](w, id); ok {
		for _, it := range q.Items {
			qi := QueueItemData{Kind: it.Kind.String(), Name: it.Name, Cost: it.Cost}
			if it.Kind == component.ItemBuilding {
				qi.X, qi.Y = it.Tile.X, it.Tile.Y
			}
			cd.Queue = append(cd.Queue, qi)
		}
	}
	return cd
}
