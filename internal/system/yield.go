package system

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/grid"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/world"
	"github.com/civsim/engine/internal/yield"
	"go.uber.org/zap"
)

// YieldSystem pays out city yields when a player's turn begins: production
// to the civilization ledger, food and gold to the city stockpile.
// Phase 3 (PostUpdate).
type YieldSystem struct {
	deps *handler.Deps
}

func NewYieldSystem(deps *handler.Deps) *YieldSystem {
	return &YieldSystem{deps: deps}
}

func (s *YieldSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *YieldSystem) Update(_ uint64) {
	d := s.deps
	began, ok := command.PeekAs[command.TurnBegan](d.Queue)
	if !ok || !d.State.Authority.Simulates(world.DomainProduction) {
		return
	}

	sites, owners := s.sites()
	attributed := s.attribute(sites, owners)
	base := grid.Yields{
		Food:       d.Config.City.BaseFood,
		Production: d.Config.City.BaseProduction,
		Gold:       d.Config.City.BaseGold,
	}

	for _, site := range sites {
		own := owners[site.ID]
		if own.Player != began.Player {
			continue
		}
		y := yield.Calculate(site, d.Terrain, base, attributed[site.ID])
		d.Ledger.Add(own.Civ, y.Production)
		if stock, ok := ecs.Get[component.Stockpile](d.World, site.ID); ok {
			stock.Food += y.Food
			stock.Gold += y.Gold
		}
		d.Log.Debug("city yields",
			zap.Uint64("city", uint64(site.ID)),
			zap.Int("food", y.Food),
			zap.Int("production", y.Production),
			zap.Int("gold", y.Gold))
	}
	d.Bus.Raise(event.ReasonResources)
}

func (s *YieldSystem) sites() ([]yield.Site, map[ecs.EntityID]component.Owner) {
	d := s.deps
	ids := d.World.View(component.TypeCity, component.TypePosition, component.TypeOwner)
	sites := make([]yield.Site, 0, len(ids))
	owners := make(map[ecs.EntityID]component.Owner, len(ids))
	for _, id := range ids {
		c, _ := ecs.Get[component.City](d.World, id)
		pos, _ := ecs.Get[component.Position](d.World, id)
		own, _ := ecs.Get[component.Owner](d.World, id)
		sites = append(sites, yield.Site{
			ID:         id,
			Pos:        pos.Tile,
			Population: c.Population,
			Radius:     handler.CityRadius(d, c.Population),
		})
		owners[id] = *own
	}
	return sites, owners
}

// attribute hands each building to the nearest containing city of the same
// player.
func (s *YieldSystem) attribute(sites []yield.Site, owners map[ecs.EntityID]component.Owner) map[ecs.EntityID][]grid.Yields {
	d := s.deps
	byPlayer := make(map[component.PlayerID][]yield.Placed)
	for _, id := range d.World.View(component.TypeBuilding, component.TypePosition, component.TypeOwner) {
		b, _ := ecs.Get[component.Building](d.World, id)
		pos, _ := ecs.Get[component.Position](d.World, id)
		own, _ := ecs.Get[component.Owner](d.World, id)
		byPlayer[own.Player] = append(byPlayer[own.Player], yield.Placed{ID: id, Pos: pos.Tile, Yields: b.Yields})
	}

	out := make(map[ecs.EntityID][]grid.Yields)
	for player, placed := range byPlayer {
		var mine []yield.Site
		for _, site := range sites {
			if owners[site.ID].Player == player {
				mine = append(mine, site)
			}
		}
		for id, ys := range yield.AttributeBuildings(mine, placed) {
			out[id] = append(out[id], ys...)
		}
	}
	return out
}
