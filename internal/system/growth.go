package system

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/world"
	"go.uber.org/zap"
)

// GrowthSystem advances the growth policy for the cities of the player
// whose turn began. Runs after YieldSystem so banked food is current.
// Phase 3 (PostUpdate).
type GrowthSystem struct {
	deps *handler.Deps
}

func NewGrowthSystem(deps *handler.Deps) *GrowthSystem {
	return &GrowthSystem{deps: deps}
}

func (s *GrowthSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *GrowthSystem) Update(_ uint64) {
	d := s.deps
	began, ok := command.PeekAs[command.TurnBegan](d.Queue)
	if !ok || d.Growth == nil || !d.State.Authority.Simulates(world.DomainGrowth) {
		return
	}
	for _, id := range d.World.View(component.TypeCity, component.TypeOwner) {
		own, _ := ecs.Get[component.Owner](d.World, id)
		if own.Player != began.Player {
			continue
		}
		c, _ := ecs.Get[component.City](d.World, id)
		stock, _ := ecs.Get[component.Stockpile](d.World, id)
		if d.Growth.Advance(c, stock) {
			d.Record(handler.Outcome{Kind: handler.OutcomeGrow, Player: own.Player, Entity: id, Size: c.Population})
			d.Bus.Raise(event.ReasonCity)
			d.Log.Info("city grew",
				zap.String("city", c.Name),
				zap.Int("population", c.Population),
				zap.String("policy", d.Growth.Name()))
		}
	}
}
