package system

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/world"
	"go.uber.org/zap"
)

// MovementSystem plans MoveTo orders and walks the current player's units
// along their stored paths. Phase 2 (Update).
type MovementSystem struct {
	deps *handler.Deps
}

func NewMovementSystem(deps *handler.Deps) *MovementSystem {
	return &MovementSystem{deps: deps}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(_ uint64) {
	d := s.deps
	for {
		cmd, ok := command.PopAs[command.MoveTo](d.Queue)
		if !ok {
			break
		}
		if !d.State.Applies(world.DomainMovement, cmd.Origin) {
			continue
		}
		if err := handler.OrderMove(d, cmd.Unit, cmd.Player, cmd.To); err != nil {
			d.Log.Debug("move dropped",
				zap.Uint64("entity", uint64(cmd.Unit)),
				zap.Stringer("to", cmd.To),
				zap.Error(err))
		}
	}

	if !d.State.Authority.Simulates(world.DomainMovement) {
		return
	}
	// orders carried over from earlier turns
	for _, id := range d.World.View(component.TypePath, component.TypeUnit, component.TypeOwner) {
		own, _ := ecs.Get[component.Owner](d.World, id)
		if own.Player != d.State.CurrentPlayer {
			continue
		}
		handler.AdvanceUnit(d, id)
	}
}
