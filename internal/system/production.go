package system

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/command"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/world"
	"go.uber.org/zap"
)

// ProductionSystem fills city queues from ProduceUnit/BuildBuilding and
// completes queue heads the civilization can pay for. Phase 2 (Update).
type ProductionSystem struct {
	deps      *handler.Deps
	completed int
}

func NewProductionSystem(deps *handler.Deps) *ProductionSystem {
	return &ProductionSystem{deps: deps}
}

func (s *ProductionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// Completed returns the number of items finished so far.
func (s *ProductionSystem) Completed() int { return s.completed }

func (s *ProductionSystem) Update(_ uint64) {
	d := s.deps
	for {
		cmd, ok := d.Queue.Pop(command.OfKind(command.KindProduceUnit, command.KindBuildBuilding))
		if !ok {
			break
		}
		if !d.State.Applies(world.DomainProduction, cmd.Header().Origin) {
			continue
		}
		var err error
		switch c := cmd.(type) {
		case command.ProduceUnit:
			err = handler.EnqueueUnit(d, c.City, c.Player, c.UnitType)
		case command.BuildBuilding:
			err = handler.EnqueueBuilding(d, c.City, c.Player, c.Building, c.Tile)
		}
		if err != nil {
			d.Log.Debug("production order dropped", zap.Stringer("kind", cmd.Kind()), zap.Error(err))
		}
	}

	if !d.State.Authority.Simulates(world.DomainProduction) {
		return
	}
	for _, id := range d.World.View(component.TypeCity, component.TypeProductionQueue) {
		s.completed += handler.CompleteProduction(d, id)
	}
}
