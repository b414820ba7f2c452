package system

import (
	"github.com/civsim/engine/internal/core/command"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/world"
	"go.uber.org/zap"
)

// FoundCitySystem turns settlers into cities. Phase 2 (Update).
type FoundCitySystem struct {
	deps *handler.Deps
}

func NewFoundCitySystem(deps *handler.Deps) *FoundCitySystem {
	return &FoundCitySystem{deps: deps}
}

func (s *FoundCitySystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *FoundCitySystem) Update(_ uint64) {
	d := s.deps
	for {
		cmd, ok := command.PopAs[command.FoundCity](d.Queue)
		if !ok {
			return
		}
		if !d.State.Applies(world.DomainFounding, cmd.Origin) {
			continue
		}
		if _, err := handler.FoundCity(d, cmd.Unit, cmd.Player, cmd.Name); err != nil {
			d.Log.Debug("found city dropped", zap.Uint64("entity", uint64(cmd.Unit)), zap.Error(err))
		}
	}
}
