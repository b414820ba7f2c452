package system

import (
	"github.com/civsim/engine/internal/core/command"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/world"
	"go.uber.org/zap"
)

// TurnSystem runs the local turn transition on EndTurn. Under a remote
// authority the transition arrives through the reconciler instead and
// stray local EndTurns are dropped. Phase 2 (Update).
type TurnSystem struct {
	deps *handler.Deps
}

func NewTurnSystem(deps *handler.Deps) *TurnSystem {
	return &TurnSystem{deps: deps}
}

func (s *TurnSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *TurnSystem) Update(_ uint64) {
	d := s.deps
	for {
		cmd, ok := command.PopAs[command.EndTurn](d.Queue)
		if !ok {
			return
		}
		if !d.State.Applies(world.DomainTurn, cmd.Origin) {
			d.Log.Debug("end turn ignored, remote authority", zap.Int("player", int(cmd.Player)))
			continue
		}
		if err := handler.EndTurn(d, cmd.Player); err != nil {
			d.Log.Debug("end turn dropped", zap.Int("player", int(cmd.Player)), zap.Error(err))
		}
	}
}
