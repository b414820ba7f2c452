package system

import (
	"github.com/civsim/engine/internal/core/command"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"go.uber.org/zap"
)

// SelectionSystem applies Select commands. Selection is UI state and is
// never forwarded. Phase 1 (PreUpdate).
type SelectionSystem struct {
	deps *handler.Deps
}

func NewSelectionSystem(deps *handler.Deps) *SelectionSystem {
	return &SelectionSystem{deps: deps}
}

func (s *SelectionSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *SelectionSystem) Update(_ uint64) {
	for {
		cmd, ok := command.PopAs[command.Select](s.deps.Queue)
		if !ok {
			return
		}
		if err := handler.Select(s.deps, cmd.Entity, cmd.Player); err != nil {
			s.deps.Log.Debug("select dropped", zap.Uint64("entity", uint64(cmd.Entity)), zap.Error(err))
		}
	}
}
