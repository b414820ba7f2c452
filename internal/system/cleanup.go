package system

import (
	"github.com/civsim/engine/internal/core/command"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"go.uber.org/zap"
)

// CleanupSystem retires the tick's TurnBegan commands and flushes the
// deferred destruction queue. Phase 5 (Cleanup).
type CleanupSystem struct {
	deps *handler.Deps
}

func NewCleanupSystem(deps *handler.Deps) *CleanupSystem {
	return &CleanupSystem{deps: deps}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(tick uint64) {
	for {
		if _, ok := command.PopAs[command.TurnBegan](s.deps.Queue); !ok {
			break
		}
	}
	if n := s.deps.World.FlushDestroyQueue(); n > 0 {
		s.deps.Log.Debug("entities destroyed", zap.Uint64("tick", tick), zap.Int("count", n))
	}
}
