package system

import (
	"github.com/civsim/engine/internal/core/command"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/world"
	"go.uber.org/zap"
)

// CombatSystem resolves Attack commands. Defeated units are destroyed by
// CleanupSystem at the end of the tick. Phase 2 (Update).
type CombatSystem struct {
	deps *handler.Deps
}

func NewCombatSystem(deps *handler.Deps) *CombatSystem {
	return &CombatSystem{deps: deps}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CombatSystem) Update(_ uint64) {
	d := s.deps
	for {
		cmd, ok := command.PopAs[command.Attack](d.Queue)
		if !ok {
			return
		}
		if !d.State.Applies(world.DomainCombat, cmd.Origin) {
			continue
		}
		res, err := handler.Attack(d, cmd.Attacker, cmd.Defender, cmd.Player)
		if err != nil {
			d.Log.Debug("attack dropped",
				zap.Uint64("attacker", uint64(cmd.Attacker)),
				zap.Uint64("defender", uint64(cmd.Defender)),
				zap.Error(err))
			continue
		}
		if res.DefenderDefeated || res.AttackerDefeated {
			d.Log.Info("unit defeated",
				zap.Uint64("attacker", uint64(cmd.Attacker)),
				zap.Uint64("defender", uint64(cmd.Defender)),
				zap.Bool("defender_lost", res.DefenderDefeated),
				zap.Bool("attacker_lost", res.AttackerDefeated))
		}
	}
}
