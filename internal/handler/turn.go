package handler

import (
	"fmt"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	"github.com/civsim/engine/internal/world"
	"go.uber.org/zap"
)

// Select makes entity the local selection. Only selectable entities owned
// by the local player qualify.
func Select(d *Deps, id ecs.EntityID, player component.PlayerID) error {
	if player != d.State.LocalPlayer {
		return fmt.Errorf("%w: selection is local to player %d", ErrNotOwner, d.State.LocalPlayer)
	}
	if id == 0 {
		d.State.Selected = 0
		d.raise(event.ReasonSelection)
		return nil
	}
	if !ecs.HasOf[component.Selectable](d.World, id) {
		return fmt.Errorf("%w: %d is not selectable", ErrInvalidTarget, id)
	}
	own, ok := ecs.Get[component.Owner](d.World, id)
	if !ok || own.Player != player {
		return fmt.Errorf("%w: %d", ErrNotOwner, id)
	}
	d.State.Selected = id
	d.raise(event.ReasonSelection)
	return nil
}

// EndTurn runs the local turn transition for the player on turn:
// Active -> Advancing -> next turn, next player -> Active.
func EndTurn(d *Deps, player component.PlayerID) error {
	if err := checkTurn(d, player); err != nil {
		return err
	}
	next, _ := d.State.NextPlayer()
	d.Record(Outcome{Kind: OutcomeEndTurn, Player: player})
	AdvanceTurn(d, d.State.Turn+1, next)
	return nil
}

// AdvanceTurn moves the simulation to turn with current as the player on
// turn: every unit gets its movement points back, purchase tags are
// cleared and a TurnBegan is queued for the systems that react to it.
// Turns never go backwards; a turn at or below the current one is ignored.
func AdvanceTurn(d *Deps, turn uint64, current component.PlayerID) bool {
	s := d.State
	if turn <= s.Turn {
		return false
	}
	s.Phase = world.TurnAdvancing
	restored := RestoreUnits(d)
	s.Turn = turn
	s.CurrentPlayer = current
	d.Queue.Push(command.TurnBegan{Meta: command.NewMeta(current, command.OriginSystem), Turn: turn})
	s.Phase = world.TurnActive
	d.raise(event.ReasonTurn)
	d.Log.Info("turn began",
		zap.Uint64("turn", turn),
		zap.Int("player", int(current)),
		zap.Int("units_restored", restored))
	return true
}
