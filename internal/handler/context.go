package handler

import (
	"errors"

	"github.com/civsim/engine/internal/config"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	"github.com/civsim/engine/internal/data"
	"github.com/civsim/engine/internal/grid"
	"github.com/civsim/engine/internal/growth"
	"github.com/civsim/engine/internal/ledger"
	"github.com/civsim/engine/internal/scripting"
	"github.com/civsim/engine/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into every command handler. The
// same handlers serve the pipeline systems (local commands) and the network
// reconciler (authoritative replays).
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	World     *ecs.World
	State     *world.State
	Queue     *command.Queue
	Bus       *event.Bus
	Terrain   grid.Terrain
	Ledger    *ledger.Ledger
	Tables    *data.Tables
	Scripting *scripting.Engine
	Growth    growth.Policy

	// Journal, when set, records resolved outcomes for remote peers.
	Journal *Journal
}

// Invalid-command taxonomy. Systems log these at Debug and drop the command.
var (
	ErrInvalidTarget  = errors.New("invalid command target")
	ErrNotOwner       = errors.New("entity not owned by player")
	ErrNotYourTurn    = errors.New("not the player's turn")
	ErrNewlyPurchased = errors.New("unit was purchased this turn")
	ErrNoPath         = errors.New("no path")
	ErrNotSettler     = errors.New("unit cannot found cities")
	ErrTileTaken      = errors.New("tile already has a city or building")
	ErrInvalidTile    = errors.New("invalid tile")
	ErrUnknownType    = errors.New("unknown unit or building type")
	ErrNotAdjacent    = errors.New("target not adjacent")
	ErrNoMovement     = errors.New("no movement points left")
)

func (d *Deps) raise(r event.Reason) {
	if d.Bus != nil {
		d.Bus.Raise(r)
	}
}
