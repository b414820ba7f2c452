package system

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"go.uber.org/zap"
)

// BotSystem plays the seats this process controls without input. On the
// first tick of a seat's turn it founds cities with idle settlers and keeps
// every city's queue busy; on the next tick it ends the turn, so the orders
// resolve while the seat still holds the turn. Phase 0 (Input).
type BotSystem struct {
	deps     *handler.Deps
	controls func(component.PlayerID) bool

	acted map[component.PlayerID]uint64
	ended map[component.PlayerID]uint64
}

// NewBotSystem drives every seat for which controls returns true.
func NewBotSystem(deps *handler.Deps, controls func(component.PlayerID) bool) *BotSystem {
	return &BotSystem{
		deps:     deps,
		controls: controls,
		acted:    make(map[component.PlayerID]uint64),
		ended:    make(map[component.PlayerID]uint64),
	}
}

func (s *BotSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *BotSystem) Update(_ uint64) {
	d := s.deps
	p := d.State.CurrentPlayer
	turn := d.State.Turn
	if p == component.NoPlayer || !s.controls(p) || s.ended[p] == turn {
		return
	}
	if s.acted[p] != turn {
		s.act(p)
		s.acted[p] = turn
		return
	}
	d.Queue.Push(command.EndTurn{Meta: command.NewMeta(p, command.OriginLocal)})
	s.ended[p] = turn
}

func (s *BotSystem) act(p component.PlayerID) {
	d := s.deps
	w := d.World
	meta := command.NewMeta(p, command.OriginLocal)
	orders := 0

	for _, id := range w.View(component.TypeUnit, component.TypeOwner) {
		u, _ := ecs.Get[component.Unit](w, id)
		own, _ := ecs.Get[component.Owner](w, id)
		if own.Player != p || !u.FoundsCity || ecs.HasOf[component.NewlyPurchased](w, id) {
			continue
		}
		d.Queue.Push(command.FoundCity{Meta: meta, Unit: id})
		orders++
	}

	for _, id := range w.View(component.TypeCity, component.TypeOwner, component.TypeProductionQueue) {
		own, _ := ecs.Get[component.Owner](w, id)
		q, _ := ecs.Get[component.ProductionQueue](w, id)
		if own.Player != p || len(q.Items) > 0 {
			continue
		}
		if unit := s.defender(); unit != "" {
			d.Queue.Push(command.ProduceUnit{Meta: meta, City: id, UnitType: unit})
			orders++
		}
	}

	d.Log.Debug("bot turn",
		zap.Int("player", int(p)),
		zap.Uint64("turn", d.State.Turn),
		zap.Int("orders", orders))
}

// defender picks the unit with the best defense per cost that cannot found
// cities. File order breaks ties.
func (s *BotSystem) defender() string {
	best, bestScore := "", -1.0
	for _, t := range s.deps.Tables.Units.All() {
		if t.FoundsCity || t.Cost <= 0 {
			continue
		}
		score := float64(t.Defense+t.Attack) / float64(t.Cost)
		if score > bestScore {
			best, bestScore = t.Type, score
		}
	}
	return best
}
