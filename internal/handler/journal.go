package handler

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/grid"
)

// OutcomeKind names a change the authority resolved.
type OutcomeKind uint8

const (
	OutcomeMove OutcomeKind = iota + 1
	OutcomeFound
	OutcomeEnqueue
	OutcomeSpawn
	OutcomeEndTurn
	OutcomeAttack
	OutcomeGrow
)

// Outcome is one resolved change, stamped with the turn and the player on
// turn when it happened. Cost is the movement spent by a move or the price
// of a queued item.
type Outcome struct {
	Kind    OutcomeKind
	Turn    uint64
	Current component.PlayerID

	Player  component.PlayerID
	Entity  ecs.EntityID
	Target  ecs.EntityID
	Created ecs.EntityID
	Item    component.ItemKind
	Name    string
	Tile    grid.Tile
	Cost    int
	Size    int

	AttackerDamage int
	DefenderDamage int
}

// Journal collects outcomes in the order they were resolved until the
// host drains them into an update.
type Journal struct {
	entries []Outcome
}

func NewJournal() *Journal { return &Journal{} }

func (j *Journal) Len() int { return len(j.entries) }

// Drain returns everything recorded so far and empties the journal.
func (j *Journal) Drain() []Outcome {
	out := j.entries
	j.entries = nil
	return out
}

// Record appends o to the journal, if there is one.
func (d *Deps) Record(o Outcome) {
	if d.Journal == nil {
		return
	}
	o.Turn = d.State.Turn
	o.Current = d.State.CurrentPlayer
	d.Journal.entries = append(d.Journal.entries, o)
}
