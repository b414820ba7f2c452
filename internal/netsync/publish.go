package netsync

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/ledger"
)

// Updates turns drained journal outcomes into update messages for peers.
// Outcomes of different turns go into separate updates so a client
// advances its turn exactly where the authority did. The last update
// always describes the current turn and carries the stockpiles and the
// digest. Seq is left to the sender.
func Updates(d *handler.Deps, outcomes []handler.Outcome) []*Update {
	var out []*Update
	var cur *Update
	for _, o := range outcomes {
		if cur == nil || cur.Turn != o.Turn {
			cur = &Update{Turn: o.Turn, CurrentPlayer: int(o.Current)}
			out = append(out, cur)
		}
		cur.Actions = append(cur.Actions, ActionOf(o))
	}

	s := d.State
	if cur == nil || cur.Turn != s.Turn {
		cur = &Update{Turn: s.Turn}
		out = append(out, cur)
	}
	cur.CurrentPlayer = int(s.CurrentPlayer)
	cur.Stockpiles = stockpiles(d.Ledger)
	cur.Digest = Digest(d.World, d.Ledger, IdentityIDs)
	return out
}

// ActionOf is the wire form of a resolved outcome. Entity ids are the
// authority's own.
func ActionOf(o handler.Outcome) Action {
	a := Action{
		Player:  int(o.Player),
		Entity:  uint64(o.Entity),
		Target:  uint64(o.Target),
		Created: uint64(o.Created),
		Name:    o.Name,
	}
	switch o.Kind {
	case handler.OutcomeMove:
		a.Type = ActMoveTo
		a.X, a.Y = o.Tile.X, o.Tile.Y
		a.Cost = &o.Cost
	case handler.OutcomeFound:
		a.Type = ActFoundCity
	case handler.OutcomeEnqueue:
		a.Type = ActProduceUnit
		if o.Item == component.ItemBuilding {
			a.Type = ActBuildBuilding
			a.X, a.Y = o.Tile.X, o.Tile.Y
		}
		a.Cost = &o.Cost
	case handler.OutcomeSpawn:
		a.Type = ActSpawnUnit
		if o.Item == component.ItemBuilding {
			a.Type = ActSpawnBuilding
		}
		a.X, a.Y = o.Tile.X, o.Tile.Y
	case handler.OutcomeEndTurn:
		a.Type = ActEndTurn
	case handler.OutcomeAttack:
		a.Type = ActAttack
		a.Result = &AttackResult{AttackerDamage: o.AttackerDamage, DefenderDamage: o.DefenderDamage}
	case handler.OutcomeGrow:
		a.Type = ActGrow
		a.Size = o.Size
	}
	return a
}

func stockpiles(l *ledger.Ledger) map[string]int {
	out := make(map[string]int)
	for _, civ := range l.Civs() {
		out[string(civ)] = l.Get(civ)
	}
	return out
}
