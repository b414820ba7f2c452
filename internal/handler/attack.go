package handler

import (
	"fmt"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	"github.com/civsim/engine/internal/grid"
	"github.com/civsim/engine/internal/scripting"
	"go.uber.org/zap"
)

// AttackResult reports what one attack did.
type AttackResult struct {
	DefenderDamage   int
	AttackerDamage   int
	DefenderDefeated bool
	AttackerDefeated bool
}

// Attack resolves a melee attack between orthogonally adjacent units of
// different players. Defeated units are marked for destruction at the end
// of the tick. The attacker's movement points are spent.
func Attack(d *Deps, attackerID, defenderID ecs.EntityID, player component.PlayerID) (AttackResult, error) {
	if err := checkTurn(d, player); err != nil {
		return AttackResult{}, err
	}
	au, apos, aown, err := ownedUnit(d, attackerID, player)
	if err != nil {
		return AttackResult{}, err
	}
	w := d.World
	du, ok := ecs.Get[component.Unit](w, defenderID)
	if !ok || w.PendingDestruction(defenderID) {
		return AttackResult{}, fmt.Errorf("%w: %d is not a live unit", ErrInvalidTarget, defenderID)
	}
	dpos, okP := ecs.Get[component.Position](w, defenderID)
	down, okO := ecs.Get[component.Owner](w, defenderID)
	if !okP || !okO || down.Player == aown.Player {
		return AttackResult{}, fmt.Errorf("%w: %d is not an enemy unit", ErrInvalidTarget, defenderID)
	}
	if grid.Manhattan(apos.Tile, dpos.Tile) != 1 {
		return AttackResult{}, fmt.Errorf("%w: %s to %s", ErrNotAdjacent, apos.Tile, dpos.Tile)
	}
	if w.PendingDestruction(attackerID) {
		return AttackResult{}, fmt.Errorf("%w: attacker %d already defeated", ErrInvalidTarget, attackerID)
	}
	if ecs.HasOf[component.NewlyPurchased](w, attackerID) {
		return AttackResult{}, fmt.Errorf("%w: unit %d", ErrNewlyPurchased, attackerID)
	}
	if au.MP <= 0 {
		return AttackResult{}, fmt.Errorf("%w: unit %d", ErrNoMovement, attackerID)
	}

	dmg := d.Scripting.CalcAttack(scripting.CombatContext{
		Attacker: scripting.Combatant{Attack: au.Attack, Defense: au.Defense, Health: au.Health, MaxHealth: au.MaxHealth},
		Defender: scripting.Combatant{Attack: du.Attack, Defense: du.Defense, Health: du.Health, MaxHealth: du.MaxHealth},
	})
	res := ApplyDamage(d, attackerID, defenderID, dmg.AttackerDamage, dmg.DefenderDamage)
	au.MP = 0
	d.Record(Outcome{
		Kind:           OutcomeAttack,
		Player:         player,
		Entity:         attackerID,
		Target:         defenderID,
		AttackerDamage: res.AttackerDamage,
		DefenderDamage: res.DefenderDamage,
	})
	d.Log.Debug("attack resolved",
		zap.Uint64("attacker", uint64(attackerID)),
		zap.Uint64("defender", uint64(defenderID)),
		zap.Int("dealt", res.DefenderDamage),
		zap.Int("taken", res.AttackerDamage))
	return res, nil
}

// ApplyDamage subtracts health from both sides and marks the dead. The
// reconciler replays authoritative attack results through it.
func ApplyDamage(d *Deps, attackerID, defenderID ecs.EntityID, attackerDamage, defenderDamage int) AttackResult {
	w := d.World
	res := AttackResult{DefenderDamage: defenderDamage, AttackerDamage: attackerDamage}
	if du, ok := ecs.Get[component.Unit](w, defenderID); ok {
		du.Health = max(du.Health-defenderDamage, 0)
		if du.Health == 0 {
			res.DefenderDefeated = true
			w.MarkForDestruction(defenderID)
		}
	}
	// a defeated defender does not strike back
	if au, ok := ecs.Get[component.Unit](w, attackerID); ok && !res.DefenderDefeated {
		au.Health = max(au.Health-attackerDamage, 0)
		if au.Health == 0 {
			res.AttackerDefeated = true
			w.MarkForDestruction(attackerID)
		}
	}
	if res.DefenderDefeated {
		res.AttackerDamage = 0
	}
	d.raise(event.ReasonCombat)
	return res
}
