// Package ledger holds the per-civilization production stockpile.
//
// Spending is all-or-nothing. Callers that spend and then perform a
// side-effecting creation step use Transact (or Spend followed by Refund on
// failure) so that a failed creation returns exactly what was taken:
//
//	reserve (Spend) -> attempt effect -> refund on failure
//
// The ledger is owned by the simulation goroutine; it is not safe for
// concurrent use.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/civsim/engine/internal/component"
)

var (
	ErrInsufficient  = errors.New("insufficient production")
	ErrInvalidAmount = errors.New("invalid production amount")
)

type Ledger struct {
	stock map[component.CivID]int
}

func New() *Ledger {
	return &Ledger{stock: make(map[component.CivID]int)}
}

// Get returns the stockpile of civ (0 if unknown).
func (l *Ledger) Get(civ component.CivID) int {
	return l.stock[civ]
}

// Add credits amount to civ. Negative amounts are ignored.
func (l *Ledger) Add(civ component.CivID, amount int) {
	if amount <= 0 {
		return
	}
	l.stock[civ] += amount
}

// Spend deducts amount if the stockpile covers it; otherwise nothing changes.
func (l *Ledger) Spend(civ component.CivID, amount int) bool {
	if amount < 0 {
		return false
	}
	if l.stock[civ] < amount {
		return false
	}
	l.stock[civ] -= amount
	return true
}

// Refund returns a previously spent amount.
func (l *Ledger) Refund(civ component.CivID, amount int) {
	l.Add(civ, amount)
}

// Transact spends amount, runs effect, and refunds the exact amount if effect
// fails. Returns ErrInsufficient without running effect when the stockpile is
// short.
func (l *Ledger) Transact(civ component.CivID, amount int, effect func() error) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	if !l.Spend(civ, amount) {
		return fmt.Errorf("%w: civ %s has %d, needs %d", ErrInsufficient, civ, l.Get(civ), amount)
	}
	if err := effect(); err != nil {
		l.Refund(civ, amount)
		return err
	}
	return nil
}

// Set overwrites a stockpile with an authoritative value. Negative values
// are clamped to zero.
func (l *Ledger) Set(civ component.CivID, amount int) {
	if amount < 0 {
		amount = 0
	}
	l.stock[civ] = amount
}

// Civs lists every civilization with an entry, sorted.
func (l *Ledger) Civs() []component.CivID {
	out := make([]component.CivID, 0, len(l.stock))
	for c := range l.stock {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
