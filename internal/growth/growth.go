// Package growth decides when a city gains population.
//
// Two models exist and exactly one is active per game:
//
//   - backoff: a city grows after a number of turns that doubles with each
//     level (2, 4, 8 ... turns). Food is not consumed.
//   - threshold: a city banks its stored food and grows when the bank reaches
//     a threshold that rises linearly with population.
package growth

import (
	"fmt"

	"github.com/civsim/engine/internal/component"
)

const (
	NameBackoff   = "backoff"
	NameThreshold = "threshold"
)

// Policy advances city growth once per turn.
type Policy interface {
	Name() string
	// Init sets GrowthProgress/GrowthTarget for a newly founded city.
	Init(c *component.City)
	// Advance runs one turn of growth and reports whether population grew.
	Advance(c *component.City, stock *component.Stockpile) bool
}

// Options carries the tunables of both policies.
type Options struct {
	BackoffBase    int
	MaxPopulation  int
	ThresholdBase  int
	ThresholdSteps int
}

// New returns the policy named name.
func New(name string, opts Options) (Policy, error) {
	switch name {
	case "", NameBackoff:
		return &Backoff{Base: opts.BackoffBase, MaxPopulation: opts.MaxPopulation}, nil
	case NameThreshold:
		return &Threshold{Base: opts.ThresholdBase, Step: opts.ThresholdSteps, MaxPopulation: opts.MaxPopulation}, nil
	default:
		return nil, fmt.Errorf("unknown growth policy %q", name)
	}
}

// Backoff grows a city every Base<<(population-1) turns.
type Backoff struct {
	Base          int
	MaxPopulation int
}

func (b *Backoff) Name() string { return NameBackoff }

func (b *Backoff) Init(c *component.City) {
	c.GrowthProgress = 0
	c.GrowthTarget = b.turnsFor(c.Population)
}

func (b *Backoff) Advance(c *component.City, _ *component.Stockpile) bool {
	if capped(c, b.MaxPopulation) {
		return false
	}
	if c.GrowthTarget <= 0 {
		c.GrowthTarget = b.turnsFor(c.Population)
	}
	c.GrowthProgress++
	if c.GrowthProgress < c.GrowthTarget {
		return false
	}
	c.Population++
	c.GrowthProgress = 0
	c.GrowthTarget = b.turnsFor(c.Population)
	return true
}

func (b *Backoff) turnsFor(pop int) int {
	base := b.Base
	if base <= 0 {
		base = 2
	}
	if pop < 1 {
		pop = 1
	}
	// clamp the shift
	if pop > 30 {
		pop = 30
	}
	return base << (pop - 1)
}

// Threshold moves all stored food into GrowthProgress and grows when it
// reaches Base + Step*(population-1). Surplus carries over.
type Threshold struct {
	Base          int
	Step          int
	MaxPopulation int
}

func (t *Threshold) Name() string { return NameThreshold }

func (t *Threshold) Init(c *component.City) {
	c.GrowthProgress = 0
	c.GrowthTarget = t.foodFor(c.Population)
}

func (t *Threshold) Advance(c *component.City, stock *component.Stockpile) bool {
	if capped(c, t.MaxPopulation) {
		return false
	}
	if stock != nil && stock.Food > 0 {
		c.GrowthProgress += stock.Food
		stock.Food = 0
	}
	if c.GrowthTarget <= 0 {
		c.GrowthTarget = t.foodFor(c.Population)
	}
	if c.GrowthProgress < c.GrowthTarget {
		return false
	}
	c.GrowthProgress -= c.GrowthTarget
	c.Population++
	c.GrowthTarget = t.foodFor(c.Population)
	return true
}

func (t *Threshold) foodFor(pop int) int {
	base, step := t.Base, t.Step
	if base <= 0 {
		base = 10
	}
	if step < 0 {
		step = 0
	}
	if pop < 1 {
		pop = 1
	}
	return base + step*(pop-1)
}

func capped(c *component.City, maxPop int) bool {
	return maxPop > 0 && c.Population >= maxPop
}
