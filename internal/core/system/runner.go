package system

import "sort"

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order.
type Runner struct {
	systems []System
	sorted  bool
	tick    uint64
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick advances the tick counter and runs every system once.
func (r *Runner) Tick() uint64 {
	r.ensureSorted()
	r.tick++
	for _, s := range r.systems {
		s.Update(r.tick)
	}
	return r.tick
}

// TickPhase runs only the systems of one phase against the current tick,
// without advancing the counter. Used to drain network input while the
// simulation is paused (lobby, resync).
func (r *Runner) TickPhase(phase Phase) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(r.tick)
		}
	}
}

// CurrentTick returns the number of completed ticks.
func (r *Runner) CurrentTick() uint64 { return r.tick }

// Systems returns the execution order.
func (r *Runner) Systems() []System {
	r.ensureSorted()
	out := make([]System, len(r.systems))
	copy(out, r.systems)
	return out
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
