package system

import (
	"github.com/civsim/engine/internal/core/event"
	coresys "github.com/civsim/engine/internal/core/system"
)

// NotifySystem delivers at most one StateChanged per tick.
// Phase 4 (Output), registered last in its phase.
type NotifySystem struct {
	bus *event.Bus
}

func NewNotifySystem(bus *event.Bus) *NotifySystem {
	return &NotifySystem{bus: bus}
}

func (s *NotifySystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *NotifySystem) Update(tick uint64) {
	s.bus.Flush(tick)
}
