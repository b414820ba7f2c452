package event

import "strings"

// Reason flags what kind of visible state a tick mutated.
type Reason uint32

const (
	ReasonUnitMoved Reason = 1 << iota
	ReasonProduction
	ReasonFog
	ReasonResources
	ReasonCity
	ReasonTurn
	ReasonSelection
	ReasonCombat
	ReasonSync
)

var reasonNames = []string{
	"unit_moved", "production", "fog", "resources", "city", "turn", "selection", "combat", "sync",
}

func (r Reason) Has(o Reason) bool { return r&o != 0 }

func (r Reason) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	for i, name := range reasonNames {
		if r&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// StateChanged is the generic signal the renderer subscribes to. It carries
// no diff; subscribers re-read the World.
type StateChanged struct {
	Tick    uint64
	Reasons Reason
}
