package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }
func (r recorder) Update(uint64) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"cleanup", PhaseCleanup, &log})
	r.Register(recorder{"move", PhaseUpdate, &log})
	r.Register(recorder{"net", PhaseInput, &log})
	r.Register(recorder{"found", PhaseUpdate, &log})
	r.Register(recorder{"produce", PhaseUpdate, &log})

	assert.Equal(t, uint64(1), r.Tick())
	assert.Equal(t, []string{"net", "move", "found", "produce", "cleanup"}, log)

	log = log[:0]
	r.TickPhase(PhaseInput)
	assert.Equal(t, []string{"net"}, log)
	assert.Equal(t, uint64(1), r.CurrentTick())
}
