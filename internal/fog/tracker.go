package fog

import (
	"sort"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/grid"
)

// Observation is the current visibility-relevant state of one entity.
// Population is zero for units.
type Observation struct {
	Entity     ecs.EntityID
	Player     component.PlayerID
	Pos        grid.Tile
	Population int
}

type tracked struct {
	player     component.PlayerID
	pos        grid.Tile
	population int
	stamp      uint64
}

// Tracker remembers the last observed position/population of every
// contributing entity and reports which players' fog is stale.
type Tracker struct {
	last  map[ecs.EntityID]*tracked
	stamp uint64
}

func NewTracker() *Tracker {
	return &Tracker{last: make(map[ecs.EntityID]*tracked)}
}

// Observe diffs obs against the previous call. A player is dirty when one
// of their entities appeared, moved, changed population or owner, or
// disappeared. The first call reports every observed player.
func (t *Tracker) Observe(obs []Observation) []component.PlayerID {
	t.stamp++
	dirty := make(map[component.PlayerID]struct{})

	for _, o := range obs {
		prev, ok := t.last[o.Entity]
		if !ok {
			t.last[o.Entity] = &tracked{player: o.Player, pos: o.Pos, population: o.Population, stamp: t.stamp}
			dirty[o.Player] = struct{}{}
			continue
		}
		if prev.player != o.Player {
			dirty[prev.player] = struct{}{}
			dirty[o.Player] = struct{}{}
		} else if prev.pos != o.Pos || prev.population != o.Population {
			dirty[o.Player] = struct{}{}
		}
		prev.player, prev.pos, prev.population, prev.stamp = o.Player, o.Pos, o.Population, t.stamp
	}

	for id, e := range t.last {
		if e.stamp != t.stamp {
			dirty[e.player] = struct{}{}
			delete(t.last, id)
		}
	}

	if len(dirty) == 0 {
		return nil
	}
	out := make([]component.PlayerID, 0, len(dirty))
	for p := range dirty {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Tracked returns how many entities are being tracked.
func (t *Tracker) Tracked() int { return len(t.last) }

// Reset forgets everything, so the next Observe reports all players.
func (t *Tracker) Reset() {
	t.last = make(map[ecs.EntityID]*tracked)
}
