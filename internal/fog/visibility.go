// Package fog computes per-player visibility. A player's visible set is
// always rebuilt from scratch from that player's own sources; the ever-seen
// set accumulates every tile that was ever visible.
package fog

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/grid"
)

// Source is a unit or city that reveals tiles within Sight (Chebyshev).
type Source struct {
	Pos   grid.Tile
	Sight int
}

// Visibility is one player's fog state.
type Visibility struct {
	width, height int
	visible       []bool
	seen          []bool
	count         int
}

func newVisibility(width, height int) *Visibility {
	return &Visibility{
		width:   width,
		height:  height,
		visible: make([]bool, width*height),
		seen:    make([]bool, width*height),
	}
}

// Visible reports whether t is currently visible.
func (v *Visibility) Visible(t grid.Tile) bool {
	if v == nil || !grid.InBounds(t, v.width, v.height) {
		return false
	}
	return v.visible[t.Y*v.width+t.X]
}

// Seen reports whether t was ever visible.
func (v *Visibility) Seen(t grid.Tile) bool {
	if v == nil || !grid.InBounds(t, v.width, v.height) {
		return false
	}
	return v.seen[t.Y*v.width+t.X]
}

// Count is the number of currently visible tiles.
func (v *Visibility) Count() int {
	if v == nil {
		return 0
	}
	return v.count
}

// Tiles lists the currently visible tiles in row-major order.
func (v *Visibility) Tiles() []grid.Tile {
	if v == nil {
		return nil
	}
	out := make([]grid.Tile, 0, v.count)
	for i, ok := range v.visible {
		if ok {
			out = append(out, grid.Tile{X: i % v.width, Y: i / v.width})
		}
	}
	return out
}

func (v *Visibility) rebuild(sources []Source) {
	for i := range v.visible {
		v.visible[i] = false
	}
	v.count = 0
	for _, s := range sources {
		grid.Square(s.Pos, s.Sight, v.width, v.height, func(t grid.Tile) {
			i := t.Y*v.width + t.X
			if !v.visible[i] {
				v.visible[i] = true
				v.seen[i] = true
				v.count++
			}
		})
	}
}

// Compute returns a fresh visibility for sources on a width×height map.
func Compute(width, height int, sources []Source) *Visibility {
	v := newVisibility(width, height)
	v.rebuild(sources)
	return v
}

// Engine holds the fog state of every player on one map.
type Engine struct {
	width, height int
	players       map[component.PlayerID]*Visibility
	recomputes    map[component.PlayerID]int
}

func NewEngine(width, height int) *Engine {
	return &Engine{
		width:      width,
		height:     height,
		players:    make(map[component.PlayerID]*Visibility),
		recomputes: make(map[component.PlayerID]int),
	}
}

// Recompute rebuilds player's visible set from sources, which must all
// belong to that player.
func (e *Engine) Recompute(player component.PlayerID, sources []Source) *Visibility {
	v, ok := e.players[player]
	if !ok {
		v = newVisibility(e.width, e.height)
		e.players[player] = v
	}
	v.rebuild(sources)
	e.recomputes[player]++
	return v
}

// For returns the player's fog state, or nil if never computed.
func (e *Engine) For(player component.PlayerID) *Visibility {
	return e.players[player]
}

// Recomputes returns how many times player's fog has been rebuilt.
func (e *Engine) Recomputes(player component.PlayerID) int {
	return e.recomputes[player]
}
