package system

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/grid"
)

// ScreenSystem refreshes the isometric ScreenPos cache of entities whose
// tile changed. Phase 4 (Output).
type ScreenSystem struct {
	world *ecs.World
	proj  grid.Projection
}

func NewScreenSystem(world *ecs.World, proj grid.Projection) *ScreenSystem {
	return &ScreenSystem{world: world, proj: proj}
}

func (s *ScreenSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *ScreenSystem) Update(_ uint64) {
	for _, id := range s.world.View(component.TypePosition) {
		pos, _ := ecs.Get[component.Position](s.world, id)
		sp, ok := ecs.Get[component.ScreenPos](s.world, id)
		if ok && sp.From == pos.Tile {
			continue
		}
		x, y := s.proj.ToScreen(pos.Tile)
		ecs.Add(s.world, id, &component.ScreenPos{X: x, Y: y, From: pos.Tile})
	}
}
