package system

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/fog"
	"github.com/civsim/engine/internal/handler"
	"go.uber.org/zap"
)

// FogSystem keeps every player's fog current. Each tick it compares the
// sight sources with the last tick and rebuilds only the players whose
// sources changed; a new turn rebuilds everyone. Phase 3 (PostUpdate).
type FogSystem struct {
	deps    *handler.Deps
	engine  *fog.Engine
	tracker *fog.Tracker

	obs   []fog.Observation
	sight []int
}

func NewFogSystem(deps *handler.Deps) *FogSystem {
	return &FogSystem{
		deps:    deps,
		engine:  fog.NewEngine(deps.Terrain.Width(), deps.Terrain.Height()),
		tracker: fog.NewTracker(),
	}
}

func (s *FogSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

// Engine exposes the per-player fog state to readers.
func (s *FogSystem) Engine() *fog.Engine { return s.engine }

func (s *FogSystem) Update(tick uint64) {
	s.collect()
	dirty := s.tracker.Observe(s.obs)
	if _, ok := command.PeekAs[command.TurnBegan](s.deps.Queue); ok {
		dirty = s.allPlayers(dirty)
	}
	if len(dirty) == 0 {
		return
	}
	for _, p := range dirty {
		var sources []fog.Source
		for i, o := range s.obs {
			if o.Player == p {
				sources = append(sources, fog.Source{Pos: o.Pos, Sight: s.sight[i]})
			}
		}
		v := s.engine.Recompute(p, sources)
		s.deps.Log.Debug("fog recomputed",
			zap.Uint64("tick", tick),
			zap.Int("player", int(p)),
			zap.Int("visible", v.Count()))
	}
	s.deps.Bus.Raise(event.ReasonFog)
}

// collect gathers the sight sources: units, cities, and buildings with sight.
func (s *FogSystem) collect() {
	d := s.deps
	w := d.World
	s.obs, s.sight = s.obs[:0], s.sight[:0]
	add := func(id ecs.EntityID, pop, sight int) {
		pos, _ := ecs.Get[component.Position](w, id)
		own, _ := ecs.Get[component.Owner](w, id)
		s.obs = append(s.obs, fog.Observation{Entity: id, Player: own.Player, Pos: pos.Tile, Population: pop})
		s.sight = append(s.sight, sight)
	}
	for _, id := range w.View(component.TypeUnit, component.TypePosition, component.TypeOwner) {
		u, _ := ecs.Get[component.Unit](w, id)
		add(id, 0, u.Sight)
	}
	for _, id := range w.View(component.TypeCity, component.TypePosition, component.TypeOwner) {
		c, _ := ecs.Get[component.City](w, id)
		add(id, c.Population, handler.CityRadius(d, c.Population))
	}
	for _, id := range w.View(component.TypeBuilding, component.TypePosition, component.TypeOwner) {
		if b, _ := ecs.Get[component.Building](w, id); b.Sight > 0 {
			add(id, 0, b.Sight)
		}
	}
}

func (s *FogSystem) allPlayers(dirty []component.PlayerID) []component.PlayerID {
	out := make([]component.PlayerID, 0, len(s.deps.State.Players()))
	seen := make(map[component.PlayerID]bool)
	for _, p := range s.deps.State.Players() {
		out = append(out, p.ID)
		seen[p.ID] = true
	}
	for _, p := range dirty {
		if !seen[p] {
			out = append(out, p)
		}
	}
	return out
}
