// Package yield computes what a city produces each turn.
package yield

import (
	"sort"

	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/grid"
)

// Site is a city as seen by the yield calculation.
type Site struct {
	ID         ecs.EntityID
	Pos        grid.Tile
	Population int
	Radius     int
}

// Placed is a building on the map.
type Placed struct {
	ID     ecs.EntityID
	Pos    grid.Tile
	Yields grid.Yields
}

type candidate struct {
	tile   grid.Tile
	yields grid.Yields
}

// WorkedTiles returns the tiles a city works: the top population tiles
// within its radius by total yield. Ties keep row-major order.
func WorkedTiles(site Site, terrain grid.Terrain) []grid.Tile {
	cands := candidates(site, terrain)
	out := make([]grid.Tile, len(cands))
	for i, c := range cands {
		out[i] = c.tile
	}
	return out
}

func candidates(site Site, terrain grid.Terrain) []candidate {
	var cands []candidate
	grid.Square(site.Pos, site.Radius, terrain.Width(), terrain.Height(), func(t grid.Tile) {
		info, ok := terrain.At(t)
		if !ok || !info.HasYields {
			return
		}
		cands = append(cands, candidate{tile: t, yields: info.Yields})
	})
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].yields.Total() > cands[j].yields.Total()
	})
	n := site.Population
	if n < 0 {
		n = 0
	}
	if n < len(cands) {
		cands = cands[:n]
	}
	return cands
}

// Calculate sums the worked tiles, the base city yields and the yields of
// buildings attributed to the city. Greedy, not optimal.
func Calculate(site Site, terrain grid.Terrain, base grid.Yields, buildings []grid.Yields) grid.Yields {
	var total grid.Yields
	for _, c := range candidates(site, terrain) {
		total = total.Add(c.yields)
	}
	total = total.Add(base)
	for _, b := range buildings {
		total = total.Add(b)
	}
	return total
}

// AttributeBuildings assigns each building to the nearest city whose radius
// contains it; equal distance goes to the lower city id. Buildings outside
// every radius are left out.
func AttributeBuildings(sites []Site, buildings []Placed) map[ecs.EntityID][]grid.Yields {
	out := make(map[ecs.EntityID][]grid.Yields, len(sites))
	for _, b := range buildings {
		best := -1
		bestDist := 0
		for i, s := range sites {
			d := grid.Chebyshev(s.Pos, b.Pos)
			if d > s.Radius {
				continue
			}
			if best < 0 || d < bestDist || (d == bestDist && s.ID < sites[best].ID) {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			continue
		}
		id := sites[best].ID
		out[id] = append(out[id], b.Yields)
	}
	return out
}
