// Package mapgen builds terrain maps from layered simplex noise for demos
// and tests that do not ship a hand-made map.
package mapgen

import (
	"fmt"
	"math"

	"github.com/civsim/engine/internal/data"
	"github.com/civsim/engine/internal/grid"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Config holds generation parameters.
type Config struct {
	Width       int
	Height      int
	Seed        int64
	SeaLevel    float64 // elevation below this is ocean (0.0–1.0)
	HillLevel   float64
	MountainLvl float64
}

func DefaultConfig() Config {
	return Config{
		Width:       40,
		Height:      24,
		Seed:        1,
		SeaLevel:    0.30,
		HillLevel:   0.62,
		MountainLvl: 0.74,
	}
}

// terrain names the generator emits; each must exist in the terrain table.
var required = []string{"ocean", "mountains", "hills", "forest", "desert", "grassland", "plains"}

// Generate creates a Width×Height map. The same Config always yields the
// same map.
func Generate(cfg Config, terrain *data.TerrainTable) (*grid.Map, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("mapgen: bad size %dx%d", cfg.Width, cfg.Height)
	}
	infos := make(map[string]grid.TerrainInfo, len(required))
	for _, name := range required {
		tt := terrain.Get(name)
		if tt == nil {
			return nil, fmt.Errorf("mapgen: terrain table lacks %q", name)
		}
		infos[name] = tt.Info()
	}

	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rainNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	m := grid.NewMap(cfg.Width, cfg.Height, infos["ocean"])
	cx, cy := float64(cfg.Width-1)/2, float64(cfg.Height-1)/2
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx, fy := float64(x), float64(y)
			elev := octaveNoise(elevNoise, fx, fy, 4, 0.09, 0.5)
			rain := octaveNoise(rainNoise, fx, fy, 3, 0.07, 0.5)

			// push the border into the sea
			dx, dy := (fx-cx)/(cx+1), (fy-cy)/(cy+1)
			falloff := 1.0 - math.Pow(math.Max(math.Abs(dx), math.Abs(dy)), 4)
			if falloff < 0 {
				falloff = 0
			}
			elev *= falloff

			m.Set(grid.Tile{X: x, Y: y}, infos[derive(elev, rain, cfg)])
		}
	}
	return m, nil
}

func derive(elev, rain float64, cfg Config) string {
	switch {
	case elev < cfg.SeaLevel:
		return "ocean"
	case elev > cfg.MountainLvl:
		return "mountains"
	case elev > cfg.HillLevel:
		return "hills"
	case rain > 0.55:
		return "forest"
	case rain < 0.3:
		return "desert"
	case rain > 0.45:
		return "grassland"
	default:
		return "plains"
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

// StartTiles picks n enterable tiles spread as far apart as possible.
// Greedy farthest-point selection in row-major scan order; deterministic.
func StartTiles(terrain grid.Terrain, n int) []grid.Tile {
	var land []grid.Tile
	for y := 0; y < terrain.Height(); y++ {
		for x := 0; x < terrain.Width(); x++ {
			t := grid.Tile{X: x, Y: y}
			if info, ok := terrain.At(t); ok && info.Enterable() {
				land = append(land, t)
			}
		}
	}
	if n <= 0 || len(land) == 0 {
		return nil
	}

	out := []grid.Tile{land[len(land)/2]}
	for len(out) < n && len(out) < len(land) {
		best, bestDist := -1, -1
		for i, t := range land {
			d := math.MaxInt
			for _, s := range out {
				d = min(d, grid.Manhattan(t, s))
			}
			if d > bestDist {
				best, bestDist = i, d
			}
		}
		if bestDist <= 0 {
			break
		}
		out = append(out, land[best])
	}
	return out
}
