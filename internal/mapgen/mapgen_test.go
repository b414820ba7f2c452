package mapgen

import (
	"testing"

	"github.com/civsim/engine/internal/data"
	"github.com/civsim/engine/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTerrain(t *testing.T) *data.TerrainTable {
	t.Helper()
	var types []data.TerrainType
	for i, name := range required {
		tt := data.TerrainType{Code: i, Name: name, MoveCost: 1, Passable: true}
		if name == "ocean" || name == "mountains" {
			tt.Passable = false
			tt.MoveCost = 0
		}
		types = append(types, tt)
	}
	table, err := data.NewTerrainTable(types)
	require.NoError(t, err)
	return table
}

func TestGenerateIsDeterministic(t *testing.T) {
	terrain := testTerrain(t)
	cfg := DefaultConfig()

	a, err := Generate(cfg, terrain)
	require.NoError(t, err)
	b, err := Generate(cfg, terrain)
	require.NoError(t, err)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			ta, _ := a.At(grid.Tile{X: x, Y: y})
			tb, _ := b.At(grid.Tile{X: x, Y: y})
			require.Equal(t, ta, tb)
		}
	}

	corner, _ := a.At(grid.Tile{X: 0, Y: 0})
	assert.Equal(t, "ocean", corner.Name)
}

func TestGenerateNeedsTerrain(t *testing.T) {
	table, err := data.NewTerrainTable([]data.TerrainType{{Code: 0, Name: "plains", MoveCost: 1, Passable: true}})
	require.NoError(t, err)
	_, err = Generate(DefaultConfig(), table)
	assert.Error(t, err)
}

func TestStartTilesSpreadOut(t *testing.T) {
	m := grid.Uniform(10, 10)
	tiles := StartTiles(m, 2)
	require.Len(t, tiles, 2)
	assert.GreaterOrEqual(t, grid.Manhattan(tiles[0], tiles[1]), 9)

	water := grid.NewMap(3, 3, grid.TerrainInfo{Name: "ocean", Water: true})
	assert.Nil(t, StartTiles(water, 2))
}
