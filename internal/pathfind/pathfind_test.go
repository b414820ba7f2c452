package pathfind

import (
	"testing"

	"github.com/civsim/engine/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hills = grid.TerrainInfo{Name: "hills", MoveCost: 3, Passable: true}

func TestFindPathUniformCostIsManhattan(t *testing.T) {
	m := grid.NewMap(12, 9, grid.Plains)
	cases := []struct{ a, b grid.Tile }{
		{grid.Tile{X: 0, Y: 0}, grid.Tile{X: 11, Y: 8}},
		{grid.Tile{X: 5, Y: 5}, grid.Tile{X: 1, Y: 2}},
		{grid.Tile{X: 3, Y: 0}, grid.Tile{X: 3, Y: 8}},
		{grid.Tile{X: 7, Y: 7}, grid.Tile{X: 7, Y: 7}},
	}
	for _, tc := range cases {
		path, ok := FindPath(tc.a, tc.b, m)
		require.True(t, ok)
		assert.Equal(t, grid.Manhattan(tc.a, tc.b), len(path)-1, "%v -> %v", tc.a, tc.b)
		assert.Equal(t, tc.a, path[0])
		assert.Equal(t, tc.b, path[len(path)-1])
		for i := 1; i < len(path); i++ {
			assert.Equal(t, 1, grid.Manhattan(path[i-1], path[i]))
		}
	}
}

func TestFindPathBlockedRowHasNoPath(t *testing.T) {
	m := grid.NewMap(8, 8, grid.Plains)
	for x := 0; x < 8; x++ {
		m.Set(grid.Tile{X: x, Y: 4}, grid.Blocked)
	}
	_, ok := FindPath(grid.Tile{X: 1, Y: 1}, grid.Tile{X: 6, Y: 6}, m)
	assert.False(t, ok)

	// open a gap and the path must go through it
	m.Set(grid.Tile{X: 7, Y: 4}, grid.Plains)
	path, ok := FindPath(grid.Tile{X: 1, Y: 1}, grid.Tile{X: 6, Y: 6}, m)
	require.True(t, ok)
	assert.Contains(t, path, grid.Tile{X: 7, Y: 4})
}

func TestFindPathOutOfBoundsAndBlockedGoal(t *testing.T) {
	m := grid.NewMap(4, 4, grid.Plains)
	m.Set(grid.Tile{X: 3, Y: 3}, grid.Blocked)

	_, ok := FindPath(grid.Tile{X: 0, Y: 0}, grid.Tile{X: 9, Y: 0}, m)
	assert.False(t, ok)
	_, ok = FindPath(grid.Tile{X: 0, Y: 0}, grid.Tile{X: 3, Y: 3}, m)
	assert.False(t, ok)
}

func TestFindPathAvoidsExpensiveTerrain(t *testing.T) {
	m := grid.NewMap(5, 3, grid.Plains)
	// hills across the direct line; a detour through row 2 is cheaper
	for x := 1; x <= 3; x++ {
		m.Set(grid.Tile{X: x, Y: 0}, hills)
		m.Set(grid.Tile{X: x, Y: 1}, hills)
	}
	path, ok := FindPath(grid.Tile{X: 0, Y: 0}, grid.Tile{X: 4, Y: 0}, m)
	require.True(t, ok)
	assert.Equal(t, 8, PathCost(path, m))
	assert.Contains(t, path, grid.Tile{X: 2, Y: 2})
}

func TestFindPathDeterministic(t *testing.T) {
	m := grid.NewMap(10, 10, grid.Plains)
	first, _ := FindPath(grid.Tile{X: 0, Y: 0}, grid.Tile{X: 9, Y: 9}, m)
	for i := 0; i < 10; i++ {
		again, _ := FindPath(grid.Tile{X: 0, Y: 0}, grid.Tile{X: 9, Y: 9}, m)
		assert.Equal(t, first, again)
	}
}

func TestMovementBudgetConservation(t *testing.T) {
	m := grid.NewMap(10, 3, grid.Plains)
	m.Set(grid.Tile{X: 2, Y: 0}, hills)
	m.Set(grid.Tile{X: 5, Y: 0}, hills)

	var path []grid.Tile
	for x := 0; x < 10; x++ {
		path = append(path, grid.Tile{X: x, Y: 0})
	}

	for mp := 0; mp <= 20; mp++ {
		b := MovementBudget(path, mp, m)

		spent := 0
		for _, tl := range b.Consumed {
			c, _ := StepCost(m, tl)
			spent += c
		}
		assert.LessOrEqual(t, spent, mp)
		assert.Equal(t, mp-spent, b.RemainingMP)
		assert.GreaterOrEqual(t, b.RemainingMP, 0)

		if b.Steps() == 0 {
			assert.Equal(t, path, b.Remaining)
			continue
		}
		rebuilt := append(append([]grid.Tile{}, b.Consumed...), b.Remaining...)
		assert.Equal(t, path[1:], rebuilt, "mp=%d", mp)
	}
}

func TestMovementBudgetStopsAtFirstUnaffordableStep(t *testing.T) {
	m := grid.NewMap(5, 1, grid.Plains)
	m.Set(grid.Tile{X: 2, Y: 0}, hills)
	path := []grid.Tile{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}

	b := MovementBudget(path, 2, m)
	assert.Equal(t, []grid.Tile{{X: 1, Y: 0}}, b.Consumed)
	assert.Equal(t, []grid.Tile{{X: 2, Y: 0}, {X: 3, Y: 0}}, b.Remaining)
	assert.Equal(t, 1, b.RemainingMP)
}
