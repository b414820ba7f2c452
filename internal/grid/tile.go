package grid

import "fmt"

// Tile is an integer position on the logical square grid.
type Tile struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (t Tile) String() string { return fmt.Sprintf("(%d,%d)", t.X, t.Y) }

// Neighbors4 returns the N, E, S, W neighbours in that fixed order.
func (t Tile) Neighbors4() [4]Tile {
	return [4]Tile{
		{t.X, t.Y - 1},
		{t.X + 1, t.Y},
		{t.X, t.Y + 1},
		{t.X - 1, t.Y},
	}
}

func Manhattan(a, b Tile) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func Chebyshev(a, b Tile) int {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Square calls fn for every in-bounds tile within Chebyshev radius r of c,
// in row-major order.
func Square(c Tile, r, width, height int, fn func(Tile)) {
	if r < 0 {
		return
	}
	x0, x1 := max(c.X-r, 0), min(c.X+r, width-1)
	y0, y1 := max(c.Y-r, 0), min(c.Y+r, height-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			fn(Tile{x, y})
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
