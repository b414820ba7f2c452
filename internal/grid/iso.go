package grid

import "math"

// Projection converts between grid tiles and isometric screen space.
// The tile origin (0,0) projects to screen (0,0); TileW/TileH are the
// diamond's pixel width and height.
type Projection struct {
	TileW float64
	TileH float64
}

// ToScreen returns the screen position of the tile's top vertex.
func (p Projection) ToScreen(t Tile) (x, y float64) {
	x = float64(t.X-t.Y) * p.TileW / 2
	y = float64(t.X+t.Y) * p.TileH / 2
	return x, y
}

// ToTile maps a screen position back to the tile containing it.
func (p Projection) ToTile(x, y float64) Tile {
	hw, hh := p.TileW/2, p.TileH/2
	fx := (x/hw + y/hh) / 2
	fy := (y/hh - x/hw) / 2
	return Tile{X: int(math.Floor(fx)), Y: int(math.Floor(fy))}
}
