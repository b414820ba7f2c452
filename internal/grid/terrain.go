package grid

// Yields is the per-turn output of a tile, building, or city.
type Yields struct {
	Food       int `json:"food" yaml:"food"`
	Production int `json:"production" yaml:"production"`
	Gold       int `json:"gold" yaml:"gold"`
}

func (y Yields) Total() int { return y.Food + y.Production + y.Gold }

func (y Yields) Add(o Yields) Yields {
	return Yields{Food: y.Food + o.Food, Production: y.Production + o.Production, Gold: y.Gold + o.Gold}
}

// TerrainInfo is the immutable static data of one tile.
type TerrainInfo struct {
	Name      string
	MoveCost  int
	Passable  bool
	Water     bool
	Yields    Yields
	HasYields bool
}

// Enterable reports whether a land unit may step onto the tile.
func (t TerrainInfo) Enterable() bool {
	return t.Passable && !t.Water && t.MoveCost >= 0
}

// Terrain is the read-only map data the simulation consults.
type Terrain interface {
	Width() int
	Height() int
	// At returns false for out-of-bounds tiles.
	At(t Tile) (TerrainInfo, bool)
}

// InBounds reports whether t lies on a w×h grid.
func InBounds(t Tile, w, h int) bool {
	return t.X >= 0 && t.Y >= 0 && t.X < w && t.Y < h
}

// Map is a flat in-memory Terrain, row-major.
type Map struct {
	width  int
	height int
	tiles  []TerrainInfo
}

// NewMap creates a width×height map filled with fill.
func NewMap(width, height int, fill TerrainInfo) *Map {
	tiles := make([]TerrainInfo, width*height)
	for i := range tiles {
		tiles[i] = fill
	}
	return &Map{width: width, height: height, tiles: tiles}
}

func (m *Map) Width() int  { return m.width }
func (m *Map) Height() int { return m.height }

func (m *Map) At(t Tile) (TerrainInfo, bool) {
	if !InBounds(t, m.width, m.height) {
		return TerrainInfo{}, false
	}
	return m.tiles[t.Y*m.width+t.X], true
}

// Set overwrites a tile; out-of-bounds writes are ignored.
func (m *Map) Set(t Tile, info TerrainInfo) {
	if InBounds(t, m.width, m.height) {
		m.tiles[t.Y*m.width+t.X] = info
	}
}

// Uniform is a width×height map of Plains.
func Uniform(width, height int) *Map { return NewMap(width, height, Plains) }

// Plains is a unit-cost passable terrain used as the default fill.
var Plains = TerrainInfo{Name: "plains", MoveCost: 1, Passable: true}

// Blocked is impassable terrain.
var Blocked = TerrainInfo{Name: "mountains", MoveCost: 0, Passable: false}
