package data

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/civsim/engine/internal/grid"
	"gopkg.in/yaml.v3"
)

// MapInfo holds metadata for a single map, loaded from map_list.yaml.
type MapInfo struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// Tiles is the CSV file under the tile directory; default "{id}.csv".
	Tiles string `yaml:"tiles"`
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// LoadMapList reads map metadata from YAML.
func LoadMapList(path string) ([]MapInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", path, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}
	return file.Maps, nil
}

// LoadMap loads map id from the map list and its tile file.
func LoadMap(listPath, tileDir string, id int, terrain *TerrainTable) (*grid.Map, MapInfo, error) {
	maps, err := LoadMapList(listPath)
	if err != nil {
		return nil, MapInfo{}, err
	}
	for _, info := range maps {
		if info.ID != id {
			continue
		}
		if info.Width <= 0 || info.Height <= 0 {
			return nil, info, fmt.Errorf("map %d: bad dimensions %dx%d", id, info.Width, info.Height)
		}
		name := info.Tiles
		if name == "" {
			name = strconv.Itoa(info.ID) + ".csv"
		}
		f, err := os.Open(filepath.Join(tileDir, name))
		if err != nil {
			return nil, info, fmt.Errorf("open tiles for map %d: %w", id, err)
		}
		defer f.Close()
		m, err := ParseTiles(f, info.Width, info.Height, terrain)
		if err != nil {
			return nil, info, fmt.Errorf("map %d: %w", id, err)
		}
		return m, info, nil
	}
	return nil, MapInfo{}, fmt.Errorf("map %d not in %s", id, listPath)
}

// ParseTiles reads a CSV tile grid: one line per row (Y), comma-separated
// terrain codes per column (X). Blank lines and lines starting with '#'
// are skipped. Missing rows or columns are an error.
func ParseTiles(r io.Reader, width, height int, terrain *TerrainTable) (*grid.Map, error) {
	m := grid.NewMap(width, height, grid.Blocked)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	y := 0
	for scanner.Scan() && y < height {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		toks := strings.Split(line, ",")
		if len(toks) < width {
			return nil, fmt.Errorf("row %d: %d columns, want %d", y, len(toks), width)
		}
		for x := 0; x < width; x++ {
			code, err := strconv.Atoi(strings.TrimSpace(toks[x]))
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", y, x, err)
			}
			tt := terrain.ByCode(code)
			if tt == nil {
				return nil, fmt.Errorf("row %d col %d: unknown terrain code %d", y, x, code)
			}
			m.Set(grid.Tile{X: x, Y: y}, tt.Info())
		}
		y++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if y < height {
		return nil, fmt.Errorf("%d rows, want %d", y, height)
	}
	return m, nil
}
