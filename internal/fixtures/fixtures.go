// Package fixtures loads the tile corpus a benchmark run decodes.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb/maptile"

	"github.com/mohammed-shakir/mvt-bench/internal/core/config"
)

var ErrNotFound = errors.New("tile not found")

// Tile is one raw, already inflated tile payload.
type Tile struct {
	Coord maptile.Tile
	// Path is the file path or store key the payload came from.
	Path string
	Data []byte
	Hash uint64
}

func newTile(coord maptile.Tile, path string, raw []byte) (Tile, error) {
	data, err := Inflate(raw)
	if err != nil {
		return Tile{}, fmt.Errorf("%s: %w", path, err)
	}
	return Tile{Coord: coord, Path: path, Data: data, Hash: xxhash.Sum64(data)}, nil
}

// Source produces tile payloads. Load returns the whole corpus in grid order
// and fails on the first missing tile; Fetch returns a single tile and reports
// absence with ErrNotFound.
type Source interface {
	Load(ctx context.Context) ([]Tile, error)
	Fetch(ctx context.Context, t maptile.Tile) (Tile, error)
}

// Grid is an inclusive x/y range at a single zoom.
type Grid struct {
	Zoom       maptile.Zoom
	XMin, XMax uint32
	YMin, YMax uint32
}

func GridFrom(f config.FixtureCfg) Grid {
	return Grid{
		Zoom: maptile.Zoom(f.Zoom),
		XMin: uint32(f.XMin), XMax: uint32(f.XMax),
		YMin: uint32(f.YMin), YMax: uint32(f.YMax),
	}
}

func (g Grid) Len() int {
	if g.XMax < g.XMin || g.YMax < g.YMin {
		return 0
	}
	return (int(g.XMax) - int(g.XMin) + 1) * (int(g.YMax) - int(g.YMin) + 1)
}

func (g Grid) Contains(t maptile.Tile) bool {
	return t.Z == g.Zoom && t.X >= g.XMin && t.X <= g.XMax && t.Y >= g.YMin && t.Y <= g.YMax
}

// Tiles walks the grid x-major: every y of the first column, then the next.
func (g Grid) Tiles() iter.Seq[maptile.Tile] {
	return func(yield func(maptile.Tile) bool) {
		if g.Len() == 0 {
			return
		}
		// the bounds are inclusive and may be math.MaxUint32
		for x := g.XMin; ; x++ {
			for y := g.YMin; ; y++ {
				if !yield(maptile.New(x, y, g.Zoom)) {
					return
				}
				if y == g.YMax {
					break
				}
			}
			if x == g.XMax {
				return
			}
		}
	}
}

// FormatPattern fills the {z}, {x} and {y} placeholders of a path pattern.
func FormatPattern(pattern string, t maptile.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(int(t.Z)),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
	).Replace(pattern)
}

// TotalBytes sums the payload sizes of a corpus.
func TotalBytes(tiles []Tile) int {
	n := 0
	for _, t := range tiles {
		n += len(t.Data)
	}
	return n
}
