package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/maptile"
)

// DirSource reads one file per tile from a directory.
type DirSource struct {
	Dir     string
	Pattern string
	Grid    Grid
}

func (s DirSource) path(t maptile.Tile) string {
	return filepath.Join(s.Dir, FormatPattern(s.Pattern, t))
}

func (s DirSource) Load(ctx context.Context) ([]Tile, error) {
	out := make([]Tile, 0, s.Grid.Len())
	for coord := range s.Grid.Tiles() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := s.path(coord)
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("could not open: '%s': %w", p, err)
		}
		t, err := newTile(coord, p, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s DirSource) Fetch(_ context.Context, coord maptile.Tile) (Tile, error) {
	p := s.path(coord)
	raw, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Tile{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return Tile{}, fmt.Errorf("could not open: '%s': %w", p, err)
	}
	return newTile(coord, p, raw)
}
