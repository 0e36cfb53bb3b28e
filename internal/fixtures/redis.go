package fixtures

import (
	"context"
	"fmt"

	"github.com/paulmach/orb/maptile"

	"github.com/mohammed-shakir/mvt-bench/internal/cache"
	"github.com/mohammed-shakir/mvt-bench/internal/cache/keys"
)

// batchSize bounds the number of keys per MGET round trip.
const batchSize = 64

// RedisSource reads tiles stored under "<prefix>:<z>:<x>:<y>".
type RedisSource struct {
	Store  cache.Store
	Prefix string
	Grid   Grid
}

func (s RedisSource) Load(ctx context.Context) ([]Tile, error) {
	coords := make([]maptile.Tile, 0, s.Grid.Len())
	for c := range s.Grid.Tiles() {
		coords = append(coords, c)
	}

	out := make([]Tile, 0, len(coords))
	for start := 0; start < len(coords); start += batchSize {
		batch := coords[start:min(start+batchSize, len(coords))]
		names := make([]string, len(batch))
		for i, c := range batch {
			names[i] = keys.Tile(s.Prefix, c)
		}
		vals, err := s.Store.MGet(ctx, names)
		if err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		for i, c := range batch {
			raw, ok := vals[names[i]]
			if !ok {
				return nil, fmt.Errorf("could not open: '%s': %w", names[i], ErrNotFound)
			}
			t, err := newTile(c, names[i], raw)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}
	return out, nil
}

func (s RedisSource) Fetch(ctx context.Context, coord maptile.Tile) (Tile, error) {
	k := keys.Tile(s.Prefix, coord)
	raw, ok, err := s.Store.Get(ctx, k)
	if err != nil {
		return Tile{}, fmt.Errorf("fetch %s: %w", k, err)
	}
	if !ok {
		return Tile{}, fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	return newTile(coord, k, raw)
}
