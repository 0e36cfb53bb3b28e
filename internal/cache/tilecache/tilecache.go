// Package tilecache keeps recently decoded tiles in memory.
package tilecache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb/maptile"

	"github.com/mohammed-shakir/mvt-bench/internal/cache/keys"
	"github.com/mohammed-shakir/mvt-bench/internal/core/observability"
	"github.com/mohammed-shakir/mvt-bench/internal/fixtures"
	"github.com/mohammed-shakir/mvt-bench/pkg/mvt"
)

type Loader interface {
	Fetch(ctx context.Context, t maptile.Tile) (fixtures.Tile, error)
}

// Entry is a parsed tile together with the buffer its views point into.
type Entry struct {
	Coord maptile.Tile
	Tile  *mvt.Tile
	Data  []byte
	Hash  uint64
}

type Cache struct {
	lru *lru.Cache[string, *Entry]
	src Loader
}

func New(src Loader, size int) (*Cache, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, *Entry](size)
	if err != nil {
		return nil, fmt.Errorf("tile cache: %w", err)
	}
	return &Cache{lru: c, src: src}, nil
}

// Get returns the decoded tile, loading and parsing it on a miss. Failed
// loads and parses are not cached.
func (c *Cache) Get(ctx context.Context, t maptile.Tile) (*Entry, error) {
	k := keys.Tile("", t)
	if e, ok := c.lru.Get(k); ok {
		observability.IncTileCache("hit")
		return e, nil
	}
	observability.IncTileCache("miss")

	raw, err := c.src.Fetch(ctx, t)
	if err != nil {
		return nil, err
	}
	tile, err := mvt.ParseTile(raw.Data)
	if err != nil {
		observability.IncDecodeError(err)
		return nil, fmt.Errorf("tile %s: %w", k, err)
	}
	e := &Entry{Coord: t, Tile: tile, Data: raw.Data, Hash: raw.Hash}
	c.lru.Add(k, e)
	return e, nil
}

// Invalidate drops the given tiles and reports how many were cached.
func (c *Cache) Invalidate(tiles ...maptile.Tile) int {
	n := 0
	for _, t := range tiles {
		if c.lru.Remove(keys.Tile("", t)) {
			n++
		}
	}
	if n > 0 {
		observability.IncTileCacheEvictions(n)
	}
	return n
}

func (c *Cache) Len() int { return c.lru.Len() }

func (c *Cache) Purge() { c.lru.Purge() }
