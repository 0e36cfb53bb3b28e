package kafka

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb/maptile"
)

const defaultVersionWindow = 8192

// tileVersions remembers the newest event version applied to each tile.
// Tiles fall out of the window in LRU order; an evicted tile accepts any
// version again.
type tileVersions struct {
	mu   sync.Mutex
	seen *lru.Cache[maptile.Tile, uint64]
}

func newTileVersions(size int) *tileVersions {
	if size <= 0 {
		size = defaultVersionWindow
	}
	c, _ := lru.New[maptile.Tile, uint64](size)
	return &tileVersions{seen: c}
}

// advance records v for t and reports whether v is newer than the last
// version applied to t.
func (d *tileVersions) advance(t maptile.Tile, v uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.seen.Get(t); ok && v <= last {
		return false
	}
	d.seen.Add(t, v)
	return true
}

// filter drops repeated tiles and tiles already at version v or newer.
// The returned slice reuses the backing array of tiles.
func (d *tileVersions) filter(tiles []maptile.Tile, v uint64) (fresh []maptile.Tile, stale int) {
	dup := make(map[maptile.Tile]struct{}, len(tiles))
	fresh = tiles[:0]
	for _, t := range tiles {
		if _, ok := dup[t]; ok {
			continue
		}
		dup[t] = struct{}{}
		if !d.advance(t, v) {
			stale++
			continue
		}
		fresh = append(fresh, t)
	}
	return fresh, stale
}
