package kafka

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb/maptile"
)

// WireEvent names the tiles whose cached decode is stale. Either a single
// tile (z, x, y) or a set of H3 cells expanded to tiles at Zoom.
type WireEvent struct {
	Z       *uint32   `json:"z,omitempty"`
	X       uint32    `json:"x"`
	Y       uint32    `json:"y"`
	H3Cells []string  `json:"h3_cells,omitempty"`
	Zoom    uint32    `json:"zoom,omitempty"`
	Version uint64    `json:"version"`
	TS      time.Time `json:"ts"`
	Op      string    `json:"op,omitempty"`
}

// tile coordinates are uint32, so 1<<z must fit
const maxZoom = 31

var errNoTarget = errors.New("event names neither a tile nor h3 cells")

func (w WireEvent) Validate() error {
	switch w.Op {
	case "", "insert", "update", "delete":
	default:
		return fmt.Errorf("op must be insert|update|delete, got %q", w.Op)
	}
	if w.Z == nil && len(w.H3Cells) == 0 {
		return errNoTarget
	}
	if w.Z != nil {
		if *w.Z > maxZoom {
			return fmt.Errorf("zoom %d out of range", *w.Z)
		}
		n := uint32(1) << *w.Z
		if w.X >= n || w.Y >= n {
			return fmt.Errorf("tile %d/%d/%d outside grid", *w.Z, w.X, w.Y)
		}
	}
	if len(w.H3Cells) > 0 && w.Zoom > maxZoom {
		return fmt.Errorf("zoom %d out of range", w.Zoom)
	}
	return nil
}

func (w WireEvent) tile() (maptile.Tile, bool) {
	if w.Z == nil {
		return maptile.Tile{}, false
	}
	return maptile.New(w.X, w.Y, maptile.Zoom(*w.Z)), true
}
