// Package mapper relates web mercator tiles to H3 cells.
package mapper

import "github.com/paulmach/orb/maptile"

type Interface interface {
	CellsForTile(t maptile.Tile, res int) ([]string, error)
	TilesForCell(cell string, z maptile.Zoom) ([]maptile.Tile, error)
}
