package render

import (
	"fmt"

	"github.com/paulmach/orb/maptile"

	"github.com/mohammed-shakir/mvt-bench/internal/logger"
	"github.com/mohammed-shakir/mvt-bench/pkg/mvt"
)

type LayerSummary struct {
	Name     string         `json:"name"`
	Version  uint32         `json:"version"`
	Extent   uint32         `json:"extent"`
	Features int            `json:"features"`
	Keys     int            `json:"keys"`
	Values   int            `json:"values"`
	Types    map[string]int `json:"types"`
}

type Summary struct {
	Tile    string         `json:"tile"`
	Bytes   int            `json:"bytes"`
	Hash    string         `json:"hash"`
	Layers  []LayerSummary `json:"layers"`
	H3Res   int            `json:"h3_res,omitempty"`
	H3Cells []string       `json:"h3_cells,omitempty"`
}

// Summarize describes every layer of a parsed tile in file order.
func Summarize(coord maptile.Tile, t *mvt.Tile, size int, hash uint64) Summary {
	s := Summary{
		Tile:   logger.TileLabel(coord),
		Bytes:  size,
		Hash:   fmt.Sprintf("%016x", hash),
		Layers: make([]LayerSummary, 0, len(t.Layers())),
	}
	for _, l := range t.Layers() {
		ls := LayerSummary{
			Name:     l.Name(),
			Version:  l.Version(),
			Extent:   l.Extent(),
			Features: l.FeatureCount(),
			Keys:     len(l.Keys()),
			Values:   len(l.Values()),
			Types:    map[string]int{},
		}
		for _, f := range l.Features() {
			ls.Types[f.Type().String()]++
		}
		s.Layers = append(s.Layers, ls)
	}
	return s
}
