// Package h3mapper relates web mercator tiles to H3 cells.
package h3mapper

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
	h3 "github.com/uber/h3-go/v4"
)

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

// CellsForTile returns the cells whose centers fall inside the tile. A tile
// smaller than one cell yields the cell containing the tile center.
func (m *Mapper) CellsForTile(t maptile.Tile, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	b := t.Bound()
	cells, err := m.CellsForBound(b, res)
	if err != nil {
		return nil, err
	}
	if len(cells) > 0 {
		return cells, nil
	}
	c := b.Center()
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: c.Lat(), Lng: c.Lon()}, res)
	if err != nil {
		return nil, fmt.Errorf("h3 cell for tile center: %w", err)
	}
	return []string{cell.String()}, nil
}

func (m *Mapper) CellsForBound(b orb.Bound, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	// v4 wants degrees, lat/lng order
	outer := h3.GeoLoop{
		{Lat: b.Min.Lat(), Lng: b.Min.Lon()},
		{Lat: b.Min.Lat(), Lng: b.Max.Lon()},
		{Lat: b.Max.Lat(), Lng: b.Max.Lon()},
		{Lat: b.Max.Lat(), Lng: b.Min.Lon()},
	}
	return polyfillOne(outer, nil, res)
}

func (m *Mapper) CellsForPolygon(poly orb.Polygon, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	if len(poly) == 0 {
		return nil, errors.New("empty polygon")
	}
	outer := toLoop(poly[0])
	if len(outer) < 4 {
		return nil, errors.New("outer ring has < 4 vertices")
	}
	var holes []h3.GeoLoop
	for i, ring := range poly[1:] {
		h := toLoop(ring)
		if len(h) < 4 {
			return nil, fmt.Errorf("hole %d has < 4 vertices", i)
		}
		holes = append(holes, h)
	}
	return polyfillOne(outer, holes, res)
}

// TilesForCell returns the tiles at zoom z covering the cell's boundary,
// sorted by x then y.
func (m *Mapper) TilesForCell(cell string, z maptile.Zoom) ([]maptile.Tile, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(cell)); err != nil {
		return nil, fmt.Errorf("parse cell: %w", err)
	}
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid h3 cell %q", cell)
	}
	b, err := c.Boundary()
	if err != nil {
		return nil, fmt.Errorf("boundary: %w", err)
	}
	if len(b) < 3 {
		return nil, fmt.Errorf("degenerate boundary for %s", cell)
	}
	ring := make(orb.Ring, 0, len(b)+1)
	for _, ll := range b {
		ring = append(ring, orb.Point{ll.Lng, ll.Lat})
	}
	ring = append(ring, ring[0])

	set, err := tilecover.Geometry(orb.Polygon{ring}, z)
	if err != nil {
		return nil, fmt.Errorf("tile cover: %w", err)
	}
	out := make([]maptile.Tile, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out, nil
}

// --- helpers ---

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

// If the ring is explicitly closed (last == first), drop the trailing duplicate.
func toLoop(r orb.Ring) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(r))
	for _, p := range r {
		loop = append(loop, h3.LatLng{Lat: p.Lat(), Lng: p.Lon()})
	}
	if len(loop) >= 2 {
		last := loop[len(loop)-1]
		first := loop[0]
		if last.Lat == first.Lat && last.Lng == first.Lng {
			loop = loop[:len(loop)-1]
		}
	}
	return loop
}

// polyfillOne computes unique cells and returns them sorted for determinism.
func polyfillOne(outer h3.GeoLoop, holes []h3.GeoLoop, res int) ([]string, error) {
	if len(outer) < 3 {
		return nil, errors.New("outer ring has < 3 vertices")
	}
	poly := h3.GeoPolygon{
		GeoLoop: outer,
		Holes:   holes,
	}

	indexes, err := h3.PolygonToCells(poly, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	out := make([]string, 0, len(indexes))
	seen := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		s := idx.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
