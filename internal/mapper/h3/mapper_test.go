package h3mapper

import (
	"reflect"
	"slices"
	"sort"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/mohammed-shakir/mvt-bench/internal/mapper"
)

var _ mapper.Interface = (*Mapper)(nil)

var corpusTile = maptile.New(4680, 6260, 14)

func TestTile_HappyPath_SortedUnique(t *testing.T) {
	m := New()

	cells, err := m.CellsForTile(corpusTile, 9)
	if err != nil {
		t.Fatalf("CellsForTile err: %v", err)
	}
	if len(cells) < 2 {
		t.Fatalf("expected several res 9 cells for a z14 tile, got %v", cells)
	}
	if !sort.StringsAreSorted(cells) {
		t.Fatalf("cells must be sorted")
	}
	if hasDups(cells) {
		t.Fatalf("cells must be de-duplicated")
	}
	again, err := m.CellsForTile(corpusTile, 9)
	if err != nil || !reflect.DeepEqual(cells, again) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestTile_SmallerThanCellFallsBackToCenter(t *testing.T) {
	m := New()
	cells, err := m.CellsForTile(corpusTile, 3)
	if err != nil {
		t.Fatalf("CellsForTile err: %v", err)
	}
	if len(cells) != 1 {
		t.Fatalf("want the single containing cell, got %v", cells)
	}
}

func TestPolygon_SubsetOfBound(t *testing.T) {
	m := New()
	b := corpusTile.Bound()
	c := b.Center()
	dx, dy := (b.Max.Lon()-b.Min.Lon())/4, (b.Max.Lat()-b.Min.Lat())/4
	poly := orb.Polygon{{
		{c.Lon() - dx, c.Lat() - dy}, {c.Lon() + dx, c.Lat() - dy},
		{c.Lon() + dx, c.Lat() + dy}, {c.Lon() - dx, c.Lat() + dy},
		{c.Lon() - dx, c.Lat() - dy},
	}}

	cp, err := m.CellsForPolygon(poly, 10)
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}
	cb, err := m.CellsForBound(b, 10)
	if err != nil {
		t.Fatalf("bound: %v", err)
	}
	if len(cp) == 0 {
		t.Fatalf("expected non-empty polygon coverage")
	}
	for _, cell := range cp {
		if !slices.Contains(cb, cell) {
			t.Fatalf("polygon cell %s outside bound coverage", cell)
		}
	}
}

func TestTilesForCell_CoversOriginTile(t *testing.T) {
	m := New()
	cells, err := m.CellsForTile(corpusTile, 8)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, cell := range cells {
		tiles, err := m.TilesForCell(cell, 14)
		if err != nil {
			t.Fatalf("TilesForCell(%s): %v", cell, err)
		}
		if len(tiles) == 0 {
			t.Fatalf("cell %s covers no tiles", cell)
		}
		for _, tl := range tiles {
			if tl.Z != 14 {
				t.Fatalf("tile %v at wrong zoom", tl)
			}
		}
		if slices.Contains(tiles, corpusTile) {
			found = true
		}
	}
	if !found {
		t.Fatalf("no cell of %v maps back to it", corpusTile)
	}
	if _, err := m.TilesForCell("not-a-cell", 14); err == nil {
		t.Fatal("expected error for bad cell")
	}
}

func TestBounds_InvalidResolutionAndDegeneratePolygon(t *testing.T) {
	m := New()
	if _, err := m.CellsForTile(corpusTile, -1); err == nil {
		t.Fatalf("expected error for res=-1")
	}
	if _, err := m.CellsForBound(corpusTile.Bound(), 16); err == nil {
		t.Fatalf("expected error for res=16")
	}
	if _, err := m.CellsForPolygon(orb.Polygon{{}}, 8); err == nil {
		t.Fatalf("expected error for degenerate polygon")
	}
	if _, err := m.CellsForPolygon(nil, 8); err == nil {
		t.Fatalf("expected error for empty polygon")
	}
}

func hasDups(s []string) bool {
	seen := map[string]struct{}{}
	for _, v := range s {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}
