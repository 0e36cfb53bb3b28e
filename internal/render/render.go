// Package render turns decoded tiles into GeoJSON and JSON summaries.
package render

import (
	"fmt"

	"github.com/paulmach/orb"
	orbmvt "github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/simplify"

	"github.com/mohammed-shakir/mvt-bench/pkg/mvt"
)

type Options struct {
	// Tolerance is passed to the geometry decoder (point decimation).
	Tolerance float64
	// Simplify runs Douglas-Peucker in tile space before projection when > 0.
	Simplify float64
}

// GeoJSON renders one layer of a tile as a feature collection in WGS84.
// Features with an unknown or empty geometry are left out.
//
// Projection follows orb's pixel-centre convention: tile coordinate c maps
// to the centre of grid cell c, so every position is shifted by half a
// unit (tile width / (2*extent)) towards +x and +y in tile space.
func GeoJSON(l *mvt.Layer, t maptile.Tile, opts Options) (*geojson.FeatureCollection, error) {
	ol := &orbmvt.Layer{
		Name:     l.Name(),
		Version:  l.Version(),
		Extent:   l.Extent(),
		Features: make([]*geojson.Feature, 0, l.FeatureCount()),
	}
	for i, f := range l.Features() {
		paths, err := f.Geometry(opts.Tolerance)
		if err != nil {
			return nil, fmt.Errorf("layer %s feature %d: %w", l.Name(), i, err)
		}
		g := toOrb(f.Type(), paths)
		if g == nil {
			continue
		}
		gf := geojson.NewFeature(g)
		if id := f.ID(); !id.IsNull() {
			gf.ID = id.Interface()
		}
		for k, v := range f.All() {
			gf.Properties[k] = v.Interface()
		}
		ol.Features = append(ol.Features, gf)
	}

	layers := orbmvt.Layers{ol}
	if opts.Simplify > 0 {
		layers.Simplify(simplify.DouglasPeucker(opts.Simplify))
	}
	layers.ProjectToWGS84(t)

	fc := geojson.NewFeatureCollection()
	fc.Features = ol.Features
	return fc, nil
}

func toOrb(typ mvt.GeomType, paths [][]mvt.Point) orb.Geometry {
	switch typ {
	case mvt.GeomPoint:
		if len(paths) == 0 || len(paths[0]) == 0 {
			return nil
		}
		if len(paths[0]) == 1 {
			return point(paths[0][0])
		}
		mp := make(orb.MultiPoint, len(paths[0]))
		for i, p := range paths[0] {
			mp[i] = point(p)
		}
		return mp
	case mvt.GeomLineString:
		switch len(paths) {
		case 0:
			return nil
		case 1:
			return lineString(paths[0])
		}
		ml := make(orb.MultiLineString, len(paths))
		for i, p := range paths {
			ml[i] = lineString(p)
		}
		return ml
	case mvt.GeomPolygon:
		return polygons(paths)
	default:
		return nil
	}
}

func point(p mvt.Point) orb.Point { return orb.Point{float64(p.X), float64(p.Y)} }

func lineString(ps []mvt.Point) orb.LineString {
	ls := make(orb.LineString, len(ps))
	for i, p := range ps {
		ls[i] = point(p)
	}
	return ls
}

// polygons groups rings by winding: a ring with positive area in tile
// coordinates (y down) starts a polygon, negative rings are its holes.
// Zero-area rings are dropped.
func polygons(rings [][]mvt.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, r := range rings {
		a := signedArea(r)
		if a == 0 {
			continue
		}
		ring := orb.Ring(lineString(r))
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		if a > 0 || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		mp[len(mp)-1] = append(mp[len(mp)-1], ring)
	}
	switch len(mp) {
	case 0:
		return nil
	case 1:
		return mp[0]
	}
	return mp
}

func signedArea(r []mvt.Point) int64 {
	var sum int64
	for i := range len(r) {
		a, b := r[i], r[(i+1)%len(r)]
		sum += int64(a.X)*int64(b.Y) - int64(b.X)*int64(a.Y)
	}
	return sum
}
