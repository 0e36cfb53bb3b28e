// Package mvt decodes Mapbox Vector Tile payloads.
//
// A Tile is parsed once from an immutable buffer. Layers, features, property
// strings and geometry command streams are views into that buffer, so the
// buffer must not be modified while the Tile or anything derived from it is
// in use. Decoding is synchronous and allocation-light; separate tiles can be
// decoded concurrently without coordination.
//
//	tile, err := mvt.ParseTile(buf)
//	if err != nil {
//		return err
//	}
//	for _, name := range tile.LayerNames() {
//		layer, _ := tile.Layer(name)
//		for _, f := range layer.Features() {
//			geom, err := f.Geometry(1.0)
//			...
//		}
//	}
package mvt
