package mvt

import "fmt"

const tileLayers = 3

// Tile is a decoded vector tile: an ordered list of layers.
type Tile struct {
	layers []*Layer
}

// ParseTile decodes buf. Unknown fields are skipped; any structural error in
// a layer or feature record fails the whole call. Geometry command streams
// are validated when they are decoded.
func ParseTile(buf []byte) (*Tile, error) {
	t := &Tile{}
	err := ReadFields(buf, func(field uint32, wire WireType, c *Cursor) (bool, error) {
		if field != tileLayers {
			return false, nil
		}
		if err := expectWire(field, wire, WireBytes); err != nil {
			return false, err
		}
		b, err := c.ReadLengthDelimited()
		if err != nil {
			return false, err
		}
		l, err := parseLayer(b)
		if err != nil {
			return false, fmt.Errorf("layer %d: %w", len(t.layers), err)
		}
		t.layers = append(t.layers, l)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse tile: %w", err)
	}
	return t, nil
}

func (t *Tile) Layers() []*Layer { return t.layers }

// LayerNames returns layer names in buffer order.
func (t *Tile) LayerNames() []string {
	out := make([]string, len(t.layers))
	for i, l := range t.layers {
		out[i] = l.name
	}
	return out
}

// Layer returns the first layer called name.
func (t *Tile) Layer(name string) (*Layer, error) {
	for _, l := range t.layers {
		if l.name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, name)
}
