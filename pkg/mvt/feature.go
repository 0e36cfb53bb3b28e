package mvt

import (
	"fmt"
	"iter"
)

// GeomType is the geometry type declared by a feature.
type GeomType uint8

const (
	GeomUnknown    GeomType = 0
	GeomPoint      GeomType = 1
	GeomLineString GeomType = 2
	GeomPolygon    GeomType = 3
)

func (t GeomType) String() string {
	switch t {
	case GeomUnknown:
		return "Unknown"
	case GeomPoint:
		return "Point"
	case GeomLineString:
		return "LineString"
	case GeomPolygon:
		return "Polygon"
	default:
		return fmt.Sprintf("GeomType(%d)", uint8(t))
	}
}

// feature record field numbers
const (
	featureID       = 1
	featureTags     = 2
	featureType     = 3
	featureGeometry = 4
)

// Feature is one record of a Layer. Its tag list and geometry stream alias
// the tile buffer.
type Feature struct {
	layer    *Layer
	id       uint64
	hasID    bool
	typ      GeomType
	tags     []byte
	geometry []byte
}

func parseFeature(buf []byte, l *Layer) (Feature, error) {
	f := Feature{layer: l}
	var seenTags, seenGeom, seenType bool
	err := ReadFields(buf, func(field uint32, wire WireType, c *Cursor) (bool, error) {
		switch field {
		case featureID:
			if err := expectWire(field, wire, WireVarint); err != nil {
				return false, err
			}
			if f.hasID {
				return false, fmt.Errorf("%w: more than one id field", ErrMalformedFeature)
			}
			id, err := c.ReadVarint()
			if err != nil {
				return false, err
			}
			f.id, f.hasID = id, true
		case featureTags:
			if err := expectWire(field, wire, WireBytes); err != nil {
				return false, err
			}
			if seenTags {
				return false, fmt.Errorf("%w: more than one tags field", ErrMalformedFeature)
			}
			b, err := c.ReadLengthDelimited()
			if err != nil {
				return false, err
			}
			f.tags, seenTags = b, true
		case featureType:
			if err := expectWire(field, wire, WireVarint); err != nil {
				return false, err
			}
			if seenType {
				return false, fmt.Errorf("%w: more than one type field", ErrMalformedFeature)
			}
			t, err := c.ReadVarint()
			if err != nil {
				return false, err
			}
			if t > uint64(GeomPolygon) {
				return false, fmt.Errorf("%w: unknown geometry type %d", ErrMalformedFeature, t)
			}
			f.typ, seenType = GeomType(t), true
		case featureGeometry:
			if err := expectWire(field, wire, WireBytes); err != nil {
				return false, err
			}
			if seenGeom {
				return false, fmt.Errorf("%w: more than one geometry field", ErrMalformedFeature)
			}
			b, err := c.ReadLengthDelimited()
			if err != nil {
				return false, err
			}
			f.geometry, seenGeom = b, true
		default:
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return Feature{}, err
	}
	if err := f.checkTags(); err != nil {
		return Feature{}, err
	}
	return f, nil
}

// checkTags verifies the tag list has even length and every index resolves
// against the layer dictionaries.
func (f *Feature) checkTags() error {
	c := NewCursor(f.tags)
	n := 0
	for !c.Done() {
		idx, err := c.readUint32()
		if err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		if n%2 == 0 {
			if int(idx) >= len(f.layer.keys) {
				return fmt.Errorf("%w: key index %d, layer %q has %d keys",
					ErrDictionaryIndexOutOfRange, idx, f.layer.name, len(f.layer.keys))
			}
		} else if int(idx) >= len(f.layer.values) {
			return fmt.Errorf("%w: value index %d, layer %q has %d values",
				ErrDictionaryIndexOutOfRange, idx, f.layer.name, len(f.layer.values))
		}
		n++
	}
	if n%2 != 0 {
		return fmt.Errorf("%w: odd tag count %d", ErrMalformedFeature, n)
	}
	return nil
}

func (f *Feature) Layer() *Layer  { return f.layer }
func (f *Feature) Type() GeomType { return f.typ }

// ID returns the feature identifier as a uint variant, or the null variant
// when the record carries no id. An explicit id of 0 is UintValue(0).
func (f *Feature) ID() Value {
	if !f.hasID {
		return NullValue()
	}
	return UintValue(f.id)
}

// All yields the feature's properties in tag order. Indices were validated
// when the tile was parsed.
func (f *Feature) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		c := NewCursor(f.tags)
		for !c.Done() {
			k, _ := c.ReadVarint()
			v, _ := c.ReadVarint()
			if !yield(f.layer.keys[k], f.layer.values[v]) {
				return
			}
		}
	}
}

// PropertyCount returns the number of key/value pairs in the tag list.
func (f *Feature) PropertyCount() int {
	n := 0
	for _, b := range f.tags {
		if b < 0x80 {
			n++
		}
	}
	return n / 2
}

// Properties resolves the tag list into a map. If a key repeats, the first
// occurrence wins.
func (f *Feature) Properties() map[string]Value {
	out := make(map[string]Value, f.PropertyCount())
	for k, v := range f.All() {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// Lookup returns the value stored under key and whether the key is present.
func (f *Feature) Lookup(key string) (Value, bool) {
	for k, v := range f.All() {
		if k == key {
			return v, true
		}
	}
	return Value{}, false
}

// Value returns the value stored under key, or the null variant when the key
// is absent. Use Lookup to tell an absent key from an explicit null.
func (f *Feature) Value(key string) Value {
	v, _ := f.Lookup(key)
	return v
}

// Geometry decodes the feature's command stream. See DecodeGeometry.
func (f *Feature) Geometry(tolerance float64) ([][]Point, error) {
	return DecodeGeometry(f.geometry, f.typ, tolerance)
}

// RawGeometry returns the packed command stream.
func (f *Feature) RawGeometry() []byte { return f.geometry }
