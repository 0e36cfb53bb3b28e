package mvt

import (
	"fmt"
	"iter"
)

const (
	DefaultExtent  = 4096
	DefaultVersion = 1
)

// layer record field numbers
const (
	layerName     = 1
	layerFeatures = 2
	layerKeys     = 3
	layerValues   = 4
	layerExtent   = 5
	layerVersion  = 15
)

// Layer is a named set of features sharing an extent and key/value
// dictionaries.
type Layer struct {
	name     string
	extent   uint32
	version  uint32
	keys     []string
	values   []Value
	features []Feature
}

// parseLayer reads one layer record. A field whose value breaks the layer's
// shape (a second name, a zero extent) is reported as ErrMalformedTag, the
// same as a field with the wrong wire type. ErrMissingRequiredField is kept
// for a layer without a name.
func parseLayer(buf []byte) (*Layer, error) {
	l := &Layer{extent: DefaultExtent, version: DefaultVersion}
	var hasName bool
	var raw [][]byte
	err := ReadFields(buf, func(field uint32, wire WireType, c *Cursor) (bool, error) {
		switch field {
		case layerName:
			if err := expectWire(field, wire, WireBytes); err != nil {
				return false, err
			}
			if hasName {
				return false, fmt.Errorf("%w: repeated layer name field", ErrMalformedTag)
			}
			s, err := c.readString()
			if err != nil {
				return false, err
			}
			l.name, hasName = s, true
		case layerFeatures:
			if err := expectWire(field, wire, WireBytes); err != nil {
				return false, err
			}
			b, err := c.ReadLengthDelimited()
			if err != nil {
				return false, err
			}
			raw = append(raw, b)
		case layerKeys:
			if err := expectWire(field, wire, WireBytes); err != nil {
				return false, err
			}
			s, err := c.readString()
			if err != nil {
				return false, err
			}
			l.keys = append(l.keys, s)
		case layerValues:
			if err := expectWire(field, wire, WireBytes); err != nil {
				return false, err
			}
			b, err := c.ReadLengthDelimited()
			if err != nil {
				return false, err
			}
			v, err := parseValue(b)
			if err != nil {
				return false, err
			}
			l.values = append(l.values, v)
		case layerExtent:
			if err := expectWire(field, wire, WireVarint); err != nil {
				return false, err
			}
			v, err := c.readUint32()
			if err != nil {
				return false, err
			}
			if v == 0 {
				return false, fmt.Errorf("%w: layer extent must be positive", ErrMalformedTag)
			}
			l.extent = v
		case layerVersion:
			if err := expectWire(field, wire, WireVarint); err != nil {
				return false, err
			}
			v, err := c.readUint32()
			if err != nil {
				return false, err
			}
			l.version = v
		default:
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !hasName {
		return nil, fmt.Errorf("%w: layer name", ErrMissingRequiredField)
	}

	// features may precede the dictionaries in the record, so they are
	// resolved only once the whole layer has been read
	l.features = make([]Feature, len(raw))
	for i, b := range raw {
		f, err := parseFeature(b, l)
		if err != nil {
			return nil, fmt.Errorf("layer %q feature %d: %w", l.name, i, err)
		}
		l.features[i] = f
	}
	return l, nil
}

func (l *Layer) Name() string      { return l.name }
func (l *Layer) Extent() uint32    { return l.extent }
func (l *Layer) Version() uint32   { return l.version }
func (l *Layer) Keys() []string    { return l.keys }
func (l *Layer) Values() []Value   { return l.values }
func (l *Layer) FeatureCount() int { return len(l.features) }

func (l *Layer) Feature(i int) (*Feature, error) {
	if i < 0 || i >= len(l.features) {
		return nil, fmt.Errorf("%w: feature %d, layer %q has %d", ErrIndexOutOfRange, i, l.name, len(l.features))
	}
	return &l.features[i], nil
}

func (l *Layer) Features() iter.Seq2[int, *Feature] {
	return func(yield func(int, *Feature) bool) {
		for i := range l.features {
			if !yield(i, &l.features[i]) {
				return
			}
		}
	}
}
