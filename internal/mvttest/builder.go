// Package mvttest builds vector tile payloads byte by byte for tests,
// including payloads a real encoder would refuse to produce.
package mvttest

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Sint is encoded as a zigzag sint_value rather than int_value.
type Sint int64

type Tile struct {
	Layers []Layer
	// Extra is appended verbatim after the layers.
	Extra []byte
}

type Layer struct {
	Name     string
	OmitName bool
	// zero values leave the field out
	Version uint32
	Extent  uint32
	Keys    []string
	// nil, bool, int64, uint64, Sint, float32, float64 or string
	Values   []any
	Features []Feature
	Extra    []byte
}

type Feature struct {
	ID       uint64
	HasID    bool
	Type     uint32
	OmitType bool
	Tags     []uint32
	Geometry []uint32
	Extra    []byte
}

func (t Tile) Encode() []byte {
	var b []byte
	for _, l := range t.Layers {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, l.Encode())
	}
	return append(b, t.Extra...)
}

func (l Layer) Encode() []byte {
	var b []byte
	if l.Version != 0 {
		b = protowire.AppendTag(b, 15, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(l.Version))
	}
	if !l.OmitName {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, l.Name)
	}
	for _, f := range l.Features {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, f.Encode())
	}
	for _, k := range l.Keys {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, k)
	}
	for _, v := range l.Values {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, EncodeValue(v))
	}
	if l.Extent != 0 {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(l.Extent))
	}
	return append(b, l.Extra...)
}

func (f Feature) Encode() []byte {
	var b []byte
	if f.HasID {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, f.ID)
	}
	if len(f.Tags) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, Packed(f.Tags))
	}
	if !f.OmitType {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(f.Type))
	}
	if len(f.Geometry) > 0 {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, Packed(f.Geometry))
	}
	return append(b, f.Extra...)
}

// EncodeValue encodes one value record. nil encodes as an empty record.
func EncodeValue(v any) []byte {
	var b []byte
	switch v := v.(type) {
	case nil:
	case string:
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, v)
	case float32:
		b = protowire.AppendTag(b, 2, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(v))
	case float64:
		b = protowire.AppendTag(b, 3, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	case int64:
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(v))
	case uint64:
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, v)
	case Sint:
		b = protowire.AppendTag(b, 6, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v)))
	case bool:
		b = protowire.AppendTag(b, 7, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(v))
	default:
		panic(fmt.Sprintf("mvttest: unsupported value type %T", v))
	}
	return b
}

// Packed encodes vs as consecutive varints.
func Packed(vs []uint32) []byte {
	b := make([]byte, 0, len(vs))
	for _, v := range vs {
		b = protowire.AppendVarint(b, uint64(v))
	}
	return b
}
