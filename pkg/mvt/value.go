package mvt

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindDouble
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a property value or feature identifier. The zero Value is null.
//
// Values are comparable: == and map keys compare kind and payload, so
// IntValue(5) != UintValue(5).
type Value struct {
	kind Kind
	// bool, int64, uint64, float32 or float64 payload as raw bits
	bits uint64
	str  string
}

func NullValue() Value             { return Value{} }
func IntValue(v int64) Value       { return Value{kind: KindInt, bits: uint64(v)} }
func UintValue(v uint64) Value     { return Value{kind: KindUint, bits: v} }
func FloatValue(v float32) Value   { return Value{kind: KindFloat, bits: uint64(math.Float32bits(v))} }
func DoubleValue(v float64) Value  { return Value{kind: KindDouble, bits: math.Float64bits(v)} }
func StringValue(v string) Value   { return Value{kind: KindString, str: v} }
func (v Value) Kind() Kind         { return v.kind }
func (v Value) IsNull() bool       { return v.kind == KindNull }
func (v Value) Equal(o Value) bool { return v == o }

func BoolValue(b bool) Value {
	if b {
		return Value{kind: KindBool, bits: 1}
	}
	return Value{kind: KindBool}
}

func (v Value) AsBool() (bool, bool) {
	return v.bits != 0, v.kind == KindBool
}

func (v Value) AsInt() (int64, bool) {
	return int64(v.bits), v.kind == KindInt
}

func (v Value) AsUint() (uint64, bool) {
	return v.bits, v.kind == KindUint
}

func (v Value) AsFloat() (float32, bool) {
	return math.Float32frombits(uint32(v.bits)), v.kind == KindFloat
}

func (v Value) AsDouble() (float64, bool) {
	return math.Float64frombits(v.bits), v.kind == KindDouble
}

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// Float64 converts any numeric kind to float64.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(int64(v.bits)), true
	case KindUint:
		return float64(v.bits), true
	case KindFloat:
		return float64(math.Float32frombits(uint32(v.bits))), true
	case KindDouble:
		return math.Float64frombits(v.bits), true
	case KindNull, KindBool, KindString:
		return 0, false
	default:
		return 0, false
	}
}

// Interface returns the payload as a plain Go value (nil for null).
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.bits != 0
	case KindInt:
		return int64(v.bits)
	case KindUint:
		return v.bits
	case KindFloat:
		return math.Float32frombits(uint32(v.bits))
	case KindDouble:
		return math.Float64frombits(v.bits)
	case KindString:
		return v.str
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.bits != 0)
	case KindInt:
		return strconv.FormatInt(int64(v.bits), 10)
	case KindUint:
		return strconv.FormatUint(v.bits, 10)
	case KindFloat:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(v.bits))), 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(math.Float64frombits(v.bits), 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.str)
	default:
		return fmt.Sprintf("kind(%d)", uint8(v.kind))
	}
}

// value record field numbers
const (
	valueString = 1
	valueFloat  = 2
	valueDouble = 3
	valueInt    = 4
	valueUint   = 5
	valueSint   = 6
	valueBool   = 7
)

// parseValue decodes one value record. A record without a known field is
// null; when several are present the last one wins.
func parseValue(buf []byte) (Value, error) {
	var out Value
	err := ReadFields(buf, func(field uint32, wire WireType, c *Cursor) (bool, error) {
		switch field {
		case valueString:
			if err := expectWire(field, wire, WireBytes); err != nil {
				return false, err
			}
			s, err := c.readString()
			if err != nil {
				return false, err
			}
			out = StringValue(s)
		case valueFloat:
			if err := expectWire(field, wire, WireFixed32); err != nil {
				return false, err
			}
			bits, err := c.ReadFixed32()
			if err != nil {
				return false, err
			}
			out = Value{kind: KindFloat, bits: uint64(bits)}
		case valueDouble:
			if err := expectWire(field, wire, WireFixed64); err != nil {
				return false, err
			}
			bits, err := c.ReadFixed64()
			if err != nil {
				return false, err
			}
			out = Value{kind: KindDouble, bits: bits}
		case valueInt, valueUint, valueSint, valueBool:
			if err := expectWire(field, wire, WireVarint); err != nil {
				return false, err
			}
			raw, err := c.ReadVarint()
			if err != nil {
				return false, err
			}
			switch field {
			case valueInt:
				out = IntValue(int64(raw))
			case valueUint:
				out = UintValue(raw)
			case valueSint:
				out = IntValue(int64(raw>>1) ^ -int64(raw&1))
			default:
				out = BoolValue(raw != 0)
			}
		default:
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return Value{}, fmt.Errorf("value: %w", err)
	}
	return out, nil
}
