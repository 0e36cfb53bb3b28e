package mvt

import (
	"fmt"
	"math"
)

// WireType is the low three bits of a field tag.
type WireType uint8

const (
	WireVarint  WireType = 0
	WireFixed64 WireType = 1
	WireBytes   WireType = 2
	WireFixed32 WireType = 5
)

func (w WireType) String() string {
	switch w {
	case WireVarint:
		return "varint"
	case WireFixed64:
		return "fixed64"
	case WireBytes:
		return "bytes"
	case WireFixed32:
		return "fixed32"
	default:
		return fmt.Sprintf("wiretype(%d)", uint8(w))
	}
}

const maxFieldNumber = 1<<29 - 1

// FieldFunc handles one tagged field. When it returns true it must have
// consumed exactly the field's value from c. Returning false leaves the
// value in place and ReadFields skips it.
type FieldFunc func(field uint32, wire WireType, c *Cursor) (bool, error)

// ReadFields walks buf as a sequence of tagged fields.
func ReadFields(buf []byte, fn FieldFunc) error {
	c := NewCursor(buf)
	for !c.Done() {
		field, wire, err := c.readTag()
		if err != nil {
			return err
		}
		handled, err := fn(field, wire, &c)
		if err != nil {
			return err
		}
		if handled {
			continue
		}
		if err := SkipField(&c, wire); err != nil {
			return fmt.Errorf("skip field %d: %w", field, err)
		}
	}
	return nil
}

func (c *Cursor) readTag() (uint32, WireType, error) {
	start := c.pos
	tag, err := c.ReadVarint()
	if err != nil {
		return 0, 0, err
	}
	field := tag >> 3
	if field == 0 || field > maxFieldNumber {
		return 0, 0, fmt.Errorf("%w: field number %d at offset %d", ErrMalformedTag, field, start)
	}
	return uint32(field), WireType(tag & 0x7), nil
}

// SkipField consumes one value of the given wire type.
func SkipField(c *Cursor, wire WireType) error {
	var err error
	switch wire {
	case WireVarint:
		_, err = c.ReadVarint()
	case WireFixed64:
		_, err = c.ReadBytes(8)
	case WireBytes:
		_, err = c.ReadLengthDelimited()
	case WireFixed32:
		_, err = c.ReadBytes(4)
	default:
		return fmt.Errorf("%w: unsupported wire type %d at offset %d", ErrMalformedTag, uint8(wire), c.pos)
	}
	return err
}

func expectWire(field uint32, got, want WireType) error {
	if got != want {
		return fmt.Errorf("%w: field %d has wire type %s, want %s", ErrMalformedTag, field, got, want)
	}
	return nil
}

// readUint32 reads a varint that must fit in 32 bits.
func (c *Cursor) readUint32() (uint32, error) {
	start := c.pos
	v, err := c.ReadVarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: value %d at offset %d overflows uint32", ErrMalformedTag, v, start)
	}
	return uint32(v), nil
}
