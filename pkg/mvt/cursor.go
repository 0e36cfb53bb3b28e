package mvt

import (
	"fmt"
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxVarintLen is the widest encoding of a 64-bit varint.
const maxVarintLen = 10

// Cursor is a forward-only reader over an immutable buffer. Every slice it
// returns aliases the buffer.
type Cursor struct {
	buf []byte
	pos int
}

func NewCursor(buf []byte) Cursor {
	return Cursor{buf: buf}
}

func (c *Cursor) Pos() int       { return c.pos }
func (c *Cursor) Len() int       { return len(c.buf) }
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }
func (c *Cursor) Done() bool     { return c.pos >= len(c.buf) }

func (c *Cursor) ReadVarint() (uint64, error) {
	rest := c.buf[c.pos:]
	if len(rest) > 0 && rest[0] < 0x80 {
		c.pos++
		return uint64(rest[0]), nil
	}
	v, n := protowire.ConsumeVarint(rest)
	if n < 0 {
		if len(rest) >= maxVarintLen {
			return 0, fmt.Errorf("%w: varint longer than %d bytes at offset %d", ErrTruncatedInput, maxVarintLen, c.pos)
		}
		return 0, fmt.Errorf("%w: varint at offset %d", ErrTruncatedInput, c.pos)
	}
	c.pos += n
	return v, nil
}

// ReadZigZag reads a varint v and returns (v >> 1) ^ -(v & 1).
func (c *Cursor) ReadZigZag() (int64, error) {
	v, err := c.ReadVarint()
	if err != nil {
		return 0, err
	}
	return protowire.DecodeZigZag(v), nil
}

// ReadBytes returns the next n bytes without copying.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedInput, n, c.pos, c.Remaining())
	}
	b := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadLengthDelimited reads a varint length followed by that many bytes.
func (c *Cursor) ReadLengthDelimited() ([]byte, error) {
	start := c.pos
	l, err := c.ReadVarint()
	if err != nil {
		return nil, err
	}
	if l > uint64(c.Remaining()) {
		c.pos = start
		return nil, fmt.Errorf("%w: length %d at offset %d exceeds remaining %d bytes", ErrTruncatedInput, l, start, c.Remaining())
	}
	return c.ReadBytes(int(l))
}

func (c *Cursor) ReadFixed32() (uint32, error) {
	v, n := protowire.ConsumeFixed32(c.buf[c.pos:])
	if n < 0 {
		return 0, fmt.Errorf("%w: fixed32 at offset %d", ErrTruncatedInput, c.pos)
	}
	c.pos += n
	return v, nil
}

func (c *Cursor) ReadFixed64() (uint64, error) {
	v, n := protowire.ConsumeFixed64(c.buf[c.pos:])
	if n < 0 {
		return 0, fmt.Errorf("%w: fixed64 at offset %d", ErrTruncatedInput, c.pos)
	}
	c.pos += n
	return v, nil
}

// readString returns a string sharing memory with the buffer.
func (c *Cursor) readString() (string, error) {
	b, err := c.ReadLengthDelimited()
	if err != nil {
		return "", err
	}
	return unsafeString(b), nil
}

func unsafeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
