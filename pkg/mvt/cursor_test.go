package mvt

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestReadVarint(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint64
		n    int
	}{
		{"single byte", []byte{0x05}, 5, 1},
		{"two bytes", []byte{0xac, 0x02}, 300, 2},
		{"max uint64", protowire.AppendVarint(nil, ^uint64(0)), ^uint64(0), 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCursor(tc.in)
			got, err := c.ReadVarint()
			if err != nil {
				t.Fatalf("ReadVarint: %v", err)
			}
			if got != tc.want || c.Pos() != tc.n {
				t.Fatalf("got=%d pos=%d want %d pos=%d", got, c.Pos(), tc.want, tc.n)
			}
		})
	}
}

func TestReadVarint_Truncated(t *testing.T) {
	for _, in := range [][]byte{
		{},
		{0x80},
		{0xff, 0xff},
		// eleven continuation bytes: no terminator within the maximum width
		{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01},
	} {
		c := NewCursor(in)
		if _, err := c.ReadVarint(); !errors.Is(err, ErrTruncatedInput) {
			t.Fatalf("input %x: err=%v want ErrTruncatedInput", in, err)
		}
		if c.Pos() != 0 {
			t.Fatalf("input %x: cursor advanced to %d on error", in, c.Pos())
		}
	}
}

func TestReadZigZag(t *testing.T) {
	for _, want := range []int64{0, -1, 1, -2, 2, 2147483647, -2147483648} {
		c := NewCursor(protowire.AppendVarint(nil, protowire.EncodeZigZag(want)))
		got, err := c.ReadZigZag()
		if err != nil {
			t.Fatalf("ReadZigZag(%d): %v", want, err)
		}
		if got != want {
			t.Fatalf("got=%d want %d", got, want)
		}
	}
}

func TestReadLengthDelimited_ZeroCopy(t *testing.T) {
	buf := protowire.AppendBytes([]byte{0x01}, []byte("hello"))
	c := NewCursor(buf)
	if _, err := c.ReadVarint(); err != nil {
		t.Fatalf("ReadVarint: %v", err)
	}
	b, err := c.ReadLengthDelimited()
	if err != nil {
		t.Fatalf("ReadLengthDelimited: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("got=%q want hello", b)
	}
	if &b[0] != &buf[2] {
		t.Fatalf("slice does not alias the buffer")
	}
	if cap(b) != len(b) {
		t.Fatalf("cap=%d want %d: appending would clobber the buffer", cap(b), len(b))
	}
	if !c.Done() {
		t.Fatalf("cursor not at end: pos=%d len=%d", c.Pos(), c.Len())
	}
}

func TestReadLengthDelimited_Truncated(t *testing.T) {
	c := NewCursor([]byte{0x05, 'a', 'b'})
	if _, err := c.ReadLengthDelimited(); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("err=%v want ErrTruncatedInput", err)
	}
	if c.Pos() != 0 {
		t.Fatalf("cursor advanced to %d on error", c.Pos())
	}
}

func TestReadFixed(t *testing.T) {
	buf := protowire.AppendFixed32(nil, 0xdeadbeef)
	buf = protowire.AppendFixed64(buf, 0x0102030405060708)
	c := NewCursor(buf)
	v32, err := c.ReadFixed32()
	if err != nil || v32 != 0xdeadbeef {
		t.Fatalf("ReadFixed32=%x err=%v", v32, err)
	}
	v64, err := c.ReadFixed64()
	if err != nil || v64 != 0x0102030405060708 {
		t.Fatalf("ReadFixed64=%x err=%v", v64, err)
	}
	if _, err := c.ReadFixed32(); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("err=%v want ErrTruncatedInput", err)
	}
}
