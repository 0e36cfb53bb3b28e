package mvt

import (
	"fmt"
	"math"
	"slices"
)

// Point is a position in tile coordinates.
type Point struct {
	X, Y int32
}

const (
	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

// NoSimplification disables point decimation. Any tolerance <= 0 does too.
const NoSimplification = -1.0

// DecodeGeometry expands a packed command stream into point lists.
//
// Point geometries return a single list holding every MoveTo target.
// LineString and Polygon geometries return one list per MoveTo; ClosePath
// appends the list's first point. The cursor accumulates across the whole
// stream and is never reset between rings. For paths and rings, interior
// points closer than tolerance to the last kept point are dropped; the first
// and last points are always kept. Unknown geometries decode to nothing.
func DecodeGeometry(cmds []byte, typ GeomType, tolerance float64) ([][]Point, error) {
	switch typ {
	case GeomPoint:
		return decodePoints(cmds)
	case GeomLineString, GeomPolygon:
		return decodePaths(cmds, tolerance)
	default:
		return nil, nil
	}
}

// position is the running delta accumulator. It is passed by value and each
// step returns the next position.
type position struct {
	x, y int64
}

func (p position) next(c *Cursor) (position, Point, error) {
	start := c.Pos()
	dx, err := c.ReadZigZag()
	if err != nil {
		return p, Point{}, fmt.Errorf("%w: parameter at offset %d: %w", ErrMalformedGeometry, start, err)
	}
	dy, err := c.ReadZigZag()
	if err != nil {
		return p, Point{}, fmt.Errorf("%w: parameter pair at offset %d cut short: %w", ErrMalformedGeometry, start, err)
	}
	p.x += dx
	p.y += dy
	if p.x < math.MinInt32 || p.x > math.MaxInt32 || p.y < math.MinInt32 || p.y > math.MaxInt32 {
		return p, Point{}, fmt.Errorf("%w: coordinate (%d, %d) overflows int32", ErrMalformedGeometry, p.x, p.y)
	}
	return p, Point{X: int32(p.x), Y: int32(p.y)}, nil
}

func readCommand(c *Cursor) (id, count uint32, err error) {
	start := c.Pos()
	v, err := c.readUint32()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: command at offset %d: %w", ErrMalformedGeometry, start, err)
	}
	return v & 0x7, v >> 3, nil
}

// sizeHint bounds a preallocation by what the remaining bytes can hold.
func sizeHint(count uint32, c *Cursor) int {
	return min(int(count), c.Remaining()/2)
}

func decodePoints(cmds []byte) ([][]Point, error) {
	c := NewCursor(cmds)
	var pos position
	var pts []Point
	for !c.Done() {
		id, count, err := readCommand(&c)
		if err != nil {
			return nil, err
		}
		if id != cmdMoveTo {
			return nil, fmt.Errorf("%w: command %d in point geometry", ErrMalformedGeometry, id)
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: MoveTo with count 0", ErrMalformedGeometry)
		}
		pts = slices.Grow(pts, sizeHint(count, &c))
		for range count {
			var p Point
			if pos, p, err = pos.next(&c); err != nil {
				return nil, err
			}
			pts = append(pts, p)
		}
	}
	if len(pts) == 0 {
		return nil, nil
	}
	return [][]Point{pts}, nil
}

// pathBuilder collects rings and applies decimation as points arrive.
type pathBuilder struct {
	tol2       float64
	paths      [][]Point
	cur        []Point
	pending    Point
	hasPending bool
}

func (b *pathBuilder) start(p Point) {
	b.flush()
	b.cur = append(make([]Point, 0, 4), p)
}

func (b *pathBuilder) add(p Point) {
	if b.tol2 > 0 {
		last := b.cur[len(b.cur)-1]
		dx := float64(p.X) - float64(last.X)
		dy := float64(p.Y) - float64(last.Y)
		if dx*dx+dy*dy < b.tol2 {
			b.pending, b.hasPending = p, true
			return
		}
	}
	b.cur = append(b.cur, p)
	b.hasPending = false
}

func (b *pathBuilder) close() {
	b.hasPending = false
	b.cur = append(b.cur, b.cur[0])
	b.flush()
}

func (b *pathBuilder) flush() {
	if b.cur == nil {
		return
	}
	if b.hasPending {
		b.cur = append(b.cur, b.pending)
		b.hasPending = false
	}
	b.paths = append(b.paths, b.cur)
	b.cur = nil
}

func decodePaths(cmds []byte, tolerance float64) ([][]Point, error) {
	c := NewCursor(cmds)
	b := pathBuilder{}
	if tolerance > 0 {
		b.tol2 = tolerance * tolerance
	}
	var pos position
	for !c.Done() {
		id, count, err := readCommand(&c)
		if err != nil {
			return nil, err
		}
		switch id {
		case cmdMoveTo:
			if count != 1 {
				return nil, fmt.Errorf("%w: MoveTo with count %d, want 1", ErrMalformedGeometry, count)
			}
			var p Point
			if pos, p, err = pos.next(&c); err != nil {
				return nil, err
			}
			b.start(p)
		case cmdLineTo:
			if b.cur == nil {
				return nil, fmt.Errorf("%w: LineTo without a preceding MoveTo", ErrMalformedGeometry)
			}
			if count == 0 {
				return nil, fmt.Errorf("%w: LineTo with count 0", ErrMalformedGeometry)
			}
			b.cur = slices.Grow(b.cur, sizeHint(count, &c))
			for range count {
				var p Point
				if pos, p, err = pos.next(&c); err != nil {
					return nil, err
				}
				b.add(p)
			}
		case cmdClosePath:
			if b.cur == nil {
				return nil, fmt.Errorf("%w: ClosePath without an open ring", ErrMalformedGeometry)
			}
			if count != 1 {
				return nil, fmt.Errorf("%w: ClosePath with count %d, want 1", ErrMalformedGeometry, count)
			}
			b.close()
		default:
			return nil, fmt.Errorf("%w: unknown command %d", ErrMalformedGeometry, id)
		}
	}
	b.flush()
	return b.paths, nil
}
