package mvttest

import "google.golang.org/protobuf/encoding/protowire"

const (
	MoveTo    = 1
	LineTo    = 2
	ClosePath = 7
)

func Command(id, count uint32) uint32 { return id&0x7 | count<<3 }

func ZigZag(v int32) uint32 { return uint32(protowire.EncodeZigZag(int64(v))) }

// Path writes commands from absolute coordinates, tracking the cursor the
// same way a decoder does.
type Path struct {
	cmds []uint32
	x, y int32
}

func (p *Path) params(pts [][2]int32) {
	for _, pt := range pts {
		p.cmds = append(p.cmds, ZigZag(pt[0]-p.x), ZigZag(pt[1]-p.y))
		p.x, p.y = pt[0], pt[1]
	}
}

func (p *Path) MoveTo(pts ...[2]int32) *Path {
	p.cmds = append(p.cmds, Command(MoveTo, uint32(len(pts))))
	p.params(pts)
	return p
}

func (p *Path) LineTo(pts ...[2]int32) *Path {
	p.cmds = append(p.cmds, Command(LineTo, uint32(len(pts))))
	p.params(pts)
	return p
}

func (p *Path) ClosePath() *Path {
	p.cmds = append(p.cmds, Command(ClosePath, 1))
	return p
}

// Raw appends integers verbatim.
func (p *Path) Raw(vs ...uint32) *Path {
	p.cmds = append(p.cmds, vs...)
	return p
}

func (p *Path) Stream() []uint32 { return p.cmds }
