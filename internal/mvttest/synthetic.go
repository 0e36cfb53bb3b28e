package mvttest

import "fmt"

// Synthetic returns a deterministic tile with the given number of layers and
// features per layer. Features cycle through point, line and polygon
// geometries, each carrying an id and a "class" property.
func Synthetic(layers, features int) []byte {
	classes := []any{"park", "water", "road", "building"}
	t := Tile{}
	for li := range layers {
		l := Layer{
			Name:    fmt.Sprintf("layer%d", li),
			Version: 2,
			Extent:  4096,
			Keys:    []string{"class", "rank"},
			Values:  append(append([]any{}, classes...), int64(1), int64(2), int64(3)),
		}
		for fi := range features {
			f := Feature{
				ID:    uint64(li*features + fi + 1),
				HasID: true,
				Tags:  []uint32{0, uint32(fi % len(classes)), 1, uint32(len(classes) + fi%3)},
			}
			ox, oy := int32(fi*13%4000), int32(fi*29%4000)
			p := &Path{}
			switch fi % 3 {
			case 0:
				f.Type = 1
				p.MoveTo([2]int32{ox, oy})
			case 1:
				f.Type = 2
				p.MoveTo([2]int32{ox, oy})
				pts := make([][2]int32, 0, 16)
				for i := range int32(16) {
					pts = append(pts, [2]int32{ox + i*3, oy + i%4})
				}
				p.LineTo(pts...)
			default:
				f.Type = 3
				p.MoveTo([2]int32{ox, oy}).
					LineTo([2]int32{ox + 40, oy}, [2]int32{ox + 41, oy + 1}, [2]int32{ox + 40, oy + 40}, [2]int32{ox, oy + 40}).
					ClosePath().
					MoveTo([2]int32{ox + 10, oy + 10}).
					LineTo([2]int32{ox + 10, oy + 20}, [2]int32{ox + 20, oy + 20}).
					ClosePath()
			}
			f.Geometry = p.Stream()
			l.Features = append(l.Features, f)
		}
		t.Layers = append(t.Layers, l)
	}
	return t.Encode()
}
