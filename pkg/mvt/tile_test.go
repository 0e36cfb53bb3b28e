package mvt

import (
	"errors"
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/mohammed-shakir/mvt-bench/internal/mvttest"
)

func landTile() []byte {
	geom := (&mvttest.Path{}).MoveTo([2]int32{10, 20}).Stream()
	return mvttest.Tile{Layers: []mvttest.Layer{{
		Name:    "land",
		Version: 2,
		Extent:  4096,
		Keys:    []string{"class"},
		Values:  []any{"park"},
		Features: []mvttest.Feature{{
			ID: 7, HasID: true, Type: uint32(GeomPoint),
			Tags:     []uint32{0, 0},
			Geometry: geom,
		}},
	}}}.Encode()
}

func mustParse(t *testing.T, buf []byte) *Tile {
	t.Helper()
	tile, err := ParseTile(buf)
	if err != nil {
		t.Fatalf("ParseTile: %v", err)
	}
	return tile
}

func TestParseTile_SinglePointFeature(t *testing.T) {
	tile := mustParse(t, landTile())

	if got := tile.LayerNames(); !reflect.DeepEqual(got, []string{"land"}) {
		t.Fatalf("LayerNames=%v want [land]", got)
	}
	l, err := tile.Layer("land")
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	if l.FeatureCount() != 1 || l.Extent() != 4096 || l.Version() != 2 {
		t.Fatalf("count=%d extent=%d version=%d", l.FeatureCount(), l.Extent(), l.Version())
	}
	f, err := l.Feature(0)
	if err != nil {
		t.Fatalf("Feature: %v", err)
	}
	if f.ID() != UintValue(7) {
		t.Fatalf("ID=%v want 7", f.ID())
	}
	if f.Value("class") != StringValue("park") {
		t.Fatalf("class=%v want park", f.Value("class"))
	}
	if f.Type() != GeomPoint || f.Layer() != l {
		t.Fatalf("type=%v layer=%p", f.Type(), f.Layer())
	}
	geom, err := f.Geometry(1.0)
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	if want := [][]Point{{{10, 20}}}; !reflect.DeepEqual(geom, want) {
		t.Fatalf("geometry=%v want %v", geom, want)
	}
}

func TestParseTile_LayerOrderPreserved(t *testing.T) {
	names := []string{"water", "roads", "buildings", "aeroway", "poi"}
	var layers []mvttest.Layer
	for _, n := range names {
		layers = append(layers, mvttest.Layer{Name: n})
	}
	tile := mustParse(t, mvttest.Tile{Layers: layers}.Encode())
	if got := tile.LayerNames(); !reflect.DeepEqual(got, names) {
		t.Fatalf("LayerNames=%v want %v", got, names)
	}
}

func TestParseTile_DuplicateLayerNamesFirstWins(t *testing.T) {
	tile := mustParse(t, mvttest.Tile{Layers: []mvttest.Layer{
		{Name: "dup", Extent: 512},
		{Name: "dup", Extent: 8192},
	}}.Encode())
	l, err := tile.Layer("dup")
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	if l.Extent() != 512 {
		t.Fatalf("extent=%d want first layer's 512", l.Extent())
	}
	if len(tile.Layers()) != 2 {
		t.Fatalf("layers=%d want 2", len(tile.Layers()))
	}
}

func TestParseTile_EmptyLayerIsPresent(t *testing.T) {
	tile := mustParse(t, mvttest.Tile{Layers: []mvttest.Layer{{Name: "empty"}}}.Encode())
	l, err := tile.Layer("empty")
	if err != nil {
		t.Fatalf("empty layer must be found: %v", err)
	}
	if l.FeatureCount() != 0 {
		t.Fatalf("FeatureCount=%d want 0", l.FeatureCount())
	}
	for range l.Features() {
		t.Fatalf("empty layer yielded a feature")
	}
	if l.Extent() != DefaultExtent || l.Version() != DefaultVersion {
		t.Fatalf("defaults: extent=%d version=%d", l.Extent(), l.Version())
	}
}

func TestParseTile_EmptyBuffer(t *testing.T) {
	tile := mustParse(t, nil)
	if len(tile.LayerNames()) != 0 {
		t.Fatalf("expected no layers")
	}
}

func TestTile_LayerNotFound(t *testing.T) {
	tile := mustParse(t, landTile())
	if _, err := tile.Layer("nope"); !errors.Is(err, ErrLayerNotFound) {
		t.Fatalf("err=%v want ErrLayerNotFound", err)
	}
}

func TestLayer_FeatureIndexOutOfRange(t *testing.T) {
	l, _ := mustParse(t, landTile()).Layer("land")
	for _, i := range []int{-1, 1, 100} {
		if _, err := l.Feature(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Feature(%d) err=%v want ErrIndexOutOfRange", i, err)
		}
	}
}

func TestFeature_IDAbsentVersusZero(t *testing.T) {
	tile := mustParse(t, mvttest.Tile{Layers: []mvttest.Layer{{
		Name: "ids",
		Features: []mvttest.Feature{
			{Type: 1},
			{Type: 1, ID: 0, HasID: true},
		},
	}}}.Encode())
	l, _ := tile.Layer("ids")
	absent, _ := l.Feature(0)
	zero, _ := l.Feature(1)
	if !absent.ID().IsNull() {
		t.Fatalf("absent id=%v want null", absent.ID())
	}
	if zero.ID().IsNull() || zero.ID() != UintValue(0) {
		t.Fatalf("zero id=%v want uint 0", zero.ID())
	}
}

func TestFeature_Properties(t *testing.T) {
	tile := mustParse(t, mvttest.Tile{Layers: []mvttest.Layer{{
		Name:   "poi",
		Keys:   []string{"name", "rank", "open", "note"},
		Values: []any{"cafe", int64(3), true, nil, "other"},
		Features: []mvttest.Feature{{
			Type: 1,
			// the repeated "name" pair must not override the first one
			Tags: []uint32{0, 0, 1, 1, 2, 2, 3, 3, 0, 4},
		}},
	}}}.Encode())
	l, _ := tile.Layer("poi")
	f, _ := l.Feature(0)

	want := map[string]Value{
		"name": StringValue("cafe"),
		"rank": IntValue(3),
		"open": BoolValue(true),
		"note": NullValue(),
	}
	if got := f.Properties(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Properties=%v want %v", got, want)
	}
	if f.PropertyCount() != 5 {
		t.Fatalf("PropertyCount=%d want 5", f.PropertyCount())
	}

	// explicit null and absent key look the same through Value ...
	if !f.Value("note").IsNull() || !f.Value("missing").IsNull() {
		t.Fatalf("Value must return null for null and absent keys")
	}
	// ... and differ through Lookup
	if _, ok := f.Lookup("note"); !ok {
		t.Fatalf("Lookup(note) must report present")
	}
	if _, ok := f.Lookup("missing"); ok {
		t.Fatalf("Lookup(missing) must report absent")
	}

	var keys []string
	for k := range f.All() {
		keys = append(keys, k)
	}
	if !reflect.DeepEqual(keys, []string{"name", "rank", "open", "note", "name"}) {
		t.Fatalf("All order=%v", keys)
	}
}

func TestParseTile_StructuralErrors(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want error
	}{
		{
			name: "layer without name",
			buf:  mvttest.Tile{Layers: []mvttest.Layer{{OmitName: true, Extent: 4096}}}.Encode(),
			want: ErrMissingRequiredField,
		},
		{
			name: "odd tag list",
			buf: mvttest.Tile{Layers: []mvttest.Layer{{
				Name: "l", Keys: []string{"k"}, Values: []any{"v"},
				Features: []mvttest.Feature{{Type: 1, Tags: []uint32{0, 0, 0}}},
			}}}.Encode(),
			want: ErrMalformedFeature,
		},
		{
			name: "key index out of range",
			buf: mvttest.Tile{Layers: []mvttest.Layer{{
				Name: "l", Keys: []string{"k"}, Values: []any{"v"},
				Features: []mvttest.Feature{{Type: 1, Tags: []uint32{1, 0}}},
			}}}.Encode(),
			want: ErrDictionaryIndexOutOfRange,
		},
		{
			name: "value index out of range",
			buf: mvttest.Tile{Layers: []mvttest.Layer{{
				Name: "l", Keys: []string{"k"}, Values: []any{"v"},
				Features: []mvttest.Feature{{Type: 1, Tags: []uint32{0, 1}}},
			}}}.Encode(),
			want: ErrDictionaryIndexOutOfRange,
		},
		{
			name: "unknown geometry type",
			buf: mvttest.Tile{Layers: []mvttest.Layer{{
				Name: "l", Features: []mvttest.Feature{{Type: 9}},
			}}}.Encode(),
			want: ErrMalformedFeature,
		},
		{
			name: "duplicate id",
			buf: mvttest.Tile{Layers: []mvttest.Layer{{
				Name: "l", Features: []mvttest.Feature{{
					Type: 1, ID: 1, HasID: true,
					Extra: protowire.AppendVarint(protowire.AppendTag(nil, 1, protowire.VarintType), 2),
				}},
			}}}.Encode(),
			want: ErrMalformedFeature,
		},
		{
			name: "zero extent",
			buf: mvttest.Tile{Layers: []mvttest.Layer{{
				Name:  "l",
				Extra: protowire.AppendVarint(protowire.AppendTag(nil, 5, protowire.VarintType), 0),
			}}}.Encode(),
			want: ErrMalformedTag,
		},
		{
			name: "repeated layer name",
			buf: mvttest.Tile{Layers: []mvttest.Layer{{
				Name:  "l",
				Extra: protowire.AppendString(protowire.AppendTag(nil, 1, protowire.BytesType), "m"),
			}}}.Encode(),
			want: ErrMalformedTag,
		},
		{
			name: "layer field with wrong wire type",
			buf:  protowire.AppendVarint(protowire.AppendTag(nil, 3, protowire.VarintType), 1),
			want: ErrMalformedTag,
		},
		{
			name: "truncated layer",
			buf:  landTile()[:10],
			want: ErrTruncatedInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tile, err := ParseTile(tc.buf)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
			if tile != nil {
				t.Fatalf("expected no tile on error")
			}
		})
	}
}

func TestParseTile_SkipsUnknownFieldsAtEveryLevel(t *testing.T) {
	unknown := protowire.AppendTag(nil, 99, protowire.BytesType)
	unknown = protowire.AppendString(unknown, "future")
	unknown = protowire.AppendTag(unknown, 98, protowire.Fixed32Type)
	unknown = protowire.AppendFixed32(unknown, 1)

	geom := (&mvttest.Path{}).MoveTo([2]int32{1, 2}).Stream()
	buf := mvttest.Tile{
		Layers: []mvttest.Layer{{
			Name: "l", Keys: []string{"k"}, Values: []any{"v"},
			Features: []mvttest.Feature{{
				ID: 3, HasID: true, Type: 1, Tags: []uint32{0, 0}, Geometry: geom,
				Extra: unknown,
			}},
			Extra: unknown,
		}},
		Extra: unknown,
	}.Encode()

	tile := mustParse(t, buf)
	l, err := tile.Layer("l")
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	f, _ := l.Feature(0)
	if f.ID() != UintValue(3) || f.Value("k") != StringValue("v") {
		t.Fatalf("id=%v k=%v", f.ID(), f.Value("k"))
	}
}

func TestErrorKind(t *testing.T) {
	_, err := ParseTile(mvttest.Tile{Layers: []mvttest.Layer{{OmitName: true}}}.Encode())
	if got := ErrorKind(err); got != "missing_required_field" {
		t.Fatalf("ErrorKind=%q", got)
	}
	_, err = DecodeGeometry(mvttest.Packed([]uint32{mvttest.Command(mvttest.MoveTo, 1), 2}), GeomPoint, 0)
	if got := ErrorKind(err); got != "malformed_geometry" {
		t.Fatalf("ErrorKind=%q", got)
	}
	if ErrorKind(nil) != "" || ErrorKind(errors.New("x")) != "other" {
		t.Fatalf("unexpected kinds for nil/other")
	}
}
