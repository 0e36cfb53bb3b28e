package mvt

import (
	"math"
	"testing"

	"github.com/mohammed-shakir/mvt-bench/internal/mvttest"
)

func TestValue_TypeTaggedEquality(t *testing.T) {
	if IntValue(5) == UintValue(5) {
		t.Fatalf("int 5 must not equal uint 5")
	}
	if FloatValue(1.5) == DoubleValue(1.5) {
		t.Fatalf("float 1.5 must not equal double 1.5")
	}
	if !StringValue("park").Equal(StringValue("park")) {
		t.Fatalf("equal strings must compare equal")
	}
	if !NullValue().Equal(Value{}) {
		t.Fatalf("zero Value must be null")
	}
	m := map[Value]int{IntValue(5): 1, UintValue(5): 2, BoolValue(true): 3}
	if len(m) != 3 || m[UintValue(5)] != 2 {
		t.Fatalf("values must hash by kind and payload: %v", m)
	}
}

func TestValue_Accessors(t *testing.T) {
	if v, ok := IntValue(-3).AsInt(); !ok || v != -3 {
		t.Fatalf("AsInt=%d,%v", v, ok)
	}
	if _, ok := IntValue(-3).AsUint(); ok {
		t.Fatalf("AsUint on int must report false")
	}
	if v, ok := FloatValue(0.25).AsFloat(); !ok || v != 0.25 {
		t.Fatalf("AsFloat=%v,%v", v, ok)
	}
	if v, ok := BoolValue(true).AsBool(); !ok || !v {
		t.Fatalf("AsBool=%v,%v", v, ok)
	}
	if s, ok := StringValue("x").AsString(); !ok || s != "x" {
		t.Fatalf("AsString=%q,%v", s, ok)
	}
}

func TestValue_Float64Coercion(t *testing.T) {
	cases := []struct {
		v    Value
		want float64
		ok   bool
	}{
		{IntValue(-2), -2, true},
		{UintValue(3), 3, true},
		{FloatValue(0.5), 0.5, true},
		{DoubleValue(math.Pi), math.Pi, true},
		{StringValue("1"), 0, false},
		{BoolValue(true), 0, false},
		{NullValue(), 0, false},
	}
	for _, tc := range cases {
		got, ok := tc.v.Float64()
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%v.Float64()=%v,%v want %v,%v", tc.v, got, ok, tc.want, tc.ok)
		}
	}
}

func TestValue_String(t *testing.T) {
	cases := map[Value]string{
		NullValue():         "null",
		BoolValue(false):    "false",
		IntValue(-7):        "-7",
		UintValue(7):        "7",
		DoubleValue(2.5):    "2.5",
		StringValue("park"): `"park"`,
	}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Fatalf("String()=%q want %q", got, want)
		}
	}
}

func TestParseValue_AllKinds(t *testing.T) {
	cases := []struct {
		in   any
		want Value
	}{
		{nil, NullValue()},
		{"park", StringValue("park")},
		{float32(1.25), FloatValue(1.25)},
		{float64(-8.5), DoubleValue(-8.5)},
		{int64(-12), IntValue(-12)},
		{uint64(1 << 63), UintValue(1 << 63)},
		{mvttest.Sint(-300), IntValue(-300)},
		{true, BoolValue(true)},
	}
	for _, tc := range cases {
		got, err := parseValue(mvttest.EncodeValue(tc.in))
		if err != nil {
			t.Fatalf("parseValue(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseValue(%v)=%v (%s) want %v (%s)", tc.in, got, got.Kind(), tc.want, tc.want.Kind())
		}
	}
}
