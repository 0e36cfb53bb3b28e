package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", line, err)
	}
	return m
}

func TestSlogCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug", Component: "bench", Mode: "parallel"}, &buf)
	log := NewSlog(&zl)

	ctx := WithTile(WithRequestID(context.Background(), "req-1"), maptile.New(4680, 6260, 14))
	log.InfoContext(ctx, "decoded", "features", 12, "elapsed", 1500*time.Millisecond, "err", errors.New("boom"))

	m := decodeLine(t, &buf)
	want := map[string]any{
		"msg":        "decoded",
		"level":      "info",
		"component":  "bench",
		"mode":       "parallel",
		"request_id": "req-1",
		"tile":       "14/4680/6260",
		"features":   float64(12),
		"elapsed":    float64(1500),
		"err":        "boom",
	}
	for k, v := range want {
		if m[k] != v {
			t.Fatalf("%s=%v want %v (line %v)", k, m[k], v, m)
		}
	}
}

func TestSlogRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "warn"}, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	log := NewSlog(&zl)

	log.Debug("hidden")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	log.Warn("count mismatch", "want", 10, "got", 9)
	if m := decodeLine(t, &buf); m["level"] != "warn" {
		t.Fatalf("level=%v", m["level"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestFromContextNilParent(t *testing.T) {
	l := FromContext(WithMode(context.Background(), "sequential"), nil)
	l.Info().Msg("discarded")
}
