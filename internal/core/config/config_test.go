package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	c := FromEnv()
	f := c.Fixtures
	if f.Source != "dir" || f.Dir != DefaultFixtureDir || f.Pattern != DefaultFixturePattern {
		t.Fatalf("fixtures=%+v", f)
	}
	if f.Zoom != 14 || f.XMin != 4680 || f.XMax != 4693 || f.YMin != 6260 || f.YMax != 6274 {
		t.Fatalf("fixture grid=%+v", f)
	}
	if f.Count() != 210 {
		t.Fatalf("count=%d want 210", f.Count())
	}
	b := c.Bench
	if b.Iterations != 100 || b.Tolerance != 1.0 || b.ExpectedFeatures != 80770 || b.PropertyKey != "class" || !b.RequireIDs {
		t.Fatalf("bench=%+v", b)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FIXTURE_SOURCE", "REDIS")
	t.Setenv("BENCH_ITERATIONS", "3")
	t.Setenv("BENCH_TOLERANCE", "0")
	t.Setenv("BENCH_REQUIRE_IDS", "no")
	t.Setenv("CACHE_OP_TIMEOUT", "1s")
	t.Setenv("H3_RES", "99")
	t.Setenv("BENCH_WORKERS", "not-a-number")

	c := FromEnv()
	if c.Fixtures.Source != "redis" {
		t.Fatalf("source=%q", c.Fixtures.Source)
	}
	if c.Bench.Iterations != 3 || c.Bench.Tolerance != 0 || c.Bench.RequireIDs {
		t.Fatalf("bench=%+v", c.Bench)
	}
	if c.CacheOpTimeout != time.Second {
		t.Fatalf("timeout=%v", c.CacheOpTimeout)
	}
	if c.H3Res != 8 {
		t.Fatalf("out of range H3_RES should fall back, got %d", c.H3Res)
	}
	if c.Bench.Workers != 0 {
		t.Fatalf("unparsable workers should fall back, got %d", c.Bench.Workers)
	}
}

func TestValidate(t *testing.T) {
	c := FromEnv()
	c.Fixtures.Source = "s3"
	c.Fixtures.XMax = c.Fixtures.XMin - 1
	c.Bench.Iterations = -1
	err := c.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"fixture source", "x range", "iterations"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}

func TestValidateCapsGridToZoom(t *testing.T) {
	c := FromEnv()
	c.Fixtures.Zoom = 2
	c.Fixtures.XMin, c.Fixtures.XMax = 0, 3
	c.Fixtures.YMin, c.Fixtures.YMax = 0, 3
	if err := c.Validate(); err != nil {
		t.Fatalf("full zoom-2 grid rejected: %v", err)
	}
	c.Fixtures.XMax = 4
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "exceeds zoom 2") {
		t.Fatalf("err=%v want grid bound error", err)
	}
}

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "corpus.toml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadManifestAppliesDefinedKeys(t *testing.T) {
	p := writeManifest(t, `
[fixtures]
dir = "testdata/tiles"
zoom = 3
x = [1, 2]
y = [4, 4]

[bench]
iterations = 5
require_ids = false
`)
	base := FromEnv()
	c, err := LoadManifest(p, base)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	f := c.Fixtures
	if f.Dir != "testdata/tiles" || f.Zoom != 3 || f.XMin != 1 || f.XMax != 2 || f.YMin != 4 || f.YMax != 4 {
		t.Fatalf("fixtures=%+v", f)
	}
	if f.Pattern != base.Fixtures.Pattern {
		t.Fatalf("pattern should keep base value, got %q", f.Pattern)
	}
	if c.Bench.Iterations != 5 || c.Bench.RequireIDs {
		t.Fatalf("bench=%+v", c.Bench)
	}
	if c.Bench.ExpectedFeatures != base.Bench.ExpectedFeatures {
		t.Fatalf("expected features changed: %d", c.Bench.ExpectedFeatures)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	cases := map[string]string{
		"bad range":   "[fixtures]\nx = [1]\n",
		"unknown key": "[bench]\nspeed = 3\n",
		"bad syntax":  "[bench\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadManifest(writeManifest(t, body), FromEnv()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.toml"), FromEnv()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
