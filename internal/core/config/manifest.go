package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// manifestFile is the on-disk shape of a corpus manifest:
//
//	[fixtures]
//	dir = "bench/mvt-bench-fixtures/fixtures"
//	zoom = 14
//	x = [4680, 4693]
//	y = [6260, 6274]
//
//	[bench]
//	iterations = 100
//	expected_features = 80770
type manifestFile struct {
	Fixtures struct {
		Source  string `toml:"source"`
		Dir     string `toml:"dir"`
		Pattern string `toml:"pattern"`
		Zoom    int    `toml:"zoom"`
		X       []int  `toml:"x"`
		Y       []int  `toml:"y"`
	} `toml:"fixtures"`
	Bench struct {
		Mode             string  `toml:"mode"`
		Workers          int     `toml:"workers"`
		Iterations       int     `toml:"iterations"`
		Tolerance        float64 `toml:"tolerance"`
		ExpectedFeatures int     `toml:"expected_features"`
		PropertyKey      string  `toml:"property_key"`
		RequireIDs       bool    `toml:"require_ids"`
	} `toml:"bench"`
}

// LoadManifest reads a TOML corpus manifest and applies every key it defines
// on top of base. Keys the manifest leaves out keep their base value.
func LoadManifest(path string, base Config) (Config, error) {
	var raw manifestFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load manifest: %w", err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("load manifest: unknown key %q", undec[0].String())
	}

	cfg := base
	f := &cfg.Fixtures
	if meta.IsDefined("fixtures", "source") {
		f.Source = strings.ToLower(strings.TrimSpace(raw.Fixtures.Source))
	}
	if meta.IsDefined("fixtures", "dir") {
		f.Dir = strings.TrimSpace(raw.Fixtures.Dir)
	}
	if meta.IsDefined("fixtures", "pattern") {
		f.Pattern = raw.Fixtures.Pattern
	}
	if meta.IsDefined("fixtures", "zoom") {
		f.Zoom = raw.Fixtures.Zoom
	}
	if meta.IsDefined("fixtures", "x") {
		if len(raw.Fixtures.X) != 2 {
			return Config{}, fmt.Errorf("load manifest: fixtures.x wants [min, max], got %v", raw.Fixtures.X)
		}
		f.XMin, f.XMax = raw.Fixtures.X[0], raw.Fixtures.X[1]
	}
	if meta.IsDefined("fixtures", "y") {
		if len(raw.Fixtures.Y) != 2 {
			return Config{}, fmt.Errorf("load manifest: fixtures.y wants [min, max], got %v", raw.Fixtures.Y)
		}
		f.YMin, f.YMax = raw.Fixtures.Y[0], raw.Fixtures.Y[1]
	}

	b := &cfg.Bench
	if meta.IsDefined("bench", "mode") {
		b.Mode = strings.ToLower(strings.TrimSpace(raw.Bench.Mode))
	}
	if meta.IsDefined("bench", "workers") {
		b.Workers = raw.Bench.Workers
	}
	if meta.IsDefined("bench", "iterations") {
		b.Iterations = raw.Bench.Iterations
	}
	if meta.IsDefined("bench", "tolerance") {
		b.Tolerance = raw.Bench.Tolerance
	}
	if meta.IsDefined("bench", "expected_features") {
		b.ExpectedFeatures = raw.Bench.ExpectedFeatures
	}
	if meta.IsDefined("bench", "property_key") {
		b.PropertyKey = raw.Bench.PropertyKey
	}
	if meta.IsDefined("bench", "require_ids") {
		b.RequireIDs = raw.Bench.RequireIDs
	}
	return cfg, nil
}
