package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Driver  string
	Topic   string
	Brokers string
	GroupID string
}

// FixtureCfg selects the tile corpus: every (x, y) in the inclusive ranges
// at one zoom level.
type FixtureCfg struct {
	Source    string
	Dir       string
	Pattern   string
	KeyPrefix string
	Zoom      int
	XMin      int
	XMax      int
	YMin      int
	YMax      int
}

func (f FixtureCfg) Count() int {
	if f.XMax < f.XMin || f.YMax < f.YMin {
		return 0
	}
	return (f.XMax - f.XMin + 1) * (f.YMax - f.YMin + 1)
}

type BenchCfg struct {
	Mode             string
	Workers          int
	Iterations       int
	Tolerance        float64
	ExpectedFeatures int
	PropertyKey      string
	RequireIDs       bool
}

type EventsCfg struct {
	Enabled bool
	Topic   string
	Brokers string
}

type Config struct {
	Addr           string
	LogLevel       string
	LogConsole     bool
	LogSampleN     int
	MetricsEnabled bool
	RedisAddr      string
	KafkaBrokers   string
	H3Res          int
	CacheOpTimeout time.Duration
	TileCacheSize  int
	Fixtures       FixtureCfg
	Bench          BenchCfg
	Events         EventsCfg
	Invalidation   InvalidationCfg
}

const (
	DefaultFixtureDir     = "bench/mvt-bench-fixtures/fixtures"
	DefaultFixturePattern = "{z}-{x}-{y}.mvt"
)

func FromEnv() Config {
	res := getint("H3_RES", 8)
	if res < 0 || res > 15 {
		res = 8
	}
	brokers := getenv("KAFKA_BROKERS", "localhost:9092")

	return Config{
		Addr:           getenv("ADDR", ":8090"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogConsole:     getbool("LOG_CONSOLE", false),
		LogSampleN:     getint("LOG_SAMPLE_N", 0),
		MetricsEnabled: getbool("METRICS_ENABLED", true),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:   brokers,
		H3Res:          res,
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		TileCacheSize:  getint("TILE_CACHE_SIZE", 256),
		Fixtures: FixtureCfg{
			Source:    strings.ToLower(getenv("FIXTURE_SOURCE", "dir")),
			Dir:       getenv("FIXTURE_DIR", DefaultFixtureDir),
			Pattern:   getenv("FIXTURE_PATTERN", DefaultFixturePattern),
			KeyPrefix: getenv("FIXTURE_KEY_PREFIX", "mvt"),
			Zoom:      getint("FIXTURE_ZOOM", 14),
			XMin:      getint("FIXTURE_X_MIN", 4680),
			XMax:      getint("FIXTURE_X_MAX", 4693),
			YMin:      getint("FIXTURE_Y_MIN", 6260),
			YMax:      getint("FIXTURE_Y_MAX", 6274),
		},
		Bench: BenchCfg{
			Mode:             strings.ToLower(getenv("BENCH_MODE", "sequential")),
			Workers:          getint("BENCH_WORKERS", 0),
			Iterations:       getint("BENCH_ITERATIONS", 100),
			Tolerance:        getfloat("BENCH_TOLERANCE", 1.0),
			ExpectedFeatures: getint("BENCH_EXPECTED_FEATURES", 80770),
			PropertyKey:      getenv("BENCH_PROPERTY_KEY", "class"),
			RequireIDs:       getbool("BENCH_REQUIRE_IDS", true),
		},
		Events: EventsCfg{
			Enabled: getbool("BENCH_EVENTS_ENABLED", false),
			Topic:   getenv("BENCH_EVENTS_TOPIC", "mvt-bench-results"),
			Brokers: brokers,
		},
		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Driver:  getenv("INVALIDATION_DRIVER", "none"),
			Topic:   getenv("KAFKA_TOPIC", "tile-invalidation"),
			Brokers: brokers,
			GroupID: getenv("KAFKA_GROUP_ID", "tile-cache-invalidator"),
		},
	}
}

// Validate reports settings a run cannot start with.
func (c Config) Validate() error {
	var errs []error
	f := c.Fixtures
	switch f.Source {
	case "dir", "redis":
	default:
		errs = append(errs, fmt.Errorf("fixture source %q: want dir or redis", f.Source))
	}
	if f.Zoom < 0 || f.Zoom > 30 {
		errs = append(errs, fmt.Errorf("fixture zoom %d out of range", f.Zoom))
	}
	if f.XMin < 0 || f.XMax < f.XMin {
		errs = append(errs, fmt.Errorf("fixture x range [%d, %d] is empty", f.XMin, f.XMax))
	}
	if f.YMin < 0 || f.YMax < f.YMin {
		errs = append(errs, fmt.Errorf("fixture y range [%d, %d] is empty", f.YMin, f.YMax))
	}
	if f.Zoom >= 0 && f.Zoom <= 30 {
		last := 1<<f.Zoom - 1
		if f.XMax > last || f.YMax > last {
			errs = append(errs, fmt.Errorf("fixture grid x<=%d y<=%d exceeds zoom %d (max %d)", f.XMax, f.YMax, f.Zoom, last))
		}
	}
	if c.Bench.Iterations < 0 {
		errs = append(errs, fmt.Errorf("bench iterations %d is negative", c.Bench.Iterations))
	}
	if c.Bench.ExpectedFeatures < 0 {
		errs = append(errs, fmt.Errorf("expected features %d is negative", c.Bench.ExpectedFeatures))
	}
	if math.IsNaN(c.Bench.Tolerance) || math.IsInf(c.Bench.Tolerance, 0) {
		errs = append(errs, fmt.Errorf("bench tolerance %v is not finite", c.Bench.Tolerance))
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
