package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/paulmach/orb/maptile"

	"github.com/mohammed-shakir/mvt-bench/internal/cache"
	"github.com/mohammed-shakir/mvt-bench/internal/cache/redisstore"
	"github.com/mohammed-shakir/mvt-bench/internal/cache/tilecache"
	"github.com/mohammed-shakir/mvt-bench/internal/core/config"
	"github.com/mohammed-shakir/mvt-bench/internal/core/health"
	"github.com/mohammed-shakir/mvt-bench/internal/core/observability"
	"github.com/mohammed-shakir/mvt-bench/internal/core/router"
	"github.com/mohammed-shakir/mvt-bench/internal/core/server"
	"github.com/mohammed-shakir/mvt-bench/internal/fixtures"
	"github.com/mohammed-shakir/mvt-bench/internal/logger"
	"github.com/mohammed-shakir/mvt-bench/internal/mapper"
	h3mapper "github.com/mohammed-shakir/mvt-bench/internal/mapper/h3"
	"github.com/mohammed-shakir/mvt-bench/internal/metrics"
	invkafka "github.com/mohammed-shakir/mvt-bench/pkg/invalidation/kafka"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	source := flag.String("source", "", "tile source (dir|redis)")
	manifest := flag.String("manifest", "", "TOML corpus manifest applied over env settings")
	flag.Parse()

	cfg := config.FromEnv()
	if *manifest != "" {
		var err error
		if cfg, err = config.LoadManifest(*manifest, cfg); err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			return 2
		}
	}
	if *source != "" {
		cfg.Fixtures.Source = strings.ToLower(strings.TrimSpace(*source))
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "mvtinspect",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	if err := cfg.Validate(); err != nil {
		appLog.Error("invalid configuration", "err", err)
		return 2
	}

	p := metrics.Init(metrics.Config{
		Component: "mvtinspect",
		Enabled:   cfg.MetricsEnabled,
		Addr:      cfg.Addr,
		Build:     metrics.BuildInfo{Version: Version, Revision: os.Getenv("BUILD_REVISION")},
	})
	observability.Init(p.Registerer(), cfg.MetricsEnabled)
	observability.ExposeBuildInfo(Version)

	appLog.Info("starting inspect server",
		"addr", cfg.Addr,
		"version", Version,
		"source", cfg.Fixtures.Source,
		"cache_size", cfg.TileCacheSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store cache.Store
	if cfg.Fixtures.Source == "redis" {
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		store = rc
	}

	src, err := fixtures.New(cfg.Fixtures, store)
	if err != nil {
		appLog.Error("fixture source", "err", err)
		return 1
	}
	tiles, err := tilecache.New(timeoutLoader{src: src, d: cfg.CacheOpTimeout}, cfg.TileCacheSize)
	if err != nil {
		appLog.Error("tile cache", "err", err)
		return 1
	}

	var cells mapper.Interface = h3mapper.New()
	inval := invkafka.New(invkafka.FromConfig(cfg.Invalidation), tiles, invkafka.Options{
		Logger:   appLog,
		Register: p.Registerer(),
		Mapper:   cells,
		Zoom:     zoomOf(cfg.Fixtures),
	})
	if err := inval.Start(ctx); err != nil {
		appLog.Error("invalidation runner", "err", err)
		return 1
	}
	defer inval.Stop()

	var ready health.ReadinessReporter
	if cfg.Invalidation.Enabled {
		ready = inval
	}
	h := server.NewHandler(appLog, &router.Handlers{
		Log:   appLog,
		Tiles: tiles,
		Cells: cells,
		H3Res: cfg.H3Res,
	}, ready, p.Handler())

	if err := server.Run(ctx, cfg, appLog, h); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

// timeoutLoader bounds each fixture fetch by the cache op timeout.
type timeoutLoader struct {
	src fixtures.Source
	d   time.Duration
}

func (l timeoutLoader) Fetch(ctx context.Context, t maptile.Tile) (fixtures.Tile, error) {
	if l.d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.d)
		defer cancel()
	}
	return l.src.Fetch(ctx, t)
}

func zoomOf(f config.FixtureCfg) maptile.Zoom {
	if f.Zoom < 0 {
		return 0
	}
	return maptile.Zoom(f.Zoom)
}
