package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mohammed-shakir/mvt-bench/internal/bench"
	"github.com/mohammed-shakir/mvt-bench/internal/benchevents"
	"github.com/mohammed-shakir/mvt-bench/internal/cache"
	"github.com/mohammed-shakir/mvt-bench/internal/cache/redisstore"
	"github.com/mohammed-shakir/mvt-bench/internal/core/config"
	"github.com/mohammed-shakir/mvt-bench/internal/core/observability"
	"github.com/mohammed-shakir/mvt-bench/internal/fixtures"
	"github.com/mohammed-shakir/mvt-bench/internal/logger"
	"github.com/mohammed-shakir/mvt-bench/internal/metrics"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	manifest := flag.String("manifest", "", "TOML corpus manifest applied over env settings")
	mode := flag.String("mode", "", "bench mode ("+strings.Join(bench.Modes(), "|")+")")
	iterations := flag.Int("iterations", 0, "timed passes over the corpus")
	dir := flag.String("dir", "", "fixture directory")
	asJSON := flag.Bool("json", false, "print the result as JSON on stdout")
	flag.Parse()

	cfg := config.FromEnv()
	if *manifest != "" {
		var err error
		if cfg, err = config.LoadManifest(*manifest, cfg); err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			return 2
		}
	}
	if *mode != "" {
		cfg.Bench.Mode = strings.TrimSpace(*mode)
	}
	if *iterations > 0 {
		cfg.Bench.Iterations = *iterations
	}
	if *dir != "" {
		cfg.Fixtures.Dir = *dir
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Mode:      cfg.Bench.Mode,
		Component: "mvtbench",
	}, os.Stderr)
	appLog := logger.NewSlog(&zl)

	if err := cfg.Validate(); err != nil {
		appLog.Error("invalid configuration", "err", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsEnabled {
		p := metrics.Init(metrics.Config{
			Component: "mvtbench",
			Enabled:   true,
			Addr:      cfg.Addr,
			Build:     metrics.BuildInfo{Version: Version, Revision: os.Getenv("BUILD_REVISION")},
		})
		observability.Init(p.Registerer(), true)
		stopMetrics := p.Serve(cfg.Addr, appLog)
		defer stopMetrics()
	} else {
		observability.Init(nil, false)
	}
	observability.ExposeBuildInfo(Version)

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
	tiles, err := src.Load(ctx)
	if err != nil {
		appLog.Error("load fixtures", "err", err)
		return 1
	}
	bufs := make([][]byte, len(tiles))
	for i, t := range tiles {
		bufs[i] = t.Data
	}

	opts := bench.OptionsFrom(cfg.Bench)
	m, err := bench.NewMode(cfg.Bench.Mode, opts, appLog)
	if err != nil {
		appLog.Error("bench mode", "err", err)
		return 1
	}
	res, err := bench.NewRunner(m, opts, appLog).Run(ctx, bufs)
	if err != nil {
		appLog.Error("bench failed", "err", err)
		return 1
	}

	if cfg.Events.Enabled {
		publish(cfg, res, appLog)
	}

	if *asJSON {
		if err := json.NewEncoder(os.Stdout).Encode(res); err != nil {
			appLog.Error("write result", "err", err)
			return 1
		}
	}
	return 0
}

func publish(cfg config.Config, res bench.Result, log *slog.Logger) {
	brokers := strings.Split(cfg.Events.Brokers, ",")
	pub, err := benchevents.NewPublisher(brokers, cfg.Events.Topic, 0, log)
	if err != nil {
		log.Error("bench events disabled", "err", err)
		return
	}
	pub.Publish(benchevents.FromResult(logger.NewID(), res, time.Now().UTC()))
	if err := pub.Close(); err != nil {
		log.Error("bench events close", "err", err)
	}
}
