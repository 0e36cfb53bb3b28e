package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammed-shakir/mvt-bench/pkg/mvt"
)

var enabled atomic.Bool

func init() {
	enabled.Store(true)
	prometheus.MustRegister(collectors()...)
}

// Init registers every collector of this package with reg in addition to the
// default registry. With enabled false the observe helpers become no-ops.
func Init(reg prometheus.Registerer, on bool) {
	enabled.Store(on)
	if reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

var (
	tilesDecodedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mvt_tiles_decoded_total",
			Help: "Tiles fully decoded.",
		},
	)

	featuresDecodedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mvt_features_decoded_total",
			Help: "Features visited during full tile decodes.",
		},
	)

	decodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mvt_decode_errors_total",
			Help: "Decode failures by error kind.",
		},
		[]string{"kind"},
	)

	tileDecodeSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mvt_tile_decode_seconds",
			Help:    "Time to fully decode one tile.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14), // 50us to ~400ms
		},
	)

	benchPassSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bench_pass_duration_seconds",
			Help:    "Duration of one timed pass over the corpus.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"mode"},
	)

	benchMismatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bench_feature_count_mismatch_total",
			Help: "Runs whose feature total differed from the expected total.",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"method", "route", "status"},
	)

	tileCacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tile_cache_results_total",
			Help: "Decoded tile cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	tileCacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tile_cache_invalidations_total",
			Help: "Decoded tiles dropped by invalidation.",
		},
	)

	fixtureStoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixture_store_op_total",
			Help: "Fixture store operations by result.",
		},
		[]string{"op", "result"},
	)

	fixtureStoreSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fixture_store_op_duration_seconds",
			Help:    "Fixture store operation latency.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	benchEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bench_events_total",
			Help: "Bench result events by publish result.",
		},
		[]string{"result"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mvt_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		tilesDecodedTotal, featuresDecodedTotal, decodeErrorsTotal, tileDecodeSeconds,
		benchPassSeconds, benchMismatchTotal,
		httpRequestsTotal, httpRequestDurationSeconds,
		tileCacheResults, tileCacheEvictions, fixtureStoreOps, fixtureStoreSeconds,
		benchEventsTotal, buildInfo,
	}
}

func ObserveTileDecode(features int, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	tilesDecodedTotal.Inc()
	featuresDecodedTotal.Add(float64(features))
	tileDecodeSeconds.Observe(durationSeconds)
}

func IncDecodeError(err error) {
	if !enabled.Load() || err == nil {
		return
	}
	decodeErrorsTotal.WithLabelValues(mvt.ErrorKind(err)).Inc()
}

func ObserveBenchPass(mode string, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	benchPassSeconds.WithLabelValues(mode).Observe(durationSeconds)
}

func IncBenchMismatch() {
	if enabled.Load() {
		benchMismatchTotal.Inc()
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func IncTileCache(outcome string) {
	if enabled.Load() {
		tileCacheResults.WithLabelValues(outcome).Inc()
	}
}

func IncTileCacheEvictions(n int) {
	if enabled.Load() {
		tileCacheEvictions.Add(float64(n))
	}
}

func ObserveStoreOp(op string, err error, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	fixtureStoreOps.WithLabelValues(op, result).Inc()
	fixtureStoreSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncBenchEvent(result string) {
	if enabled.Load() {
		benchEventsTotal.WithLabelValues(result).Inc()
	}
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
