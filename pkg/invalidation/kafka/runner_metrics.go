package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metricSet struct {
	msgs     *prometheus.CounterVec
	apply    *prometheus.CounterVec
	proc     *prometheus.HistogramVec
	tiles    prometheus.Histogram
	lagGauge prometheus.Gauge
}

func newMetricSet(r prometheus.Registerer) *metricSet {
	m := &metricSet{
		msgs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inval_msgs_total",
			Help: "Tile invalidation messages by result (ok|error).",
		}, []string{"result"}),
		apply: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inval_apply_total",
			Help: "Per-tile outcomes: drop (decode evicted), absent (not cached), skip_version (stale event).",
		}, []string{"action"}),
		proc: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inval_processing_seconds",
			Help:    "Time to decode, expand and apply one invalidation message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"op"}),
		tiles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "inval_event_tiles",
			Help:    "Distinct tiles targeted by one event after H3 cell expansion.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		lagGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inval_lag_seconds",
			Help: "Now minus the Kafka timestamp of the last message.",
		}),
	}
	if r != nil {
		r.MustRegister(m.msgs, m.apply, m.proc, m.tiles, m.lagGauge)
	}
	return m
}

func (m *metricSet) lag(ts time.Time) {
	if !ts.IsZero() {
		m.lagGauge.Set(time.Since(ts).Seconds())
	}
}

func (m *metricSet) rejected() { m.msgs.WithLabelValues("error").Inc() }

func (m *metricSet) handled(op string, err error, dur time.Duration) {
	if op == "" {
		op = "unknown"
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.msgs.WithLabelValues(result).Inc()
	m.proc.WithLabelValues(op).Observe(dur.Seconds())
}

func (m *metricSet) applied(targeted, dropped, absent, stale int) {
	m.tiles.Observe(float64(targeted))
	m.apply.WithLabelValues("drop").Add(float64(dropped))
	m.apply.WithLabelValues("absent").Add(float64(absent))
	m.apply.WithLabelValues("skip_version").Add(float64(stale))
}
