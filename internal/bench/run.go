package bench

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/mvt-bench/internal/core/observability"
)

type Result struct {
	Mode       string
	Tiles      int
	Bytes      int
	Iterations int
	// Features counts every feature visited, warmup pass included.
	Features      int64
	Expected      int64
	Elapsed       time.Duration
	Passes        []time.Duration
	CountMismatch bool
}

// TilesPerSecond is the timed decode rate, warmup excluded.
func (r Result) TilesPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Tiles*r.Iterations) / r.Elapsed.Seconds()
}

func (r Result) MillisPerPass() float64 {
	if r.Iterations == 0 {
		return 0
	}
	return float64(r.Elapsed.Microseconds()) / 1000 / float64(r.Iterations)
}

type Runner struct {
	mode Mode
	dec  *Decoder
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

type RunnerOption func(*Runner)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

func NewRunner(mode Mode, opts Options, log *slog.Logger, ropts ...RunnerOption) *Runner {
	if log == nil {
		log = slog.Default()
	}
	r := &Runner{
		mode: mode,
		dec:  NewDecoder(opts, log),
		opts: opts,
		log:  log,
		now:  time.Now,
	}
	for _, o := range ropts {
		o(r)
	}
	return r
}

// Run decodes the corpus once untimed, then Iterations more times under the
// clock. A feature total that differs from ExpectedPerPass × (Iterations+1)
// is logged and flagged in the result but is not an error; decode errors and
// cancellation abort the run.
func (r *Runner) Run(ctx context.Context, tiles [][]byte) (Result, error) {
	res := Result{Mode: r.mode.Name(), Tiles: len(tiles), Iterations: r.opts.Iterations}
	for _, t := range tiles {
		res.Bytes += len(t)
	}

	r.log.InfoContext(ctx, "decoding tiles", "tiles", len(tiles), "bytes", res.Bytes, "mode", res.Mode)
	r.log.InfoContext(ctx, "warming up")
	warm, err := r.mode.Pass(ctx, tiles, r.dec)
	res.Features += warm
	if err != nil {
		return res, fmt.Errorf("warmup pass: %w", err)
	}

	perPass := r.opts.ExpectedPerPass
	if perPass == 0 {
		perPass = warm
	}
	res.Expected = perPass * int64(r.opts.Iterations+1)

	r.log.InfoContext(ctx, "running bench", "iterations", r.opts.Iterations)
	start := r.now()
	for i := range r.opts.Iterations {
		passStart := r.now()
		n, err := r.mode.Pass(ctx, tiles, r.dec)
		res.Features += n
		if err != nil {
			return res, fmt.Errorf("pass %d: %w", i+1, err)
		}
		d := r.now().Sub(passStart)
		res.Passes = append(res.Passes, d)
		observability.ObserveBenchPass(res.Mode, d.Seconds())
	}
	res.Elapsed = r.now().Sub(start)

	if res.Features != res.Expected {
		res.CountMismatch = true
		observability.IncBenchMismatch()
		r.log.WarnContext(ctx, "feature count mismatch", "expected", res.Expected, "got", res.Features)
	}
	r.log.InfoContext(ctx, "bench done",
		"elapsed", res.Elapsed, "ms_per_pass", res.MillisPerPass(), "tiles_per_second", res.TilesPerSecond())
	return res, nil
}
