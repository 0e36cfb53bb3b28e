package bench

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

func init() {
	Register("parallel", func(opts Options, _ *slog.Logger) Mode {
		n := opts.Workers
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		return &parallel{workers: n}
	})
}

// parallel spreads the tiles of one pass over a fixed worker pool. Tiles
// share nothing, so each worker decodes with no coordination beyond the
// shared counter.
type parallel struct {
	workers int
}

func (p *parallel) Name() string { return "parallel" }

func (p *parallel) Pass(parent context.Context, tiles [][]byte, d *Decoder) (int64, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		total    atomic.Int64
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int, min(len(tiles), 4*p.workers))
	var wg sync.WaitGroup
	wg.Add(p.workers)
	for range p.workers {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				n, err := d.DecodeEntireTile(ctx, tiles[i])
				total.Add(int64(n))
				if err != nil {
					fail(err)
				}
			}
		}()
	}

feed:
	for i := range tiles {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return total.Load(), firstErr
	}
	return total.Load(), parent.Err()
}
