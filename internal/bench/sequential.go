package bench

import (
	"context"
	"log/slog"
)

func init() {
	Register("sequential", func(Options, *slog.Logger) Mode { return sequential{} })
}

type sequential struct{}

func (sequential) Name() string { return "sequential" }

func (sequential) Pass(ctx context.Context, tiles [][]byte, d *Decoder) (int64, error) {
	var total int64
	for _, buf := range tiles {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := d.DecodeEntireTile(ctx, buf)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
