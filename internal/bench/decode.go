// Package bench drives full decodes of a tile corpus and times them.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mohammed-shakir/mvt-bench/internal/core/config"
	"github.com/mohammed-shakir/mvt-bench/internal/core/observability"
	"github.com/mohammed-shakir/mvt-bench/pkg/mvt"
)

// ErrMissingFeatureID is returned when RequireIDs is set and a feature
// carries no id.
var ErrMissingFeatureID = errors.New("feature without id")

type Options struct {
	Iterations  int
	Tolerance   float64
	PropertyKey string
	// ExpectedPerPass is the feature total of one pass over the corpus. Zero
	// takes the total of the warmup pass.
	ExpectedPerPass int64
	RequireIDs      bool
	Workers         int
}

func OptionsFrom(c config.BenchCfg) Options {
	return Options{
		Iterations:      c.Iterations,
		Tolerance:       c.Tolerance,
		PropertyKey:     c.PropertyKey,
		ExpectedPerPass: int64(c.ExpectedFeatures),
		RequireIDs:      c.RequireIDs,
		Workers:         c.Workers,
	}
}

// Decoder performs the full traversal of one tile.
type Decoder struct {
	opts Options
	log  *slog.Logger
}

func NewDecoder(opts Options, log *slog.Logger) *Decoder {
	if log == nil {
		log = slog.Default()
	}
	return &Decoder{opts: opts, log: log}
}

// DecodeEntireTile visits every layer and feature of buf, reading the id, the
// full property map, the configured property and the geometry of each, and
// returns the number of features visited.
func (d *Decoder) DecodeEntireTile(ctx context.Context, buf []byte) (int, error) {
	n, err := d.decode(ctx, buf)
	if err != nil {
		observability.IncDecodeError(err)
	}
	return n, err
}

func (d *Decoder) decode(ctx context.Context, buf []byte) (int, error) {
	tile, err := mvt.ParseTile(buf)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, name := range tile.LayerNames() {
		layer, err := tile.Layer(name)
		if err != nil {
			return count, err
		}
		n := layer.FeatureCount()
		if n == 0 {
			d.log.DebugContext(ctx, "layer empty", "layer", name)
			continue
		}
		for i := range n {
			f, err := layer.Feature(i)
			if err != nil {
				return count, err
			}
			if d.opts.RequireIDs && f.ID().IsNull() {
				return count, fmt.Errorf("layer %q feature %d: %w", name, i, ErrMissingFeatureID)
			}
			_ = f.Properties()
			_ = f.Value(d.opts.PropertyKey)
			if _, err := f.Geometry(d.opts.Tolerance); err != nil {
				return count, fmt.Errorf("layer %q feature %d: %w", name, i, err)
			}
			count++
		}
	}
	return count, nil
}
