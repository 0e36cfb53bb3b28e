package bench

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Mode runs one pass over the corpus and returns the features it visited.
type Mode interface {
	Name() string
	Pass(ctx context.Context, tiles [][]byte, d *Decoder) (int64, error)
}

type Factory func(opts Options, logger *slog.Logger) Mode

const DefaultMode = "sequential"

var (
	regMu sync.RWMutex
	reg   = map[string]Factory{}
)

func Register(name string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	reg[name] = f
}

func Modes() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(reg))
	for k := range reg {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// NewMode builds the named mode, falling back to sequential for unknown names.
func NewMode(name string, opts Options, logger *slog.Logger) (Mode, error) {
	if logger == nil {
		logger = slog.Default()
	}
	regMu.RLock()
	f, ok := reg[name]
	fallback, hasFallback := reg[DefaultMode]
	regMu.RUnlock()
	if ok {
		return f(opts, logger), nil
	}
	if hasFallback {
		logger.Warn("unknown bench mode; falling back to sequential", "mode", name)
		return fallback(opts, logger), nil
	}
	return nil, fmt.Errorf("no factory for mode %q and no %s registered", name, DefaultMode)
}
