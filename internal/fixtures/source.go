package fixtures

import (
	"fmt"

	"github.com/mohammed-shakir/mvt-bench/internal/cache"
	"github.com/mohammed-shakir/mvt-bench/internal/core/config"
)

// New picks the source named by cfg.Source. store is only used for "redis".
func New(cfg config.FixtureCfg, store cache.Store) (Source, error) {
	g := GridFrom(cfg)
	switch cfg.Source {
	case "", "dir":
		pattern := cfg.Pattern
		if pattern == "" {
			pattern = config.DefaultFixturePattern
		}
		return DirSource{Dir: cfg.Dir, Pattern: pattern, Grid: g}, nil
	case "redis":
		if store == nil {
			return nil, fmt.Errorf("fixture source redis: no store configured")
		}
		return RedisSource{Store: store, Prefix: cfg.KeyPrefix, Grid: g}, nil
	default:
		return nil, fmt.Errorf("unknown fixture source %q", cfg.Source)
	}
}
