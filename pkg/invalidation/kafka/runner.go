package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/paulmach/orb/maptile"
	"github.com/prometheus/client_golang/prometheus"
)

// Invalidator drops cached decodes and reports how many were present.
type Invalidator interface {
	Invalidate(tiles ...maptile.Tile) int
}

// CellMapper expands an H3 cell to the tiles it touches.
type CellMapper interface {
	TilesForCell(cell string, z maptile.Zoom) ([]maptile.Tile, error)
}

type Runner struct {
	log      *slog.Logger
	cfg      InvalidationConfig
	inv      Invalidator
	mapper   CellMapper
	zoom     maptile.Zoom
	ms       *metricSet
	versions *tileVersions
	assigned atomic.Bool
	assignMu sync.RWMutex
	assign   map[int32]struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

type Options struct {
	Logger   *slog.Logger
	Register prometheus.Registerer
	// Mapper is required for events that carry h3_cells.
	Mapper CellMapper
	// Zoom applies to h3_cells events that leave zoom unset.
	Zoom maptile.Zoom
}

func New(cfg InvalidationConfig, inv Invalidator, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		log:    opts.Logger,
		cfg:    cfg,
		inv:    inv,
		mapper: opts.Mapper,
		zoom:   opts.Zoom,
		ms:     newMetricSet(opts.Register),
		assign: map[int32]struct{}{},

		versions: newTileVersions(defaultVersionWindow),
	}
}

func (r *Runner) Start(ctx context.Context) error {
	if r.cfg.Driver != DriverKafka || !r.cfg.Enabled {
		r.log.Info("invalidation runner disabled", "driver", r.cfg.Driver, "enabled", r.cfg.Enabled)
		return nil
	}
	if r.inv == nil {
		return errors.New("kafka runner: invalidator is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = r.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = r.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = r.cfg.RebalanceTimeout
	if r.cfg.InitialOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(r.cfg.Brokers, r.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("consumer group: %w", err)
	}

	h := &groupHandler{
		setup: func(sess sarama.ConsumerGroupSession) {
			claims := sess.Claims()
			r.assignMu.Lock()
			r.assigned.Store(true)
			r.assign = map[int32]struct{}{}
			for _, parts := range claims {
				for _, p := range parts {
					r.assign[p] = struct{}{}
				}
			}
			r.assignMu.Unlock()
		},
		cleanup: func(sarama.ConsumerGroupSession) {
			r.assignMu.Lock()
			r.assigned.Store(false)
			r.assign = map[int32]struct{}{}
			r.assignMu.Unlock()
		},
		process: r.handleMessage,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if err := group.Close(); err != nil {
				r.log.Error("kafka consumer group close", "err", err)
			}
		}()

		for {
			if err := group.Consume(ctx, []string{r.cfg.Topic}, h); err != nil {
				r.log.Error("kafka consume error", "err", err)
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for err := range group.Errors() {
			r.log.Error("kafka group error", "err", err)
		}
	}()

	r.log.Info("kafka invalidation runner started",
		"topic", r.cfg.Topic, "group", r.cfg.GroupID, "brokers", r.cfg.Brokers)
	return nil
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info("kafka invalidation runner stopped")
}

func (r *Runner) Readiness() (ready bool, partitions []int32) {
	if !r.assigned.Load() {
		return false, nil
	}
	r.assignMu.RLock()
	defer r.assignMu.RUnlock()
	for p := range r.assign {
		partitions = append(partitions, p)
	}
	return true, partitions
}

func (r *Runner) handleMessage(_ context.Context, msg *sarama.ConsumerMessage) error {
	start := time.Now()

	r.ms.lag(msg.Timestamp)

	var w WireEvent
	if err := json.Unmarshal(msg.Value, &w); err != nil {
		r.ms.rejected()
		return fmt.Errorf("decode: %w", err)
	}
	if err := w.Validate(); err != nil {
		r.ms.rejected()
		return fmt.Errorf("validate: %w", err)
	}
	err := r.apply(w)
	r.ms.handled(w.Op, err, time.Since(start))
	return err
}

func (r *Runner) targets(w WireEvent) ([]maptile.Tile, error) {
	var out []maptile.Tile
	if t, ok := w.tile(); ok {
		out = append(out, t)
	}
	if len(w.H3Cells) == 0 {
		return out, nil
	}
	if r.mapper == nil {
		return nil, errors.New("h3 cells given but no cell mapper configured")
	}
	z := r.zoom
	if w.Zoom != 0 {
		z = maptile.Zoom(w.Zoom)
	}
	for _, cell := range w.H3Cells {
		ts, err := r.mapper.TilesForCell(cell, z)
		if err != nil {
			return nil, fmt.Errorf("tiles for cell %s: %w", cell, err)
		}
		out = append(out, ts...)
	}
	return out, nil
}

func (r *Runner) apply(w WireEvent) error {
	tiles, err := r.targets(w)
	if err != nil {
		return err
	}

	fresh, stale := r.versions.filter(tiles, w.Version)
	dropped := 0
	if len(fresh) > 0 {
		dropped = r.inv.Invalidate(fresh...)
	}
	r.ms.applied(len(fresh)+stale, dropped, len(fresh)-dropped, stale)
	if len(fresh) == 0 {
		return nil
	}
	r.log.Debug("tiles invalidated", "op", w.Op, "version", w.Version, "tiles", len(fresh), "dropped", dropped)
	return nil
}

type groupHandler struct {
	setup   func(sarama.ConsumerGroupSession)
	cleanup func(sarama.ConsumerGroupSession)
	process func(context.Context, *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	if h.setup != nil {
		h.setup(sess)
	}
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	if h.cleanup != nil {
		h.cleanup(sess)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for msg := range claim.Messages() {
		if err := h.process(ctx, msg); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
