// Package benchevents publishes benchmark results to Kafka.
package benchevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/mvt-bench/internal/bench"
	"github.com/mohammed-shakir/mvt-bench/internal/core/observability"
)

type Event struct {
	RunID      string    `json:"run_id,omitempty"`
	Mode       string    `json:"mode"`
	Tiles      int       `json:"tiles"`
	Bytes      int       `json:"bytes"`
	Iterations int       `json:"iterations"`
	Features   int64     `json:"features"`
	Expected   int64     `json:"expected"`
	ElapsedMS  float64   `json:"elapsed_ms"`
	Mismatch   bool      `json:"mismatch"`
	TS         time.Time `json:"ts"`
}

func FromResult(runID string, r bench.Result, ts time.Time) Event {
	return Event{
		RunID:      runID,
		Mode:       r.Mode,
		Tiles:      r.Tiles,
		Bytes:      r.Bytes,
		Iterations: r.Iterations,
		Features:   r.Features,
		Expected:   r.Expected,
		ElapsedMS:  float64(r.Elapsed.Microseconds()) / 1000,
		Mismatch:   r.CountMismatch,
		TS:         ts.UTC(),
	}
}

type Publisher struct {
	topic   string
	log     *slog.Logger
	events  chan Event
	prod    sarama.AsyncProducer
	stopped chan struct{}
}

func NewPublisher(brokers []string, topic string, queueSize int, log *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("benchevents: create async producer: %w", err)
	}
	return NewWithProducer(prod, topic, queueSize, log), nil
}

// NewWithProducer wraps an existing producer; the Publisher owns it from
// here on and closes it in Close.
func NewWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, log *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		log:     log,
		events:  make(chan Event, queueSize),
		prod:    prod,
		stopped: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.log.Error("benchevents: marshal", "err", err)
				observability.IncBenchEvent("error")
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.Mode),
				Value: sarama.ByteEncoder(b),
			}
			observability.IncBenchEvent("sent")
		}
	}()

	go func() {
		for err := range p.prod.Errors() {
			if err != nil {
				p.log.Error("benchevents: producer error", "err", err)
				observability.IncBenchEvent("error")
			}
		}
	}()

	return p
}

// Publish never blocks; when the queue is full the event is dropped.
func (p *Publisher) Publish(ev Event) {
	select {
	case p.events <- ev:
	default:
		observability.IncBenchEvent("dropped")
	}
}

func (p *Publisher) Close() error {
	close(p.events)
	<-p.stopped

	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("benchevents: close producer: %w", err)
	}
	return nil
}
