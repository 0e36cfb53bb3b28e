package kafka

import (
	"strings"
	"time"

	"github.com/mohammed-shakir/mvt-bench/internal/core/config"
)

type Driver string

const (
	DriverNone  Driver = "none"
	DriverKafka Driver = "kafka"
)

type InvalidationConfig struct {
	Enabled bool
	Driver  Driver

	Brokers []string
	Topic   string
	GroupID string

	SessionTimeout   time.Duration
	Heartbeat        time.Duration
	RebalanceTimeout time.Duration
	InitialOldest    bool
}

// FromConfig fills consumer defaults around the env-level settings.
func FromConfig(c config.InvalidationCfg) InvalidationConfig {
	driver := Driver(strings.ToLower(strings.TrimSpace(c.Driver)))
	if driver == "" {
		driver = DriverNone
	}
	brokers := split(c.Brokers)
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	topic := strings.TrimSpace(c.Topic)
	if topic == "" {
		topic = "tile-invalidation"
	}
	group := strings.TrimSpace(c.GroupID)
	if group == "" {
		group = "tile-cache-invalidator"
	}
	return InvalidationConfig{
		Enabled:          c.Enabled,
		Driver:           driver,
		Brokers:          brokers,
		Topic:            topic,
		GroupID:          group,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		InitialOldest:    true,
	}
}

func split(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
