package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/mvt-bench/internal/cache/keys"
	"github.com/mohammed-shakir/mvt-bench/internal/cache/redisstore"
	"github.com/mohammed-shakir/mvt-bench/internal/core/config"
	"github.com/mohammed-shakir/mvt-bench/internal/fixtures"
	invkafka "github.com/mohammed-shakir/mvt-bench/pkg/invalidation/kafka"
)

// seedBatch bounds the number of tiles per pipelined write.
const seedBatch = 64

func main() {
	os.Exit(run())
}

func run() int {
	manifest := flag.String("manifest", "", "TOML corpus manifest applied over env settings")
	ttl := flag.Duration("ttl", 0, "expiry for seeded keys (0 keeps them)")
	notify := flag.Bool("notify", false, "publish an invalidation event per seeded tile")
	flag.Parse()

	cfg := config.FromEnv()
	if *manifest != "" {
		var err error
		if cfg, err = config.LoadManifest(*manifest, cfg); err != nil {
			fmt.Println("manifest error:", err)
			return 2
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dirCfg := cfg.Fixtures
	dirCfg.Source = "dir"
	src, err := fixtures.New(dirCfg, nil)
	if err != nil {
		fmt.Println("fixture source error:", err)
		return 1
	}
	tiles, err := src.Load(ctx)
	if err != nil {
		fmt.Println("load error:", err)
		return 1
	}
	fmt.Printf("loaded %d tiles (%d bytes) from %s\n", len(tiles), fixtures.TotalBytes(tiles), dirCfg.Dir)

	rc, err := redisstore.New(ctx, cfg.RedisAddr)
	if err != nil {
		fmt.Println("redis error:", err)
		return 1
	}
	defer func() { _ = rc.Close() }()

	if err := seed(ctx, rc, cfg.Fixtures.KeyPrefix, tiles, *ttl); err != nil {
		fmt.Println("seed error:", err)
		return 1
	}
	fmt.Printf("seeded %d keys into %s\n", len(tiles), cfg.RedisAddr)

	if *notify {
		brokers := strings.Split(cfg.Invalidation.Brokers, ",")
		if err := announce(brokers, cfg.Invalidation.Topic, tiles); err != nil {
			fmt.Println("kafka error:", err)
			return 1
		}
		fmt.Printf("published %d invalidation events to %s\n", len(tiles), cfg.Invalidation.Topic)
	}
	return 0
}

type writer interface {
	MSetWithTTL(ctx context.Context, kv map[string][]byte, ttl time.Duration) error
}

func seed(ctx context.Context, w writer, prefix string, tiles []fixtures.Tile, ttl time.Duration) error {
	for start := 0; start < len(tiles); start += seedBatch {
		batch := tiles[start:min(start+seedBatch, len(tiles))]
		kv := make(map[string][]byte, len(batch))
		for _, t := range batch {
			kv[keys.Tile(prefix, t.Coord)] = t.Data
		}
		if err := w.MSetWithTTL(ctx, kv, ttl); err != nil {
			return fmt.Errorf("batch at %d: %w", start, err)
		}
	}
	return nil
}

func events(tiles []fixtures.Tile, now time.Time) []*sarama.ProducerMessage {
	out := make([]*sarama.ProducerMessage, 0, len(tiles))
	for _, t := range tiles {
		z := uint32(t.Coord.Z)
		b, _ := json.Marshal(invkafka.WireEvent{
			Z: &z, X: t.Coord.X, Y: t.Coord.Y,
			Version: uint64(now.UnixNano()),
			Op:      "update",
			TS:      now,
		})
		out = append(out, &sarama.ProducerMessage{
			Key:   sarama.StringEncoder(keys.Tile("", t.Coord)),
			Value: sarama.ByteEncoder(b),
		})
	}
	return out
}

func announce(brokers []string, topic string, tiles []fixtures.Tile) error {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Version = sarama.V2_5_0_0
	prod, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return fmt.Errorf("producer create: %w", err)
	}
	defer func() { _ = prod.Close() }()

	msgs := events(tiles, time.Now().UTC())
	for _, m := range msgs {
		m.Topic = topic
	}
	if err := prod.SendMessages(msgs); err != nil {
		return fmt.Errorf("send messages: %w", err)
	}
	return nil
}
