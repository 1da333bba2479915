// Worker consumes CRM event streams (Kafka or Redis) and pushes each record to Loki.
// Set KAFKA_BROKERS or REDIS_URL, KAFKA_GROUP_ID, and LOKI_URL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-campaigns/backend/internal/config"
	"crm-campaigns/backend/internal/events"
	"crm-campaigns/backend/internal/telemetry/loki"
)

const pushTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.LokiURL == "" {
		log.Fatal("worker: LOKI_URL is required")
	}

	consumer, err := events.OpenConsumer(cfg)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}
	defer consumer.Close()

	client, err := loki.NewClient(cfg.LokiURL, nil)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("worker: consuming %v via %s (group %s), pushing to %s",
		events.Streams, cfg.ResolvedEventBackend(), cfg.KafkaGroupID, cfg.LokiURL)

	err = consumer.Consume(ctx, func(ctx context.Context, msg events.Message) error {
		pushCtx, pushCancel := context.WithTimeout(ctx, pushTimeout)
		defer pushCancel()
		if err := client.Push(pushCtx, msg); err != nil {
			log.Printf("worker: loki push failed for %s/%s: %v", msg.Stream, msg.ID, err)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("worker: consume: %v", err)
	}
	log.Println("worker: stopped")
}
