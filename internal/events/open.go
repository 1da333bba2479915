package events

import (
	"fmt"
	"os"

	sdklog "go.opentelemetry.io/otel/sdk/log"

	"crm-campaigns/backend/internal/config"
)

// Open returns the publisher selected by cfg. lp is used by the otel backend.
func Open(cfg *config.Config, lp *sdklog.LoggerProvider) (Publisher, error) {
	switch backend := cfg.ResolvedEventBackend(); backend {
	case config.EventBackendRedis:
		return NewRedisPublisher(cfg.RedisURL, cfg.StreamMaxLen)
	case config.EventBackendKafka:
		return NewKafkaPublisher(cfg.KafkaBrokersList(), cfg.KafkaTopicPrefix)
	case config.EventBackendOTel:
		if lp == nil {
			return nil, fmt.Errorf("events: otel backend requires a logger provider")
		}
		return NewOTelPublisher(lp), nil
	case config.EventBackendLog:
		return NewLogPublisher(nil), nil
	default:
		return nil, fmt.Errorf("events: unknown backend %q", backend)
	}
}

// OpenConsumer returns the consumer for cfg's broker. Only kafka and redis can be consumed.
func OpenConsumer(cfg *config.Config) (Consumer, error) {
	switch backend := cfg.ResolvedEventBackend(); backend {
	case config.EventBackendKafka:
		return NewKafkaConsumer(cfg.KafkaBrokersList(), cfg.KafkaTopicPrefix, cfg.KafkaGroupID, Streams)
	case config.EventBackendRedis:
		host, _ := os.Hostname()
		if host == "" {
			host = "worker"
		}
		return NewRedisConsumer(cfg.RedisURL, cfg.KafkaGroupID, host, Streams)
	default:
		return nil, fmt.Errorf("events: backend %q cannot be consumed; set KAFKA_BROKERS or REDIS_URL", backend)
	}
}
