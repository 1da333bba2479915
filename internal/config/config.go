// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Audience resolution modes. See AudienceMode.
const (
	AudienceModeRules = "rules"
	AudienceModeAll   = "all"
)

// Event backends accepted by EVENT_BACKEND. Empty selects one from the broker settings.
const (
	EventBackendRedis = "redis"
	EventBackendKafka = "kafka"
	EventBackendOTel  = "otel"
	EventBackendLog   = "log"
)

// maxFanoutBatchSize keeps one communication log INSERT (8 parameters per row) under the
// Postgres limit of 65535 bind parameters.
const maxFanoutBatchSize = 65535 / 8

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :4000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AutoMigrate applies embedded migrations at server start when true.
	AutoMigrate bool `mapstructure:"AUTO_MIGRATE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// CORSOrigin is the allowed browser origin for the dashboard.
	CORSOrigin string `mapstructure:"CORS_ORIGIN"`

	// JWTPublicKey is the PEM-encoded public key (or path) used to verify operator access tokens.
	// Empty disables bearer-token auth on operator routes.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`

	// DeliverySuccessRate is the probability (0..1) that the simulated vendor reports SENT.
	DeliverySuccessRate float64 `mapstructure:"DELIVERY_SUCCESS_RATE"`
	// AudienceMode is "rules" (apply segment rules) or "all" (every customer, legacy behavior).
	AudienceMode string `mapstructure:"AUDIENCE_MODE"`
	// AutoLaunchNamedSegments launches a campaign when a segment is created with a name.
	AutoLaunchNamedSegments bool `mapstructure:"AUTO_LAUNCH_NAMED_SEGMENTS"`
	// DefaultCampaignMessage is the message used for auto-launched campaigns.
	DefaultCampaignMessage string `mapstructure:"DEFAULT_CAMPAIGN_MESSAGE"`
	// FanoutBatchSize is the number of communication logs inserted per statement.
	FanoutBatchSize int `mapstructure:"FANOUT_BATCH_SIZE"`

	// EventBackend selects the event publisher: redis, kafka, otel or log.
	EventBackend string `mapstructure:"EVENT_BACKEND"`
	// RedisURL is the Redis URL for stream publishing (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`
	// StreamMaxLen caps each Redis stream (approximate MAXLEN); 0 means unbounded.
	StreamMaxLen int64 `mapstructure:"STREAM_MAX_LEN"`
	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopicPrefix is prepended to stream names to form Kafka topics.
	KafkaTopicPrefix string `mapstructure:"KAFKA_TOPIC_PREFIX"`
	// KafkaGroupID is the consumer group ID for the events worker (Kafka group and Redis stream group).
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// Worker-only: Loki URL for the events worker to push records (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext to the collector even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":4000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("CORS_ORIGIN", "http://localhost:5173")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "crm-auth")
	v.SetDefault("JWT_AUDIENCE", "crm-api")
	v.SetDefault("DELIVERY_SUCCESS_RATE", 0.9)
	v.SetDefault("AUDIENCE_MODE", AudienceModeRules)
	v.SetDefault("AUTO_LAUNCH_NAMED_SEGMENTS", true)
	v.SetDefault("DEFAULT_CAMPAIGN_MESSAGE", "Hi there! Here's a special offer just for you - 10% off your next purchase!")
	v.SetDefault("FANOUT_BATCH_SIZE", 500)
	v.SetDefault("EVENT_BACKEND", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("STREAM_MAX_LEN", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC_PREFIX", "crm.")
	v.SetDefault("KAFKA_GROUP_ID", "crm-events-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "crm-backend")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.DeliverySuccessRate < 0 || cfg.DeliverySuccessRate > 1 {
		return nil, errors.New("config: DELIVERY_SUCCESS_RATE must be between 0 and 1")
	}
	cfg.AudienceMode = strings.ToLower(strings.TrimSpace(cfg.AudienceMode))
	if cfg.AudienceMode != AudienceModeRules && cfg.AudienceMode != AudienceModeAll {
		return nil, errors.New("config: AUDIENCE_MODE must be rules or all")
	}
	if cfg.FanoutBatchSize <= 0 {
		cfg.FanoutBatchSize = 500
	}
	if cfg.FanoutBatchSize > maxFanoutBatchSize {
		return nil, fmt.Errorf("config: FANOUT_BATCH_SIZE must be at most %d", maxFanoutBatchSize)
	}
	if cfg.StreamMaxLen < 0 {
		return nil, errors.New("config: STREAM_MAX_LEN must not be negative")
	}
	switch cfg.EventBackend = strings.ToLower(strings.TrimSpace(cfg.EventBackend)); cfg.EventBackend {
	case "", EventBackendRedis, EventBackendKafka, EventBackendOTel, EventBackendLog:
	default:
		return nil, errors.New("config: EVENT_BACKEND must be one of redis, kafka, otel, log")
	}
	if cfg.EventBackend == EventBackendKafka && len(cfg.KafkaBrokersList()) == 0 {
		return nil, errors.New("config: KAFKA_BROKERS must be set when EVENT_BACKEND=kafka")
	}
	if cfg.EventBackend == EventBackendRedis && cfg.RedisURL == "" {
		return nil, errors.New("config: REDIS_URL must be set when EVENT_BACKEND=redis")
	}

	return &cfg, nil
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ResolvedEventBackend returns the configured backend, or picks one from the broker settings:
// kafka when brokers are set, redis when REDIS_URL is set, otherwise log.
func (c *Config) ResolvedEventBackend() string {
	if c == nil {
		return EventBackendLog
	}
	if c.EventBackend != "" {
		return c.EventBackend
	}
	if len(c.KafkaBrokersList()) > 0 {
		return EventBackendKafka
	}
	if c.RedisURL != "" {
		return EventBackendRedis
	}
	return EventBackendLog
}

// AuthEnabled reports whether operator routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c != nil && strings.TrimSpace(c.JWTPublicKey) != ""
}
