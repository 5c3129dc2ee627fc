package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API, worker and purger
// processes.
type Config struct {
	Port              string
	PostgresDSN       string
	RedisAddr         string
	KafkaBrokers      []string
	KafkaTopic        string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	OutboxInterval    time.Duration
	OutboxBatchSize   int
	WebhookTimeout    time.Duration
	DedupTTL          time.Duration
	OutboxRetention   time.Duration
}

// LoadConfig reads an optional .env file and the environment, applies
// defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	return LoadConfigFrom(viper.New())
}

// LoadConfigFrom resolves configuration from an already prepared viper instance.
func LoadConfigFrom(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("KAFKA_TOPIC", "repair-orders.events")
	v.SetDefault("TEMPORAL_ADDRESS", client.DefaultHostPort)
	v.SetDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace)
	v.SetDefault("TEMPORAL_DISABLED", false)
	v.SetDefault("OUTBOX_POLL_INTERVAL", "500ms")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("WEBHOOK_TIMEOUT", "5s")
	v.SetDefault("DEDUP_TTL", "24h")
	v.SetDefault("OUTBOX_RETENTION_HOURS", 72)

	cfg := Config{
		Port:              strings.TrimSpace(v.GetString("PORT")),
		PostgresDSN:       strings.TrimSpace(v.GetString("POSTGRES_DSN")),
		RedisAddr:         strings.TrimSpace(v.GetString("REDIS_ADDR")),
		KafkaBrokers:      splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:        strings.TrimSpace(v.GetString("KAFKA_TOPIC")),
		TemporalAddress:   strings.TrimSpace(v.GetString("TEMPORAL_ADDRESS")),
		TemporalNamespace: strings.TrimSpace(v.GetString("TEMPORAL_NAMESPACE")),
		TemporalDisabled:  v.GetBool("TEMPORAL_DISABLED"),
		OutboxInterval:    v.GetDuration("OUTBOX_POLL_INTERVAL"),
		OutboxBatchSize:   v.GetInt("OUTBOX_BATCH_SIZE"),
		WebhookTimeout:    v.GetDuration("WEBHOOK_TIMEOUT"),
		DedupTTL:          v.GetDuration("DEDUP_TTL"),
	}
	hours := v.GetInt("OUTBOX_RETENTION_HOURS")
	switch {
	case cfg.OutboxInterval <= 0:
		return Config{}, fmt.Errorf("OUTBOX_POLL_INTERVAL must be a positive duration")
	case cfg.OutboxBatchSize <= 0:
		return Config{}, fmt.Errorf("OUTBOX_BATCH_SIZE must be a positive integer")
	case cfg.WebhookTimeout <= 0:
		return Config{}, fmt.Errorf("WEBHOOK_TIMEOUT must be a positive duration")
	case hours <= 0:
		return Config{}, fmt.Errorf("OUTBOX_RETENTION_HOURS must be a positive integer")
	}
	cfg.OutboxRetention = time.Duration(hours) * time.Hour
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
