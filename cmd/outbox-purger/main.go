package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/repairshop-api/internal/app/api"
	orderspostgres "github.com/Apurer/repairshop-api/internal/domains/orders/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/repairshop-api/internal/platform/postgres"
)

// outbox-purger deletes relayed outbox rows older than OUTBOX_RETENTION_HOURS.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectOrFallback(ctx, logger, cfg.PostgresDSN)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge outbox")
	}

	cutoff := time.Now().Add(-cfg.OutboxRetention)
	purged, err := orderspostgres.NewOutboxStore(db).PurgeSent(ctx, cutoff)
	if err != nil {
		log.Fatalf("failed to purge outbox: %v", err)
	}
	logger.Info("outbox purge completed", slog.Int64("rows", purged), slog.Time("cutoff", cutoff))
}
