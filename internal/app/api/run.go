package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	sidekafka "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/kafka"
	sidememory "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/memory"
	sideredis "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/redis"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/webhook"
	sideworkflows "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/workflows"
	"github.com/Apurer/repairshop-api/internal/platform/migrations"
	platformobservability "github.com/Apurer/repairshop-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/repairshop-api/internal/platform/postgres"
)

// Run boots the repair order API and the outbox relay, and blocks until ctx
// is cancelled or either of them fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores := MemoryStores()
	db, cleanupDB := platformpostgres.ConnectOrFallback(ctx, logger, cfg.PostgresDSN)
	defer cleanupDB()
	if db != nil {
		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
		stores = PostgresStores(db)
		logger.Info("repositories configured with postgres")
	}

	effects := SideEffects{
		Delivery: sideworkflows.NewInlineDelivery(webhook.NewSender(nil, cfg.WebhookTimeout)),
		Deduper:  sidememory.NewDeduper(cfg.DedupTTL),
	}
	if temporalClient, err := ConnectTemporal(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal unavailable, delivering webhooks inline without retry", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		effects.Delivery = sideworkflows.NewTemporalDelivery(temporalClient)
		logger.Info("Temporal webhook delivery enabled", slog.String("namespace", cfg.TemporalNamespace))
	}
	if cfg.RedisAddr != "" {
		rdb := sideredis.NewClient(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, deduplicating in memory", slog.String("error", err.Error()))
		} else {
			effects.Deduper = sideredis.NewDeduper(rdb, cfg.DedupTTL)
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		writer := sidekafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer writer.Close()
		effects.Publisher = sidekafka.NewPublisher(writer)
		logger.Info("kafka event mirror enabled", slog.String("topic", cfg.KafkaTopic))
	}

	app := NewApp(cfg, instruments, stores, effects)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return app.Relay.Run(groupCtx)
	})
	group.Go(func() error {
		logger.Info("repair order API listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := group.Wait(); err != nil {
		logger.Error("repair order API exited", slog.String("error", err.Error()))
		return err
	}
	return nil
}
