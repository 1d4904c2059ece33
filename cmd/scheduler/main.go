package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/paul-reitz/relate.io/config"
	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/clients/kafka_client"
	"github.com/paul-reitz/relate.io/internal/content"
	"github.com/paul-reitz/relate.io/internal/custodian"
	"github.com/paul-reitz/relate.io/internal/logging"
	"github.com/paul-reitz/relate.io/internal/market"
	"github.com/paul-reitz/relate.io/internal/processing"
	"github.com/paul-reitz/relate.io/internal/store"
)

const (
	DEFAULT_WEEKLY_SCHEDULE    = "0 9 * * MON"
	DEFAULT_MARKET_SCHEDULE    = "30 6 * * *"
	DEFAULT_AUTO_SYNC_SCHEDULE = "@every 1h"
	DEFAULT_PURGE_SCHEDULE     = "@every 6h"
)

func main() {
	config.LoadEnv(os.Getenv("APP_ENV"))
	logging.InitLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := kafka_client.GetKafkaConfig()
	for {
		err := kafka_client.InitKafkaProducer(cfg)
		if err == nil {
			break
		}

		slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
		time.Sleep(5 * time.Second)
	}
	defer kafka_client.CloseKafkaProducer()

	st := store.New(clients.GetPostgresClient())

	var valkeyClient *clients.ValkeyClient
	if os.Getenv("VALKEY_INIT_ADDRESS") != "" {
		valkeyClient = clients.InitValkey()
		defer clients.CloseValkey()
	}

	var marketService *market.Service
	if valkeyClient != nil {
		marketService = market.NewServiceFromEnv(valkeyClient, st)
	} else {
		marketService = market.NewServiceFromEnv(nil, st)
	}

	runner := processing.NewRunner(st, content.NewGeneratorFromEnv(), marketService,
		custodian.NewSyncerFromEnv(st), kafka_client.PublishToKafka)

	logger := cronLogger{}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)))

	mustSchedule(c, config.GetEnv("WEEKLY_UPDATE_SCHEDULE", DEFAULT_WEEKLY_SCHEDULE),
		"weekly_updates", func() { runner.RunWeeklyUpdates(ctx) })
	mustSchedule(c, config.GetEnv("MARKET_REFRESH_SCHEDULE", DEFAULT_MARKET_SCHEDULE),
		"market_refresh", func() { runner.RefreshMarketData(ctx) })
	mustSchedule(c, config.GetEnv("AUTO_SYNC_SCHEDULE", DEFAULT_AUTO_SYNC_SCHEDULE),
		"custodian_auto_sync", func() { runner.AutoSyncCustodians(ctx) })
	mustSchedule(c, config.GetEnv("INSIGHT_PURGE_SCHEDULE", DEFAULT_PURGE_SCHEDULE),
		"insight_purge", func() { runner.PurgeExpiredInsights(ctx) })

	// Fill market data once on boot so the first content runs have prices.
	runner.RefreshMarketData(ctx)

	c.Start()
	slog.Info("[Main] Scheduler started")

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
	<-stopChan

	slog.Info("Shutting down scheduler gracefully...")
	stopCtx := c.Stop()
	<-stopCtx.Done()
}

func mustSchedule(c *cron.Cron, spec, name string, job func()) {
	if _, err := c.AddFunc(spec, job); err != nil {
		slog.Error("[Main] Invalid schedule",
			slog.String("job", name),
			slog.String("spec", spec),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("[Main] Job scheduled",
		slog.String("job", name),
		slog.String("spec", spec))
}

// cronLogger routes the cron runtime's messages into slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Info("[Scheduler] "+msg, slog.Any("details", keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("[Scheduler] "+msg,
		slog.Any("error", err),
		slog.Any("details", keysAndValues))
}
