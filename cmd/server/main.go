package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paul-reitz/relate.io/config"
	"github.com/paul-reitz/relate.io/internal/analysis"
	"github.com/paul-reitz/relate.io/internal/api"
	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/clients/kafka_client"
	"github.com/paul-reitz/relate.io/internal/consumers"
	"github.com/paul-reitz/relate.io/internal/content"
	"github.com/paul-reitz/relate.io/internal/custodian"
	"github.com/paul-reitz/relate.io/internal/ingestion"
	"github.com/paul-reitz/relate.io/internal/insights"
	"github.com/paul-reitz/relate.io/internal/logging"
	"github.com/paul-reitz/relate.io/internal/market"
	"github.com/paul-reitz/relate.io/internal/monitoring"
	"github.com/paul-reitz/relate.io/internal/store"
	"github.com/paul-reitz/relate.io/internal/ws"
)

const (
	DEFAULT_HTTP_PORT = "8080"
	SHUTDOWN_TIMEOUT  = 30 * time.Second
)

func main() {
	config.LoadEnv(os.Getenv("APP_ENV"))
	logging.InitLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.New(clients.GetPostgresClient())
	if err := st.Migrate(ctx); err != nil {
		slog.Error("[Main] Schema migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

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

	var valkeyClient *clients.ValkeyClient
	if os.Getenv("VALKEY_INIT_ADDRESS") != "" {
		valkeyClient = clients.InitValkey()
		defer clients.CloseValkey()
	} else {
		slog.Warn("[Main] VALKEY_INIT_ADDRESS not set, feedback dedupe and market caching are off")
	}

	var marketService *market.Service
	if valkeyClient != nil {
		marketService = market.NewServiceFromEnv(valkeyClient, st)
	} else {
		marketService = market.NewServiceFromEnv(nil, st)
	}

	health := monitoring.NewHealth()
	go monitoring.MonitorDatabaseHealth(ctx, health.Database)
	go monitoring.MonitorKafkaHealth(ctx, health.Kafka)
	go monitoring.MonitorOpenAIHealth(ctx, health.OpenAI)
	go monitoring.MonitorSentimentHealth(ctx, health.Sentiment)

	hub := ws.NewHub()
	go runAdvisorEventsConsumer(ctx, cfg, hub)

	deps := api.Dependencies{
		Store:     st,
		Analyzer:  analysis.NewEngineFromEnv(),
		Generator: content.NewGeneratorFromEnv(),
		Insights:  insights.NewServiceFromEnv(),
		Market:    marketService,
		Syncer:    custodian.NewSyncerFromEnv(st),
		Importer:  ingestion.NewImporter(st),
		Hub:       hub,
		Registry:  custodian.NewRegistry(),
		Health:    health,
		Publish:   kafka_client.PublishToKafka,
	}
	if valkeyClient != nil {
		deps.Dedupe = valkeyClient
	}

	srv := &http.Server{
		Addr:         ":" + config.GetEnv("HTTP_PORT", DEFAULT_HTTP_PORT),
		Handler:      api.NewRouter(api.NewAPIHandler(deps)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("[Main] HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] HTTP server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("[Main] Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Server forced to shut down", slog.String("error", err.Error()))
	}
}

// runAdvisorEventsConsumer feeds the websocket hub. It lives in the server
// process because that is where the connections are, and it uses a per-host
// consumer group so every server instance sees every event.
func runAdvisorEventsConsumer(ctx context.Context, cfg kafka_client.KafkaConfig, hub *ws.Hub) {
	eventsCfg := cfg
	eventsCfg.GroupID = cfg.GroupID + "-dashboard"
	if host, err := os.Hostname(); err == nil {
		eventsCfg.GroupID += "-" + host
	}

	handler := consumers.NewAdvisorEventsConsumer(hub)
	for {
		consumer, err := kafka_client.NewConsumer(eventsCfg, kafka_client.KAFKA_TOPIC_ADVISOR_EVENTS)
		if err != nil {
			slog.Warn("[Main] Advisor events consumer init failed, retrying...",
				slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		handler(ctx, consumer)
		consumer.Close()
		if ctx.Err() != nil {
			return
		}
	}
}
