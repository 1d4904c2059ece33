package monitoring

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/clients/kafka_client"
)

const HEALTHCHECK_TIMER = 15

var ErrNotConfigured = errors.New("backend not configured")

// Status is the point-in-time view served by the health endpoints.
type Status struct {
	Database  bool `json:"database"`
	Kafka     bool `json:"kafka"`
	OpenAI    bool `json:"openai"`
	Sentiment bool `json:"sentiment"`
}

// Health holds the flags the background monitors write into. Flags start
// optimistic and flip on the first failed probe.
type Health struct {
	Database  *atomic.Bool
	Kafka     *atomic.Bool
	OpenAI    *atomic.Bool
	Sentiment *atomic.Bool
}

func NewHealth() *Health {
	h := &Health{
		Database:  &atomic.Bool{},
		Kafka:     &atomic.Bool{},
		OpenAI:    &atomic.Bool{},
		Sentiment: &atomic.Bool{},
	}
	h.Database.Store(true)
	h.Kafka.Store(true)
	h.OpenAI.Store(true)
	h.Sentiment.Store(true)
	return h
}

func (h *Health) Snapshot() Status {
	return Status{
		Database:  h.Database.Load(),
		Kafka:     h.Kafka.Load(),
		OpenAI:    h.OpenAI.Load(),
		Sentiment: h.Sentiment.Load(),
	}
}

type probeFunc func(ctx context.Context) error

func monitorHealth(ctx context.Context, name string, healthy *atomic.Bool, probe probeFunc, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := probe(ctx)
			healthy.Store(err == nil)
			if err != nil {
				slog.Warn("[HealthCheck] Backend is unhealthy",
					slog.String("backend", name),
					slog.Any("error", err))
			}
		}
	}
}

func MonitorDatabaseHealth(ctx context.Context, healthy *atomic.Bool) {
	monitorHealth(ctx, "database", healthy, func(ctx context.Context) error {
		return clients.GetPostgresClient().PingContext(ctx)
	}, time.Second*HEALTHCHECK_TIMER)
}

func MonitorKafkaHealth(ctx context.Context, healthy *atomic.Bool) {
	monitorHealth(ctx, "kafka", healthy, func(_ context.Context) error {
		return kafka_client.ProducerHealthCheck()
	}, time.Second*HEALTHCHECK_TIMER)
}

// MonitorOpenAIHealth reports unhealthy while no API key is configured,
// since every completion will take the template path.
func MonitorOpenAIHealth(ctx context.Context, healthy *atomic.Bool) {
	monitorHealth(ctx, "openai", healthy, func(ctx context.Context) error {
		if os.Getenv("OPENAI_API_KEY") == "" {
			return ErrNotConfigured
		}
		return clients.GetOpenAIClient().HealthCheck(ctx)
	}, time.Second*HEALTHCHECK_TIMER)
}

func MonitorSentimentHealth(ctx context.Context, healthy *atomic.Bool) {
	monitorHealth(ctx, "sentiment", healthy, func(_ context.Context) error {
		return clients.GetSentimentClient().HealthCheck()
	}, time.Second*HEALTHCHECK_TIMER)
}
