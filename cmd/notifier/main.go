package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/paul-reitz/relate.io/config"
	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/clients/kafka_client"
	"github.com/paul-reitz/relate.io/internal/consumers"
	"github.com/paul-reitz/relate.io/internal/logging"
	"github.com/paul-reitz/relate.io/internal/mailer"
	"github.com/paul-reitz/relate.io/internal/store"
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

	kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_COMMUNICATION_REQUESTS,
		consumers.NewCommunicationConsumer(st, mailer.NewFromEnv(), kafka_client.PublishToKafka))

	if err := kafka_client.StartConsumer(ctx); err != nil {
		slog.Error("[Main] Failed to start consumer",
			slog.String("error", err.Error()))
	}
}
