package kafka_client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

type KafkaMessageIterator struct {
	consumer *kafka.Consumer
	ctx      context.Context
}

func NewKafkaMessageIterator(ctx context.Context, consumer *kafka.Consumer) *KafkaMessageIterator {
	return &KafkaMessageIterator{
		consumer: consumer,
		ctx:      ctx,
	}
}

// Next blocks until a message arrives or the context is cancelled. Reads
// use a bounded poll so cancellation is noticed between polls.
func (it *KafkaMessageIterator) Next() (*kafka.Message, error) {
	if it.consumer == nil {
		return nil, errors.New("[KafkaIterator] Kafka consumer has not been initialized")
	}

	attempts := 0
	for {
		select {
		case <-it.ctx.Done():
			slog.Warn("[KafkaIterator] Context cancelled, stopping iterator")
			return nil, it.ctx.Err()
		default:
			msg, err := it.consumer.ReadMessage(BATCH_TIMEOUT)
			if err == nil {
				return msg, nil
			}

			if kafkaErr, ok := err.(kafka.Error); ok {
				if kafkaErr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kafkaErr.Code() == kafka.ErrAllBrokersDown {
					slog.Error("[KafkaIterator] All Kafka brokers are down. Aborting")
					return nil, err
				}
			}

			attempts++
			if attempts >= MAX_RETRIES {
				return nil, errors.New("[KafkaIterator] Failed to read message after retries")
			}

			slog.Warn("[KafkaIterator] Failed to read message, retrying...",
				slog.Int("attempt", attempts),
				slog.Int("max_retries", MAX_RETRIES),
				slog.String("error", err.Error()))

			time.Sleep(RETRY_DELAY)
		}
	}
}
