package consumers

import (
	"context"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/paul-reitz/relate.io/internal/clients/kafka_client"
	"github.com/paul-reitz/relate.io/internal/models"
	"github.com/paul-reitz/relate.io/internal/utils"
)

type eventBroadcaster interface {
	BroadcastToAdvisor(advisorID int64, event models.AdvisorEvent)
}

// NewAdvisorEventsConsumer returns the handler for the advisor-events
// topic: every event is fanned out to the advisor's open websocket
// connections.
func NewAdvisorEventsConsumer(hub eventBroadcaster) func(context.Context, *kafka.Consumer) {
	return func(ctx context.Context, consumer *kafka.Consumer) {
		iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
		committer := kafka_client.NewCommitHandler(ctx, consumer)

		slog.Info("[AdvisorEventsConsumer] Listening for messages...")

		for {
			select {
			case <-ctx.Done():
				slog.Warn("[AdvisorEventsConsumer] Stopping consumer...")
				return
			default:
				msg, err := iterator.Next()
				if err != nil {
					slog.Warn("[AdvisorEventsConsumer] Failed to read message",
						slog.String("error", err.Error()))
					continue
				}

				broadcastEvent(hub, msg.Value)

				if err := committer.Commit(msg); err != nil {
					slog.Warn("[AdvisorEventsConsumer] Failed to commit offset",
						slog.String("error", err.Error()))
				}
			}
		}
	}
}

func broadcastEvent(hub eventBroadcaster, raw []byte) {
	var event models.AdvisorEvent
	if err := utils.DeserializeFromJSON(raw, &event); err != nil {
		return
	}

	if event.AdvisorID <= 0 {
		slog.Warn("[AdvisorEventsConsumer] Skipping event without advisor",
			slog.String("type", event.Type))
		return
	}

	hub.BroadcastToAdvisor(event.AdvisorID, event)
}
