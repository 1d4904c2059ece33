package consumers

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/paul-reitz/relate.io/internal/clients/kafka_client"
	"github.com/paul-reitz/relate.io/internal/models"
	"github.com/paul-reitz/relate.io/internal/utils"
)

type communicationStore interface {
	AdvisorBranding(ctx context.Context, advisorID int64) (models.FirmBranding, error)
	MarkCommunicationSent(ctx context.Context, id int64) error
	MarkCommunicationFailed(ctx context.Context, id int64) error
	UpdateClientLastContact(ctx context.Context, id int64, at time.Time) error
}

type communicationMailer interface {
	Send(ctx context.Context, req models.CommunicationRequest, branding models.FirmBranding) error
}

type eventPublisher func(topic string, key string, payload interface{}) error

// NewCommunicationConsumer returns the handler for the
// communication-requests topic: render and send the email, record the
// outcome on the communication log, and emit a delivery notice for the
// advisor's dashboard. Offsets are committed after handling either way,
// so a failed send is final and visible in the log rather than retried
// forever.
func NewCommunicationConsumer(store communicationStore, m communicationMailer, publish eventPublisher) func(context.Context, *kafka.Consumer) {
	return func(ctx context.Context, consumer *kafka.Consumer) {
		iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
		committer := kafka_client.NewCommitHandler(ctx, consumer)

		slog.Info("[CommunicationConsumer] Listening for messages...")

		for {
			select {
			case <-ctx.Done():
				slog.Warn("[CommunicationConsumer] Stopping consumer...")
				return
			default:
				msg, err := iterator.Next()
				if err != nil {
					slog.Warn("[CommunicationConsumer] Failed to read message",
						slog.String("error", err.Error()))
					continue
				}

				if err := handleCommunication(ctx, store, m, publish, msg.Value); err != nil {
					slog.Warn("[CommunicationConsumer] Delivery failed",
						slog.String("error", err.Error()))
				}

				if err := committer.Commit(msg); err != nil {
					slog.Warn("[CommunicationConsumer] Failed to commit offset",
						slog.String("error", err.Error()))
				}
			}
		}
	}
}

func handleCommunication(ctx context.Context, store communicationStore, m communicationMailer, publish eventPublisher, raw []byte) error {
	var req models.CommunicationRequest
	if err := utils.DeserializeFromJSON(raw, &req); err != nil {
		return nil
	}

	branding, err := store.AdvisorBranding(ctx, req.AdvisorID)
	if err != nil {
		slog.Warn("[CommunicationConsumer] Failed to load branding, sending unbranded",
			slog.Int64("advisor_id", req.AdvisorID),
			slog.String("error", err.Error()))
		branding = models.FirmBranding{}
	}

	sendErr := m.Send(ctx, req, branding)

	status := models.CommStatusSent
	if sendErr != nil {
		status = models.CommStatusFailed
	}

	if req.CommunicationID > 0 {
		var markErr error
		if sendErr == nil {
			markErr = store.MarkCommunicationSent(ctx, req.CommunicationID)
		} else {
			markErr = store.MarkCommunicationFailed(ctx, req.CommunicationID)
		}
		if markErr != nil {
			slog.Warn("[CommunicationConsumer] Failed to update communication log",
				slog.Int64("communication_id", req.CommunicationID),
				slog.String("error", markErr.Error()))
		}
	}

	if sendErr == nil && req.ClientID > 0 {
		if err := store.UpdateClientLastContact(ctx, req.ClientID, time.Now().UTC()); err != nil {
			slog.Warn("[CommunicationConsumer] Failed to stamp last contact",
				slog.Int64("client_id", req.ClientID),
				slog.String("error", err.Error()))
		}
	}

	notice := models.AdvisorEvent{
		Type:      models.EventCommunicationSent,
		AdvisorID: req.AdvisorID,
		Data: map[string]any{
			"communication_id": req.CommunicationID,
			"client_id":        req.ClientID,
			"client_name":      req.ClientName,
			"status":           status,
		},
	}
	if err := publish(kafka_client.KAFKA_TOPIC_ADVISOR_EVENTS, strconv.FormatInt(req.AdvisorID, 10), notice); err != nil {
		slog.Warn("[CommunicationConsumer] Failed to publish delivery notice",
			slog.Int64("advisor_id", req.AdvisorID),
			slog.String("error", err.Error()))
	}

	return sendErr
}
