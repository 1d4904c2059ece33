package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paul-reitz/relate.io/internal/models"
)

// InsertCommunication queues an outbound message and returns its id. The
// notifier flips the status to sent or failed once delivery is attempted.
func (s *Store) InsertCommunication(ctx context.Context, log models.CommunicationLog) (int64, error) {
	commType := log.CommType
	if commType == "" {
		commType = "email"
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO communication_logs (client_id, comm_type, subject, content, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`,
		log.ClientID, commType, log.Subject, log.Content, models.CommStatusQueued).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert communication: %w", err)
	}
	return id, nil
}

func (s *Store) MarkCommunicationSent(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE communication_logs
        SET status = $1, sent_at = NOW()
        WHERE id = $2`, models.CommStatusSent, id)
	if err != nil {
		return fmt.Errorf("failed to mark communication %d sent: %w", id, err)
	}
	return nil
}

func (s *Store) MarkCommunicationFailed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE communication_logs
        SET status = $1
        WHERE id = $2`, models.CommStatusFailed, id)
	if err != nil {
		return fmt.Errorf("failed to mark communication %d failed: %w", id, err)
	}
	return nil
}

func (s *Store) ListCommunicationsByClient(ctx context.Context, clientID int64, limit int) ([]models.CommunicationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, client_id, comm_type, subject, content, status, sent_at, created_at
        FROM communication_logs
        WHERE client_id = $1
        ORDER BY created_at DESC
        LIMIT $2`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query communications: %w", err)
	}
	defer rows.Close()

	var logs []models.CommunicationLog
	for rows.Next() {
		var l models.CommunicationLog
		var subject sql.NullString
		var sentAt sql.NullTime
		if err := rows.Scan(&l.ID, &l.ClientID, &l.CommType, &subject,
			&l.Content, &l.Status, &sentAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Subject = subject.String
		if sentAt.Valid {
			l.SentAt = &sentAt.Time
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
