package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paul-reitz/relate.io/internal/models"
)

const clientColumns = `id, advisor_id, external_id, name, email, phone,
       risk_tolerance, investment_goals, communication_preference,
       last_contact, created_at`

// UpsertClient inserts a client or refreshes an existing one keyed on
// (advisor_id, email). The returned bool is true when a new row was
// created; the custodian sync uses it for its clients_created counter.
func (s *Store) UpsertClient(ctx context.Context, client models.Client) (int64, bool, error) {
	goals := client.InvestmentGoals
	if goals == nil {
		goals = []string{}
	}
	goalsJSON, err := json.Marshal(goals)
	if err != nil {
		return 0, false, fmt.Errorf("failed to marshal investment goals: %w", err)
	}

	risk := client.RiskTolerance
	if risk == "" {
		risk = models.RiskModerate
	}
	pref := client.CommunicationPreference
	if pref == "" {
		pref = "email"
	}

	var id int64
	var inserted bool
	// xmax = 0 marks a freshly inserted row.
	err = s.db.QueryRowContext(ctx, `
        INSERT INTO clients (advisor_id, external_id, name, email, phone,
                             risk_tolerance, investment_goals, communication_preference)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (advisor_id, email) DO UPDATE SET
            name = EXCLUDED.name,
            phone = EXCLUDED.phone,
            risk_tolerance = EXCLUDED.risk_tolerance,
            investment_goals = EXCLUDED.investment_goals,
            external_id = COALESCE(NULLIF(EXCLUDED.external_id, ''), clients.external_id)
        RETURNING id, (xmax = 0)`,
		client.AdvisorID, client.ExternalID, client.Name, client.Email, client.Phone,
		risk, goalsJSON, pref).Scan(&id, &inserted)
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert client: %w", err)
	}
	return id, inserted, nil
}

func (s *Store) GetClient(ctx context.Context, id int64) (models.Client, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+clientColumns+`
        FROM clients
        WHERE id = $1`, id)
	return scanClient(row)
}

// ListClients returns an advisor's clients, optionally filtered by a
// case-insensitive match on name or email.
func (s *Store) ListClients(ctx context.Context, advisorID int64, search string) ([]models.Client, error) {
	query := `
        SELECT ` + clientColumns + `
        FROM clients
        WHERE advisor_id = $1`
	args := []interface{}{advisorID}

	if search != "" {
		query += ` AND (name ILIKE $2 OR email ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (s *Store) UpdateClientLastContact(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE clients SET last_contact = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last contact: %w", err)
	}
	return nil
}

// BulkUpsertClients imports clients for one advisor in a single
// transaction. The whole batch succeeds or none of it does; per-row
// validation happens before rows get here.
func (s *Store) BulkUpsertClients(ctx context.Context, advisorID int64, clients []models.Client) (int, error) {
	if len(clients) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	imported := 0
	for _, client := range clients {
		goals := client.InvestmentGoals
		if goals == nil {
			goals = []string{}
		}
		goalsJSON, err := json.Marshal(goals)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal investment goals: %w", err)
		}

		risk := client.RiskTolerance
		if risk == "" {
			risk = models.RiskModerate
		}

		if _, err := tx.ExecContext(ctx, `
            INSERT INTO clients (advisor_id, name, email, phone, risk_tolerance, investment_goals)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (advisor_id, email) DO UPDATE SET
                name = EXCLUDED.name,
                phone = EXCLUDED.phone,
                risk_tolerance = EXCLUDED.risk_tolerance,
                investment_goals = EXCLUDED.investment_goals`,
			advisorID, client.Name, client.Email, client.Phone, risk, goalsJSON); err != nil {
			return 0, fmt.Errorf("failed to import client %q: %w", client.Email, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return imported, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (models.Client, error) {
	var client models.Client
	var externalID, phone sql.NullString
	var goals []byte
	var lastContact sql.NullTime

	err := row.Scan(&client.ID, &client.AdvisorID, &externalID, &client.Name,
		&client.Email, &phone, &client.RiskTolerance, &goals,
		&client.CommunicationPreference, &lastContact, &client.CreatedAt)
	if err != nil {
		return models.Client{}, err
	}

	client.ExternalID = externalID.String
	client.Phone = phone.String
	if lastContact.Valid {
		client.LastContact = &lastContact.Time
	}
	if len(goals) > 0 {
		if err := json.Unmarshal(goals, &client.InvestmentGoals); err != nil {
			return models.Client{}, fmt.Errorf("failed to unmarshal investment goals: %w", err)
		}
	}
	return client, nil
}
