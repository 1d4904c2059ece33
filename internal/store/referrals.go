package store

import (
	"context"
	"fmt"

	"github.com/paul-reitz/relate.io/internal/models"
)

func (s *Store) InsertReferral(ctx context.Context, referral models.ReferralRequest) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO referral_requests (client_id, prospect_name, prospect_email, status)
        VALUES ($1, $2, $3, 'pending')
        RETURNING id`,
		referral.ClientID, referral.ProspectName, referral.ProspectEmail).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert referral: %w", err)
	}
	return id, nil
}

// ListReferralsByAdvisor returns every referral raised by the advisor's
// clients, newest first.
func (s *Store) ListReferralsByAdvisor(ctx context.Context, advisorID int64) ([]models.ReferralRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT r.id, r.client_id, r.prospect_name, r.prospect_email, r.status, r.created_at
        FROM referral_requests r
        JOIN clients c ON r.client_id = c.id
        WHERE c.advisor_id = $1
        ORDER BY r.created_at DESC`, advisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query referrals: %w", err)
	}
	defer rows.Close()

	var referrals []models.ReferralRequest
	for rows.Next() {
		var r models.ReferralRequest
		if err := rows.Scan(&r.ID, &r.ClientID, &r.ProspectName,
			&r.ProspectEmail, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		referrals = append(referrals, r)
	}
	return referrals, rows.Err()
}
