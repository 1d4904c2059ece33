package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paul-reitz/relate.io/internal/models"
)

func (s *Store) CreateOrganization(ctx context.Context, org models.Organization) (int64, error) {
	branding, err := json.Marshal(org.Branding)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal branding: %w", err)
	}

	tier := org.SubscriptionTier
	if tier == "" {
		tier = "standard"
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
        INSERT INTO organizations (name, subscription_tier, custom_branding)
        VALUES ($1, $2, $3)
        RETURNING id`,
		org.Name, tier, branding).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert organization: %w", err)
	}
	return id, nil
}

func (s *Store) GetOrganization(ctx context.Context, id int64) (models.Organization, error) {
	var org models.Organization
	var branding []byte

	err := s.db.QueryRowContext(ctx, `
        SELECT id, name, subscription_tier, custom_branding, created_at
        FROM organizations
        WHERE id = $1`, id).
		Scan(&org.ID, &org.Name, &org.SubscriptionTier, &branding, &org.CreatedAt)
	if err != nil {
		return models.Organization{}, err
	}

	if err := json.Unmarshal(branding, &org.Branding); err != nil {
		return models.Organization{}, fmt.Errorf("failed to unmarshal branding: %w", err)
	}
	return org, nil
}

func (s *Store) CreateAdvisor(ctx context.Context, advisor models.Advisor) (int64, error) {
	tone := advisor.CommunicationTone
	if tone == "" {
		tone = "professional"
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO advisors (org_id, email, name, communication_tone)
        VALUES ($1, $2, $3, $4)
        RETURNING id`,
		advisor.OrgID, advisor.Email, advisor.Name, tone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert advisor: %w", err)
	}
	return id, nil
}

func (s *Store) GetAdvisor(ctx context.Context, id int64) (models.Advisor, error) {
	var advisor models.Advisor

	err := s.db.QueryRowContext(ctx, `
        SELECT id, org_id, email, name, communication_tone, created_at
        FROM advisors
        WHERE id = $1`, id).
		Scan(&advisor.ID, &advisor.OrgID, &advisor.Email, &advisor.Name,
			&advisor.CommunicationTone, &advisor.CreatedAt)
	if err != nil {
		return models.Advisor{}, err
	}
	return advisor, nil
}

// ListAdvisors returns every advisor. The scheduler iterates this for the
// weekly update and auto-sync jobs.
func (s *Store) ListAdvisors(ctx context.Context) ([]models.Advisor, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, org_id, email, name, communication_tone, created_at
        FROM advisors
        ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query advisors: %w", err)
	}
	defer rows.Close()

	var advisors []models.Advisor
	for rows.Next() {
		var advisor models.Advisor
		if err := rows.Scan(&advisor.ID, &advisor.OrgID, &advisor.Email, &advisor.Name,
			&advisor.CommunicationTone, &advisor.CreatedAt); err != nil {
			return nil, err
		}
		advisors = append(advisors, advisor)
	}
	return advisors, rows.Err()
}

// AdvisorBranding resolves the firm branding for an advisor through its
// organization. Missing organizations yield empty branding, not an error.
func (s *Store) AdvisorBranding(ctx context.Context, advisorID int64) (models.FirmBranding, error) {
	var branding []byte

	err := s.db.QueryRowContext(ctx, `
        SELECT o.custom_branding
        FROM advisors a
        JOIN organizations o ON a.org_id = o.id
        WHERE a.id = $1`, advisorID).Scan(&branding)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FirmBranding{}, nil
	}
	if err != nil {
		return models.FirmBranding{}, err
	}

	var firm models.FirmBranding
	if err := json.Unmarshal(branding, &firm); err != nil {
		return models.FirmBranding{}, fmt.Errorf("failed to unmarshal branding: %w", err)
	}
	return firm, nil
}
