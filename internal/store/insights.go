package store

import (
	"context"
	"fmt"

	"github.com/paul-reitz/relate.io/internal/models"
)

func (s *Store) InsertInsight(ctx context.Context, insight models.PortfolioInsight) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO portfolio_insights (portfolio_id, insight_type, content,
                                        confidence_score, generated_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`,
		insight.PortfolioID, insight.InsightType, insight.Content,
		insight.Confidence, insight.GeneratedAt, insight.ExpiresAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert insight: %w", err)
	}
	return id, nil
}

// LatestInsightsByPortfolio returns the newest unexpired insight per type.
func (s *Store) LatestInsightsByPortfolio(ctx context.Context, portfolioID int64) ([]models.PortfolioInsight, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT DISTINCT ON (insight_type)
               id, portfolio_id, insight_type, content, confidence_score,
               generated_at, expires_at
        FROM portfolio_insights
        WHERE portfolio_id = $1
          AND expires_at > NOW()
        ORDER BY insight_type, generated_at DESC`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var insights []models.PortfolioInsight
	for rows.Next() {
		var in models.PortfolioInsight
		if err := rows.Scan(&in.ID, &in.PortfolioID, &in.InsightType, &in.Content,
			&in.Confidence, &in.GeneratedAt, &in.ExpiresAt); err != nil {
			return nil, err
		}
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// PurgeExpiredInsights deletes insights past their expiry and returns how
// many rows were removed.
func (s *Store) PurgeExpiredInsights(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
        DELETE FROM portfolio_insights
        WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired insights: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// InsertGenerationRecord appends to the AI generation audit trail.
func (s *Store) InsertGenerationRecord(ctx context.Context, record models.AIGenerationRecord) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO ai_generation_history (advisor_id, client_id, generation_type,
                                           prompt, response, model_used,
                                           fallback_used, duration_ms)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.AdvisorID, record.ClientID, record.GenerationType, record.Prompt,
		record.Response, record.ModelUsed, record.FallbackUsed, record.DurationMS)
	if err != nil {
		return fmt.Errorf("failed to insert generation record: %w", err)
	}
	return nil
}
