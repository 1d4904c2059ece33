package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-reitz/relate.io/internal/models"
)

func TestInsertInsight(t *testing.T) {
	store, mock := newMockStore(t)

	generatedAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	expiresAt := generatedAt.Add(7 * 24 * time.Hour)

	mock.ExpectQuery(`INSERT INTO portfolio_insights \(portfolio_id, insight_type, content`).
		WithArgs(int64(42), models.InsightTypeRiskAnalysis, "Concentration in tech is elevated.",
			0.8, generatedAt, expiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(301))

	id, err := store.InsertInsight(context.Background(), models.PortfolioInsight{
		PortfolioID: 42,
		InsightType: models.InsightTypeRiskAnalysis,
		Content:     "Concentration in tech is elevated.",
		Confidence:  0.8,
		GeneratedAt: generatedAt,
		ExpiresAt:   expiresAt,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(301), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestInsightsByPortfolio(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "portfolio_id", "insight_type", "content", "confidence_score",
		"generated_at", "expires_at",
	}).AddRow(301, 42, "performance_attribution", "Tech drove most of the gain.", 0.8, now, now.Add(time.Hour)).
		AddRow(302, 42, "risk_analysis", "Concentration in tech is elevated.", 0.8, now, now.Add(time.Hour))

	mock.ExpectQuery(`SELECT DISTINCT ON \(insight_type\)`).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	insights, err := store.LatestInsightsByPortfolio(context.Background(), 42)

	require.NoError(t, err)
	require.Len(t, insights, 2)
	assert.Equal(t, "performance_attribution", insights[0].InsightType)
	assert.Equal(t, "risk_analysis", insights[1].InsightType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeExpiredInsights(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM portfolio_insights WHERE expires_at <= NOW\(\)`).
		WillReturnResult(sqlmock.NewResult(0, 5))

	purged, err := store.PurgeExpiredInsights(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(5), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertGenerationRecord(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO ai_generation_history \(advisor_id, client_id, generation_type`).
		WithArgs(int64(1), int64(7), "portfolio_update", "system prompt",
			"Dear John,", "gpt-4o-mini", false, int64(420)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.InsertGenerationRecord(context.Background(), models.AIGenerationRecord{
		AdvisorID:      1,
		ClientID:       7,
		GenerationType: "portfolio_update",
		Prompt:         "system prompt",
		Response:       "Dear John,",
		ModelUsed:      "gpt-4o-mini",
		DurationMS:     420,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
