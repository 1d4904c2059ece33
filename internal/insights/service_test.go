package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/paul-reitz/relate.io/internal/models"
)

func samplePortfolio() models.Portfolio {
	return models.Portfolio{
		ID:             10,
		ClientID:       1,
		TotalValue:     decimal.NewFromInt(250000),
		CashBalance:    decimal.NewFromInt(15000),
		InvestedAmount: decimal.NewFromInt(235000),
		UnrealizedPNL:  decimal.NewFromInt(12500),
		PerformanceYTD: decimal.NewFromFloat(5.32),
		RiskScore:      decimal.NewFromFloat(6.5),
	}
}

func sampleHoldings() []models.Holding {
	return []models.Holding{
		{
			Symbol:       "AAPL",
			Quantity:     decimal.NewFromInt(100),
			CurrentPrice: decimal.NewFromFloat(175.50),
			Weight:       decimal.NewFromFloat(7.02),
		},
		{
			Symbol:       "GOOGL",
			Quantity:     decimal.NewFromInt(50),
			CurrentPrice: decimal.NewFromFloat(142.30),
			Weight:       decimal.NewFromFloat(2.85),
		},
	}
}

func sampleClient() models.Client {
	return models.Client{
		ID:              1,
		Name:            "John Smith",
		RiskTolerance:   models.RiskModerate,
		InvestmentGoals: []string{"growth", "retirement"},
	}
}

func TestService_GeneratePortfolioInsights_Success(t *testing.T) {
	var prompts []string
	complete := func(_ context.Context, _, userPrompt string) (string, error) {
		prompts = append(prompts, userPrompt)
		return "Detailed analysis with recommendations.", nil
	}
	service := NewService(complete)

	before := time.Now()
	insights := service.GeneratePortfolioInsights(
		context.Background(), samplePortfolio(), sampleHoldings(), sampleClient(), nil)

	assert.Len(t, insights, 3)
	assert.Equal(t, models.InsightTypeRiskAnalysis, insights[0].InsightType)
	assert.Equal(t, models.InsightTypePerformance, insights[1].InsightType)
	assert.Equal(t, models.InsightTypeRebalancing, insights[2].InsightType)

	for _, insight := range insights {
		assert.Equal(t, int64(10), insight.PortfolioID)
		assert.Equal(t, "Detailed analysis with recommendations.", insight.Content)
		assert.InDelta(t, AI_CONFIDENCE, insight.Confidence, 1e-9)
		assert.WithinDuration(t,
			insight.GeneratedAt.Add(INSIGHT_TTL), insight.ExpiresAt, time.Second)
		assert.True(t, insight.GeneratedAt.After(before.Add(-time.Second)))
	}

	assert.Len(t, prompts, 3)
	assert.Contains(t, prompts[0], "risk profile")
	assert.Contains(t, prompts[0], models.RiskModerate)
	assert.Contains(t, prompts[0], "growth, retirement")
	assert.Contains(t, prompts[1], "performance attribution")
	assert.Contains(t, prompts[2], "rebalancing")
	for _, p := range prompts {
		assert.Contains(t, p, "$250,000.00")
		assert.Contains(t, p, "AAPL")
	}
}

func TestService_GeneratePortfolioInsights_Fallback(t *testing.T) {
	service := NewService(func(_ context.Context, _, _ string) (string, error) {
		return "", errors.New("model unavailable")
	})

	insights := service.GeneratePortfolioInsights(
		context.Background(), samplePortfolio(), nil, sampleClient(), nil)

	assert.Len(t, insights, 3)
	assert.Equal(t, "Unable to generate risk analysis at this time.", insights[0].Content)
	assert.Equal(t, "Performance attribution analysis unavailable.", insights[1].Content)
	assert.Equal(t, "Rebalancing recommendations unavailable.", insights[2].Content)
	for _, insight := range insights {
		assert.InDelta(t, FALLBACK_CONFIDENCE, insight.Confidence, 1e-9)
	}
}

func TestService_GeneratePortfolioInsights_NoBackend(t *testing.T) {
	service := NewService(nil)

	insights := service.GeneratePortfolioInsights(
		context.Background(), samplePortfolio(), sampleHoldings(), sampleClient(), nil)

	assert.Len(t, insights, 3)
	for _, insight := range insights {
		assert.NotEmpty(t, insight.Content)
		assert.InDelta(t, FALLBACK_CONFIDENCE, insight.Confidence, 1e-9)
	}
}

func TestService_MarketContextInPrompts(t *testing.T) {
	var prompts []string
	service := NewService(func(_ context.Context, _, userPrompt string) (string, error) {
		prompts = append(prompts, userPrompt)
		return "ok", nil
	})

	market := &models.MarketContext{
		SPYReturn5D: -2.5,
		VIX:         28.4,
		Regime:      models.RegimeBearish,
	}
	service.GeneratePortfolioInsights(
		context.Background(), samplePortfolio(), sampleHoldings(), sampleClient(), market)

	// Market context feeds the risk and performance prompts, not rebalancing.
	assert.Contains(t, prompts[0], "bearish")
	assert.Contains(t, prompts[1], "bearish")
	assert.NotContains(t, prompts[2], "bearish")
}
