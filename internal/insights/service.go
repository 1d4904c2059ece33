package insights

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/content"
	"github.com/paul-reitz/relate.io/internal/models"
)

const (
	// INSIGHT_TTL is how long a generated insight stays valid before the
	// purge job removes it.
	INSIGHT_TTL = 7 * 24 * time.Hour

	AI_CONFIDENCE       = 0.8
	FALLBACK_CONFIDENCE = 0.6
)

const insightSystemPrompt = `You are a senior financial advisor producing portfolio analysis for a colleague.

Be specific and concrete. Ground every statement in the portfolio data provided. Keep the response under 300 words and finish with a short list of recommendations.`

var fallbackTexts = map[string]string{
	models.InsightTypeRiskAnalysis: "Unable to generate risk analysis at this time.",
	models.InsightTypePerformance:  "Performance attribution analysis unavailable.",
	models.InsightTypeRebalancing:  "Rebalancing recommendations unavailable.",
}

// CompletionFunc produces a completion for a system/user prompt pair.
type CompletionFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// Service generates portfolio insights with one model call per insight
// type. Failed calls degrade to a fixed text so a sync of insights never
// fails outright.
type Service struct {
	complete CompletionFunc
}

func NewService(complete CompletionFunc) *Service {
	return &Service{complete: complete}
}

func NewServiceFromEnv() *Service {
	if os.Getenv("OPENAI_API_KEY") == "" {
		slog.Warn("[Insights] OPENAI_API_KEY not set, insights will use fallback text")
		return NewService(nil)
	}
	return NewService(clients.GetOpenAIClient().Complete)
}

// GeneratePortfolioInsights produces the three standard insight types for
// one portfolio. The returned slice always has one entry per type.
func (s *Service) GeneratePortfolioInsights(
	ctx context.Context,
	portfolio models.Portfolio,
	holdings []models.Holding,
	client models.Client,
	market *models.MarketContext,
) []models.PortfolioInsight {
	start := time.Now()

	insights := []models.PortfolioInsight{
		s.generateOne(ctx, portfolio.ID, models.InsightTypeRiskAnalysis,
			buildRiskPrompt(portfolio, holdings, client, market)),
		s.generateOne(ctx, portfolio.ID, models.InsightTypePerformance,
			buildPerformancePrompt(portfolio, holdings, market)),
		s.generateOne(ctx, portfolio.ID, models.InsightTypeRebalancing,
			buildRebalancingPrompt(portfolio, holdings, client)),
	}

	slog.Info("[Insights] Portfolio insights generated",
		slog.Int64("portfolio_id", portfolio.ID),
		slog.Duration("duration", time.Since(start)))
	return insights
}

func (s *Service) generateOne(ctx context.Context, portfolioID int64, insightType, userPrompt string) models.PortfolioInsight {
	now := time.Now()
	insight := models.PortfolioInsight{
		PortfolioID: portfolioID,
		InsightType: insightType,
		GeneratedAt: now,
		ExpiresAt:   now.Add(INSIGHT_TTL),
	}

	if s.complete != nil {
		text, err := s.complete(ctx, insightSystemPrompt, userPrompt)
		if err == nil && strings.TrimSpace(text) != "" {
			insight.Content = text
			insight.Confidence = AI_CONFIDENCE
			return insight
		}
		if err != nil {
			slog.Warn("[Insights] Completion failed, using fallback text",
				slog.String("insight_type", insightType),
				slog.Any("error", err))
		}
	}

	insight.Content = fallbackTexts[insightType]
	insight.Confidence = FALLBACK_CONFIDENCE
	return insight
}

func buildRiskPrompt(portfolio models.Portfolio, holdings []models.Holding, client models.Client, market *models.MarketContext) string {
	var b strings.Builder

	b.WriteString("Analyze the risk profile of this portfolio.\n\n")
	writePortfolioSection(&b, portfolio)
	writeHoldingsSection(&b, holdings)
	writeMarketSection(&b, market)

	b.WriteString("\nClient Profile:\n")
	fmt.Fprintf(&b, "- Risk Tolerance: %s\n", client.RiskTolerance)
	if len(client.InvestmentGoals) > 0 {
		fmt.Fprintf(&b, "- Investment Goals: %s\n", strings.Join(client.InvestmentGoals, ", "))
	}

	b.WriteString("\nCover: current risk assessment, key risk factors, and risk mitigation steps.")
	return b.String()
}

func buildPerformancePrompt(portfolio models.Portfolio, holdings []models.Holding, market *models.MarketContext) string {
	var b strings.Builder

	b.WriteString("Analyze the performance attribution of this portfolio.\n\n")
	writePortfolioSection(&b, portfolio)
	writeHoldingsSection(&b, holdings)
	writeMarketSection(&b, market)

	b.WriteString("\nCover: sources of out- or underperformance, allocation impact, and concrete improvements.")
	return b.String()
}

func buildRebalancingPrompt(portfolio models.Portfolio, holdings []models.Holding, client models.Client) string {
	var b strings.Builder

	b.WriteString("Recommend rebalancing steps for this portfolio.\n\n")
	writePortfolioSection(&b, portfolio)
	writeHoldingsSection(&b, holdings)

	b.WriteString("\nClient Profile:\n")
	fmt.Fprintf(&b, "- Risk Tolerance: %s\n", client.RiskTolerance)

	b.WriteString("\nCover: current versus target allocation, positions to trim or add, and tax considerations.")
	return b.String()
}

func writePortfolioSection(b *strings.Builder, portfolio models.Portfolio) {
	b.WriteString("Portfolio Data:\n")
	fmt.Fprintf(b, "- Total Value: %s\n", content.FormatUSD(portfolio.TotalValue))
	fmt.Fprintf(b, "- Cash Balance: %s\n", content.FormatUSD(portfolio.CashBalance))
	fmt.Fprintf(b, "- Unrealized P&L: %s\n", content.FormatUSD(portfolio.UnrealizedPNL))
	fmt.Fprintf(b, "- YTD Performance: %s%%\n", portfolio.PerformanceYTD.StringFixed(2))
	fmt.Fprintf(b, "- Risk Score: %s/10\n", portfolio.RiskScore.StringFixed(1))
}

func writeHoldingsSection(b *strings.Builder, holdings []models.Holding) {
	if len(holdings) == 0 {
		return
	}
	b.WriteString("\nHoldings:\n")
	for _, h := range holdings {
		fmt.Fprintf(b, "- %s: %s shares at %s (%s%% of portfolio)\n",
			h.Symbol, h.Quantity.StringFixed(0), content.FormatUSD(h.CurrentPrice),
			h.Weight.StringFixed(2))
	}
}

func writeMarketSection(b *strings.Builder, market *models.MarketContext) {
	if market == nil {
		return
	}
	b.WriteString("\nMarket Context:\n")
	fmt.Fprintf(b, "- Regime: %s\n", market.Regime)
	fmt.Fprintf(b, "- SPY 5-Day Return: %.2f%%\n", market.SPYReturn5D)
	fmt.Fprintf(b, "- VIX: %.2f\n", market.VIX)
}
