package content

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/paul-reitz/relate.io/internal/models"
)

func sampleRequest() models.ContentRequest {
	return models.ContentRequest{
		ContentType: models.ContentTypePortfolioUpdate,
		Client: models.ClientProfile{
			ClientID:      1,
			Name:          "Jane Doe",
			RiskTolerance: models.RiskModerate,
			Goals:         []string{"retirement", "college fund"},
		},
		Portfolio: models.PortfolioSnapshot{
			TotalValue:  decimal.NewFromInt(250000),
			Performance: decimal.NewFromFloat(8.25),
			TopHoldings: []string{"AAPL", "GOOGL"},
		},
		Tone: "friendly",
		Branding: models.FirmBranding{
			CompanyName:     "Acme Wealth",
			BrandVoice:      "approachable experts",
			ComplianceNotes: "All investments carry risk",
		},
	}
}

func TestGenerator_Generate_Success(t *testing.T) {
	var capturedSystem, capturedUser string
	complete := func(_ context.Context, systemPrompt, userPrompt string) (string, error) {
		capturedSystem = systemPrompt
		capturedUser = userPrompt
		return "Hi Jane, your portfolio gained 8.25% this quarter.", nil
	}
	generator := NewGenerator(complete)

	got := generator.Generate(context.Background(), sampleRequest())

	assert.False(t, got.Fallback)
	assert.Equal(t, models.ContentTypePortfolioUpdate, got.ContentType)
	assert.Equal(t, "Hi Jane, your portfolio gained 8.25% this quarter.", got.Text)
	assert.NotEqual(t, FALLBACK_MODEL, got.Model)

	assert.Contains(t, capturedSystem, "warm and approachable")
	assert.Contains(t, capturedSystem, "Acme Wealth")
	assert.Contains(t, capturedSystem, "All investments carry risk")
	assert.Contains(t, capturedUser, "Jane Doe")
	assert.Contains(t, capturedUser, "$250,000.00")
	assert.Contains(t, capturedUser, "8.25%")
	assert.Contains(t, capturedUser, "AAPL, GOOGL")
}

func TestGenerator_Generate_FallbackOnError(t *testing.T) {
	complete := func(_ context.Context, _, _ string) (string, error) {
		return "", errors.New("rate limited")
	}
	generator := NewGenerator(complete)

	req := sampleRequest()
	req.Client.Name = "Jane Doe"
	req.Portfolio.Performance = decimal.NewFromFloat(-3.5)

	got := generator.Generate(context.Background(), req)

	assert.True(t, got.Fallback)
	assert.Equal(t, FALLBACK_MODEL, got.Model)
	assert.Contains(t, got.Text, "Jane Doe")
	assert.Contains(t, got.Text, "-3.50")
	assert.Contains(t, got.Text, "Please contact us to discuss the details.")
}

func TestGenerator_Generate_FallbackOnEmptyCompletion(t *testing.T) {
	generator := NewGenerator(func(_ context.Context, _, _ string) (string, error) {
		return "   ", nil
	})

	got := generator.Generate(context.Background(), sampleRequest())

	assert.True(t, got.Fallback)
	assert.Equal(t, FALLBACK_MODEL, got.Model)
}

func TestGenerator_Generate_NoBackendConfigured(t *testing.T) {
	generator := NewGenerator(nil)

	got := generator.Generate(context.Background(), sampleRequest())

	assert.True(t, got.Fallback)
	assert.Contains(t, got.Text, "Jane Doe")
	assert.Contains(t, got.Text, "8.25")
}

func TestBuildSystemPrompt_ToneMapping(t *testing.T) {
	tests := []struct {
		tone     string
		expected string
	}{
		{"professional", "formal and professional"},
		{"friendly", "warm and approachable"},
		{"formal", "highly formal and conservative"},
		{"casual", "conversational and relaxed"},
		{"sarcastic", "formal and professional"},
		{"", "formal and professional"},
	}

	for _, tt := range tests {
		t.Run("tone "+tt.tone, func(t *testing.T) {
			req := sampleRequest()
			req.Tone = tt.tone

			assert.Contains(t, buildSystemPrompt(req), tt.expected)
		})
	}
}

func TestBuildSystemPrompt_BrandingDefaults(t *testing.T) {
	req := sampleRequest()
	req.Branding = models.FirmBranding{}

	prompt := buildSystemPrompt(req)

	assert.Contains(t, prompt, "Our Firm")
	assert.Contains(t, prompt, "Standard compliance applies")
}

func TestBuildSystemPrompt_UnknownContentType(t *testing.T) {
	req := sampleRequest()
	req.ContentType = "newsletter"

	assert.Contains(t, buildSystemPrompt(req), contentTypeTasks[models.ContentTypePortfolioUpdate])
}

func TestBuildUserPrompt_MarketContext(t *testing.T) {
	req := sampleRequest()

	withoutMarket := buildUserPrompt(req)
	assert.NotContains(t, withoutMarket, "Market Context")

	req.Market = &models.MarketContext{
		SPYReturn5D: 2.73,
		VIX:         18.5,
		Regime:      models.RegimeBullish,
	}
	withMarket := buildUserPrompt(req)

	assert.Contains(t, withMarket, "Market Context")
	assert.Contains(t, withMarket, "bullish")
	assert.Contains(t, withMarket, "2.73")
	assert.Contains(t, withMarket, "18.50")
}

func TestFallbackContent_UnnamedClient(t *testing.T) {
	req := sampleRequest()
	req.Client.Name = ""

	text := fallbackContent(req)

	assert.True(t, strings.HasPrefix(text, "Dear Valued Client,"))
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		expected string
	}{
		{"large round value", decimal.NewFromInt(250000), "$250,000.00"},
		{"value with cents", decimal.NewFromFloat(1234.5), "$1,234.50"},
		{"zero", decimal.Zero, "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatUSD(tt.amount))
		})
	}
}
