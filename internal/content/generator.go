package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/models"
)

// FALLBACK_MODEL marks content produced by the template path instead of a
// language model.
const FALLBACK_MODEL = "template"

var toneMapping = map[string]string{
	"professional": "formal and professional",
	"friendly":     "warm and approachable",
	"formal":       "highly formal and conservative",
	"casual":       "conversational and relaxed",
}

var contentTypeTasks = map[string]string{
	models.ContentTypePortfolioUpdate:  "a personalized portfolio update for this client",
	models.ContentTypeMarketCommentary: "a market commentary tailored to this client's holdings",
	models.ContentTypeRiskAlert:        "a risk alert explaining recent portfolio changes relevant to this client",
}

const contentSystemPrompt = `You are writing client communications on behalf of a financial advisor.

Write %s.

Guidelines:
- Address the client personally by name.
- Match this tone: %s.
- Reflect the voice of %s: %s.
- Reference the portfolio details provided and encourage the client to share feedback.
- Maintain compliance standards: %s.

Respond with the finished message only. Do not include any commentary.`

// CompletionFunc produces a completion for a system/user prompt pair.
type CompletionFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// Generator turns a ContentRequest into client-ready text. A failed model
// call degrades to a fixed template so content generation never fails
// outright.
type Generator struct {
	complete CompletionFunc
}

func NewGenerator(complete CompletionFunc) *Generator {
	return &Generator{complete: complete}
}

// NewGeneratorFromEnv wires the shared OpenAI client when a key is
// configured; without one every request takes the template path.
func NewGeneratorFromEnv() *Generator {
	if os.Getenv("OPENAI_API_KEY") == "" {
		slog.Warn("[ContentGenerator] OPENAI_API_KEY not set, content will use the template path")
		return NewGenerator(nil)
	}
	return NewGenerator(clients.GetOpenAIClient().Complete)
}

func (g *Generator) Generate(ctx context.Context, req models.ContentRequest) models.GeneratedContent {
	start := time.Now()

	if g.complete != nil {
		text, err := g.complete(ctx, buildSystemPrompt(req), buildUserPrompt(req))
		if err == nil && strings.TrimSpace(text) != "" {
			return models.GeneratedContent{
				ContentType: req.ContentType,
				Text:        text,
				Model:       string(clients.OPENAI_MODEL),
				DurationMS:  time.Since(start).Milliseconds(),
			}
		}
		if err != nil {
			slog.Warn("[ContentGenerator] Completion failed, using template",
				slog.String("content_type", req.ContentType),
				slog.Any("error", err))
		} else {
			slog.Warn("[ContentGenerator] Empty completion, using template",
				slog.String("content_type", req.ContentType))
		}
	}

	return models.GeneratedContent{
		ContentType: req.ContentType,
		Text:        fallbackContent(req),
		Model:       FALLBACK_MODEL,
		Fallback:    true,
		DurationMS:  time.Since(start).Milliseconds(),
	}
}

func buildSystemPrompt(req models.ContentRequest) string {
	task, ok := contentTypeTasks[req.ContentType]
	if !ok {
		task = contentTypeTasks[models.ContentTypePortfolioUpdate]
	}

	tone, ok := toneMapping[req.Tone]
	if !ok {
		tone = toneMapping["professional"]
	}

	company := req.Branding.CompanyName
	if company == "" {
		company = "Our Firm"
	}
	voice := req.Branding.BrandVoice
	if voice == "" {
		voice = "professional"
	}
	compliance := req.Branding.ComplianceNotes
	if compliance == "" {
		compliance = "Standard compliance applies"
	}

	return fmt.Sprintf(contentSystemPrompt, task, tone, company, voice, compliance)
}

func buildUserPrompt(req models.ContentRequest) string {
	var b strings.Builder

	name := req.Client.Name
	if name == "" {
		name = "Valued Client"
	}

	b.WriteString("Client Profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n", name)
	fmt.Fprintf(&b, "- Risk Tolerance: %s\n", req.Client.RiskTolerance)
	if len(req.Client.Goals) > 0 {
		fmt.Fprintf(&b, "- Investment Goals: %s\n", strings.Join(req.Client.Goals, ", "))
	}

	b.WriteString("\nPortfolio Data:\n")
	fmt.Fprintf(&b, "- Total Value: %s\n", FormatUSD(req.Portfolio.TotalValue))
	fmt.Fprintf(&b, "- Performance: %s%%\n", req.Portfolio.Performance.StringFixed(2))
	if len(req.Portfolio.TopHoldings) > 0 {
		fmt.Fprintf(&b, "- Top Holdings: %s\n", strings.Join(req.Portfolio.TopHoldings, ", "))
	}

	if req.Market != nil {
		b.WriteString("\nMarket Context:\n")
		fmt.Fprintf(&b, "- Market Regime: %s\n", req.Market.Regime)
		fmt.Fprintf(&b, "- SPY 5-Day Return: %.2f%%\n", req.Market.SPYReturn5D)
		fmt.Fprintf(&b, "- VIX: %.2f\n", req.Market.VIX)
	}

	return b.String()
}

func fallbackContent(req models.ContentRequest) string {
	name := req.Client.Name
	if name == "" {
		name = "Valued Client"
	}
	return fmt.Sprintf(
		"Dear %s, we have an update on your portfolio. Your current performance stands at %s%%. Please contact us to discuss the details.",
		name, req.Portfolio.Performance.StringFixed(2))
}

// FormatUSD renders a decimal dollar amount as $#,###.##.
func FormatUSD(amount decimal.Decimal) string {
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}
