package analysis

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/models"
)

// Engine runs the full feedback analysis pipeline: sentiment, topics,
// urgency, and action items. It degrades instead of failing, so callers
// always get a usable analysis back.
type Engine struct {
	backend  SentimentBackend
	fallback *LexiconBackend
	complete CompletionFunc
}

func NewEngine(backend SentimentBackend, complete CompletionFunc) *Engine {
	return &Engine{
		backend:  backend,
		fallback: NewLexiconBackend(),
		complete: complete,
	}
}

// NewEngineFromEnv assembles an engine from SENTIMENT_BACKEND and the
// configured clients. Unusable configurations degrade to the lexicon
// backend rather than aborting startup.
func NewEngineFromEnv() *Engine {
	var backend SentimentBackend
	switch os.Getenv("SENTIMENT_BACKEND") {
	case BackendLocal:
		local, err := NewLocalBackend()
		if err != nil {
			slog.Warn("[AnalysisEngine] Local backend unavailable, using lexicon",
				slog.Any("error", err))
			backend = NewLexiconBackend()
		} else {
			backend = local
		}
	case BackendLexicon:
		backend = NewLexiconBackend()
	default:
		backend = NewHostedBackend(clients.GetSentimentClient())
	}

	var complete CompletionFunc
	if os.Getenv("OPENAI_API_KEY") != "" {
		complete = clients.GetOpenAIClient().Complete
	} else {
		slog.Warn("[AnalysisEngine] OPENAI_API_KEY not set, action items will use fallback")
	}

	slog.Info("[AnalysisEngine] Engine initialized",
		slog.String("backend", backend.Name()))
	return NewEngine(backend, complete)
}

// ClassifySentiment classifies a single piece of text. Empty input returns
// a neutral result without touching any backend; a backend failure falls
// back to the lexicon and marks the result accordingly.
func (e *Engine) ClassifySentiment(ctx context.Context, text string) models.SentimentResult {
	if strings.TrimSpace(text) == "" {
		return models.SentimentResult{
			Label:  models.SentimentNeutral,
			Source: "empty",
		}
	}

	result, err := e.backend.Classify(ctx, text)
	if err == nil {
		return result
	}
	slog.Warn("[AnalysisEngine] Sentiment backend failed, falling back to lexicon",
		slog.String("backend", e.backend.Name()),
		slog.Any("error", err))

	result, err = e.fallback.Classify(ctx, text)
	if err != nil {
		result = models.SentimentResult{
			Label:  models.SentimentNeutral,
			Source: BackendLexicon,
		}
	}
	result.Fallback = true
	return result
}

// AnalyzeFeedback runs the whole pipeline for one feedback item. It never
// returns an error; degraded stages surface through FallbackUsed.
func (e *Engine) AnalyzeFeedback(ctx context.Context, item models.FeedbackItem) models.FeedbackAnalysis {
	start := time.Now()

	sentiment := e.ClassifySentiment(ctx, item.Text)
	topics := ExtractTopics(item.Text)
	urgency := ScoreUrgency(item.Text, sentiment.Label)
	actions, actionsFellBack := GenerateActionItems(ctx, e.complete, item.Text, sentiment.Label)

	analysis := models.FeedbackAnalysis{
		Sentiment:    sentiment,
		Topics:       topics,
		UrgencyLevel: urgency,
		ActionItems:  actions,
		FallbackUsed: sentiment.Fallback || actionsFellBack,
	}

	slog.Info("[AnalysisEngine] Feedback analyzed",
		slog.Int64("client_id", item.ClientID),
		slog.String("sentiment", sentiment.Label),
		slog.Int("urgency", urgency),
		slog.Duration("duration", time.Since(start)))
	return analysis
}

// Close releases backend resources for engines holding a local session.
func (e *Engine) Close() {
	if closer, ok := e.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}
