package analysis

import (
	"context"
	"math"

	"github.com/paul-reitz/relate.io/internal/models"
)

// Backend names accepted in SENTIMENT_BACKEND.
const (
	BackendHosted  = "hosted"
	BackendLocal   = "local"
	BackendLexicon = "lexicon"
)

// SentimentBackend classifies one piece of text. Implementations may
// ignore the context when the underlying client does not support it.
type SentimentBackend interface {
	Name() string
	Classify(ctx context.Context, text string) (models.SentimentResult, error)
}

// NormalizeLabel maps a backend's native label space onto the three-value
// scheme. Transformer models emit LABEL_0/LABEL_2 or POSITIVE/NEGATIVE
// depending on how they were exported.
func NormalizeLabel(raw string) string {
	switch raw {
	case "POSITIVE", "positive", "LABEL_2":
		return models.SentimentPositive
	case "NEGATIVE", "negative", "LABEL_0":
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// NormalizeScore forces the score sign to agree with the label: negative
// labels carry non-positive scores, neutral is exactly zero.
func NormalizeScore(label string, score float64) float64 {
	switch label {
	case models.SentimentPositive:
		return math.Abs(score)
	case models.SentimentNegative:
		return -math.Abs(score)
	default:
		return 0
	}
}
