package analysis

import (
	"strings"

	"github.com/paul-reitz/relate.io/internal/models"
)

var urgentKeywords = []string{
	"urgent", "immediate", "asap", "emergency", "critical",
	"worried", "concerned", "panic", "scared", "angry",
	"disappointed", "frustrated", "unacceptable",
}

// ScoreUrgency derives a 1..5 urgency level from feedback text and its
// sentiment label: baseline 3, +1 for negative sentiment, -1 for positive,
// plus at most two urgent keyword hits, clamped to the valid range.
// Pure and deterministic.
func ScoreUrgency(text string, sentimentLabel string) int {
	score := 3

	switch sentimentLabel {
	case models.SentimentNegative:
		score++
	case models.SentimentPositive:
		score--
	}

	lowered := strings.ToLower(text)
	hits := 0
	for _, keyword := range urgentKeywords {
		if strings.Contains(lowered, keyword) {
			hits++
			if hits == 2 {
				break
			}
		}
	}
	score += hits

	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return score
}
