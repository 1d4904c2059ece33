package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paul-reitz/relate.io/internal/models"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"POSITIVE", models.SentimentPositive},
		{"positive", models.SentimentPositive},
		{"LABEL_2", models.SentimentPositive},
		{"NEGATIVE", models.SentimentNegative},
		{"negative", models.SentimentNegative},
		{"LABEL_0", models.SentimentNegative},
		{"NEUTRAL", models.SentimentNeutral},
		{"LABEL_1", models.SentimentNeutral},
		{"", models.SentimentNeutral},
		{"something-else", models.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLabel(tt.raw))
		})
	}
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		score    float64
		expected float64
	}{
		{"positive keeps magnitude", models.SentimentPositive, 0.8, 0.8},
		{"positive flips negative input", models.SentimentPositive, -0.8, 0.8},
		{"negative forces negative sign", models.SentimentNegative, 0.6, -0.6},
		{"negative keeps negative input", models.SentimentNegative, -0.6, -0.6},
		{"neutral is always zero", models.SentimentNeutral, 0.9, 0},
		{"unknown label is zero", "mixed", 0.4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, NormalizeScore(tt.label, tt.score), 1e-9)
		})
	}
}

func TestLexiconBackend_Classify(t *testing.T) {
	backend := NewLexiconBackend()

	tests := []struct {
		name          string
		text          string
		expectedLabel string
	}{
		{
			name:          "clearly positive",
			text:          "I am very happy with the excellent performance, great work!",
			expectedLabel: models.SentimentPositive,
		},
		{
			name:          "clearly negative",
			text:          "This is terrible, I am very angry and disappointed",
			expectedLabel: models.SentimentNegative,
		},
		{
			name:          "factual statement is neutral",
			text:          "The meeting is scheduled for Tuesday at noon",
			expectedLabel: models.SentimentNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := backend.Classify(context.Background(), tt.text)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedLabel, result.Label)
			assert.Equal(t, BackendLexicon, result.Source)
			assert.GreaterOrEqual(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 1.0)

			switch tt.expectedLabel {
			case models.SentimentPositive:
				assert.Greater(t, result.Score, 0.0)
			case models.SentimentNegative:
				assert.Less(t, result.Score, 0.0)
			default:
				assert.Zero(t, result.Score)
			}
		})
	}
}

func TestRemoveLinks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "markdown link keeps its text",
			input:    "see [our report](https://example.com/report) for details",
			expected: "see our report for details",
		},
		{
			name:     "bare url removed",
			input:    "visit https://example.com today",
			expected: "visit  today",
		},
		{
			name:     "www url removed",
			input:    "visit www.example.com today",
			expected: "visit  today",
		},
		{
			name:     "plain text untouched",
			input:    "no links here",
			expected: "no links here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RemoveLinks(tt.input))
		})
	}
}

func TestConvertMarkdownToText(t *testing.T) {
	input := "# Portfolio Update\n\nSome **bold** text with [a link](https://example.com)."

	plain := ConvertMarkdownToText(input)

	assert.NotContains(t, plain, "#")
	assert.NotContains(t, plain, "**")
	assert.NotContains(t, plain, "https://example.com")
	assert.Contains(t, plain, "Portfolio Update")
	assert.Contains(t, plain, "bold")
	assert.Contains(t, plain, "a link")
}
