package analysis

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/paul-reitz/relate.io/internal/models"
)

// LexiconBackend scores text with the VADER lexicon. It makes no network
// calls and is the terminal fallback for every other backend.
type LexiconBackend struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewLexiconBackend() *LexiconBackend {
	return &LexiconBackend{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (l *LexiconBackend) Name() string { return BackendLexicon }

func (l *LexiconBackend) Classify(_ context.Context, text string) (models.SentimentResult, error) {
	plainText := ConvertMarkdownToText(text)

	sentiment := l.analyzer.PolarityScores(plainText)
	compound := sentiment.Compound

	var label string
	if compound >= 0.20 {
		label = models.SentimentPositive
	} else if compound <= -0.20 {
		label = models.SentimentNegative
	} else {
		label = models.SentimentNeutral
	}

	return models.SentimentResult{
		Label:      label,
		Score:      NormalizeScore(label, compound),
		Confidence: math.Abs(compound),
		Source:     BackendLexicon,
	}, nil
}

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	bareURLPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]+>`)
)

func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return bareURLPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders markdown and strips the resulting tags so
// the lexicon only sees prose.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	stripped := htmlTagPattern.ReplaceAllString(string(output), " ")
	plainText := strings.Join(strings.Fields(stripped), " ")

	return RemoveLinks(plainText)
}
