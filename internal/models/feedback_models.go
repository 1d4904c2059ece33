package models

import "time"

// FeedbackItem is a raw piece of client feedback before analysis.
type FeedbackItem struct {
	ClientID    int64     `json:"client_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}

// SentimentResult carries the normalized output of whichever sentiment
// backend handled the text. Fallback is true when the configured backend
// failed and the lexicon scorer produced the result instead.
type SentimentResult struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Fallback   bool    `json:"fallback"`
}

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// FeedbackAnalysis is the combined output of the feedback pipeline.
type FeedbackAnalysis struct {
	Sentiment    SentimentResult `json:"sentiment"`
	Topics       []string        `json:"topics"`
	UrgencyLevel int             `json:"urgency_level"`
	ActionItems  []string        `json:"action_items"`
	FallbackUsed bool            `json:"fallback_used"`
}

// Feedback is a persisted, analyzed feedback row.
type Feedback struct {
	ID             int64     `json:"id"`
	ClientID       int64     `json:"client_id"`
	Content        string    `json:"content"`
	SentimentLabel string    `json:"sentiment_label"`
	SentimentScore float64   `json:"sentiment_score"`
	Confidence     float64   `json:"confidence"`
	Topics         []string  `json:"topics"`
	UrgencyLevel   int       `json:"urgency_level"`
	ActionItems    []string  `json:"action_items"`
	FallbackUsed   bool      `json:"fallback_used"`
	CreatedAt      time.Time `json:"created_at"`
}

type SentimentTrendPoint struct {
	Day           time.Time `json:"day"`
	AvgScore      float64   `json:"avg_score"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
	NeutralCount  int       `json:"neutral_count"`
	AvgUrgency    float64   `json:"avg_urgency"`
}

type TopicFrequency struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// SentimentAnalytics is the advisor-level rollup returned by the
// analytics endpoint.
type SentimentAnalytics struct {
	Trend      []SentimentTrendPoint `json:"trend"`
	TopTopics  []TopicFrequency      `json:"top_topics"`
	WindowDays int                   `json:"window_days"`
}
