package models

// SentimentAnalysisInput is one text sent to the hosted classifier.
type SentimentAnalysisInput struct {
	ContentID string `json:"content_id"`
	Text      string `json:"text"`
}

// SentimentAnalysisResult is the hosted classifier's verdict for one text.
// Labels arrive in whatever scheme the deployed model uses (POSITIVE,
// LABEL_0, ...) and are normalized downstream.
type SentimentAnalysisResult struct {
	ContentID      string  `json:"content_id"`
	SentimentLabel string  `json:"sentiment_label"`
	SentimentScore float64 `json:"sentiment_score"`
	Confidence     float64 `json:"confidence"`
}

type SentimentAnalysisBatchResponse struct {
	Results []SentimentAnalysisResult `json:"results"`
}
