package analysis

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/models"
)

// HostedBackend classifies text through the hosted transformer service.
type HostedBackend struct {
	client *clients.SentimentClient
}

func NewHostedBackend(client *clients.SentimentClient) *HostedBackend {
	return &HostedBackend{client: client}
}

func (h *HostedBackend) Name() string { return BackendHosted }

func (h *HostedBackend) Classify(_ context.Context, text string) (models.SentimentResult, error) {
	input := []models.SentimentAnalysisInput{
		{ContentID: uuid.NewString(), Text: text},
	}

	results, err := h.client.GetBatchedSentimentAnalysis(input)
	if err != nil {
		return models.SentimentResult{}, err
	}
	if len(results) == 0 {
		return models.SentimentResult{}, errors.New("empty classification batch")
	}

	label := NormalizeLabel(results[0].SentimentLabel)
	return models.SentimentResult{
		Label:      label,
		Score:      NormalizeScore(label, results[0].SentimentScore),
		Confidence: results[0].Confidence,
		Source:     BackendHosted,
	}, nil
}
