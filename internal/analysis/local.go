package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/paul-reitz/relate.io/internal/models"
)

const (
	localModelDir     = "./models"
	localDefaultModel = "ProsusAI/finbert"
)

// LocalBackend runs sentiment classification on an ONNX model through
// hugot, keeping inference in-process when no hosted service is available.
type LocalBackend struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

func NewLocalBackend() (*LocalBackend, error) {
	modelPath := os.Getenv("SENTIMENT_MODEL_PATH")
	if modelPath == "" {
		if err := os.MkdirAll(localModelDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create model directory: %w", err)
		}

		slog.Info("[LocalSentiment] Model not configured, downloading...",
			slog.String("model", localDefaultModel))
		downloaded, err := hugot.DownloadModel(localDefaultModel, localModelDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to download model: %w", err)
		}
		slog.Info("[LocalSentiment] Model downloaded successfully",
			slog.String("path", downloaded))
		modelPath = downloaded
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inference session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "sentimentClassificationPipeline",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("failed to initialize classification pipeline: %w", err)
	}

	return &LocalBackend{
		session:  session,
		pipeline: pipeline,
	}, nil
}

func (lb *LocalBackend) Name() string { return BackendLocal }

func (lb *LocalBackend) Classify(_ context.Context, text string) (models.SentimentResult, error) {
	output, err := lb.pipeline.RunPipeline([]string{text})
	if err != nil {
		return models.SentimentResult{}, fmt.Errorf("classification run failed: %w", err)
	}

	raw := output.GetOutput()
	if len(raw) == 0 {
		return models.SentimentResult{}, errors.New("empty classification output")
	}

	candidates, ok := raw[0].([]pipelines.ClassificationOutput)
	if !ok || len(candidates) == 0 {
		return models.SentimentResult{}, errors.New("unexpected classification output format")
	}

	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}

	label := NormalizeLabel(best.Label)
	confidence := float64(best.Score)
	return models.SentimentResult{
		Label:      label,
		Score:      NormalizeScore(label, confidence),
		Confidence: confidence,
		Source:     BackendLocal,
	}, nil
}

// Close releases the inference session.
func (lb *LocalBackend) Close() {
	if lb.session != nil {
		lb.session.Destroy()
	}
}
