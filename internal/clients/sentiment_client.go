package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/paul-reitz/relate.io/internal/models"
)

const (
	SENTIMENT_BATCH_PATH  = "/analyze_batch"
	SENTIMENT_HEALTH_PATH = "/health"
)

var (
	sentimentInstance *SentimentClient
	sentimentOnce     sync.Once
)

// SentimentClient talks to the hosted transformer service that classifies
// client feedback.
type SentimentClient struct {
	Client  *http.Client
	BaseURL string
}

func GetSentimentClient() *SentimentClient {
	var timeout time.Duration
	env := os.Getenv("APP_ENV")
	if env == "production" {
		timeout = 10 * time.Second
	} else {
		timeout = 60 * time.Second
	}
	sentimentOnce.Do(func() {
		baseURL := os.Getenv("SENTIMENT_API_URL")
		if baseURL == "" {
			baseURL = "https://relate-sentiment-analyzer.hf.space"
		}
		slog.Info("[SentimentClient] Initializing Client",
			slog.Duration("timeout", timeout),
			slog.String("base_url", baseURL),
			slog.String("env", env))
		sentimentInstance = &SentimentClient{
			Client: &http.Client{
				Timeout: timeout,
			},
			BaseURL: baseURL,
		}
	})
	return sentimentInstance
}

func (s *SentimentClient) DoWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := INITIAL_BACKOFF

	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", bodyErr)
			}
			req.Body = body
		}

		resp, err = s.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if resp != nil {
			resp.Body.Close()
		}

		slog.Warn("[SentimentClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		time.Sleep(backoff)
		backoff *= 2
	}

	return resp, err
}

// GetBatchedSentimentAnalysis classifies a batch of texts in a single call.
func (s *SentimentClient) GetBatchedSentimentAnalysis(input []models.SentimentAnalysisInput) ([]models.SentimentAnalysisResult, error) {
	var result models.SentimentAnalysisBatchResponse
	slog.Debug("[SentimentClient] Requesting sentiment analysis",
		slog.Int("batch_size", len(input)))
	start := time.Now()

	err := s.postJSON(s.BaseURL+SENTIMENT_BATCH_PATH, input, &result)
	if err != nil {
		slog.Error("[SentimentClient] Sentiment analysis request failed",
			slog.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	slog.Debug("[SentimentClient] Sentiment analysis request successful",
		slog.Duration("elapsed", time.Since(start)))
	return result.Results, nil
}

// HealthCheck probes the service health endpoint.
func (s *SentimentClient) HealthCheck() error {
	req, err := http.NewRequest(http.MethodGet, s.BaseURL+SENTIMENT_HEALTH_PATH, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *SentimentClient) postJSON(endpoint string, input interface{}, output interface{}) error {
	body, err := json.Marshal(input)
	if err != nil {
		slog.Error("[SentimentClient] Failed to marshal input",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		slog.Error("[SentimentClient] Failed to build request",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := s.DoWithRetry(req)
	if err != nil {
		slog.Error("[SentimentClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))

		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("[SentimentClient] Failed to read response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("[SentimentClient] Unexpected response status",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return fmt.Errorf("unexpected response status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[SentimentClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))

		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
