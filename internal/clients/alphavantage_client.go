package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/paul-reitz/relate.io/internal/models"
)

const ALPHA_VANTAGE_DEFAULT_URL = "https://www.alphavantage.co/query"

var (
	alphaVantageInstance *AlphaVantageClient
	alphaVantageOnce     sync.Once
)

// AlphaVantageClient fetches market quotes. Alpha Vantage throttles the
// free tier hard, so callers are expected to cache what they get.
type AlphaVantageClient struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
}

func GetAlphaVantageClient() *AlphaVantageClient {
	alphaVantageOnce.Do(func() {
		baseURL := os.Getenv("ALPHA_VANTAGE_API_URL")
		if baseURL == "" {
			baseURL = ALPHA_VANTAGE_DEFAULT_URL
		}
		apiKey := os.Getenv("ALPHA_VANTAGE_API_KEY")
		if apiKey == "" {
			apiKey = "demo"
		}
		slog.Info("[AlphaVantageClient] Initializing Client",
			slog.String("base_url", baseURL))
		alphaVantageInstance = &AlphaVantageClient{
			Client:  &http.Client{Timeout: 30 * time.Second},
			BaseURL: baseURL,
			APIKey:  apiKey,
		}
	})
	return alphaVantageInstance
}

// GetGlobalQuote fetches the latest quote for one symbol.
func (a *AlphaVantageClient) GetGlobalQuote(symbol string) (*models.GlobalQuote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", a.APIKey)

	var response models.GlobalQuoteResponse
	if err := a.getJSON(params, &response); err != nil {
		return nil, err
	}

	// Throttled requests come back 200 with an empty payload.
	if response.GlobalQuote.Symbol == "" {
		slog.Warn("[AlphaVantageClient] Empty quote payload, likely throttled",
			slog.String("symbol", symbol))
		return nil, errors.New("empty quote payload")
	}

	return &response.GlobalQuote, nil
}

// GetDailySeries fetches the daily time series for one symbol.
func (a *AlphaVantageClient) GetDailySeries(symbol string) (*models.DailySeriesResponse, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("apikey", a.APIKey)

	var response models.DailySeriesResponse
	if err := a.getJSON(params, &response); err != nil {
		return nil, err
	}

	if len(response.TimeSeries) == 0 {
		slog.Warn("[AlphaVantageClient] Empty time series payload, likely throttled",
			slog.String("symbol", symbol))
		return nil, errors.New("empty time series payload")
	}

	return &response, nil
}

func (a *AlphaVantageClient) getJSON(params url.Values, output interface{}) error {
	requestURL := a.BaseURL + "?" + params.Encode()

	var lastErr error
	backoff := INITIAL_BACKOFF

	for attempt := 1; attempt <= MAX_RETRIES; attempt++ {
		req, err := http.NewRequest(http.MethodGet, requestURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", USER_AGENT)

		res, err := a.Client.Do(req)
		if err != nil {
			slog.Warn("[AlphaVantageClient] Request failed, retrying",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			lastErr = err
			time.Sleep(backoff)
			backoff *= 2
			if backoff > MAX_BACKOFF {
				backoff = MAX_BACKOFF
			}
			continue
		}

		switch res.StatusCode {
		case http.StatusOK:
			body, err := io.ReadAll(res.Body)
			res.Body.Close()
			if err != nil {
				slog.Error("[AlphaVantageClient] Failed to read response body",
					slog.String("error", err.Error()))
				return err
			}
			if err := json.Unmarshal(body, output); err != nil {
				slog.Error("[AlphaVantageClient] Failed to parse JSON response",
					slog.String("error", err.Error()))
				return err
			}
			return nil
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable:
			slog.Warn("[AlphaVantageClient] Retryable response, backing off",
				slog.Int("statusCode", res.StatusCode),
				slog.Duration("backoff", backoff),
				slog.Int("attempt", attempt))
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			lastErr = fmt.Errorf("status code %d", res.StatusCode)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > MAX_BACKOFF {
				backoff = MAX_BACKOFF
			}
		case http.StatusUnauthorized, http.StatusForbidden:
			res.Body.Close()
			slog.Error("[AlphaVantageClient] Invalid API key, check credentials")
			return errors.New("invalid API key")
		default:
			res.Body.Close()
			slog.Warn("[AlphaVantageClient] Unexpected response",
				slog.Int("statusCode", res.StatusCode))
			return fmt.Errorf("unexpected status code %d", res.StatusCode)
		}
	}

	slog.Error("[AlphaVantageClient] Failed after max retries")
	if lastErr == nil {
		lastErr = errors.New("failed after max retries")
	}
	return lastErr
}
