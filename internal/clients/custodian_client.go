package clients

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	CUSTODIAN_TOKEN_PATH    = "/v1/oauth/token"
	CUSTODIAN_ACCOUNTS_PATH = "/v1/accounts"
)

var (
	custodianClientInstance *CustodianClient
	custodianClientOnce     sync.Once
	custodianRateLimitMutex sync.Mutex
)

// CustodianClient is the OAuth2 client-credentials transport for custodian
// APIs that use token auth (Schwab today).
type CustodianClient struct {
	Config  *clientcredentials.Config
	Client  *http.Client
	BaseURL string
	mu      *sync.Mutex
}

func GetCustodianClient() *CustodianClient {
	custodianClientOnce.Do(func() {
		baseURL := os.Getenv("SCHWAB_API_URL")
		if baseURL == "" {
			baseURL = "https://api.schwabapi.com"
		}

		oauthConf := &clientcredentials.Config{
			ClientID:     os.Getenv("SCHWAB_CLIENT_ID"),
			ClientSecret: os.Getenv("SCHWAB_CLIENT_SECRET"),
			TokenURL:     baseURL + CUSTODIAN_TOKEN_PATH,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}

		custodianClientInstance = &CustodianClient{
			Config:  oauthConf,
			Client:  oauthConf.Client(context.Background()),
			BaseURL: baseURL,
			mu:      &sync.Mutex{},
		}
	})

	return custodianClientInstance
}

// Configured reports whether OAuth credentials are present in the
// environment. Sync attempts against an unconfigured custodian short
// circuit before any network call.
func (cc *CustodianClient) Configured() bool {
	return cc.Config.ClientID != "" && cc.Config.ClientSecret != ""
}

func (cc *CustodianClient) RefreshClient() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.Client = cc.Config.Client(context.Background())
}

// FetchAccounts pulls the raw accounts payload for one advisor reference.
func (cc *CustodianClient) FetchAccounts(advisorRef string) ([]byte, error) {
	parsedUrl, err := url.Parse(cc.BaseURL + CUSTODIAN_ACCOUNTS_PATH)
	if err != nil {
		return nil, fmt.Errorf("[CustodianClient] Failed to parse URL: %w", err)
	}
	queryParams := parsedUrl.Query()
	queryParams.Add("advisor", advisorRef)
	queryParams.Add("fields", "positions")
	parsedUrl.RawQuery = queryParams.Encode()

	custodianRateLimitMutex.Lock()
	time.Sleep(INITIAL_BACKOFF)
	custodianRateLimitMutex.Unlock()

	req, err := http.NewRequest(http.MethodGet, parsedUrl.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept", "application/json")

	resp, err := cc.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		slog.Warn("[CustodianClient] Token expired - Refreshing and Retrying...")
		cc.RefreshClient()
		return cc.FetchAccounts(advisorRef)
	case http.StatusTooManyRequests:
		slog.Warn("[CustodianClient] 429 Too Many Requests - Retrying with backoff")
		return cc.retryWithBackoff(advisorRef)
	case http.StatusOK:
		bytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return bytes, nil
	default:
		return nil, fmt.Errorf("[CustodianClient] Unexpected status code %d", resp.StatusCode)
	}
}

func (cc *CustodianClient) retryWithBackoff(advisorRef string) ([]byte, error) {
	backoff := INITIAL_BACKOFF
	for i := 1; i < MAX_RETRIES; i++ {
		slog.Warn("[CustodianClient] Retrying request",
			slog.Int("attempt", i), slog.Duration("backoff", backoff))

		time.Sleep(backoff)

		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}

		data, err := cc.FetchAccounts(advisorRef)
		if err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("[CustodianClient] Max retries reached request failed")
}
