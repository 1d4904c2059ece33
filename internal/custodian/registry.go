package custodian

import (
	"os"
)

const (
	CustodianMomentum = "momentum"
	CustodianSchwab   = "schwab"
	CustodianFidelity = "fidelity"

	DEFAULT_RATE_LIMIT      = 100
	DEFAULT_TIMEOUT_SECONDS = 30
)

// IntegrationConfig describes one external integration slot.
type IntegrationConfig struct {
	Name       string
	APIURL     string
	AuthType   string
	RateLimit  int
	Timeout    int
	Configured bool
}

// IntegrationStatus is the per-integration entry returned by the status
// endpoint.
type IntegrationStatus struct {
	Configured bool   `json:"configured"`
	APIURL     string `json:"api_url"`
	AuthType   string `json:"auth_type"`
	RateLimit  int    `json:"rate_limit"`
}

// Registry holds the integration catalogue. Momentum ships as a mock
// integration; Schwab uses OAuth client credentials; Fidelity is a
// placeholder slot; Alpha Vantage rides along for the status endpoint.
type Registry struct {
	integrations map[string]IntegrationConfig
}

func NewRegistry() *Registry {
	return &Registry{
		integrations: map[string]IntegrationConfig{
			CustodianMomentum: {
				Name:       "Momentum",
				APIURL:     envOr("MOMENTUM_API_URL", "https://api.momentum.co.za"),
				AuthType:   "api_key",
				RateLimit:  DEFAULT_RATE_LIMIT,
				Timeout:    DEFAULT_TIMEOUT_SECONDS,
				Configured: os.Getenv("MOMENTUM_API_KEY") != "",
			},
			CustodianSchwab: {
				Name:       "Charles Schwab",
				APIURL:     envOr("SCHWAB_API_URL", "https://api.schwabapi.com"),
				AuthType:   "oauth",
				RateLimit:  DEFAULT_RATE_LIMIT,
				Timeout:    DEFAULT_TIMEOUT_SECONDS,
				Configured: os.Getenv("SCHWAB_CLIENT_ID") != "" && os.Getenv("SCHWAB_CLIENT_SECRET") != "",
			},
			CustodianFidelity: {
				Name:       "Fidelity",
				APIURL:     envOr("FIDELITY_API_URL", "https://api.fidelity.com"),
				AuthType:   "oauth",
				RateLimit:  DEFAULT_RATE_LIMIT,
				Timeout:    DEFAULT_TIMEOUT_SECONDS,
				Configured: os.Getenv("FIDELITY_API_KEY") != "",
			},
			"alpha_vantage": {
				Name:       "Alpha Vantage",
				APIURL:     "https://www.alphavantage.co/query",
				AuthType:   "api_key",
				RateLimit:  DEFAULT_RATE_LIMIT,
				Timeout:    DEFAULT_TIMEOUT_SECONDS,
				Configured: os.Getenv("ALPHA_VANTAGE_API_KEY") != "",
			},
		},
	}
}

// Status reports every integration keyed by its registry name.
func (r *Registry) Status() map[string]IntegrationStatus {
	status := make(map[string]IntegrationStatus, len(r.integrations))
	for name, config := range r.integrations {
		status[name] = IntegrationStatus{
			Configured: config.Configured,
			APIURL:     config.APIURL,
			AuthType:   config.AuthType,
			RateLimit:  config.RateLimit,
		}
	}
	return status
}

func (r *Registry) Get(name string) (IntegrationConfig, bool) {
	config, ok := r.integrations[name]
	return config, ok
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
