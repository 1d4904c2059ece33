package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// GZIP_COMPRESSION_LEVEL balances response size against CPU for the JSON
// payloads this API serves.
const GZIP_COMPRESSION_LEVEL = 5

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Compress(GZIP_COMPRESSION_LEVEL))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", apiHandler.HealthHandler)
	r.Get("/ws/{advisorID}", apiHandler.WebsocketHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/organizations", apiHandler.CreateOrganizationHandler)
		r.Post("/advisors", apiHandler.CreateAdvisorHandler)

		r.Get("/clients", apiHandler.ListClientsHandler)
		r.Post("/clients", apiHandler.CreateClientHandler)
		r.Post("/clients/import", apiHandler.ImportClientsHandler)

		r.Get("/portfolios/{clientID}", apiHandler.GetPortfolioHandler)
		r.Post("/portfolios/{clientID}/sync", apiHandler.SyncPortfolioHandler)

		r.Post("/ai/generate-insights/{portfolioID}", apiHandler.GenerateInsightsHandler)
		r.Post("/ai/personalized-content", apiHandler.PersonalizedContentHandler)

		r.Post("/feedback/advanced", apiHandler.AdvancedFeedbackHandler)
		r.Get("/analytics/sentiment-trends", apiHandler.SentimentTrendsHandler)

		r.Get("/integrations/status", apiHandler.IntegrationStatusHandler)
		r.Post("/integrations/market-data/update", apiHandler.UpdateMarketDataHandler)
		r.Post("/integrations/{custodian}/sync", apiHandler.SyncCustodianHandler)

		r.Post("/bulk/generate-updates", apiHandler.BulkUpdatesHandler)

		r.Post("/referrals", apiHandler.CreateReferralHandler)
		r.Get("/referrals", apiHandler.ListReferralsHandler)

		r.Get("/communications/{clientID}", apiHandler.ListCommunicationsHandler)
	})

	return r
}

// allowedOrigins reads CORS_ALLOWED_ORIGINS as a comma separated list,
// defaulting to the local frontend and the production domain.
func allowedOrigins() []string {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		return []string{"http://localhost:3000", "https://relate.io"}
	}

	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
