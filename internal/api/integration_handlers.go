package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paul-reitz/relate.io/internal/custodian"
)

// SyncCustodianHandler pulls every account the named custodian holds for
// the advisor. Momentum is the route the frontend uses today; schwab and
// fidelity resolve through the same registry.
func (h *APIHandler) SyncCustodianHandler(w http.ResponseWriter, r *http.Request) {
	custodianName := chi.URLParam(r, "custodian")
	advisorID := advisorIDFromQuery(r)

	result, err := h.syncer.Sync(r.Context(), custodianName, advisorID)
	if err != nil {
		switch {
		case errors.Is(err, custodian.ErrUnknownCustodian):
			respondError(w, http.StatusNotFound, "Unknown custodian")
		case errors.Is(err, custodian.ErrNotConfigured):
			respondError(w, http.StatusServiceUnavailable, "Integration not configured")
		case errors.Is(err, custodian.ErrNotImplemented):
			respondError(w, http.StatusNotImplemented, "Integration not implemented")
		default:
			slog.Error("[API] Custodian sync failed",
				slog.String("custodian", custodianName),
				slog.Int64("advisor_id", advisorID),
				slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Failed to sync with custodian")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *APIHandler) IntegrationStatusHandler(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"integrations": h.registry.Status(),
	}
	if h.health != nil {
		payload["backends"] = h.health.Snapshot()
	}
	respondJSON(w, http.StatusOK, payload)
}

// UpdateMarketDataHandler accepts a bare JSON array of symbols. An empty
// array refreshes every symbol currently held in any portfolio.
func (h *APIHandler) UpdateMarketDataHandler(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	if err := json.NewDecoder(r.Body).Decode(&symbols); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body, expected a JSON array of symbols")
		return
	}

	summary, err := h.market.UpdateMarketData(r.Context(), symbols)
	if err != nil {
		slog.Error("[API] Market data update failed",
			slog.Int("symbols", len(symbols)),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to update market data")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
