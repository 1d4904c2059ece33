package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-reitz/relate.io/internal/custodian"
	"github.com/paul-reitz/relate.io/internal/market"
	"github.com/paul-reitz/relate.io/internal/models"
)

func TestSyncCustodianHandler(t *testing.T) {
	t.Run("runs a full sync", func(t *testing.T) {
		f := newAPIFixture(t)
		f.syncer.result = models.SyncResult{
			AccountsProcessed: 3, ClientsCreated: 1, PortfoliosUpdated: 3, HoldingsUpdated: 12}

		rr := f.do(t, http.MethodPost, "/api/v1/integrations/momentum/sync?advisor_id=3", "")

		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, f.syncer.calls, 1)
		assert.Equal(t, syncCall{custodian: custodian.CustodianMomentum, advisorID: 3}, f.syncer.calls[0])

		body := decodeBody(t, rr)
		assert.Equal(t, "momentum", body["custodian"])
		assert.EqualValues(t, 3, body["accounts_processed"])
		assert.EqualValues(t, 12, body["holdings_updated"])
	})

	t.Run("maps sync failures to status codes", func(t *testing.T) {
		tests := []struct {
			name       string
			custodian  string
			err        error
			wantStatus int
			wantError  string
		}{
			{
				name:       "unknown custodian",
				custodian:  "vanguard",
				err:        custodian.ErrUnknownCustodian,
				wantStatus: http.StatusNotFound,
				wantError:  "Unknown custodian",
			},
			{
				name:       "not configured",
				custodian:  "schwab",
				err:        custodian.ErrNotConfigured,
				wantStatus: http.StatusServiceUnavailable,
				wantError:  "Integration not configured",
			},
			{
				name:       "not implemented",
				custodian:  "fidelity",
				err:        custodian.ErrNotImplemented,
				wantStatus: http.StatusNotImplemented,
				wantError:  "Integration not implemented",
			},
			{
				name:       "upstream failure",
				custodian:  "momentum",
				err:        errors.New("momentum api returned 502"),
				wantStatus: http.StatusInternalServerError,
				wantError:  "Failed to sync with custodian",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newAPIFixture(t)
				f.syncer.err = tt.err

				rr := f.do(t, http.MethodPost, "/api/v1/integrations/"+tt.custodian+"/sync", "")

				require.Equal(t, tt.wantStatus, rr.Code)
				assert.Equal(t, tt.wantError, decodeBody(t, rr)["error"])
			})
		}
	})
}

func TestIntegrationStatusHandler(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.do(t, http.MethodGet, "/api/v1/integrations/status", "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)

	integrations, ok := body["integrations"].(map[string]interface{})
	require.True(t, ok)
	for _, name := range []string{"momentum", "schwab", "fidelity", "alpha_vantage"} {
		assert.Contains(t, integrations, name)
	}

	schwab := integrations["schwab"].(map[string]interface{})
	assert.Equal(t, "oauth", schwab["auth_type"])

	backends, ok := body["backends"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, backends, "database")
	assert.Contains(t, backends, "kafka")
}

func TestUpdateMarketDataHandler(t *testing.T) {
	t.Run("refreshes requested symbols", func(t *testing.T) {
		f := newAPIFixture(t)
		f.market.summary = market.UpdateSummary{
			SymbolsRequested: 2, SymbolsUpdated: 2, HoldingsRepriced: 5}

		rr := f.do(t, http.MethodPost, "/api/v1/integrations/market-data/update",
			`["AAPL","GOOGL"]`)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, f.market.updated, 1)
		assert.Equal(t, []string{"AAPL", "GOOGL"}, f.market.updated[0])

		body := decodeBody(t, rr)
		assert.EqualValues(t, 2, body["symbols_updated"])
		assert.EqualValues(t, 5, body["holdings_repriced"])
	})

	t.Run("rejects non array body", func(t *testing.T) {
		f := newAPIFixture(t)

		rr := f.do(t, http.MethodPost, "/api/v1/integrations/market-data/update",
			`{"symbols":["AAPL"]}`)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid request body, expected a JSON array of symbols",
			decodeBody(t, rr)["error"])
		assert.Empty(t, f.market.updated)
	})

	t.Run("provider failure", func(t *testing.T) {
		f := newAPIFixture(t)
		f.market.err = errors.New("alpha vantage rate limit")

		rr := f.do(t, http.MethodPost, "/api/v1/integrations/market-data/update", `[]`)

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Failed to update market data", decodeBody(t, rr)["error"])
	})
}
