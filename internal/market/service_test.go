package market

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-reitz/relate.io/internal/models"
)

type stubQuotes struct {
	quotes     map[string]*models.GlobalQuote
	quoteErr   error
	series     *models.DailySeriesResponse
	seriesErr  error
	quoteCalls []string
}

func (s *stubQuotes) GetGlobalQuote(symbol string) (*models.GlobalQuote, error) {
	s.quoteCalls = append(s.quoteCalls, symbol)
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	quote, ok := s.quotes[symbol]
	if !ok {
		return nil, errors.New("empty quote payload")
	}
	return quote, nil
}

func (s *stubQuotes) GetDailySeries(string) (*models.DailySeriesResponse, error) {
	if s.seriesErr != nil {
		return nil, s.seriesErr
	}
	return s.series, nil
}

type stubCache struct {
	payload    []byte
	hit        bool
	setKey     string
	setPayload []byte
	setTTL     time.Duration
}

func (c *stubCache) GetCachedJSON(context.Context, string) ([]byte, bool) {
	return c.payload, c.hit
}

func (c *stubCache) CacheJSON(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	c.setKey = key
	c.setPayload = payload
	c.setTTL = ttl
	return nil
}

type stubMarketStore struct {
	upserts    []models.MarketData
	repriced   map[string]int64
	held       []string
	heldErr    error
	upsertErr  error
	repriceErr error
}

func (s *stubMarketStore) UpsertMarketData(_ context.Context, data models.MarketData) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, data)
	return nil
}

func (s *stubMarketStore) UpdateHoldingPrices(_ context.Context, symbol string, _ decimal.Decimal) (int64, error) {
	if s.repriceErr != nil {
		return 0, s.repriceErr
	}
	return s.repriced[symbol], nil
}

func (s *stubMarketStore) DistinctHoldingSymbols(context.Context) ([]string, error) {
	return s.held, s.heldErr
}

func dailySeries(closes map[string]string) *models.DailySeriesResponse {
	series := make(map[string]models.DailyQuote, len(closes))
	for date, close := range closes {
		series[date] = models.DailyQuote{Close: close}
	}
	return &models.DailySeriesResponse{TimeSeries: series}
}

func TestGetMarketContext_BullishRun(t *testing.T) {
	quotes := &stubQuotes{
		series: dailySeries(map[string]string{
			"2026-03-02": "103.00",
			"2026-02-27": "102.00",
			"2026-02-26": "101.00",
			"2026-02-25": "100.50",
			"2026-02-24": "100.00",
		}),
		quotes: map[string]*models.GlobalQuote{
			VIX_SYMBOL: {Symbol: VIX_SYMBOL, Price: "18.40"},
		},
	}
	service := NewService(quotes, nil, nil)

	market := service.GetMarketContext(context.Background())

	assert.InDelta(t, 3.0, market.SPYReturn5D, 0.0001)
	assert.Equal(t, models.RegimeBullish, market.Regime)
	assert.InDelta(t, 18.40, market.VIX, 0.0001)
	assert.False(t, market.AsOf.IsZero())
}

func TestGetMarketContext_WindowUsesNewestFiveDays(t *testing.T) {
	// The two stale closes would flip the sign if the window leaked.
	quotes := &stubQuotes{
		series: dailySeries(map[string]string{
			"2026-03-02": "103.00",
			"2026-02-27": "102.00",
			"2026-02-26": "101.00",
			"2026-02-25": "100.50",
			"2026-02-24": "100.00",
			"2026-02-23": "150.00",
			"2026-02-20": "160.00",
		}),
	}
	service := NewService(quotes, nil, nil)

	market := service.GetMarketContext(context.Background())

	assert.InDelta(t, 3.0, market.SPYReturn5D, 0.0001)
	assert.Equal(t, models.RegimeBullish, market.Regime)
}

func TestGetMarketContext_DegradesToNeutralDefaults(t *testing.T) {
	quotes := &stubQuotes{
		seriesErr: errors.New("throttled"),
		quoteErr:  errors.New("throttled"),
	}
	service := NewService(quotes, nil, nil)

	market := service.GetMarketContext(context.Background())

	assert.Zero(t, market.SPYReturn5D)
	assert.Equal(t, models.RegimeNeutral, market.Regime)
	assert.InDelta(t, DEFAULT_VIX, market.VIX, 0.0001)
}

func TestGetMarketContext_ServesFromCache(t *testing.T) {
	cached := models.MarketContext{
		SPYReturn5D: -3.4,
		VIX:         31.2,
		Regime:      models.RegimeBearish,
		AsOf:        time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	quotes := &stubQuotes{}
	service := NewService(quotes, &stubCache{payload: payload, hit: true}, nil)

	market := service.GetMarketContext(context.Background())

	assert.Equal(t, cached, market)
	assert.Empty(t, quotes.quoteCalls, "cache hit must not call the quote API")
}

func TestGetMarketContext_CachesFreshResult(t *testing.T) {
	quotes := &stubQuotes{
		series: dailySeries(map[string]string{
			"2026-03-02": "97.00",
			"2026-02-24": "100.00",
		}),
	}
	cache := &stubCache{}
	service := NewService(quotes, cache, nil)

	market := service.GetMarketContext(context.Background())

	assert.Equal(t, models.RegimeBearish, market.Regime)
	assert.Equal(t, "market:context", cache.setKey)
	assert.Equal(t, MARKET_CONTEXT_TTL, cache.setTTL)

	var stored models.MarketContext
	require.NoError(t, json.Unmarshal(cache.setPayload, &stored))
	assert.Equal(t, market.Regime, stored.Regime)
}

func TestClassifyRegime(t *testing.T) {
	tests := []struct {
		name      string
		spyReturn float64
		want      string
	}{
		{"strong rally", 3.1, models.RegimeBullish},
		{"exactly at threshold stays neutral", 2.0, models.RegimeNeutral},
		{"flat", 0.0, models.RegimeNeutral},
		{"exactly at lower threshold stays neutral", -2.0, models.RegimeNeutral},
		{"selloff", -2.5, models.RegimeBearish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyRegime(tt.spyReturn))
		})
	}
}

func TestUpdateMarketData(t *testing.T) {
	quotes := &stubQuotes{
		quotes: map[string]*models.GlobalQuote{
			"AAPL": {Symbol: "AAPL", Price: "180.2500", ChangePercent: "1.25%", Volume: "1000000"},
		},
	}
	store := &stubMarketStore{repriced: map[string]int64{"AAPL": 3}}
	service := NewService(quotes, nil, store)

	summary, err := service.UpdateMarketData(context.Background(), []string{"aapl", "GOOGL"})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.SymbolsRequested)
	assert.Equal(t, 1, summary.SymbolsUpdated)
	assert.Equal(t, int64(3), summary.HoldingsRepriced)

	assert.Equal(t, []string{"AAPL", "GOOGL"}, quotes.quoteCalls, "symbols are normalized to upper case")
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "AAPL", store.upserts[0].Symbol)
	assert.Equal(t, "180.2500", store.upserts[0].Price.String())
	assert.Equal(t, "1.25", store.upserts[0].ChangePercent.String())
	assert.Equal(t, int64(1000000), store.upserts[0].Volume)
}

func TestUpdateMarketData_DefaultsToHeldSymbols(t *testing.T) {
	quotes := &stubQuotes{
		quotes: map[string]*models.GlobalQuote{
			"BND": {Symbol: "BND", Price: "78.45"},
		},
	}
	store := &stubMarketStore{held: []string{"BND"}, repriced: map[string]int64{"BND": 1}}
	service := NewService(quotes, nil, store)

	summary, err := service.UpdateMarketData(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.SymbolsUpdated)
	assert.Equal(t, []string{"BND"}, quotes.quoteCalls)
}

func TestUpdateMarketData_HeldSymbolLookupFailure(t *testing.T) {
	store := &stubMarketStore{heldErr: errors.New("db down")}
	service := NewService(&stubQuotes{}, nil, store)

	_, err := service.UpdateMarketData(context.Background(), nil)

	require.Error(t, err)
}
