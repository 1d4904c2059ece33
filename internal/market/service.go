package market

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/models"
)

const (
	SPY_SYMBOL = "SPY"
	VIX_SYMBOL = "^VIX"

	MARKET_CONTEXT_TTL = 15 * time.Minute
	MARKET_WINDOW_DAYS = 5

	DEFAULT_VIX      = 20.0
	REGIME_THRESHOLD = 2.0
)

type quoteFetcher interface {
	GetGlobalQuote(symbol string) (*models.GlobalQuote, error)
	GetDailySeries(symbol string) (*models.DailySeriesResponse, error)
}

type contextCache interface {
	CacheJSON(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	GetCachedJSON(ctx context.Context, key string) ([]byte, bool)
}

type marketStore interface {
	UpsertMarketData(ctx context.Context, data models.MarketData) error
	UpdateHoldingPrices(ctx context.Context, symbol string, price decimal.Decimal) (int64, error)
	DistinctHoldingSymbols(ctx context.Context) ([]string, error)
}

// UpdateSummary reports one market data refresh run.
type UpdateSummary struct {
	SymbolsRequested int   `json:"symbols_requested"`
	SymbolsUpdated   int   `json:"symbols_updated"`
	HoldingsRepriced int64 `json:"holdings_repriced"`
}

type Service struct {
	quotes quoteFetcher
	cache  contextCache
	store  marketStore
}

func NewService(quotes quoteFetcher, cache contextCache, store marketStore) *Service {
	return &Service{quotes: quotes, cache: cache, store: store}
}

// NewServiceFromEnv wires the Alpha Vantage singleton. Cache may be nil
// when valkey is not initialized; the service then skips caching.
func NewServiceFromEnv(cache contextCache, store marketStore) *Service {
	return NewService(clients.GetAlphaVantageClient(), cache, store)
}

// GetMarketContext returns the condensed market snapshot used in content
// and insight prompts. It never fails: when quotes are unavailable it
// degrades to a neutral regime with the default VIX level. Results are
// cached for 15 minutes because Alpha Vantage throttles aggressively.
func (s *Service) GetMarketContext(ctx context.Context) models.MarketContext {
	if s.cache != nil {
		if payload, ok := s.cache.GetCachedJSON(ctx, clients.VALKEY_MARKET_CONTEXT_KEY); ok {
			var cached models.MarketContext
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached
			}
			slog.Warn("[MarketService] Discarding unreadable cached context")
		}
	}

	market := models.MarketContext{
		VIX:    DEFAULT_VIX,
		Regime: models.RegimeNeutral,
		AsOf:   time.Now().UTC(),
	}

	spyReturn, err := s.spyFiveDayReturn()
	if err != nil {
		slog.Warn("[MarketService] SPY series unavailable, keeping neutral regime",
			slog.String("error", err.Error()))
	} else {
		market.SPYReturn5D = spyReturn
		market.Regime = classifyRegime(spyReturn)
	}

	if quote, err := s.quotes.GetGlobalQuote(VIX_SYMBOL); err != nil {
		slog.Warn("[MarketService] VIX quote unavailable, using default",
			slog.Float64("default", DEFAULT_VIX))
	} else if vix, err := strconv.ParseFloat(quote.Price, 64); err == nil {
		market.VIX = vix
	}

	slog.Info("[MarketService] Market context refreshed",
		slog.Float64("spy_return_5d", market.SPYReturn5D),
		slog.Float64("vix", market.VIX),
		slog.String("regime", market.Regime))

	if s.cache != nil {
		if payload, err := json.Marshal(market); err == nil {
			if err := s.cache.CacheJSON(ctx, clients.VALKEY_MARKET_CONTEXT_KEY, payload, MARKET_CONTEXT_TTL); err != nil {
				slog.Warn("[MarketService] Failed to cache market context",
					slog.String("error", err.Error()))
			}
		}
	}
	return market
}

// UpdateMarketData pulls a quote per symbol, upserts it into market_data
// and reprices any holdings of that symbol. An empty symbol list means
// every symbol currently held. Symbols whose quote fails are skipped, not
// fatal; the summary says how many made it through.
func (s *Service) UpdateMarketData(ctx context.Context, symbols []string) (UpdateSummary, error) {
	if len(symbols) == 0 {
		held, err := s.store.DistinctHoldingSymbols(ctx)
		if err != nil {
			return UpdateSummary{}, err
		}
		symbols = held
	}

	summary := UpdateSummary{SymbolsRequested: len(symbols)}
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}

		quote, err := s.quotes.GetGlobalQuote(symbol)
		if err != nil {
			slog.Warn("[MarketService] Quote unavailable, skipping symbol",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()))
			continue
		}

		data, err := quoteToMarketData(quote)
		if err != nil {
			slog.Warn("[MarketService] Unparseable quote, skipping symbol",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()))
			continue
		}

		if err := s.store.UpsertMarketData(ctx, data); err != nil {
			return summary, err
		}

		repriced, err := s.store.UpdateHoldingPrices(ctx, symbol, data.Price)
		if err != nil {
			return summary, err
		}

		summary.SymbolsUpdated++
		summary.HoldingsRepriced += repriced
	}

	slog.Info("[MarketService] Market data updated",
		slog.Int("requested", summary.SymbolsRequested),
		slog.Int("updated", summary.SymbolsUpdated),
		slog.Int64("holdings_repriced", summary.HoldingsRepriced))
	return summary, nil
}

func (s *Service) spyFiveDayReturn() (float64, error) {
	series, err := s.quotes.GetDailySeries(SPY_SYMBOL)
	if err != nil {
		return 0, err
	}

	dates := make([]string, 0, len(series.TimeSeries))
	for date := range series.TimeSeries {
		dates = append(dates, date)
	}
	// ISO dates sort lexically, newest first after reversing.
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	if len(dates) > MARKET_WINDOW_DAYS {
		dates = dates[:MARKET_WINDOW_DAYS]
	}
	if len(dates) < 2 {
		return 0, errors.New("not enough daily closes")
	}

	newest, err := strconv.ParseFloat(series.TimeSeries[dates[0]].Close, 64)
	if err != nil {
		return 0, err
	}
	oldest, err := strconv.ParseFloat(series.TimeSeries[dates[len(dates)-1]].Close, 64)
	if err != nil {
		return 0, err
	}
	if oldest == 0 {
		return 0, errors.New("zero close price")
	}

	return (newest - oldest) / oldest * 100, nil
}

func classifyRegime(spyReturn float64) string {
	switch {
	case spyReturn > REGIME_THRESHOLD:
		return models.RegimeBullish
	case spyReturn < -REGIME_THRESHOLD:
		return models.RegimeBearish
	default:
		return models.RegimeNeutral
	}
}

func quoteToMarketData(quote *models.GlobalQuote) (models.MarketData, error) {
	price, err := decimal.NewFromString(quote.Price)
	if err != nil {
		return models.MarketData{}, err
	}

	changePercent := decimal.Zero
	if trimmed := strings.TrimSuffix(quote.ChangePercent, "%"); trimmed != "" {
		if parsed, err := decimal.NewFromString(trimmed); err == nil {
			changePercent = parsed
		}
	}

	var volume int64
	if quote.Volume != "" {
		if parsed, err := strconv.ParseInt(quote.Volume, 10, 64); err == nil {
			volume = parsed
		}
	}

	return models.MarketData{
		Symbol:        quote.Symbol,
		Price:         price,
		ChangePercent: changePercent,
		Volume:        volume,
	}, nil
}
