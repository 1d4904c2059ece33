package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/paul-reitz/relate.io/internal/models"
)

func (s *Store) UpsertMarketData(ctx context.Context, data models.MarketData) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO market_data (symbol, price, change_percent, volume, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (symbol) DO UPDATE SET
            price = EXCLUDED.price,
            change_percent = EXCLUDED.change_percent,
            volume = EXCLUDED.volume,
            updated_at = NOW()`,
		data.Symbol, data.Price, data.ChangePercent, data.Volume)
	if err != nil {
		return fmt.Errorf("failed to upsert market data for %s: %w", data.Symbol, err)
	}
	return nil
}

func (s *Store) GetMarketData(ctx context.Context, symbol string) (models.MarketData, error) {
	var d models.MarketData
	err := s.db.QueryRowContext(ctx, `
        SELECT symbol, price, change_percent, volume, updated_at
        FROM market_data
        WHERE symbol = $1`, symbol).
		Scan(&d.Symbol, &d.Price, &d.ChangePercent, &d.Volume, &d.UpdatedAt)
	if err != nil {
		return models.MarketData{}, err
	}
	return d, nil
}

// UpdateHoldingPrices reprices every holding of a symbol and recomputes its
// market value in one statement. Returns the number of holdings touched.
func (s *Store) UpdateHoldingPrices(ctx context.Context, symbol string, price decimal.Decimal) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
        UPDATE holdings
        SET current_price = $1,
            market_value = quantity * $1,
            last_updated = NOW()
        WHERE symbol = $2`, price, symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to update holding prices for %s: %w", symbol, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// DistinctHoldingSymbols lists every symbol held across all portfolios,
// which is the refresh universe for the market data updater.
func (s *Store) DistinctHoldingSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT DISTINCT symbol
        FROM holdings
        ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}
