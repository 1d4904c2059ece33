package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/paul-reitz/relate.io/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// SyncPortfolio writes one custodian account snapshot: the portfolio row
// is upserted by client_id and the holdings are replaced wholesale, all in
// one transaction so readers never see a half-synced portfolio.
// Market value and weight are derived here: market_value = quantity x
// current_price, weight = market_value / total_value x 100.
func (s *Store) SyncPortfolio(ctx context.Context, portfolio models.Portfolio, holdings []models.CustodianHolding) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	performance := portfolio.PerformanceYTD
	if performance.IsZero() && portfolio.InvestedAmount.IsPositive() {
		performance = portfolio.UnrealizedPNL.Div(portfolio.InvestedAmount).Mul(oneHundred).Round(2)
	}

	var portfolioID int64
	err = tx.QueryRowContext(ctx, `
        INSERT INTO portfolios (client_id, custodian, account_number, total_value,
                                cash_balance, invested_amount, unrealized_pnl,
                                realized_pnl, performance_ytd, risk_score, last_sync)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
        ON CONFLICT (client_id) DO UPDATE SET
            custodian = EXCLUDED.custodian,
            account_number = EXCLUDED.account_number,
            total_value = EXCLUDED.total_value,
            cash_balance = EXCLUDED.cash_balance,
            invested_amount = EXCLUDED.invested_amount,
            unrealized_pnl = EXCLUDED.unrealized_pnl,
            realized_pnl = EXCLUDED.realized_pnl,
            performance_ytd = EXCLUDED.performance_ytd,
            risk_score = EXCLUDED.risk_score,
            last_sync = NOW()
        RETURNING id`,
		portfolio.ClientID, portfolio.Custodian, portfolio.AccountNumber,
		portfolio.TotalValue, portfolio.CashBalance, portfolio.InvestedAmount,
		portfolio.UnrealizedPNL, portfolio.RealizedPNL, performance,
		portfolio.RiskScore).Scan(&portfolioID)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert portfolio: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE portfolio_id = $1`, portfolioID); err != nil {
		return 0, fmt.Errorf("failed to clear holdings: %w", err)
	}

	if len(holdings) > 0 {
		query := `INSERT INTO holdings (portfolio_id, symbol, company_name, quantity, avg_cost,
                          current_price, market_value, weight, sector, asset_class) VALUES `

		values := []interface{}{}
		placeholderParts := []string{}

		for i, h := range holdings {
			marketValue := h.Quantity.Mul(h.CurrentPrice).Round(2)
			weight := decimal.Zero
			if portfolio.TotalValue.IsPositive() {
				weight = marketValue.Div(portfolio.TotalValue).Mul(oneHundred).Round(2)
			}
			assetClass := h.AssetClass
			if assetClass == "" {
				assetClass = "equity"
			}

			offset := i * 10
			placeholderParts = append(placeholderParts,
				fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
					offset+1, offset+2, offset+3, offset+4, offset+5,
					offset+6, offset+7, offset+8, offset+9, offset+10))

			values = append(values, portfolioID, h.Symbol, h.CompanyName, h.Quantity,
				h.AvgCost, h.CurrentPrice, marketValue, weight, h.Sector, assetClass)
		}

		query += strings.Join(placeholderParts, ", ")
		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			return 0, fmt.Errorf("failed to insert holdings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit portfolio sync: %w", err)
	}
	return portfolioID, nil
}

const portfolioColumns = `id, client_id, custodian, account_number, total_value,
       cash_balance, invested_amount, unrealized_pnl, realized_pnl,
       performance_ytd, risk_score, last_sync, created_at`

func (s *Store) GetPortfolio(ctx context.Context, id int64) (models.Portfolio, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+portfolioColumns+`
        FROM portfolios
        WHERE id = $1`, id)
	return scanPortfolio(row)
}

func (s *Store) GetPortfolioByClient(ctx context.Context, clientID int64) (models.Portfolio, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+portfolioColumns+`
        FROM portfolios
        WHERE client_id = $1`, clientID)
	return scanPortfolio(row)
}

// ListHoldings returns a portfolio's holdings ordered by weight, heaviest
// first.
func (s *Store) ListHoldings(ctx context.Context, portfolioID int64) ([]models.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, portfolio_id, symbol, company_name, quantity, avg_cost,
               current_price, market_value, weight, sector, asset_class, last_updated
        FROM holdings
        WHERE portfolio_id = $1
        ORDER BY weight DESC`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		var companyName, sector sql.NullString
		if err := rows.Scan(&h.ID, &h.PortfolioID, &h.Symbol, &companyName,
			&h.Quantity, &h.AvgCost, &h.CurrentPrice, &h.MarketValue,
			&h.Weight, &sector, &h.AssetClass, &h.LastUpdated); err != nil {
			return nil, err
		}
		h.CompanyName = companyName.String
		h.Sector = sector.String
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func scanPortfolio(row rowScanner) (models.Portfolio, error) {
	var p models.Portfolio
	var custodian, accountNumber sql.NullString
	var lastSync sql.NullTime

	err := row.Scan(&p.ID, &p.ClientID, &custodian, &accountNumber,
		&p.TotalValue, &p.CashBalance, &p.InvestedAmount, &p.UnrealizedPNL,
		&p.RealizedPNL, &p.PerformanceYTD, &p.RiskScore, &lastSync, &p.CreatedAt)
	if err != nil {
		return models.Portfolio{}, err
	}

	p.Custodian = custodian.String
	p.AccountNumber = accountNumber.String
	if lastSync.Valid {
		p.LastSync = &lastSync.Time
	}
	return p, nil
}
