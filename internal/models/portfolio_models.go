package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Portfolio struct {
	ID             int64           `json:"id"`
	ClientID       int64           `json:"client_id"`
	Custodian      string          `json:"custodian"`
	AccountNumber  string          `json:"account_number"`
	TotalValue     decimal.Decimal `json:"total_value"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	InvestedAmount decimal.Decimal `json:"invested_amount"`
	UnrealizedPNL  decimal.Decimal `json:"unrealized_pnl"`
	RealizedPNL    decimal.Decimal `json:"realized_pnl"`
	PerformanceYTD decimal.Decimal `json:"performance_ytd"`
	RiskScore      decimal.Decimal `json:"risk_score"`
	LastSync       *time.Time      `json:"last_sync,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Holding struct {
	ID           int64           `json:"id"`
	PortfolioID  int64           `json:"portfolio_id"`
	Symbol       string          `json:"symbol"`
	CompanyName  string          `json:"company_name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	MarketValue  decimal.Decimal `json:"market_value"`
	Weight       decimal.Decimal `json:"weight"`
	Sector       string          `json:"sector,omitempty"`
	AssetClass   string          `json:"asset_class"`
	LastUpdated  time.Time       `json:"last_updated"`
}

type MarketData struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// MarketContext is the condensed market snapshot fed into content prompts.
type MarketContext struct {
	SPYReturn5D float64   `json:"spy_return_5d"`
	VIX         float64   `json:"vix"`
	Regime      string    `json:"regime"`
	AsOf        time.Time `json:"as_of"`
}

const (
	RegimeBullish = "bullish"
	RegimeBearish = "bearish"
	RegimeNeutral = "neutral"
)

// CustodianAccount is the normalized shape every custodian integration
// returns, regardless of the upstream API.
type CustodianAccount struct {
	ExternalID    string             `json:"external_id"`
	Name          string             `json:"name"`
	Email         string             `json:"email"`
	Phone         string             `json:"phone,omitempty"`
	RiskTolerance string             `json:"risk_tolerance"`
	Portfolio     CustodianPortfolio `json:"portfolio"`
	Holdings      []CustodianHolding `json:"holdings"`
}

type CustodianPortfolio struct {
	AccountNumber  string          `json:"account_number"`
	TotalValue     decimal.Decimal `json:"total_value"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	InvestedAmount decimal.Decimal `json:"invested_amount"`
	UnrealizedPNL  decimal.Decimal `json:"unrealized_pnl"`
	RealizedPNL    decimal.Decimal `json:"realized_pnl"`
	RiskScore      decimal.Decimal `json:"risk_score"`
}

type CustodianHolding struct {
	Symbol       string          `json:"symbol"`
	CompanyName  string          `json:"company_name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Sector       string          `json:"sector,omitempty"`
	AssetClass   string          `json:"asset_class"`
}

// SyncResult summarizes one custodian sync run for a single advisor.
type SyncResult struct {
	Custodian         string    `json:"custodian"`
	AccountsProcessed int       `json:"accounts_processed"`
	ClientsCreated    int       `json:"clients_created"`
	PortfoliosUpdated int       `json:"portfolios_updated"`
	HoldingsUpdated   int       `json:"holdings_updated"`
	SyncedAt          time.Time `json:"synced_at"`
}
