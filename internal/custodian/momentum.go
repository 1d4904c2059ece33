package custodian

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/paul-reitz/relate.io/internal/models"
)

// MomentumSource is the mock Momentum integration. It always returns the
// same two demo accounts; the upstream API has no sandbox, so this stands
// in until real credentials exist.
type MomentumSource struct{}

func NewMomentumSource() *MomentumSource {
	return &MomentumSource{}
}

func (m *MomentumSource) Name() string {
	return CustodianMomentum
}

func (m *MomentumSource) Accounts(_ context.Context, _ int64) ([]models.CustodianAccount, error) {
	return []models.CustodianAccount{
		{
			ExternalID:    "MOM_001",
			Name:          "John Smith",
			Email:         "john.smith@email.com",
			Phone:         "+27123456789",
			RiskTolerance: models.RiskModerate,
			Portfolio: models.CustodianPortfolio{
				AccountNumber:  "MOM_001",
				TotalValue:     decimal.NewFromFloat(250000.00),
				CashBalance:    decimal.NewFromFloat(15000.00),
				InvestedAmount: decimal.NewFromFloat(235000.00),
				UnrealizedPNL:  decimal.NewFromFloat(12500.00),
				RealizedPNL:    decimal.NewFromFloat(8750.00),
				RiskScore:      decimal.NewFromFloat(6.5),
			},
			Holdings: []models.CustodianHolding{
				{
					Symbol:       "AAPL",
					CompanyName:  "Apple Inc.",
					Quantity:     decimal.NewFromInt(100),
					AvgCost:      decimal.NewFromFloat(165.00),
					CurrentPrice: decimal.NewFromFloat(175.50),
					Sector:       "Technology",
					AssetClass:   "equity",
				},
				{
					Symbol:       "GOOGL",
					CompanyName:  "Alphabet Inc.",
					Quantity:     decimal.NewFromInt(50),
					AvgCost:      decimal.NewFromFloat(135.00),
					CurrentPrice: decimal.NewFromFloat(142.30),
					Sector:       "Technology",
					AssetClass:   "equity",
				},
			},
		},
		{
			ExternalID:    "MOM_002",
			Name:          "Sarah Johnson",
			Email:         "sarah.johnson@email.com",
			Phone:         "+27987654321",
			RiskTolerance: models.RiskConservative,
			Portfolio: models.CustodianPortfolio{
				AccountNumber:  "MOM_002",
				TotalValue:     decimal.NewFromFloat(180000.00),
				CashBalance:    decimal.NewFromFloat(25000.00),
				InvestedAmount: decimal.NewFromFloat(155000.00),
				UnrealizedPNL:  decimal.NewFromFloat(5500.00),
				RealizedPNL:    decimal.NewFromFloat(3200.00),
				RiskScore:      decimal.NewFromFloat(4.2),
			},
			Holdings: []models.CustodianHolding{
				{
					Symbol:       "BND",
					CompanyName:  "Vanguard Total Bond Market ETF",
					Quantity:     decimal.NewFromInt(500),
					AvgCost:      decimal.NewFromFloat(80.00),
					CurrentPrice: decimal.NewFromFloat(78.45),
					Sector:       "Fixed Income",
					AssetClass:   "bond",
				},
			},
		},
	}, nil
}
