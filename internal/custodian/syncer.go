package custodian

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/models"
)

// AccountSource is one custodian's account feed.
type AccountSource interface {
	Name() string
	Accounts(ctx context.Context, advisorID int64) ([]models.CustodianAccount, error)
}

type syncStore interface {
	UpsertClient(ctx context.Context, client models.Client) (int64, bool, error)
	SyncPortfolio(ctx context.Context, portfolio models.Portfolio, holdings []models.CustodianHolding) (int64, error)
}

// Syncer runs the account-to-database flow for every registered source:
// upsert the client, replace the portfolio and holdings, count what
// changed.
type Syncer struct {
	store   syncStore
	sources map[string]AccountSource
}

func NewSyncer(store syncStore, sources ...AccountSource) *Syncer {
	registered := make(map[string]AccountSource, len(sources))
	for _, source := range sources {
		registered[source.Name()] = source
	}
	return &Syncer{store: store, sources: registered}
}

// NewSyncerFromEnv wires the standard three sources.
func NewSyncerFromEnv(store syncStore) *Syncer {
	return NewSyncer(store,
		NewMomentumSource(),
		NewSchwabSource(clients.GetCustodianClient()),
		NewFidelitySource())
}

func (s *Syncer) Sync(ctx context.Context, custodianName string, advisorID int64) (models.SyncResult, error) {
	source, ok := s.sources[custodianName]
	if !ok {
		return models.SyncResult{}, fmt.Errorf("%w: %s", ErrUnknownCustodian, custodianName)
	}

	accounts, err := source.Accounts(ctx, advisorID)
	if err != nil {
		return models.SyncResult{}, err
	}

	result := models.SyncResult{
		Custodian: custodianName,
		SyncedAt:  time.Now().UTC(),
	}

	for _, account := range accounts {
		clientID, created, err := s.store.UpsertClient(ctx, models.Client{
			AdvisorID:     advisorID,
			ExternalID:    account.ExternalID,
			Name:          account.Name,
			Email:         account.Email,
			Phone:         account.Phone,
			RiskTolerance: account.RiskTolerance,
		})
		if err != nil {
			return result, fmt.Errorf("failed to upsert client %q: %w", account.Email, err)
		}
		if created {
			result.ClientsCreated++
		}

		portfolio := models.Portfolio{
			ClientID:       clientID,
			Custodian:      custodianName,
			AccountNumber:  account.Portfolio.AccountNumber,
			TotalValue:     account.Portfolio.TotalValue,
			CashBalance:    account.Portfolio.CashBalance,
			InvestedAmount: account.Portfolio.InvestedAmount,
			UnrealizedPNL:  account.Portfolio.UnrealizedPNL,
			RealizedPNL:    account.Portfolio.RealizedPNL,
			RiskScore:      account.Portfolio.RiskScore,
		}
		if _, err := s.store.SyncPortfolio(ctx, portfolio, account.Holdings); err != nil {
			return result, fmt.Errorf("failed to sync portfolio for %q: %w", account.Email, err)
		}

		result.AccountsProcessed++
		result.PortfoliosUpdated++
		result.HoldingsUpdated += len(account.Holdings)
	}

	slog.Info("[CustodianSync] Sync completed",
		slog.String("custodian", custodianName),
		slog.Int64("advisor_id", advisorID),
		slog.Int("accounts", result.AccountsProcessed),
		slog.Int("clients_created", result.ClientsCreated),
		slog.Int("holdings", result.HoldingsUpdated))
	return result, nil
}

// Custodians lists the registered source names.
func (s *Syncer) Custodians() []string {
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	return names
}
