package processing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paul-reitz/relate.io/internal/custodian"
	"github.com/paul-reitz/relate.io/internal/market"
	"github.com/paul-reitz/relate.io/internal/models"
)

type fakeCustodianSyncer struct {
	names []string
	errs  map[string]error
	calls []string
}

func (f *fakeCustodianSyncer) Sync(_ context.Context, custodianName string, advisorID int64) (models.SyncResult, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%d", custodianName, advisorID))
	if err := f.errs[custodianName]; err != nil {
		return models.SyncResult{}, err
	}
	return models.SyncResult{Custodian: custodianName, AccountsProcessed: 2}, nil
}

func (f *fakeCustodianSyncer) Custodians() []string {
	return f.names
}

func TestRefreshMarketData(t *testing.T) {
	t.Run("refreshes every held symbol", func(t *testing.T) {
		updater := &fakeMarketUpdater{summary: market.UpdateSummary{
			SymbolsRequested: 3, SymbolsUpdated: 3, HoldingsRepriced: 9}}
		runner := NewRunner(weeklyFixtureStore(), &fakeContent{}, updater, nil, nil)

		runner.RefreshMarketData(context.Background())

		assert.Equal(t, [][]string{nil}, updater.symbolsArg)
	})
}

func TestAutoSyncCustodians(t *testing.T) {
	t.Run("syncs every custodian for every advisor", func(t *testing.T) {
		store := weeklyFixtureStore()
		store.advisors = append(store.advisors, models.Advisor{ID: 4, Name: "Sam Lee"})

		syncer := &fakeCustodianSyncer{
			names: []string{custodian.CustodianMomentum, custodian.CustodianSchwab, custodian.CustodianFidelity},
			errs: map[string]error{
				custodian.CustodianSchwab:   custodian.ErrNotConfigured,
				custodian.CustodianFidelity: custodian.ErrNotImplemented,
			},
		}
		runner := NewRunner(store, &fakeContent{}, &fakeMarketUpdater{}, syncer, nil)

		runner.AutoSyncCustodians(context.Background())

		assert.Equal(t, []string{
			"momentum:3", "schwab:3", "fidelity:3",
			"momentum:4", "schwab:4", "fidelity:4",
		}, syncer.calls)
	})
}

func TestPurgeExpiredInsights(t *testing.T) {
	store := weeklyFixtureStore()
	store.purged = 12
	runner := NewRunner(store, &fakeContent{}, &fakeMarketUpdater{}, nil, nil)

	runner.PurgeExpiredInsights(context.Background())

	assert.Equal(t, 1, store.purgeCalls)
}
