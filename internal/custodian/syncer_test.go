package custodian

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-reitz/relate.io/internal/models"
)

type fakeSyncStore struct {
	clients    []models.Client
	portfolios []models.Portfolio
	created    map[string]bool
	upsertErr  error
	syncErr    error
	nextID     int64
}

func (f *fakeSyncStore) UpsertClient(_ context.Context, client models.Client) (int64, bool, error) {
	if f.upsertErr != nil {
		return 0, false, f.upsertErr
	}
	f.clients = append(f.clients, client)
	f.nextID++
	return f.nextID, f.created[client.Email], nil
}

func (f *fakeSyncStore) SyncPortfolio(_ context.Context, portfolio models.Portfolio, _ []models.CustodianHolding) (int64, error) {
	if f.syncErr != nil {
		return 0, f.syncErr
	}
	f.portfolios = append(f.portfolios, portfolio)
	return portfolio.ClientID, nil
}

type staticSource struct {
	name     string
	accounts []models.CustodianAccount
	err      error
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Accounts(context.Context, int64) ([]models.CustodianAccount, error) {
	return s.accounts, s.err
}

func TestSyncer_MomentumFullRun(t *testing.T) {
	store := &fakeSyncStore{
		created: map[string]bool{
			"john.smith@email.com":    true,
			"sarah.johnson@email.com": false,
		},
	}
	syncer := NewSyncer(store, NewMomentumSource())

	result, err := syncer.Sync(context.Background(), CustodianMomentum, 1)

	require.NoError(t, err)
	assert.Equal(t, CustodianMomentum, result.Custodian)
	assert.Equal(t, 2, result.AccountsProcessed)
	assert.Equal(t, 1, result.ClientsCreated)
	assert.Equal(t, 2, result.PortfoliosUpdated)
	assert.Equal(t, 3, result.HoldingsUpdated)
	assert.False(t, result.SyncedAt.IsZero())

	require.Len(t, store.clients, 2)
	assert.Equal(t, "John Smith", store.clients[0].Name)
	assert.Equal(t, "MOM_001", store.clients[0].ExternalID)
	assert.Equal(t, models.RiskModerate, store.clients[0].RiskTolerance)
	assert.Equal(t, models.RiskConservative, store.clients[1].RiskTolerance)

	require.Len(t, store.portfolios, 2)
	assert.Equal(t, CustodianMomentum, store.portfolios[0].Custodian)
	assert.Equal(t, "MOM_001", store.portfolios[0].AccountNumber)
	assert.Equal(t, "250000", store.portfolios[0].TotalValue.String())
	assert.Equal(t, "4.2", store.portfolios[1].RiskScore.String())
}

func TestSyncer_UnknownCustodian(t *testing.T) {
	syncer := NewSyncer(&fakeSyncStore{}, NewMomentumSource())

	_, err := syncer.Sync(context.Background(), "vanguard", 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCustodian)
}

func TestSyncer_SourceErrorPropagates(t *testing.T) {
	source := &staticSource{name: CustodianSchwab, err: ErrNotConfigured}
	syncer := NewSyncer(&fakeSyncStore{}, source)

	_, err := syncer.Sync(context.Background(), CustodianSchwab, 1)

	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSyncer_StoreFailureStopsRun(t *testing.T) {
	store := &fakeSyncStore{upsertErr: errors.New("db down")}
	syncer := NewSyncer(store, NewMomentumSource())

	result, err := syncer.Sync(context.Background(), CustodianMomentum, 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "john.smith@email.com")
	assert.Zero(t, result.AccountsProcessed)
}

func TestMomentumSource_Dataset(t *testing.T) {
	accounts, err := NewMomentumSource().Accounts(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, accounts, 2)

	john := accounts[0]
	assert.Equal(t, "MOM_001", john.ExternalID)
	assert.Equal(t, "john.smith@email.com", john.Email)
	require.Len(t, john.Holdings, 2)
	assert.Equal(t, "AAPL", john.Holdings[0].Symbol)
	assert.Equal(t, "175.5", john.Holdings[0].CurrentPrice.String())
	assert.Equal(t, "165", john.Holdings[0].AvgCost.String())
	assert.Equal(t, "12500", john.Portfolio.UnrealizedPNL.String())

	sarah := accounts[1]
	assert.Equal(t, "MOM_002", sarah.ExternalID)
	require.Len(t, sarah.Holdings, 1)
	assert.Equal(t, "BND", sarah.Holdings[0].Symbol)
	assert.Equal(t, "Vanguard Total Bond Market ETF", sarah.Holdings[0].CompanyName)
	assert.Equal(t, "bond", sarah.Holdings[0].AssetClass)
	assert.Equal(t, "180000", sarah.Portfolio.TotalValue.String())
}

type stubTransport struct {
	configured bool
	payload    []byte
	err        error
	lastRef    string
}

func (s *stubTransport) Configured() bool { return s.configured }

func (s *stubTransport) FetchAccounts(advisorRef string) ([]byte, error) {
	s.lastRef = advisorRef
	return s.payload, s.err
}

func TestSchwabSource(t *testing.T) {
	t.Run("unconfigured short circuits", func(t *testing.T) {
		source := NewSchwabSource(&stubTransport{configured: false})

		_, err := source.Accounts(context.Background(), 1)

		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("parses accounts envelope", func(t *testing.T) {
		transport := &stubTransport{
			configured: true,
			payload: []byte(`{"accounts":[{
				"external_id":"SCHW_9",
				"name":"Alice Broker",
				"email":"alice@example.com",
				"risk_tolerance":"aggressive",
				"portfolio":{"account_number":"SCHW_9","total_value":"50000"},
				"holdings":[{"symbol":"VTI","quantity":"10","avg_cost":"200","current_price":"210","asset_class":"equity"}]
			}]}`),
		}
		source := NewSchwabSource(transport)

		accounts, err := source.Accounts(context.Background(), 42)

		require.NoError(t, err)
		assert.Equal(t, "42", transport.lastRef)
		require.Len(t, accounts, 1)
		assert.Equal(t, "SCHW_9", accounts[0].ExternalID)
		assert.Equal(t, "50000", accounts[0].Portfolio.TotalValue.String())
		require.Len(t, accounts[0].Holdings, 1)
		assert.Equal(t, "VTI", accounts[0].Holdings[0].Symbol)
	})

	t.Run("fetch error propagates", func(t *testing.T) {
		source := NewSchwabSource(&stubTransport{configured: true, err: errors.New("status 500")})

		_, err := source.Accounts(context.Background(), 1)

		require.Error(t, err)
	})

	t.Run("malformed payload is an error", func(t *testing.T) {
		source := NewSchwabSource(&stubTransport{configured: true, payload: []byte("not json")})

		_, err := source.Accounts(context.Background(), 1)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse accounts payload")
	})
}

func TestFidelitySource(t *testing.T) {
	_, err := NewFidelitySource().Accounts(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestRegistry_Status(t *testing.T) {
	t.Setenv("MOMENTUM_API_KEY", "key")
	t.Setenv("SCHWAB_CLIENT_ID", "")
	t.Setenv("SCHWAB_CLIENT_SECRET", "")
	t.Setenv("FIDELITY_API_KEY", "")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "demo")

	status := NewRegistry().Status()

	require.Len(t, status, 4)
	assert.True(t, status[CustodianMomentum].Configured)
	assert.False(t, status[CustodianSchwab].Configured)
	assert.Equal(t, "oauth", status[CustodianSchwab].AuthType)
	assert.False(t, status[CustodianFidelity].Configured)
	assert.True(t, status["alpha_vantage"].Configured)
	assert.Equal(t, 100, status[CustodianMomentum].RateLimit)
}
