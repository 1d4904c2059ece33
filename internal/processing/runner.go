package processing

import (
	"context"

	"github.com/paul-reitz/relate.io/internal/market"
	"github.com/paul-reitz/relate.io/internal/models"
)

type jobStore interface {
	ListAdvisors(ctx context.Context) ([]models.Advisor, error)
	ListClients(ctx context.Context, advisorID int64, search string) ([]models.Client, error)
	AdvisorBranding(ctx context.Context, advisorID int64) (models.FirmBranding, error)
	GetPortfolioByClient(ctx context.Context, clientID int64) (models.Portfolio, error)
	ListHoldings(ctx context.Context, portfolioID int64) ([]models.Holding, error)
	InsertCommunication(ctx context.Context, log models.CommunicationLog) (int64, error)
	InsertGenerationRecord(ctx context.Context, record models.AIGenerationRecord) error
	PurgeExpiredInsights(ctx context.Context) (int64, error)
}

type contentGenerator interface {
	Generate(ctx context.Context, req models.ContentRequest) models.GeneratedContent
}

type marketUpdater interface {
	GetMarketContext(ctx context.Context) models.MarketContext
	UpdateMarketData(ctx context.Context, symbols []string) (market.UpdateSummary, error)
}

type custodianSyncer interface {
	Sync(ctx context.Context, custodianName string, advisorID int64) (models.SyncResult, error)
	Custodians() []string
}

type publishFunc func(topic string, key string, payload interface{}) error

// Runner holds the dependencies shared by every scheduled job. The
// scheduler binary owns exactly one.
type Runner struct {
	store   jobStore
	content contentGenerator
	market  marketUpdater
	syncer  custodianSyncer
	publish publishFunc
}

func NewRunner(store jobStore, content contentGenerator, market marketUpdater,
	syncer custodianSyncer, publish publishFunc) *Runner {
	return &Runner{
		store:   store,
		content: content,
		market:  market,
		syncer:  syncer,
		publish: publish,
	}
}
