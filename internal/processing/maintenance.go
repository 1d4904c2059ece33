package processing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/paul-reitz/relate.io/internal/custodian"
)

// RefreshMarketData reprices every symbol currently held in any portfolio
// and refreshes the cached market context.
func (r *Runner) RefreshMarketData(ctx context.Context) {
	slog.Info("[MarketRefresh] Refreshing market data...")

	summary, err := r.market.UpdateMarketData(ctx, nil)
	if err != nil {
		slog.Error("[MarketRefresh] Market data refresh failed",
			slog.String("error", err.Error()))
		return
	}

	slog.Info("[MarketRefresh] Market data refreshed",
		slog.Int("symbols_requested", summary.SymbolsRequested),
		slog.Int("symbols_updated", summary.SymbolsUpdated),
		slog.Int64("holdings_repriced", summary.HoldingsRepriced))
}

// AutoSyncCustodians runs every registered custodian source for every
// advisor. Sources that are not configured or not implemented are skipped
// quietly; they stay visible on the integrations status endpoint.
func (r *Runner) AutoSyncCustodians(ctx context.Context) {
	slog.Info("[AutoSync] Starting custodian auto-sync...")
	start := time.Now()

	advisors, err := r.store.ListAdvisors(ctx)
	if err != nil {
		slog.Error("[AutoSync] Failed to list advisors",
			slog.String("error", err.Error()))
		return
	}

	synced := 0
	for _, advisor := range advisors {
		for _, name := range r.syncer.Custodians() {
			result, err := r.syncer.Sync(ctx, name, advisor.ID)
			if errors.Is(err, custodian.ErrNotConfigured) || errors.Is(err, custodian.ErrNotImplemented) {
				continue
			}
			if err != nil {
				slog.Warn("[AutoSync] Custodian sync failed",
					slog.String("custodian", name),
					slog.Int64("advisor_id", advisor.ID),
					slog.String("error", err.Error()))
				continue
			}
			synced++
			slog.Info("[AutoSync] Custodian synced",
				slog.String("custodian", name),
				slog.Int64("advisor_id", advisor.ID),
				slog.Int("accounts", result.AccountsProcessed))
		}
	}

	slog.Info("[AutoSync] Auto-sync finished",
		slog.Int("advisors", len(advisors)),
		slog.Int("synced", synced),
		slog.Duration("took", time.Since(start)))
}

// PurgeExpiredInsights removes insights past their expiry.
func (r *Runner) PurgeExpiredInsights(ctx context.Context) {
	purged, err := r.store.PurgeExpiredInsights(ctx)
	if err != nil {
		slog.Error("[InsightPurge] Failed to purge expired insights",
			slog.String("error", err.Error()))
		return
	}
	if purged > 0 {
		slog.Info("[InsightPurge] Expired insights removed",
			slog.Int64("purged", purged))
	}
}
