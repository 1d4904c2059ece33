package processing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/paul-reitz/relate.io/internal/clients/kafka_client"
	"github.com/paul-reitz/relate.io/internal/models"
)

const TOP_HOLDINGS_LIMIT = 5

// WeeklySummary reports one weekly update run.
type WeeklySummary struct {
	Advisors int
	Targeted int
	Queued   int
	Skipped  int
	Failed   int
}

// RunWeeklyUpdates generates a portfolio update for every client of every
// advisor and queues it for delivery. Clients whose communication
// preference is not email are skipped until other channels exist. One
// failing client never stops the run.
func (r *Runner) RunWeeklyUpdates(ctx context.Context) WeeklySummary {
	slog.Info("[WeeklyUpdates] Starting weekly update run...")
	start := time.Now()

	var summary WeeklySummary

	advisors, err := r.store.ListAdvisors(ctx)
	if err != nil {
		slog.Error("[WeeklyUpdates] Failed to list advisors",
			slog.String("error", err.Error()))
		return summary
	}
	summary.Advisors = len(advisors)

	marketCtx := r.market.GetMarketContext(ctx)

	for _, advisor := range advisors {
		tone := advisor.CommunicationTone
		if tone == "" {
			tone = "professional"
		}

		branding, err := r.store.AdvisorBranding(ctx, advisor.ID)
		if err != nil {
			slog.Warn("[WeeklyUpdates] Failed to load branding",
				slog.Int64("advisor_id", advisor.ID),
				slog.String("error", err.Error()))
		}

		clients, err := r.store.ListClients(ctx, advisor.ID, "")
		if err != nil {
			slog.Error("[WeeklyUpdates] Failed to list clients",
				slog.Int64("advisor_id", advisor.ID),
				slog.String("error", err.Error()))
			continue
		}

		for _, client := range clients {
			summary.Targeted++

			if client.CommunicationPreference != "" && client.CommunicationPreference != "email" {
				summary.Skipped++
				continue
			}

			if r.queueWeeklyUpdate(ctx, client, tone, branding, marketCtx) {
				summary.Queued++
			} else {
				summary.Failed++
			}
		}
	}

	slog.Info("[WeeklyUpdates] Run finished",
		slog.Int("advisors", summary.Advisors),
		slog.Int("targeted", summary.Targeted),
		slog.Int("queued", summary.Queued),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Duration("took", time.Since(start)))
	return summary
}

func (r *Runner) queueWeeklyUpdate(ctx context.Context, client models.Client,
	tone string, branding models.FirmBranding, marketCtx models.MarketContext) bool {

	req := models.ContentRequest{
		ContentType: models.ContentTypePortfolioUpdate,
		Client: models.ClientProfile{
			ClientID:      client.ID,
			Name:          client.Name,
			RiskTolerance: client.RiskTolerance,
			Goals:         client.InvestmentGoals,
		},
		Portfolio: r.snapshot(ctx, client.ID),
		Tone:      tone,
		Branding:  branding,
		Market:    &marketCtx,
	}

	generated := r.content.Generate(ctx, req)
	r.recordGeneration(ctx, client, req, generated)

	commID, err := r.store.InsertCommunication(ctx, models.CommunicationLog{
		ClientID: client.ID,
		CommType: "email",
		Content:  generated.Text,
	})
	if err != nil {
		slog.Error("[WeeklyUpdates] Failed to log communication",
			slog.Int64("client_id", client.ID),
			slog.String("error", err.Error()))
		return false
	}

	if r.publish == nil {
		return true
	}

	request := models.CommunicationRequest{
		CommunicationID: commID,
		ClientID:        client.ID,
		AdvisorID:       client.AdvisorID,
		ToEmail:         client.Email,
		ClientName:      client.Name,
		Content:         generated.Text,
	}
	if err := r.publish(kafka_client.KAFKA_TOPIC_COMMUNICATION_REQUESTS,
		strconv.FormatInt(client.ID, 10), request); err != nil {
		slog.Warn("[WeeklyUpdates] Failed to queue delivery, row stays queued",
			slog.Int64("communication_id", commID),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

func (r *Runner) recordGeneration(ctx context.Context, client models.Client,
	req models.ContentRequest, generated models.GeneratedContent) {

	promptJSON, err := json.Marshal(req)
	if err != nil {
		promptJSON = []byte("{}")
	}
	record := models.AIGenerationRecord{
		AdvisorID:      client.AdvisorID,
		ClientID:       client.ID,
		GenerationType: generated.ContentType,
		Prompt:         string(promptJSON),
		Response:       generated.Text,
		ModelUsed:      generated.Model,
		FallbackUsed:   generated.Fallback,
		DurationMS:     generated.DurationMS,
	}
	if err := r.store.InsertGenerationRecord(ctx, record); err != nil {
		slog.Warn("[WeeklyUpdates] Failed to record generation history",
			slog.Int64("client_id", client.ID),
			slog.String("error", err.Error()))
	}
}

func (r *Runner) snapshot(ctx context.Context, clientID int64) models.PortfolioSnapshot {
	portfolio, err := r.store.GetPortfolioByClient(ctx, clientID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("[WeeklyUpdates] Failed to load portfolio",
				slog.Int64("client_id", clientID),
				slog.String("error", err.Error()))
		}
		return models.PortfolioSnapshot{}
	}

	snapshot := models.PortfolioSnapshot{
		TotalValue:  portfolio.TotalValue,
		Performance: portfolio.PerformanceYTD,
	}

	holdings, err := r.store.ListHoldings(ctx, portfolio.ID)
	if err != nil {
		slog.Warn("[WeeklyUpdates] Failed to load holdings",
			slog.Int64("portfolio_id", portfolio.ID),
			slog.String("error", err.Error()))
		return snapshot
	}
	for i, holding := range holdings {
		if i == TOP_HOLDINGS_LIMIT {
			break
		}
		snapshot.TopHoldings = append(snapshot.TopHoldings, holding.Symbol)
	}
	return snapshot
}
