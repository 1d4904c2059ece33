package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paul-reitz/relate.io/internal/clients/kafka_client"
	"github.com/paul-reitz/relate.io/internal/models"
	"github.com/paul-reitz/relate.io/internal/utils"
)

// TOP_HOLDINGS_LIMIT caps how many holdings a content prompt mentions.
const TOP_HOLDINGS_LIMIT = 5

const DEFAULT_TREND_WINDOW_DAYS = 30

func (h *APIHandler) GenerateInsightsHandler(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := int64Param(r, "portfolioID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid portfolio id")
		return
	}

	portfolio, err := h.store.GetPortfolio(r.Context(), portfolioID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	if err != nil {
		slog.Error("[API] Failed to load portfolio for insights",
			slog.Int64("portfolio_id", portfolioID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate insights")
		return
	}

	client, err := h.store.GetClient(r.Context(), portfolio.ClientID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	if err != nil {
		slog.Error("[API] Failed to load client for insights",
			slog.Int64("client_id", portfolio.ClientID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate insights")
		return
	}

	holdings, err := h.store.ListHoldings(r.Context(), portfolioID)
	if err != nil {
		slog.Error("[API] Failed to load holdings for insights",
			slog.Int64("portfolio_id", portfolioID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate insights")
		return
	}

	marketCtx := h.market.GetMarketContext(r.Context())
	insights := h.insights.GeneratePortfolioInsights(r.Context(), portfolio, holdings, client, &marketCtx)

	for i := range insights {
		id, err := h.store.InsertInsight(r.Context(), insights[i])
		if err != nil {
			slog.Error("[API] Failed to store insight",
				slog.Int64("portfolio_id", portfolioID),
				slog.String("insight_type", insights[i].InsightType),
				slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Failed to store insights")
			return
		}
		insights[i].ID = id
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"insights": insights,
	})
}

type PersonalizedContentRequest struct {
	ClientID    int64  `json:"client_id"`
	ContentType string `json:"content_type"`
	Send        bool   `json:"send"`
}

func (h *APIHandler) PersonalizedContentHandler(w http.ResponseWriter, r *http.Request) {
	var req PersonalizedContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ClientID <= 0 {
		respondError(w, http.StatusBadRequest, "Missing client_id")
		return
	}

	client, err := h.store.GetClient(r.Context(), req.ClientID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Client not found")
		return
	}
	if err != nil {
		slog.Error("[API] Failed to load client for content",
			slog.Int64("client_id", req.ClientID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate content")
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = models.ContentTypePortfolioUpdate
	}

	cc := h.loadContentContext(r.Context(), client.AdvisorID)
	generated := h.generateForClient(r.Context(), client, contentType, cc)

	payload := map[string]interface{}{
		"content":       generated.Text,
		"client_name":   client.Name,
		"content_type":  generated.ContentType,
		"model":         generated.Model,
		"fallback_used": generated.Fallback,
	}

	if req.Send {
		commID, err := h.queueCommunication(r.Context(), client, "", generated.Text)
		if err != nil {
			slog.Error("[API] Failed to queue communication",
				slog.Int64("client_id", client.ID),
				slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Failed to queue communication")
			return
		}
		payload["communication_id"] = commID
		payload["delivery_status"] = models.CommStatusQueued
	}

	respondJSON(w, http.StatusOK, payload)
}

type AdvancedFeedbackRequest struct {
	ClientID int64  `json:"client_id"`
	Text     string `json:"text"`
}

func (h *APIHandler) AdvancedFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var req AdvancedFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ClientID <= 0 || strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "Missing client_id or text")
		return
	}

	client, err := h.store.GetClient(r.Context(), req.ClientID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Client not found")
		return
	}
	if err != nil {
		slog.Error("[API] Failed to load client for feedback",
			slog.Int64("client_id", req.ClientID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to submit feedback")
		return
	}

	fingerprint := utils.FeedbackFingerprint(req.ClientID, req.Text)
	if h.dedupe != nil && h.dedupe.IsFeedbackProcessed(r.Context(), fingerprint) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"duplicate": true,
			"message":   "Feedback already processed",
		})
		return
	}

	analysis := h.analyzer.AnalyzeFeedback(r.Context(), models.FeedbackItem{
		ClientID:    req.ClientID,
		Text:        req.Text,
		SubmittedAt: time.Now().UTC(),
	})

	feedbackID, err := h.store.InsertFeedback(r.Context(), req.ClientID, req.Text, analysis)
	if err != nil {
		slog.Error("[API] Failed to store feedback",
			slog.Int64("client_id", req.ClientID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to submit feedback")
		return
	}

	if h.dedupe != nil {
		if err := h.dedupe.MarkFeedbackProcessed(r.Context(), fingerprint); err != nil {
			slog.Warn("[API] Failed to record feedback fingerprint",
				slog.Int64("client_id", req.ClientID),
				slog.String("error", err.Error()))
		}
	}

	h.publishAdvisorEvent(models.AdvisorEvent{
		Type:      models.EventNewFeedback,
		AdvisorID: client.AdvisorID,
		Data: map[string]any{
			"feedback_id": feedbackID,
			"client_id":   req.ClientID,
			"sentiment":   analysis.Sentiment.Label,
			"urgency":     analysis.UrgencyLevel,
			"topics":      analysis.Topics,
		},
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"feedback_id": feedbackID,
		"analysis":    analysis,
	})
}

func (h *APIHandler) SentimentTrendsHandler(w http.ResponseWriter, r *http.Request) {
	advisorID := advisorIDFromQuery(r)

	days := DEFAULT_TREND_WINDOW_DAYS
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 365 {
			days = parsed
		}
	}

	analytics, err := h.store.SentimentTrends(r.Context(), advisorID, days)
	if err != nil {
		slog.Error("[API] Failed to aggregate sentiment trends",
			slog.Int64("advisor_id", advisorID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to fetch sentiment trends")
		return
	}

	respondJSON(w, http.StatusOK, analytics)
}

type BulkUpdateRequest struct {
	AdvisorID   int64   `json:"advisor_id"`
	ClientIDs   []int64 `json:"client_ids"`
	ContentType string  `json:"content_type"`
	Send        bool    `json:"send"`
}

type BulkUpdateResult struct {
	ClientID        int64  `json:"client_id"`
	Success         bool   `json:"success"`
	Content         string `json:"content,omitempty"`
	FallbackUsed    bool   `json:"fallback_used,omitempty"`
	CommunicationID int64  `json:"communication_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

// BulkUpdatesHandler generates an update for every targeted client. One
// client failing never aborts the rest; failures come back per client.
func (h *APIHandler) BulkUpdatesHandler(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	advisorID := req.AdvisorID
	if advisorID <= 0 {
		advisorID = DEFAULT_ADVISOR_ID
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = models.ContentTypePortfolioUpdate
	}

	results := []BulkUpdateResult{}

	var targets []models.Client
	if len(req.ClientIDs) > 0 {
		for _, clientID := range req.ClientIDs {
			client, err := h.store.GetClient(r.Context(), clientID)
			if errors.Is(err, sql.ErrNoRows) {
				results = append(results, BulkUpdateResult{ClientID: clientID, Error: "client not found"})
				continue
			}
			if err != nil {
				results = append(results, BulkUpdateResult{ClientID: clientID, Error: "failed to load client"})
				continue
			}
			targets = append(targets, client)
		}
	} else {
		var err error
		targets, err = h.store.ListClients(r.Context(), advisorID, "")
		if err != nil {
			slog.Error("[API] Failed to list clients for bulk update",
				slog.Int64("advisor_id", advisorID),
				slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Failed to fetch clients")
			return
		}
	}

	cc := h.loadContentContext(r.Context(), advisorID)
	for _, client := range targets {
		generated := h.generateForClient(r.Context(), client, contentType, cc)
		result := BulkUpdateResult{
			ClientID:     client.ID,
			Success:      true,
			Content:      generated.Text,
			FallbackUsed: generated.Fallback,
		}

		if req.Send {
			commID, err := h.queueCommunication(r.Context(), client, "", generated.Text)
			if err != nil {
				slog.Warn("[API] Failed to queue bulk communication",
					slog.Int64("client_id", client.ID),
					slog.String("error", err.Error()))
				result.Success = false
				result.Error = "failed to queue communication"
			} else {
				result.CommunicationID = commID
			}
		}
		results = append(results, result)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results":   results,
		"processed": len(results),
	})
}

// contentContext is the advisor-level state shared by every generation in
// one request: tone, branding and the market snapshot.
type contentContext struct {
	tone      string
	branding  models.FirmBranding
	marketCtx models.MarketContext
}

func (h *APIHandler) loadContentContext(ctx context.Context, advisorID int64) contentContext {
	cc := contentContext{tone: "professional"}

	if advisor, err := h.store.GetAdvisor(ctx, advisorID); err == nil && advisor.CommunicationTone != "" {
		cc.tone = advisor.CommunicationTone
	}

	branding, err := h.store.AdvisorBranding(ctx, advisorID)
	if err != nil {
		slog.Warn("[API] Failed to load advisor branding",
			slog.Int64("advisor_id", advisorID),
			slog.String("error", err.Error()))
	}
	cc.branding = branding

	cc.marketCtx = h.market.GetMarketContext(ctx)
	return cc
}

// generateForClient builds the content request for one client, runs the
// generator, and appends the audit row. The audit prompt stores the request
// payload; prompt assembly itself lives in the content package.
func (h *APIHandler) generateForClient(ctx context.Context, client models.Client,
	contentType string, cc contentContext) models.GeneratedContent {

	req := models.ContentRequest{
		ContentType: contentType,
		Client: models.ClientProfile{
			ClientID:      client.ID,
			Name:          client.Name,
			RiskTolerance: client.RiskTolerance,
			Goals:         client.InvestmentGoals,
		},
		Portfolio: h.portfolioSnapshot(ctx, client.ID),
		Tone:      cc.tone,
		Branding:  cc.branding,
		Market:    &cc.marketCtx,
	}

	generated := h.generator.Generate(ctx, req)

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
	if err := h.store.InsertGenerationRecord(ctx, record); err != nil {
		slog.Warn("[API] Failed to record generation history",
			slog.Int64("client_id", client.ID),
			slog.String("error", err.Error()))
	}

	return generated
}

func (h *APIHandler) portfolioSnapshot(ctx context.Context, clientID int64) models.PortfolioSnapshot {
	portfolio, err := h.store.GetPortfolioByClient(ctx, clientID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("[API] Failed to load portfolio for content",
				slog.Int64("client_id", clientID),
				slog.String("error", err.Error()))
		}
		return models.PortfolioSnapshot{}
	}

	snapshot := models.PortfolioSnapshot{
		TotalValue:  portfolio.TotalValue,
		Performance: portfolio.PerformanceYTD,
	}

	holdings, err := h.store.ListHoldings(ctx, portfolio.ID)
	if err != nil {
		slog.Warn("[API] Failed to load holdings for content",
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

// queueCommunication writes a queued communication_logs row and hands the
// delivery request to the notifier via Kafka. Without a publisher the row
// stays queued until a later delivery run picks it up.
func (h *APIHandler) queueCommunication(ctx context.Context, client models.Client,
	subject, content string) (int64, error) {

	commID, err := h.store.InsertCommunication(ctx, models.CommunicationLog{
		ClientID: client.ID,
		CommType: "email",
		Subject:  subject,
		Content:  content,
	})
	if err != nil {
		return 0, err
	}

	if h.publish == nil {
		return commID, nil
	}

	request := models.CommunicationRequest{
		CommunicationID: commID,
		ClientID:        client.ID,
		AdvisorID:       client.AdvisorID,
		ToEmail:         client.Email,
		ClientName:      client.Name,
		Subject:         subject,
		Content:         content,
	}
	if err := h.publish(kafka_client.KAFKA_TOPIC_COMMUNICATION_REQUESTS,
		strconv.FormatInt(client.ID, 10), request); err != nil {
		return commID, fmt.Errorf("failed to queue delivery for communication %d: %w", commID, err)
	}
	return commID, nil
}
