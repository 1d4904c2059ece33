package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paul-reitz/relate.io/internal/clients/kafka_client"
	"github.com/paul-reitz/relate.io/internal/custodian"
	"github.com/paul-reitz/relate.io/internal/ingestion"
	"github.com/paul-reitz/relate.io/internal/market"
	"github.com/paul-reitz/relate.io/internal/models"
	"github.com/paul-reitz/relate.io/internal/monitoring"
	"github.com/paul-reitz/relate.io/internal/store"
)

// DEFAULT_ADVISOR_ID stands in for an authenticated advisor identity until
// real auth lands. Requests may override it with an advisor_id query
// parameter or body field.
const DEFAULT_ADVISOR_ID = 1

type feedbackAnalyzer interface {
	AnalyzeFeedback(ctx context.Context, item models.FeedbackItem) models.FeedbackAnalysis
}

type contentGenerator interface {
	Generate(ctx context.Context, req models.ContentRequest) models.GeneratedContent
}

type insightGenerator interface {
	GeneratePortfolioInsights(ctx context.Context, portfolio models.Portfolio, holdings []models.Holding,
		client models.Client, marketCtx *models.MarketContext) []models.PortfolioInsight
}

type marketService interface {
	GetMarketContext(ctx context.Context) models.MarketContext
	UpdateMarketData(ctx context.Context, symbols []string) (market.UpdateSummary, error)
}

type custodianSyncer interface {
	Sync(ctx context.Context, custodianName string, advisorID int64) (models.SyncResult, error)
}

type rosterImporter interface {
	ImportCSV(ctx context.Context, advisorID int64, r io.Reader) (ingestion.ImportResult, error)
}

type connectionHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, advisorID int64) error
}

type integrationRegistry interface {
	Status() map[string]custodian.IntegrationStatus
}

type healthMonitor interface {
	Snapshot() monitoring.Status
}

type feedbackDeduper interface {
	IsFeedbackProcessed(ctx context.Context, fingerprint string) bool
	MarkFeedbackProcessed(ctx context.Context, fingerprint string) error
}

type eventPublisher func(topic string, key string, payload interface{}) error

// Dependencies carries everything the handlers reach for. Hub, Dedupe and
// Publish may be nil; the corresponding features then degrade quietly.
type Dependencies struct {
	Store     *store.Store
	Analyzer  feedbackAnalyzer
	Generator contentGenerator
	Insights  insightGenerator
	Market    marketService
	Syncer    custodianSyncer
	Importer  rosterImporter
	Hub       connectionHub
	Registry  integrationRegistry
	Health    healthMonitor
	Dedupe    feedbackDeduper
	Publish   eventPublisher
}

type APIHandler struct {
	store     *store.Store
	analyzer  feedbackAnalyzer
	generator contentGenerator
	insights  insightGenerator
	market    marketService
	syncer    custodianSyncer
	importer  rosterImporter
	hub       connectionHub
	registry  integrationRegistry
	health    healthMonitor
	dedupe    feedbackDeduper
	publish   eventPublisher
}

func NewAPIHandler(deps Dependencies) *APIHandler {
	return &APIHandler{
		store:     deps.Store,
		analyzer:  deps.Analyzer,
		generator: deps.Generator,
		insights:  deps.Insights,
		market:    deps.Market,
		syncer:    deps.Syncer,
		importer:  deps.Importer,
		hub:       deps.Hub,
		registry:  deps.Registry,
		health:    deps.Health,
		dedupe:    deps.Dedupe,
		publish:   deps.Publish,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("[API] Failed to encode response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func int64Param(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func advisorIDFromQuery(r *http.Request) int64 {
	raw := r.URL.Query().Get("advisor_id")
	if raw == "" {
		return DEFAULT_ADVISOR_ID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return DEFAULT_ADVISOR_ID
	}
	return id
}

// publishAdvisorEvent sends an event to the advisor-events topic, where the
// websocket fan-out consumer picks it up. Publish failures never fail the
// request that produced the event.
func (h *APIHandler) publishAdvisorEvent(event models.AdvisorEvent) {
	if h.publish == nil {
		return
	}
	key := strconv.FormatInt(event.AdvisorID, 10)
	if err := h.publish(kafka_client.KAFKA_TOPIC_ADVISOR_EVENTS, key, event); err != nil {
		slog.Warn("[API] Failed to publish advisor event",
			slog.String("type", event.Type),
			slog.Int64("advisor_id", event.AdvisorID),
			slog.String("error", err.Error()))
	}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Warn("[API] Health check could not reach Postgres",
			slog.String("error", err.Error()))
		payload["status"] = "unhealthy"
		payload["database"] = "error"
	}
	if h.health != nil {
		payload["backends"] = h.health.Snapshot()
	}
	respondJSON(w, http.StatusOK, payload)
}

type CreateOrganizationRequest struct {
	Name             string              `json:"name"`
	SubscriptionTier string              `json:"subscription_tier"`
	Branding         models.FirmBranding `json:"custom_branding"`
}

func (h *APIHandler) CreateOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Missing organization name")
		return
	}

	id, err := h.store.CreateOrganization(r.Context(), models.Organization{
		Name:             strings.TrimSpace(req.Name),
		SubscriptionTier: req.SubscriptionTier,
		Branding:         req.Branding,
	})
	if err != nil {
		slog.Error("[API] Failed to create organization",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to create organization")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      id,
		"message": "Organization created successfully",
	})
}

type CreateAdvisorRequest struct {
	OrgID             int64  `json:"org_id"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	CommunicationTone string `json:"communication_tone"`
}

func (h *APIHandler) CreateAdvisorHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateAdvisorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OrgID <= 0 || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Missing org_id, email, or name")
		return
	}

	id, err := h.store.CreateAdvisor(r.Context(), models.Advisor{
		OrgID:             req.OrgID,
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		Name:              strings.TrimSpace(req.Name),
		CommunicationTone: req.CommunicationTone,
	})
	if err != nil {
		slog.Error("[API] Failed to create advisor",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to create advisor")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      id,
		"message": "Advisor created successfully",
	})
}

func (h *APIHandler) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	advisorID := advisorIDFromQuery(r)
	search := r.URL.Query().Get("search")

	clientList, err := h.store.ListClients(r.Context(), advisorID, search)
	if err != nil {
		slog.Error("[API] Failed to list clients",
			slog.Int64("advisor_id", advisorID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to fetch clients")
		return
	}
	if clientList == nil {
		clientList = []models.Client{}
	}
	respondJSON(w, http.StatusOK, clientList)
}

type CreateClientRequest struct {
	AdvisorID               int64    `json:"advisor_id"`
	Name                    string   `json:"name"`
	Email                   string   `json:"email"`
	Phone                   string   `json:"phone"`
	RiskTolerance           string   `json:"risk_tolerance"`
	InvestmentGoals         []string `json:"investment_goals"`
	CommunicationPreference string   `json:"communication_preference"`
}

func (h *APIHandler) CreateClientHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		respondError(w, http.StatusBadRequest, "Missing name or email")
		return
	}

	advisorID := req.AdvisorID
	if advisorID <= 0 {
		advisorID = DEFAULT_ADVISOR_ID
	}

	client := models.Client{
		AdvisorID:               advisorID,
		Name:                    strings.TrimSpace(req.Name),
		Email:                   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:                   req.Phone,
		RiskTolerance:           req.RiskTolerance,
		InvestmentGoals:         req.InvestmentGoals,
		CommunicationPreference: req.CommunicationPreference,
	}

	id, created, err := h.store.UpsertClient(r.Context(), client)
	if err != nil {
		slog.Error("[API] Failed to create client",
			slog.Int64("advisor_id", advisorID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to create client")
		return
	}

	status := http.StatusCreated
	message := "Client created successfully"
	if created {
		h.publishAdvisorEvent(models.AdvisorEvent{
			Type:      models.EventClientCreated,
			AdvisorID: advisorID,
			Data: map[string]any{
				"client_id": id,
				"name":      client.Name,
			},
		})
	} else {
		status = http.StatusOK
		message = "Client updated successfully"
	}

	respondJSON(w, status, map[string]interface{}{
		"id":      id,
		"message": message,
	})
}

func (h *APIHandler) ImportClientsHandler(w http.ResponseWriter, r *http.Request) {
	advisorID := advisorIDFromQuery(r)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing CSV file upload")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		respondError(w, http.StatusBadRequest, "Only CSV files are supported")
		return
	}

	result, err := h.importer.ImportCSV(r.Context(), advisorID, file)
	if err != nil {
		if errors.Is(err, ingestion.ErrInvalidCSV) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("[API] Client import failed",
			slog.Int64("advisor_id", advisorID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to import clients")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *APIHandler) GetPortfolioHandler(w http.ResponseWriter, r *http.Request) {
	clientID, err := int64Param(r, "clientID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client id")
		return
	}

	portfolio, err := h.store.GetPortfolioByClient(r.Context(), clientID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	if err != nil {
		slog.Error("[API] Failed to fetch portfolio",
			slog.Int64("client_id", clientID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to fetch portfolio")
		return
	}

	holdings, err := h.store.ListHoldings(r.Context(), portfolio.ID)
	if err != nil {
		slog.Error("[API] Failed to fetch holdings",
			slog.Int64("portfolio_id", portfolio.ID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to fetch portfolio")
		return
	}

	insights, err := h.store.LatestInsightsByPortfolio(r.Context(), portfolio.ID)
	if err != nil {
		slog.Error("[API] Failed to fetch insights",
			slog.Int64("portfolio_id", portfolio.ID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to fetch portfolio")
		return
	}

	if holdings == nil {
		holdings = []models.Holding{}
	}
	if insights == nil {
		insights = []models.PortfolioInsight{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio": portfolio,
		"holdings":  holdings,
		"insights":  insights,
	})
}

func (h *APIHandler) SyncPortfolioHandler(w http.ResponseWriter, r *http.Request) {
	clientID, err := int64Param(r, "clientID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client id")
		return
	}

	client, err := h.store.GetClient(r.Context(), clientID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Client not found")
		return
	}
	if err != nil {
		slog.Error("[API] Failed to load client for sync",
			slog.Int64("client_id", clientID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to sync portfolio")
		return
	}

	// Re-sync through whichever custodian holds the portfolio today;
	// clients without one start on the momentum feed.
	custodianName := custodian.CustodianMomentum
	if portfolio, err := h.store.GetPortfolioByClient(r.Context(), clientID); err == nil && portfolio.Custodian != "" {
		custodianName = portfolio.Custodian
	}

	result, err := h.syncer.Sync(r.Context(), custodianName, client.AdvisorID)
	if err != nil {
		slog.Error("[API] Portfolio sync failed",
			slog.Int64("client_id", clientID),
			slog.String("custodian", custodianName),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to sync portfolio")
		return
	}

	h.publishAdvisorEvent(models.AdvisorEvent{
		Type:      models.EventPortfolioSynced,
		AdvisorID: client.AdvisorID,
		Data: map[string]any{
			"client_id": clientID,
			"custodian": result.Custodian,
		},
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Portfolio synced successfully",
		"result":  result,
	})
}

type CreateReferralRequest struct {
	ClientID      int64  `json:"client_id"`
	ProspectName  string `json:"prospect_name"`
	ProspectEmail string `json:"prospect_email"`
}

func (h *APIHandler) CreateReferralHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ClientID <= 0 || strings.TrimSpace(req.ProspectName) == "" ||
		strings.TrimSpace(req.ProspectEmail) == "" {
		respondError(w, http.StatusBadRequest, "Missing client_id, prospect_name, or prospect_email")
		return
	}

	if _, err := h.store.GetClient(r.Context(), req.ClientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Client not found")
			return
		}
		slog.Error("[API] Failed to load client for referral",
			slog.Int64("client_id", req.ClientID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to create referral")
		return
	}

	id, err := h.store.InsertReferral(r.Context(), models.ReferralRequest{
		ClientID:      req.ClientID,
		ProspectName:  strings.TrimSpace(req.ProspectName),
		ProspectEmail: strings.ToLower(strings.TrimSpace(req.ProspectEmail)),
	})
	if err != nil {
		slog.Error("[API] Failed to create referral",
			slog.Int64("client_id", req.ClientID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to create referral")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      id,
		"message": "Referral created successfully",
	})
}

func (h *APIHandler) ListReferralsHandler(w http.ResponseWriter, r *http.Request) {
	advisorID := advisorIDFromQuery(r)

	referrals, err := h.store.ListReferralsByAdvisor(r.Context(), advisorID)
	if err != nil {
		slog.Error("[API] Failed to list referrals",
			slog.Int64("advisor_id", advisorID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to fetch referrals")
		return
	}
	if referrals == nil {
		referrals = []models.ReferralRequest{}
	}
	respondJSON(w, http.StatusOK, referrals)
}

func (h *APIHandler) ListCommunicationsHandler(w http.ResponseWriter, r *http.Request) {
	clientID, err := int64Param(r, "clientID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	logs, err := h.store.ListCommunicationsByClient(r.Context(), clientID, limit)
	if err != nil {
		slog.Error("[API] Failed to list communications",
			slog.Int64("client_id", clientID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to fetch communications")
		return
	}
	if logs == nil {
		logs = []models.CommunicationLog{}
	}
	respondJSON(w, http.StatusOK, logs)
}

func (h *APIHandler) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	advisorID, err := int64Param(r, "advisorID")
	if err != nil || advisorID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid advisor id")
		return
	}
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "WebSocket hub unavailable")
		return
	}
	// The upgrader has already written an error response when this fails.
	if err := h.hub.ServeWS(w, r, advisorID); err != nil {
		slog.Warn("[API] WebSocket upgrade failed",
			slog.Int64("advisor_id", advisorID),
			slog.String("error", err.Error()))
	}
}
