package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Content types the generator knows how to produce.
const (
	ContentTypePortfolioUpdate  = "portfolio_update"
	ContentTypeMarketCommentary = "market_commentary"
	ContentTypeRiskAlert        = "risk_alert"
)

type ClientProfile struct {
	ClientID      int64    `json:"client_id"`
	Name          string   `json:"name"`
	RiskTolerance string   `json:"risk_tolerance"`
	Goals         []string `json:"goals,omitempty"`
}

type PortfolioSnapshot struct {
	TotalValue  decimal.Decimal `json:"total_value"`
	Performance decimal.Decimal `json:"performance"`
	TopHoldings []string        `json:"top_holdings,omitempty"`
}

type ContentRequest struct {
	ContentType string            `json:"content_type"`
	Client      ClientProfile     `json:"client"`
	Portfolio   PortfolioSnapshot `json:"portfolio"`
	Tone        string            `json:"tone"`
	Branding    FirmBranding      `json:"branding"`
	Market      *MarketContext    `json:"market,omitempty"`
}

type GeneratedContent struct {
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
	Model       string `json:"model"`
	Fallback    bool   `json:"fallback"`
	DurationMS  int64  `json:"duration_ms"`
}

type PortfolioInsight struct {
	ID          int64     `json:"id"`
	PortfolioID int64     `json:"portfolio_id"`
	InsightType string    `json:"insight_type"`
	Content     string    `json:"content"`
	Confidence  float64   `json:"confidence_score"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

const (
	InsightTypeRiskAnalysis = "risk_analysis"
	InsightTypePerformance  = "performance_attribution"
	InsightTypeRebalancing  = "rebalancing"
)

type CommunicationLog struct {
	ID        int64      `json:"id"`
	ClientID  int64      `json:"client_id"`
	CommType  string     `json:"comm_type"`
	Subject   string     `json:"subject"`
	Content   string     `json:"content"`
	Status    string     `json:"status"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

const (
	CommStatusQueued = "queued"
	CommStatusSent   = "sent"
	CommStatusFailed = "failed"
)

type ReferralRequest struct {
	ID            int64     `json:"id"`
	ClientID      int64     `json:"client_id"`
	ProspectName  string    `json:"prospect_name"`
	ProspectEmail string    `json:"prospect_email"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// AIGenerationRecord is the audit row written for every model call made
// on behalf of an advisor.
type AIGenerationRecord struct {
	ID             int64     `json:"id"`
	AdvisorID      int64     `json:"advisor_id"`
	ClientID       int64     `json:"client_id,omitempty"`
	GenerationType string    `json:"generation_type"`
	Prompt         string    `json:"prompt"`
	Response       string    `json:"response"`
	ModelUsed      string    `json:"model_used"`
	FallbackUsed   bool      `json:"fallback_used"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
