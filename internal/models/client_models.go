package models

import "time"

// FirmBranding is the JSONB branding blob stored on an organization and
// injected into generated content prompts.
type FirmBranding struct {
	CompanyName     string `json:"company_name,omitempty"`
	BrandVoice      string `json:"brand_voice,omitempty"`
	ComplianceNotes string `json:"compliance_notes,omitempty"`
}

type Organization struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	SubscriptionTier string       `json:"subscription_tier"`
	Branding         FirmBranding `json:"custom_branding"`
	CreatedAt        time.Time    `json:"created_at"`
}

type Advisor struct {
	ID                int64     `json:"id"`
	OrgID             int64     `json:"org_id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	CommunicationTone string    `json:"communication_tone"`
	CreatedAt         time.Time `json:"created_at"`
}

type Client struct {
	ID                      int64      `json:"id"`
	AdvisorID               int64      `json:"advisor_id"`
	ExternalID              string     `json:"external_id,omitempty"`
	Name                    string     `json:"name"`
	Email                   string     `json:"email"`
	Phone                   string     `json:"phone,omitempty"`
	RiskTolerance           string     `json:"risk_tolerance"`
	InvestmentGoals         []string   `json:"investment_goals,omitempty"`
	CommunicationPreference string     `json:"communication_preference"`
	LastContact             *time.Time `json:"last_contact,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
}

// Risk tolerance values accepted on client records.
const (
	RiskConservative = "conservative"
	RiskModerate     = "moderate"
	RiskAggressive   = "aggressive"
)
