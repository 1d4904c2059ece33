package models

// CommunicationRequest is the payload published to the outbound
// communication topic and consumed by the notifier.
type CommunicationRequest struct {
	CommunicationID int64  `json:"communication_id"`
	ClientID        int64  `json:"client_id"`
	AdvisorID       int64  `json:"advisor_id"`
	ToEmail         string `json:"to_email"`
	ClientName      string `json:"client_name"`
	Subject         string `json:"subject"`
	Content         string `json:"content"`
}

// AdvisorEvent is fanned out to an advisor's websocket connections.
// Data keys depend on Type.
type AdvisorEvent struct {
	Type      string         `json:"type"`
	AdvisorID int64          `json:"advisor_id"`
	Data      map[string]any `json:"data,omitempty"`
}

const (
	EventNewFeedback       = "new_feedback"
	EventClientCreated     = "client_created"
	EventPortfolioSynced   = "portfolio_synced"
	EventCommunicationSent = "communication_sent"
)
