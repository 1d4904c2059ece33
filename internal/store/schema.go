package store

import (
	"context"
	"fmt"
	"log/slog"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		subscription_tier VARCHAR(50) DEFAULT 'standard',
		custom_branding JSONB DEFAULT '{}',
		created_at TIMESTAMP DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS advisors (
		id SERIAL PRIMARY KEY,
		org_id INTEGER REFERENCES organizations(id),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		communication_tone VARCHAR(20) DEFAULT 'professional',
		created_at TIMESTAMP DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS clients (
		id SERIAL PRIMARY KEY,
		advisor_id INTEGER REFERENCES advisors(id),
		external_id VARCHAR(100),
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(20),
		risk_tolerance VARCHAR(20) DEFAULT 'moderate',
		investment_goals JSONB DEFAULT '[]',
		communication_preference VARCHAR(20) DEFAULT 'email',
		last_contact TIMESTAMP,
		created_at TIMESTAMP DEFAULT NOW(),
		UNIQUE (advisor_id, email)
	)`,

	`CREATE TABLE IF NOT EXISTS portfolios (
		id SERIAL PRIMARY KEY,
		client_id INTEGER UNIQUE REFERENCES clients(id),
		custodian VARCHAR(50),
		account_number VARCHAR(100),
		total_value NUMERIC(15,2) DEFAULT 0,
		cash_balance NUMERIC(15,2) DEFAULT 0,
		invested_amount NUMERIC(15,2) DEFAULT 0,
		unrealized_pnl NUMERIC(15,2) DEFAULT 0,
		realized_pnl NUMERIC(15,2) DEFAULT 0,
		performance_ytd NUMERIC(8,2) DEFAULT 0,
		risk_score NUMERIC(4,1) DEFAULT 5.0,
		last_sync TIMESTAMP,
		created_at TIMESTAMP DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS holdings (
		id SERIAL PRIMARY KEY,
		portfolio_id INTEGER REFERENCES portfolios(id) ON DELETE CASCADE,
		symbol VARCHAR(20) NOT NULL,
		company_name VARCHAR(255),
		quantity NUMERIC(15,4) NOT NULL,
		avg_cost NUMERIC(15,4) DEFAULT 0,
		current_price NUMERIC(15,4) DEFAULT 0,
		market_value NUMERIC(15,2) DEFAULT 0,
		weight NUMERIC(8,2) DEFAULT 0,
		sector VARCHAR(100),
		asset_class VARCHAR(50) DEFAULT 'equity',
		last_updated TIMESTAMP DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS market_data (
		symbol VARCHAR(20) PRIMARY KEY,
		price NUMERIC(15,4) NOT NULL,
		change_percent NUMERIC(8,4) DEFAULT 0,
		volume BIGINT DEFAULT 0,
		updated_at TIMESTAMP DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS feedback (
		id SERIAL PRIMARY KEY,
		client_id INTEGER REFERENCES clients(id),
		content TEXT NOT NULL,
		sentiment_label VARCHAR(20) NOT NULL,
		sentiment_score DOUBLE PRECISION DEFAULT 0,
		confidence DOUBLE PRECISION DEFAULT 0,
		topics JSONB DEFAULT '[]',
		urgency_level INTEGER CHECK (urgency_level >= 1 AND urgency_level <= 5) DEFAULT 3,
		action_items JSONB DEFAULT '[]',
		fallback_used BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS communication_logs (
		id SERIAL PRIMARY KEY,
		client_id INTEGER REFERENCES clients(id),
		comm_type VARCHAR(50) DEFAULT 'email',
		subject VARCHAR(255),
		content TEXT NOT NULL,
		status VARCHAR(20) DEFAULT 'queued',
		sent_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS portfolio_insights (
		id SERIAL PRIMARY KEY,
		portfolio_id INTEGER REFERENCES portfolios(id) ON DELETE CASCADE,
		insight_type VARCHAR(50) NOT NULL,
		content TEXT NOT NULL,
		confidence_score DOUBLE PRECISION DEFAULT 0,
		generated_at TIMESTAMP DEFAULT NOW(),
		expires_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS referral_requests (
		id SERIAL PRIMARY KEY,
		client_id INTEGER REFERENCES clients(id),
		prospect_name VARCHAR(255) NOT NULL,
		prospect_email VARCHAR(255) NOT NULL,
		status VARCHAR(20) DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS ai_generation_history (
		id SERIAL PRIMARY KEY,
		advisor_id INTEGER REFERENCES advisors(id),
		client_id INTEGER REFERENCES clients(id),
		generation_type VARCHAR(50) NOT NULL,
		prompt TEXT,
		response TEXT,
		model_used VARCHAR(50),
		fallback_used BOOLEAN DEFAULT FALSE,
		duration_ms BIGINT DEFAULT 0,
		created_at TIMESTAMP DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_clients_advisor ON clients(advisor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_holdings_portfolio ON holdings(portfolio_id)`,
	`CREATE INDEX IF NOT EXISTS idx_holdings_symbol ON holdings(symbol)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_client ON feedback(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_urgency ON feedback(urgency_level)`,
	`CREATE INDEX IF NOT EXISTS idx_communication_client ON communication_logs(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_insights_portfolio ON portfolio_insights(portfolio_id)`,
	`CREATE INDEX IF NOT EXISTS idx_referrals_client ON referral_requests(client_id)`,
}

// Migrate applies the schema. Every statement is idempotent so this runs
// unconditionally at startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	slog.Info("[Store] Schema up to date")
	return nil
}
