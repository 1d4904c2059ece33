package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paul-reitz/relate.io/internal/models"
)

// InsertFeedback persists an analyzed feedback item. Topics and action
// items are stored as JSONB arrays.
func (s *Store) InsertFeedback(ctx context.Context, clientID int64, text string, analysis models.FeedbackAnalysis) (int64, error) {
	topics := analysis.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal topics: %w", err)
	}

	items := analysis.ActionItems
	if items == nil {
		items = []string{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal action items: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
        INSERT INTO feedback (client_id, content, sentiment_label, sentiment_score,
                              confidence, topics, urgency_level, action_items, fallback_used)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id`,
		clientID, text, analysis.Sentiment.Label, analysis.Sentiment.Score,
		analysis.Sentiment.Confidence, topicsJSON, analysis.UrgencyLevel,
		itemsJSON, analysis.FallbackUsed).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert feedback: %w", err)
	}
	return id, nil
}

func (s *Store) ListFeedbackByClient(ctx context.Context, clientID int64, limit int) ([]models.Feedback, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, client_id, content, sentiment_label, sentiment_score, confidence,
               topics, urgency_level, action_items, fallback_used, created_at
        FROM feedback
        WHERE client_id = $1
        ORDER BY created_at DESC
        LIMIT $2`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var feedback []models.Feedback
	for rows.Next() {
		var f models.Feedback
		var topicsJSON, itemsJSON []byte
		if err := rows.Scan(&f.ID, &f.ClientID, &f.Content, &f.SentimentLabel,
			&f.SentimentScore, &f.Confidence, &topicsJSON, &f.UrgencyLevel,
			&itemsJSON, &f.FallbackUsed, &f.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(topicsJSON, &f.Topics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal topics: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &f.ActionItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal action items: %w", err)
		}
		feedback = append(feedback, f)
	}
	return feedback, rows.Err()
}

// SentimentTrends aggregates an advisor's feedback over the trailing
// window: one point per day plus the ten most mentioned topics.
func (s *Store) SentimentTrends(ctx context.Context, advisorID int64, days int) (models.SentimentAnalytics, error) {
	if days <= 0 {
		days = 30
	}
	analytics := models.SentimentAnalytics{
		Trend:      []models.SentimentTrendPoint{},
		TopTopics:  []models.TopicFrequency{},
		WindowDays: days,
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT date_trunc('day', f.created_at) AS day,
               AVG(f.sentiment_score) AS avg_score,
               COUNT(*) FILTER (WHERE f.sentiment_label = 'positive') AS positive_count,
               COUNT(*) FILTER (WHERE f.sentiment_label = 'negative') AS negative_count,
               COUNT(*) FILTER (WHERE f.sentiment_label = 'neutral') AS neutral_count,
               AVG(f.urgency_level) AS avg_urgency
        FROM feedback f
        JOIN clients c ON f.client_id = c.id
        WHERE c.advisor_id = $1
          AND f.created_at >= NOW() - make_interval(days => $2)
        GROUP BY day
        ORDER BY day`, advisorID, days)
	if err != nil {
		return analytics, fmt.Errorf("failed to query sentiment trend: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.SentimentTrendPoint
		if err := rows.Scan(&p.Day, &p.AvgScore, &p.PositiveCount,
			&p.NegativeCount, &p.NeutralCount, &p.AvgUrgency); err != nil {
			return analytics, err
		}
		analytics.Trend = append(analytics.Trend, p)
	}
	if err := rows.Err(); err != nil {
		return analytics, err
	}

	topicRows, err := s.db.QueryContext(ctx, `
        SELECT topic, COUNT(*) AS mentions
        FROM feedback f
        JOIN clients c ON f.client_id = c.id
        CROSS JOIN LATERAL jsonb_array_elements_text(f.topics) AS topic
        WHERE c.advisor_id = $1
          AND f.created_at >= NOW() - make_interval(days => $2)
        GROUP BY topic
        ORDER BY mentions DESC, topic
        LIMIT 10`, advisorID, days)
	if err != nil {
		return analytics, fmt.Errorf("failed to query topic frequencies: %w", err)
	}
	defer topicRows.Close()

	for topicRows.Next() {
		var t models.TopicFrequency
		if err := topicRows.Scan(&t.Topic, &t.Count); err != nil {
			return analytics, err
		}
		analytics.TopTopics = append(analytics.TopTopics, t)
	}
	return analytics, topicRows.Err()
}
