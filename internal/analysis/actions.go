package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const actionItemsSystemPrompt = `You are an assistant for financial advisors. Given a piece of client feedback and its sentiment, produce concrete follow-up steps the advisor should take. Respond with a JSON array of 2 to 4 short action item strings and nothing else.`

// CompletionFunc produces a completion for a system/user prompt pair.
// The analysis engine is wired with one so tests can substitute a fake.
type CompletionFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

var actionItemsSchema = map[string]any{
	"type":     "array",
	"minItems": 2,
	"maxItems": 4,
	"items": map[string]any{
		"type":      "string",
		"minLength": 1,
	},
}

// GenerateActionItems asks the completion backend for follow-up steps and
// validates the response shape. Any failure along the way degrades to the
// canonical fallback item; the returned bool reports whether that happened.
func GenerateActionItems(ctx context.Context, complete CompletionFunc, text, sentimentLabel string) ([]string, bool) {
	if strings.TrimSpace(text) == "" {
		return fallbackActionItems(), false
	}
	if complete == nil {
		return fallbackActionItems(), true
	}

	userPrompt := fmt.Sprintf("Client feedback (sentiment: %s):\n\n%s", sentimentLabel, text)
	raw, err := complete(ctx, actionItemsSystemPrompt, userPrompt)
	if err != nil {
		slog.Warn("[ActionItems] Completion failed, using fallback",
			slog.Any("error", err))
		return fallbackActionItems(), true
	}

	items, err := parseActionItems(raw)
	if err != nil {
		slog.Warn("[ActionItems] Response rejected, using fallback",
			slog.Any("error", err),
			slog.String("preview", getPreviewString(raw)))
		return fallbackActionItems(), true
	}
	return items, false
}

func parseActionItems(raw string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("response is not a JSON string array: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(actionItemsSchema),
		gojsonschema.NewGoLoader(items),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("response violates action item schema: %s", strings.Join(details, "; "))
	}
	return items, nil
}

func fallbackActionItems() []string {
	return []string{"Review client feedback and schedule follow-up call"}
}

func getPreviewString(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
