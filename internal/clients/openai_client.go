package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	OPENAI_REQUEST_TIMEOUT = 60 * time.Second
	OPENAI_MODEL           = openai.ChatModelGPT4o
	OPENAI_TEMPERATURE     = 0.7
)

var (
	openAIClientInstance *OpenAIClient
	openAIOnce           sync.Once
)

type OpenAIClient struct {
	Client *openai.Client
}

func GetOpenAIClient() *OpenAIClient {
	openAIOnce.Do(func() {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			slog.Error("[OpenAIClient] Missing OPENAI_API_KEY in environment variables")
			panic("[OpenAIClient] Missing OPENAI_API_KEY in environment variables")
		}

		httpClient := &http.Client{
			Timeout: OPENAI_REQUEST_TIMEOUT,
		}

		openAIClientInstance = &OpenAIClient{
			Client: openai.NewClient(
				option.WithAPIKey(apiKey),
				option.WithHTTPClient(httpClient),
			),
		}
		slog.Info("[OpenAIClient] OpenAI client initialized",
			slog.Duration("timeout", OPENAI_REQUEST_TIMEOUT))
	})
	return openAIClientInstance
}

// Complete sends one system+user exchange and returns the cleaned
// completion text.
func (o *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		}),
		Model:       openai.F(OPENAI_MODEL),
		Temperature: openai.Float(OPENAI_TEMPERATURE),
	}

	resp, err := o.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return CleanModelResponse(resp.Choices[0].Message.Content), nil
}

// HealthCheck makes the cheapest possible authenticated API call.
func (o *OpenAIClient) HealthCheck(ctx context.Context) error {
	_, err := o.Client.Models.List(ctx)
	return err
}

// CleanModelResponse strips markdown code fences and normalizes curly
// quotes so model output can be parsed as JSON.
func CleanModelResponse(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")

	response = strings.ReplaceAll(response, "“", `"`)
	response = strings.ReplaceAll(response, "”", `"`)
	response = strings.ReplaceAll(response, "‘", `'`)
	response = strings.ReplaceAll(response, "’", `'`)

	return strings.TrimSpace(response)
}
