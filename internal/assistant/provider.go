// internal/assistant/provider.go
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	custom_errors "omnilertlab-service/internal/errors"
	"omnilertlab-service/internal/model"
)

// Provider is one upstream chat-completion service in the fallback chain.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []model.ChatMessage) (string, error)
}

// completionRequest is the OpenAI-compatible chat-completion body both Groq
// and Perplexity accept.
type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []model.ChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature *float64            `json:"temperature,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenAIProvider calls any chat-completion endpoint that speaks the
// OpenAI-compatible request/response shape.
type OpenAIProvider struct {
	name        string
	client      *resty.Client
	model       string
	maxTokens   int
	temperature *float64
	logger      *slog.Logger
}

// NewOpenAIProvider creates a provider for the given endpoint. temperature
// may be nil to use the upstream default.
func NewOpenAIProvider(name, baseURL, apiKey, modelID string, maxTokens int, temperature *float64, logger *slog.Logger) *OpenAIProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &OpenAIProvider{
		name:        name,
		client:      client,
		model:       modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

// Complete sends the conversation and extracts the first choice's text. An
// empty completion is an error so the gateway can advance the chain.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []model.ChatMessage) (string, error) {
	var result completionResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model:       p.model,
			Messages:    messages,
			MaxTokens:   p.maxTokens,
			Temperature: p.temperature,
		}).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("provider %s responded with status %d", p.name, resp.StatusCode())
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", &custom_errors.ErrEmptyCompletion{Provider: p.name}
	}
	return result.Choices[0].Message.Content, nil
}
