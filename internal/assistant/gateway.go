// internal/assistant/gateway.go
package assistant

import (
	"context"
	"log/slog"

	"omnilertlab-service/internal/model"
)

// Provider tags surfaced in ChatReply.
const (
	ProviderGroq       = "groq"
	ProviderPerplexity = "perplexity"

	// ProviderNone tags the sentinel reply when every provider failed.
	ProviderNone = "none"
)

// SentinelOffline is the in-conversation reply returned when the whole
// fallback chain is exhausted. The widget always has something to display.
const SentinelOffline = "[ERR_NEURAL_LINK]: All AI pathways offline. Try again shortly."

// Gateway forwards a conversation through an ordered provider chain. The
// chain is strictly sequential: a provider is attempted only after every
// one before it has failed, and failures are swallowed, never surfaced.
//
// The gateway sees only free-text queries. Command interception (DISPATCH:,
// HIRE, CONTACT) is a routing decision owned by the HTTP layer.
type Gateway struct {
	providers    []Provider
	systemPrompt string
	logger       *slog.Logger
}

// NewGateway creates a Gateway over the given providers in fallback order.
// Unconfigured providers should simply not be passed in.
func NewGateway(providers []Provider, systemPrompt string, logger *slog.Logger) *Gateway {
	return &Gateway{
		providers:    providers,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

// Dispatch sends the conversation, prefixed by exactly one persona system
// message, to the first provider that produces a usable reply. It never
// returns an error: with no provider left it returns the offline sentinel
// tagged ProviderNone.
func (g *Gateway) Dispatch(ctx context.Context, messages []model.ChatMessage) model.ChatReply {
	conversation := make([]model.ChatMessage, 0, len(messages)+1)
	conversation = append(conversation, model.ChatMessage{
		Role:    model.RoleSystem,
		Content: g.systemPrompt,
	})
	conversation = append(conversation, messages...)

	for _, p := range g.providers {
		content, err := p.Complete(ctx, conversation)
		if err != nil {
			g.logger.Warn("Provider failed, advancing fallback chain", "provider", p.Name(), "error", err)
			continue
		}
		return model.ChatReply{Content: content, Provider: p.Name()}
	}

	g.logger.Warn("All providers exhausted, returning sentinel reply")
	return model.ChatReply{Content: SentinelOffline, Provider: ProviderNone}
}

// Query is the one-shot terminal variant: a single user turn against the
// head of the chain only, no fallback. Failure collapses to the sentinel.
func (g *Gateway) Query(ctx context.Context, input string) string {
	if len(g.providers) == 0 {
		return SentinelOffline
	}

	conversation := []model.ChatMessage{
		{Role: model.RoleSystem, Content: g.systemPrompt},
		{Role: model.RoleUser, Content: input},
	}

	p := g.providers[0]
	content, err := p.Complete(ctx, conversation)
	if err != nil {
		g.logger.Warn("Terminal query failed", "provider", p.Name(), "error", err)
		return SentinelOffline
	}
	return content
}
