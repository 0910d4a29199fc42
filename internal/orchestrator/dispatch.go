package orchestrator

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
	"github.com/dewpoint-ai/blueprint-cli/pkg/anthropic"
	"github.com/dewpoint-ai/blueprint-cli/pkg/gemini"
	"github.com/dewpoint-ai/blueprint-cli/pkg/openai"
)

// defaultModels are the per-provider models used when an integration
// carries no model override. They mirror the client package defaults so
// usage records name the model that actually ran.
var defaultModels = map[string]string{
	model.ProviderOpenAI:    "gpt-4o",
	model.ProviderGemini:    "gemini-1.5-flash-001",
	model.ProviderAnthropic: "claude-haiku-4-5-20251001",
}

// Dispatcher turns one candidate integration plus its decrypted key into
// a provider call. Implementations own timeouts and internal retries; the
// executor never retries the same candidate.
type Dispatcher interface {
	Generate(ctx context.Context, integ model.Integration, apiKey, systemPrompt, userContext string) (raw any, usedModel string, err error)
}

// ProviderDispatcher routes to the real provider clients. One shared rate
// limiter spans all integrations of a provider kind, since they typically
// hit the same upstream account.
type ProviderDispatcher struct {
	limiters map[string]*rate.Limiter
}

// NewProviderDispatcher creates a ProviderDispatcher.
func NewProviderDispatcher() *ProviderDispatcher {
	return &ProviderDispatcher{
		limiters: map[string]*rate.Limiter{
			model.ProviderOpenAI: rate.NewLimiter(rate.Limit(2), 4),
			model.ProviderGemini: rate.NewLimiter(rate.Limit(2), 4),
		},
	}
}

func (d *ProviderDispatcher) Generate(ctx context.Context, integ model.Integration, apiKey, systemPrompt, userContext string) (any, string, error) {
	kind := integ.ProviderKind()
	usedModel := integ.ModelOverride()
	if usedModel == "" {
		usedModel = defaultModels[kind]
	}

	req := openai.GenerateRequest{SystemPrompt: systemPrompt, UserContext: userContext, Model: usedModel}

	switch kind {
	case model.ProviderGemini:
		client := gemini.NewClient(apiKey,
			gemini.WithBaseURL(integ.BaseURL),
			gemini.WithRateLimiter(d.limiters[model.ProviderGemini]),
		)
		raw, err := client.GenerateJSON(ctx, gemini.GenerateRequest(req))
		return raw, usedModel, err
	case model.ProviderAnthropic:
		client := anthropic.NewClient(apiKey)
		raw, err := client.GenerateJSON(ctx, anthropic.GenerateRequest(req))
		return raw, usedModel, err
	default:
		client := openai.NewClient(apiKey,
			openai.WithBaseURL(integ.BaseURL),
			openai.WithRateLimiter(d.limiters[model.ProviderOpenAI]),
		)
		raw, err := client.GenerateJSON(ctx, req)
		return raw, usedModel, err
	}
}
