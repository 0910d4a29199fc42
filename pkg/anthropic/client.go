// Package anthropic performs JSON generation against the Anthropic API via
// the official SDK. Claude has no dedicated JSON response mode, so the
// system prompt instructs it to emit only JSON and the response text is
// parsed strictly.
package anthropic

import (
	"context"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const (
	defaultModel   = "claude-haiku-4-5-20251001"
	defaultRetries = 2
	maxTokens      = 4096
)

// Client generates structured JSON from a messages call.
type Client interface {
	GenerateJSON(ctx context.Context, req GenerateRequest) (any, error)
}

// GenerateRequest carries one JSON generation call.
type GenerateRequest struct {
	SystemPrompt string
	UserContext  string
	Model        string
}

type sdkClient struct {
	client sdk.Client
}

// NewClient creates an Anthropic client for the given key. Timeout and
// retry policy live in the SDK options so every call is bounded.
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(defaultRetries),
	}, opts...)
	return &sdkClient{client: sdk.NewClient(all...)}
}

func (c *sdkClient) GenerateJSON(ctx context.Context, req GenerateRequest) (any, error) {
	if req.Model == "" {
		req.Model = defaultModel
	}

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: maxTokens,
		System: []sdk.TextBlockParam{
			{Text: req.SystemPrompt + "\n\nRespond with a single JSON object and nothing else."},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.UserContext)),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, eris.New("anthropic: empty response")
	}

	var result any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, eris.Wrap(err, "anthropic: parse response JSON")
	}
	return result, nil
}
