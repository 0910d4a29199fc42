package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points the SDK at a local server with retries disabled so
// error-path tests stay fast.
func newTestClient(baseURL string) Client {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey("test-key"),
			option.WithBaseURL(baseURL),
			option.WithMaxRetries(0),
		),
	}
}

func messageBody(texts ...string) map[string]any {
	content := make([]map[string]any, 0, len(texts))
	for _, text := range texts {
		content = append(content, map[string]any{"type": "text", "text": text})
	}
	return map[string]any{
		"id":          "msg_test_001",
		"type":        "message",
		"role":        "assistant",
		"content":     content,
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":  10,
			"output_tokens": 5,
		},
	}
}

func TestGenerateJSON_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-haiku-4-5-20251001", req["model"], "default model applies")
		system, ok := req["system"].([]any)
		require.True(t, ok)
		require.Len(t, system, 1)
		text := system[0].(map[string]any)["text"].(string)
		assert.Contains(t, text, "act as a generator")
		assert.Contains(t, text, "Respond with a single JSON object and nothing else.")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageBody(`{"blueprints": []}`))
	}))
	defer ts.Close()

	result, err := newTestClient(ts.URL).GenerateJSON(context.Background(), GenerateRequest{
		SystemPrompt: "act as a generator",
		UserContext:  `{"painPoint": "slow invoicing"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"blueprints": []any{}}, result)
}

func TestGenerateJSON_ConcatenatesTextBlocks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageBody(`{"ok": `, `true}`))
	}))
	defer ts.Close()

	result, err := newTestClient(ts.URL).GenerateJSON(context.Background(), GenerateRequest{UserContext: "hi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, result)
}

func TestGenerateJSON_EmptyText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageBody("   "))
	}))
	defer ts.Close()

	result, err := newTestClient(ts.URL).GenerateJSON(context.Background(), GenerateRequest{UserContext: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
	assert.Nil(t, result)
}

func TestGenerateJSON_NonJSONText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageBody("Sure, here are your blueprints:"))
	}))
	defer ts.Close()

	result, err := newTestClient(ts.URL).GenerateJSON(context.Background(), GenerateRequest{UserContext: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response JSON")
	assert.Nil(t, result)
}

func TestGenerateJSON_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer ts.Close()

	result, err := newTestClient(ts.URL).GenerateJSON(context.Background(), GenerateRequest{UserContext: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create message")
	assert.Nil(t, result)
}

func TestGenerateJSON_ModelOverride(t *testing.T) {
	var gotModel string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageBody(`{}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).GenerateJSON(context.Background(), GenerateRequest{
		UserContext: "hi",
		Model:       "claude-sonnet-4-5-20250929",
	})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5-20250929", gotModel)
}
