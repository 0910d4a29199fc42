package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
	return string(b)
}

func TestGenerateJSON(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   string
		wantCalls int32
	}{
		{
			name:      "success",
			status:    http.StatusOK,
			body:      candidateBody(`{"blueprints": []}`),
			wantCalls: 1,
		},
		{
			name:      "not_found_no_retry",
			status:    http.StatusNotFound,
			body:      `{"error": {"message": "model not found"}}`,
			wantErr:   "unexpected status 404",
			wantCalls: 1,
		},
		{
			name:      "malformed_response",
			status:    http.StatusOK,
			body:      `{invalid json`,
			wantErr:   "unmarshal response",
			wantCalls: 1,
		},
		{
			name:      "no_candidates",
			status:    http.StatusOK,
			body:      `{"candidates": []}`,
			wantErr:   "empty response",
			wantCalls: 1,
		},
		{
			name:      "empty_part_text",
			status:    http.StatusOK,
			body:      candidateBody(""),
			wantErr:   "empty response",
			wantCalls: 1,
		},
		{
			name:      "non_json_text",
			status:    http.StatusOK,
			body:      candidateBody("Here you go!"),
			wantErr:   "parse generated JSON",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v1beta/models/gemini-1.5-flash-001:generateContent", r.URL.Path)
				assert.Equal(t, "test-key", r.URL.Query().Get("key"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			result, err := client.GenerateJSON(context.Background(), GenerateRequest{
				SystemPrompt: "You are a generator.",
				UserContext:  `{"painPoint": "slow invoicing"}`,
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, map[string]any{"blueprints": []any{}}, result)
			}
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestGenerateJSON_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": "quota"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateBody(`{"ok": true}`)))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	result, err := client.GenerateJSON(context.Background(), GenerateRequest{UserContext: "hi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, result)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateJSON_SystemPromptFoldedIntoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		assert.Equal(t, "act as a generator\n\nUSER CONTEXT:\nprofile here", req.Contents[0].Parts[0].Text)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateBody(`{}`)))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GenerateJSON(context.Background(), GenerateRequest{
		SystemPrompt: "act as a generator",
		UserContext:  "profile here",
	})
	require.NoError(t, err)
}

func TestGenerateJSON_ModelOverrideInPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateBody(`{}`)))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GenerateJSON(context.Background(), GenerateRequest{UserContext: "hi", Model: "gemini-2.0-flash"})
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
}
