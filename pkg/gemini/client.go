// Package gemini performs JSON-mode content generation against the Google
// Gemini REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-1.5-flash-001"
	defaultRetries = 2
)

// Client generates structured JSON from a generateContent call.
type Client interface {
	GenerateJSON(ctx context.Context, req GenerateRequest) (any, error)
}

// GenerateRequest carries one JSON-mode generation call. Gemini has no
// dedicated system role on this endpoint, so the system prompt is folded
// into the user content.
type GenerateRequest struct {
	SystemPrompt string
	UserContext  string
	Model        string
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimiter throttles outbound calls.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

// WithMaxRetries overrides the default retry count for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *httpClient) {
		c.maxRetries = n
	}
}

type httpClient struct {
	apiKey     string
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient creates a Gemini API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		maxRetries: defaultRetries,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GenerateJSON(ctx context.Context, req GenerateRequest) (any, error) {
	if req.Model == "" {
		req.Model = defaultModel
	}
	body, err := json.Marshal(generateContentRequest{
		Contents: []content{
			{Parts: []part{{Text: req.SystemPrompt + "\n\nUSER CONTEXT:\n" + req.UserContext}}},
		},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: marshal request")
	}

	url := c.baseURL + "/v1beta/models/" + req.Model + ":generateContent?key=" + c.apiKey

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "gemini: context done")
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		result, retryable, err := c.doOnce(ctx, url, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *httpClient) doOnce(ctx context.Context, url string, body []byte) (any, bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false, eris.Wrap(err, "gemini: rate limit wait")
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, eris.Wrap(err, "gemini: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, true, eris.Wrap(err, "gemini: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, eris.Wrap(err, "gemini: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, retryableStatus(resp.StatusCode), eris.Errorf("gemini: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var gen generateContentResponse
	if err := json.Unmarshal(respBody, &gen); err != nil {
		return nil, false, eris.Wrap(err, "gemini: unmarshal response")
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 || gen.Candidates[0].Content.Parts[0].Text == "" {
		return nil, false, eris.New("gemini: empty response")
	}

	var result any
	if err := json.Unmarshal([]byte(gen.Candidates[0].Content.Parts[0].Text), &result); err != nil {
		return nil, false, eris.Wrap(err, "gemini: parse generated JSON")
	}
	return result, false, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
