package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
	"github.com/dewpoint-ai/blueprint-cli/internal/orchestrator"
)

type fakeExecutor struct {
	lastReq orchestrator.Request
	result  *orchestrator.Result
	err     error
}

func (f *fakeExecutor) Generate(_ context.Context, req orchestrator.Request) (*orchestrator.Result, error) {
	f.lastReq = req
	return f.result, f.err
}

type fakeIndustries struct {
	industries []string
	err        error
}

func (f *fakeIndustries) ListIndustries(context.Context) ([]string, error) {
	return f.industries, f.err
}

func aiResult() *orchestrator.Result {
	return &orchestrator.Result{
		Blueprints: []model.Blueprint{{Title: "Invoice Watchdog"}},
		Source:     model.SourceAI,
		Model:      "gpt-4o",
	}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGenerate_Success(t *testing.T) {
	exec := &fakeExecutor{result: aiResult()}
	srv := New(exec, &fakeIndustries{})

	rec := postJSON(t, srv.Handler(), "/api/generate", map[string]any{
		"companyData": map[string]any{"painPoint": "Overbilling", "role": "CFO"},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Blueprints []model.Blueprint `json:"blueprints"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Blueprints, 1)
	assert.Equal(t, "Invoice Watchdog", resp.Blueprints[0].Title)
	assert.False(t, exec.lastReq.CollectTrace)
}

func TestGenerate_MissingPainPoint400(t *testing.T) {
	exec := &fakeExecutor{result: aiResult()}
	srv := New(exec, &fakeIndustries{})

	rec := postJSON(t, srv.Handler(), "/api/generate", map[string]any{
		"companyData": map[string]any{"role": "CFO"},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "painPoint is required")
	assert.Empty(t, exec.lastReq.Profile.PainPoint, "orchestrator must not be invoked")
}

func TestGenerate_InvalidBody400(t *testing.T) {
	srv := New(&fakeExecutor{result: aiResult()}, &fakeIndustries{})

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_PromptOverrideForwarded(t *testing.T) {
	exec := &fakeExecutor{result: aiResult()}
	srv := New(exec, &fakeIndustries{})

	postJSON(t, srv.Handler(), "/api/generate", map[string]any{
		"companyData":   map[string]any{"painPoint": "Churn"},
		"promptDetails": map[string]any{"systemPromptOverride": "Custom {{painPoint}}"},
	}, nil)

	assert.Equal(t, "Custom {{painPoint}}", exec.lastReq.SystemPromptOverride)
}

func TestGenerateDebug_ReturnsTraceAndSetsFlag(t *testing.T) {
	result := aiResult()
	result.Trace = []orchestrator.TraceEvent{{Stage: "context", Detail: "tier=exact"}}
	exec := &fakeExecutor{result: result}
	srv := New(exec, &fakeIndustries{})

	rec := postJSON(t, srv.Handler(), "/api/generate/debug", map[string]any{
		"companyData": map[string]any{"painPoint": "Churn"},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, exec.lastReq.CollectTrace)
	assert.Contains(t, rec.Body.String(), "tier=exact")
}

func TestShadowID_EchoedAndForwarded(t *testing.T) {
	exec := &fakeExecutor{result: aiResult()}
	srv := New(exec, &fakeIndustries{})

	rec := postJSON(t, srv.Handler(), "/api/generate", map[string]any{
		"companyData": map[string]any{"painPoint": "Churn"},
	}, map[string]string{"X-Shadow-ID": "shadow-abc"})

	assert.Equal(t, "shadow-abc", rec.Header().Get("X-Shadow-ID"))
	assert.Equal(t, "shadow-abc", exec.lastReq.ShadowID)
}

func TestShadowID_MintedWhenAbsent(t *testing.T) {
	exec := &fakeExecutor{result: aiResult()}
	srv := New(exec, &fakeIndustries{})

	rec := postJSON(t, srv.Handler(), "/api/generate", map[string]any{
		"companyData": map[string]any{"painPoint": "Churn"},
	}, nil)

	minted := rec.Header().Get("X-Shadow-ID")
	assert.NotEmpty(t, minted)
	assert.Equal(t, minted, exec.lastReq.ShadowID)
}

func TestHealth(t *testing.T) {
	srv := New(&fakeExecutor{}, &fakeIndustries{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestIndustries(t *testing.T) {
	srv := New(&fakeExecutor{}, &fakeIndustries{industries: []string{"Legal", "Construction"}})

	req := httptest.NewRequest(http.MethodGet, "/api/icps/industries", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Industries []string `json:"industries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Legal", "Construction"}, resp.Industries)
}

func TestIndustries_StoreError(t *testing.T) {
	srv := New(&fakeExecutor{}, &fakeIndustries{err: eris.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/api/icps/industries", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
