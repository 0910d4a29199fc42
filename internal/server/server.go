// Package server exposes the generation orchestrator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
	"github.com/dewpoint-ai/blueprint-cli/internal/orchestrator"
)

// Generator is the orchestrator port.
type Generator interface {
	Generate(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error)
}

// IndustrySource lists canonical industries for client autocomplete.
type IndustrySource interface {
	ListIndustries(ctx context.Context) ([]string, error)
}

// Server is the HTTP surface of the orchestrator.
type Server struct {
	executor   Generator
	industries IndustrySource
	router     chi.Router
}

// New builds the router.
func New(executor Generator, industries IndustrySource) *Server {
	s := &Server{executor: executor, industries: industries}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Shadow-ID"},
		MaxAge:         300,
	}))
	r.Use(shadowID)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/icps/industries", s.handleIndustries)
	r.Post("/api/generate", s.handleGenerate(false))
	r.Post("/api/generate/debug", s.handleGenerate(true))

	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs until the context is cancelled, then drains with a
// short grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server: shutdown")
	}
}

type generateRequest struct {
	CompanyData   model.CompanyProfile `json:"companyData"`
	PromptDetails *struct {
		SystemPromptOverride string `json:"systemPromptOverride,omitempty"`
	} `json:"promptDetails,omitempty"`
}

func (s *Server) handleGenerate(debug bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := req.CompanyData.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "painPoint is required")
			return
		}

		orchReq := orchestrator.Request{
			Profile:      req.CompanyData,
			ShadowID:     shadowIDFrom(r.Context()),
			CollectTrace: debug,
		}
		if req.PromptDetails != nil {
			orchReq.SystemPromptOverride = req.PromptDetails.SystemPromptOverride
		}

		result, err := s.executor.Generate(r.Context(), orchReq)
		if err != nil {
			// Validation is checked above; anything else here is a defect,
			// but the caller still gets a well-formed error payload.
			zap.L().Error("generate failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to generate blueprints")
			return
		}

		if debug {
			writeJSON(w, http.StatusOK, result)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"blueprints": result.Blueprints})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndustries(w http.ResponseWriter, r *http.Request) {
	industries, err := s.industries.ListIndustries(r.Context())
	if err != nil {
		zap.L().Error("list industries failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch industries")
		return
	}
	if industries == nil {
		industries = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"industries": industries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
