// Package orchestrator runs the blueprint generation waterfall: rank the
// configured provider integrations, try each in order behind a budget
// check, stop at the first success, and fall back to static templates
// when every candidate fails. The caller always gets blueprints; the only
// error the orchestrator surfaces is invalid input.
package orchestrator

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dewpoint-ai/blueprint-cli/internal/budget"
	"github.com/dewpoint-ai/blueprint-cli/internal/fallback"
	"github.com/dewpoint-ai/blueprint-cli/internal/model"
	"github.com/dewpoint-ai/blueprint-cli/internal/normalize"
	"github.com/dewpoint-ai/blueprint-cli/internal/prompt"
	"github.com/dewpoint-ai/blueprint-cli/internal/secret"
)

// ContextResolver produces the industry context block and the tier that
// produced it.
type ContextResolver interface {
	Resolve(ctx context.Context, industry, icpType string) (block, tier string)
}

// BudgetChecker gates each candidate attempt.
type BudgetChecker interface {
	Check(ctx context.Context, integ model.Integration) error
}

// IntegrationSource lists the candidate integrations.
type IntegrationSource interface {
	ListEnabledIntegrations(ctx context.Context) ([]model.Integration, error)
}

// UsageSink receives accounting for successful generations. It must not
// block the caller.
type UsageSink interface {
	Record(rec model.UsageRecord)
}

// ErrorSink persists the last provider error onto an integration for
// operator visibility. Only the tracing variant writes to it.
type ErrorSink interface {
	SetIntegrationLastError(ctx context.Context, integrationID int64, message string) error
}

// Request is one generation request.
type Request struct {
	Profile              model.CompanyProfile
	SystemPromptOverride string
	UserID               int64
	ShadowID             string

	// CollectTrace turns on the diagnostic variant: a structured trace of
	// every state transition plus last_error persistence.
	CollectTrace bool
}

// TraceEvent is one recorded state transition of the diagnostic variant.
type TraceEvent struct {
	Timestamp   time.Time     `json:"timestamp"`
	Stage       string        `json:"stage"`
	Integration string        `json:"integration,omitempty"`
	Detail      string        `json:"detail,omitempty"`
	Elapsed     time.Duration `json:"elapsed_ms,omitempty"`
}

// Result is the orchestrator's answer. Source is "AI" on any provider
// success and "System" when the fallback templates were used.
type Result struct {
	Blueprints  []model.Blueprint `json:"blueprints"`
	Source      string            `json:"source"`
	Model       string            `json:"model"`
	ContextTier string            `json:"context_tier"`
	Trace       []TraceEvent      `json:"trace,omitempty"`
}

// Executor is the generation state machine.
type Executor struct {
	integrations IntegrationSource
	resolver     ContextResolver
	guard        BudgetChecker
	crypter      secret.Crypter
	dispatcher   Dispatcher
	normalizer   *normalize.Normalizer
	fallback     *fallback.Generator
	usage        UsageSink
	errors       ErrorSink
}

// NewExecutor wires the generation pipeline.
func NewExecutor(
	integrations IntegrationSource,
	resolver ContextResolver,
	guard BudgetChecker,
	crypter secret.Crypter,
	dispatcher Dispatcher,
	normalizer *normalize.Normalizer,
	fb *fallback.Generator,
	usage UsageSink,
	errors ErrorSink,
) *Executor {
	return &Executor{
		integrations: integrations,
		resolver:     resolver,
		guard:        guard,
		crypter:      crypter,
		dispatcher:   dispatcher,
		normalizer:   normalizer,
		fallback:     fb,
		usage:        usage,
		errors:       errors,
	}
}

// Generate runs the waterfall for one request. The only returned error is
// input validation; every downstream failure degrades to the fallback
// templates instead.
func (e *Executor) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}

	trace := newTracer(req.CollectTrace)

	contextBlock, tier := e.resolver.Resolve(ctx, req.Profile.Industry, req.Profile.EffectiveICPType())
	trace.add("context", "", "tier="+tier, 0)

	systemPrompt := prompt.Build(req.Profile, req.SystemPromptOverride, contextBlock)
	profileJSON, err := json.Marshal(req.Profile)
	if err != nil {
		// CompanyProfile is plain data; this cannot happen in practice.
		return nil, eris.Wrap(err, "orchestrator: marshal profile")
	}
	userContext := string(profileJSON)

	candidates, err := e.listCandidates(ctx)
	if err != nil {
		zap.L().Error("orchestrator: listing integrations failed, using fallback", zap.Error(err))
		candidates = nil
	}
	trace.add("ranked", "", strconv.Itoa(len(candidates))+" candidates", 0)

	for _, integ := range candidates {
		blueprints, usedModel, skip := e.attempt(ctx, integ, systemPrompt, userContext, req, trace)
		if skip != "" {
			trace.add("skip", integ.Name, skip, 0)
			continue
		}
		return &Result{
			Blueprints:  blueprints,
			Source:      model.SourceAI,
			Model:       usedModel,
			ContextTier: tier,
			Trace:       trace.events,
		}, nil
	}

	// Exhaustion is not an error; the static templates keep the contract.
	zap.L().Warn("orchestrator: all candidates exhausted, serving fallback templates",
		zap.Int("candidates", len(candidates)))
	trace.add("fallback", "", "all candidates exhausted", 0)
	return &Result{
		Blueprints:  e.fallback.Generate(req.Profile.Industry, req.Profile.Role),
		Source:      model.SourceSystem,
		Model:       fallback.TemplateModel,
		ContextTier: tier,
		Trace:       trace.events,
	}, nil
}

func (e *Executor) listCandidates(ctx context.Context) ([]model.Integration, error) {
	integs, err := e.integrations.ListEnabledIntegrations(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(integs), nil
}

// attempt runs one candidate. A non-empty skip reason advances the loop;
// an empty one means success.
func (e *Executor) attempt(ctx context.Context, integ model.Integration, systemPrompt, userContext string, req Request, trace *tracer) ([]model.Blueprint, string, string) {
	if err := e.guard.Check(ctx, integ); err != nil {
		if eris.Is(err, budget.ErrExceeded) {
			return nil, "", "budget exceeded"
		}
		return nil, "", "budget check failed: " + err.Error()
	}

	apiKey, err := e.crypter.Decrypt(integ.APIKey)
	if err != nil {
		zap.L().Warn("orchestrator: credential decryption failed",
			zap.Int64("integration_id", integ.ID),
			zap.String("integration", integ.Name),
			zap.Error(err))
		return nil, "", "credential decryption failed"
	}

	trace.add("attempt", integ.Name, "", 0)
	started := time.Now()
	raw, usedModel, err := e.dispatcher.Generate(ctx, integ, apiKey, systemPrompt, userContext)
	if err != nil {
		zap.L().Warn("orchestrator: provider call failed",
			zap.Int64("integration_id", integ.ID),
			zap.String("integration", integ.Name),
			zap.Error(err))
		e.persistLastError(ctx, integ, err, req.CollectTrace)
		return nil, "", "provider error: " + err.Error()
	}
	trace.add("success", integ.Name, "model="+usedModel, time.Since(started))

	e.recordUsage(systemPrompt, userContext, raw, usedModel, integ.ID, req)

	blueprints := e.normalizer.Normalize(raw, req.Profile.Industry, usedModel)
	if len(blueprints) == 0 {
		// A provider that returns valid JSON with no usable objects is
		// treated like any other provider failure.
		return nil, "", "provider returned no blueprints"
	}
	return blueprints, usedModel, ""
}

func (e *Executor) persistLastError(ctx context.Context, integ model.Integration, provErr error, collectTrace bool) {
	if !collectTrace || e.errors == nil {
		return
	}
	if err := e.errors.SetIntegrationLastError(ctx, integ.ID, provErr.Error()); err != nil {
		zap.L().Warn("orchestrator: persisting last_error failed",
			zap.Int64("integration_id", integ.ID), zap.Error(err))
	}
}

// recordUsage estimates token counts from character lengths (1 token per
// 4 characters) and hands off to the async recorder.
func (e *Executor) recordUsage(systemPrompt, userContext string, raw any, usedModel string, integrationID int64, req Request) {
	resultJSON, err := json.Marshal(raw)
	if err != nil {
		resultJSON = nil
	}
	e.usage.Record(model.UsageRecord{
		UserID:           req.UserID,
		ShadowID:         req.ShadowID,
		IntegrationID:    integrationID,
		Model:            usedModel,
		PromptTokens:     estimateTokens(len(systemPrompt)) + estimateTokens(len(userContext)),
		CompletionTokens: estimateTokens(len(resultJSON)),
	})
}

func estimateTokens(chars int) int {
	return (chars + 3) / 4
}
