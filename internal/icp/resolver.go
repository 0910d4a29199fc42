// Package icp resolves a free-text industry label into the prompt context
// block injected into blueprint generation. Resolution tries an exact store
// lookup, then AI-assisted label normalization, then falls back to a
// generic block. Resolution never fails; the generic block is the floor.
package icp

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

// Resolution tiers, reported for tracing.
const (
	TierExact      = "exact"
	TierNormalized = "normalized"
	TierGeneric    = "generic"
)

// GenericBlock is used when no industry intelligence applies.
const GenericBlock = `

*** GENERAL BUSINESS CONTEXT ***
Target Persona: Small business owner or operator
Perspective: Business Owner (Operational Efficiency)
Strategic Focus: Identify broadly applicable automation wins that save time, recover revenue, and reduce manual workload.
`

// ContextStore is the industry persona lookup port.
type ContextStore interface {
	LookupICP(ctx context.Context, industry, icpType string) (*model.IndustryContext, error)
}

// IndustryNormalizer maps a free-text industry description to a canonical
// label. An empty return means no canonical label applies.
type IndustryNormalizer interface {
	NormalizeIndustry(ctx context.Context, industry string) (string, error)
}

// Resolver produces the industry context block for one request.
type Resolver struct {
	store ContextStore
	norm  IndustryNormalizer
}

// NewResolver creates a Resolver. norm may be nil, which disables the
// normalized tier.
func NewResolver(store ContextStore, norm IndustryNormalizer) *Resolver {
	return &Resolver{store: store, norm: norm}
}

// Resolve returns the context block and the tier that produced it. Store
// and normalizer failures are absorbed into the generic tier.
func (r *Resolver) Resolve(ctx context.Context, industry, icpType string) (string, string) {
	if isGenericMarker(industry) {
		return GenericBlock, TierGeneric
	}

	if block, ok := r.lookup(ctx, industry, icpType); ok {
		return block, TierExact
	}

	if r.norm != nil {
		normalized, err := r.norm.NormalizeIndustry(ctx, industry)
		if err != nil {
			zap.L().Warn("industry normalization failed",
				zap.String("industry", industry), zap.Error(err))
		} else if normalized != "" && !isGenericMarker(normalized) {
			if block, ok := r.lookup(ctx, normalized, icpType); ok {
				zap.L().Debug("industry normalized",
					zap.String("raw", industry), zap.String("canonical", normalized))
				return block, TierNormalized
			}
		}
	}

	return GenericBlock, TierGeneric
}

// isGenericMarker reports labels that skip lookup entirely: empty input,
// any casing of "general", and the literal "Cross-Industry" label used by
// the blueprint library.
func isGenericMarker(industry string) bool {
	trimmed := strings.TrimSpace(industry)
	return trimmed == "" || strings.EqualFold(trimmed, "general") || trimmed == "Cross-Industry"
}

func (r *Resolver) lookup(ctx context.Context, industry, icpType string) (string, bool) {
	icp, err := r.store.LookupICP(ctx, industry, icpType)
	if err != nil {
		zap.L().Warn("industry context lookup failed",
			zap.String("industry", industry), zap.Error(err))
		return "", false
	}
	if icp == nil {
		return "", false
	}
	return RenderContext(icp, icpType), true
}

// RenderContext formats one persona record as the prompt context block.
func RenderContext(icp *model.IndustryContext, icpType string) string {
	perspective := "Business Owner (Operational Efficiency)"
	if icpType == model.ICPTypeInternal {
		perspective = "End Customer (Growth/Sales)"
	}

	return fmt.Sprintf(`

*** INDUSTRY INTELLIGENCE ACTIVE ***
Target Persona: %s
Perspective: %s
Strategic Focus: %s
Primary Pain Category: %s
GTM Motion: %s
DewPoint Scores (1-5): Profit=%s, Speed=%s, LTV=%s

Economic Drivers: %s
Negative Constraints (Avoid): %s

Discovery Guidance: %s
`,
		icp.Persona,
		perspective,
		icp.PromptInstructions,
		orDefault(icp.PrimaryPainCategory, "General"),
		orDefault(icp.GTMPrimary, "Standard"),
		scoreLabel(icp.ProfitScore),
		scoreLabel(icp.SpeedToCloseScore),
		scoreLabel(icp.LTVScore),
		orDefault(icp.EconomicDrivers, "N/A"),
		orDefault(icp.NegativeICPs, "None"),
		orDefault(icp.DiscoveryGuidance, "N/A"),
	)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func scoreLabel(score int) string {
	if score == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", score)
}
