// Package normalize maps heterogeneous provider output onto the canonical
// blueprint schema. Providers return anything from already-canonical
// structures to flat capitalized-key objects to bare arrays; normalization
// always succeeds, substituting documented placeholders for missing fields.
package normalize

import (
	"encoding/json"
	"time"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

// Placeholder values for fields absent from every known alias.
const (
	PlaceholderTitle      = "Untitled Blueprint"
	PlaceholderDepartment = "General"
	PlaceholderProblem    = "No problem defined."
	PlaceholderSolution   = "No solution defined."
	PlaceholderValueProp  = "No value prop defined."
	PlaceholderROI        = "N/A"
	PlaceholderUpsell     = "Consultation"
)

// Normalizer converts raw provider JSON into canonical blueprints.
type Normalizer struct {
	now func() time.Time
}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (n *Normalizer) WithNow(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize maps raw provider output into canonical blueprints. raw may be
// a single object, an array, or a {blueprints: [...]} / {opportunities:
// [...]} envelope. companyIndustry backfills missing industry labels and
// usedModel stamps the generation metadata. Normalizing already-canonical
// input is a no-op beyond backfilling.
func (n *Normalizer) Normalize(raw any, companyIndustry, usedModel string) []model.Blueprint {
	items := unwrap(raw)
	out := make([]model.Blueprint, 0, len(items))
	for _, item := range items {
		m, ok := toMap(item)
		if !ok {
			continue
		}
		if isCanonical(m) {
			out = append(out, n.backfill(decodeCanonical(m), companyIndustry, usedModel))
			continue
		}
		out = append(out, n.backfill(n.mapFlat(m), companyIndustry, usedModel))
	}
	return out
}

// unwrap flattens envelopes and arrays into a list of candidate objects.
func unwrap(raw any) []any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []model.Blueprint:
		items := make([]any, len(v))
		for i, b := range v {
			items[i] = b
		}
		return items
	case map[string]any:
		if list, ok := v["blueprints"].([]any); ok {
			return list
		}
		if list, ok := v["opportunities"].([]any); ok {
			return list
		}
		return []any{v}
	default:
		return []any{v}
	}
}

func toMap(item any) (map[string]any, bool) {
	if m, ok := item.(map[string]any); ok {
		return m, true
	}
	// Already-typed blueprints round-trip through JSON.
	data, err := json.Marshal(item)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return m, true
}

func isCanonical(m map[string]any) bool {
	_, hasPublic := m["public_view"]
	_, hasAdmin := m["admin_view"]
	return hasPublic && hasAdmin
}

func decodeCanonical(m map[string]any) model.Blueprint {
	var bp model.Blueprint
	if data, err := json.Marshal(m); err == nil {
		// Decode errors leave partial output; backfill repairs the gaps.
		_ = json.Unmarshal(data, &bp)
	}
	return bp
}

// mapFlat applies the flat alias table used by prompt-following providers
// that return capitalized top-level keys instead of nested views.
func (n *Normalizer) mapFlat(m map[string]any) model.Blueprint {
	workflow := firstString(m, "Workflow Steps", "workflow_steps")
	if s, ok := m["Walkthrough"].(string); ok {
		workflow = s
	}
	return model.Blueprint{
		Title:      firstString(m, "Title", "title"),
		Department: firstString(m, "Department", "department"),
		Industry:   firstString(m, "Industry", "industry"),
		PublicView: model.PublicView{
			Problem:             firstString(m, "Problem", "problem"),
			SolutionNarrative:   firstString(m, "Solution Narrative", "solution_narrative", "Solution"),
			ValueProposition:    firstString(m, "Value Proposition", "value_proposition"),
			ROIEstimate:         firstString(m, "ROI Estimate", "roi_estimate", "ROI"),
			DetailedExplanation: firstString(m, "Deep Dive", "deep_dive", "DeepDive"),
			ExampleScenario:     firstString(m, "Example Scenario", "example_scenario"),
			WalkthroughSteps:    stringSlice(m, "Walkthrough Steps", "walkthrough_steps"),
		},
		AdminView: model.AdminView{
			TechStack:                stringSlice(m, "Tech Stack Details", "tech_stack"),
			ImplementationDifficulty: firstString(m, "Difficulty", "difficulty"),
			WorkflowSteps:            workflow,
			UpsellOpportunity:        firstString(m, "Upsell", "Upsell Opportunity", "upsell_opportunity"),
		},
	}
}

// backfill substitutes placeholders for empty fields and stamps metadata.
// It never overwrites a populated field, which keeps normalization
// idempotent for canonical input.
func (n *Normalizer) backfill(bp model.Blueprint, companyIndustry, usedModel string) model.Blueprint {
	if bp.Title == "" {
		bp.Title = PlaceholderTitle
	}
	if bp.Department == "" {
		bp.Department = PlaceholderDepartment
	}
	if bp.Industry == "" {
		bp.Industry = companyIndustry
	}
	if bp.Industry == "" {
		bp.Industry = "General"
	}
	if bp.PublicView.Problem == "" {
		bp.PublicView.Problem = PlaceholderProblem
	}
	if bp.PublicView.SolutionNarrative == "" {
		bp.PublicView.SolutionNarrative = PlaceholderSolution
	}
	if bp.PublicView.ValueProposition == "" {
		bp.PublicView.ValueProposition = PlaceholderValueProp
	}
	if bp.PublicView.ROIEstimate == "" {
		bp.PublicView.ROIEstimate = PlaceholderROI
	}
	if bp.PublicView.WalkthroughSteps == nil {
		bp.PublicView.WalkthroughSteps = []string{}
	}
	if bp.AdminView.TechStack == nil {
		bp.AdminView.TechStack = []string{}
	}
	if !model.ValidDifficulty(bp.AdminView.ImplementationDifficulty) {
		bp.AdminView.ImplementationDifficulty = model.DifficultyMed
	}
	if bp.AdminView.UpsellOpportunity == "" {
		bp.AdminView.UpsellOpportunity = PlaceholderUpsell
	}
	if bp.Metadata.Source == "" {
		bp.Metadata.Source = model.SourceAI
	}
	if bp.Metadata.Model == "" {
		bp.Metadata.Model = usedModel
	}
	if bp.Metadata.Timestamp.IsZero() {
		bp.Metadata.Timestamp = n.now().UTC()
	}
	return bp
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringSlice(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, e := range v {
				if s, ok := e.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return v
		case string:
			if v != "" {
				return []string{v}
			}
		}
	}
	return nil
}
