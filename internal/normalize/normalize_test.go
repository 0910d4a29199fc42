package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

var fixedNow = func() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newFixed() *Normalizer {
	return New().WithNow(fixedNow)
}

func TestNormalize_FlatCapitalizedKeys(t *testing.T) {
	raw := map[string]any{
		"Title":              "Invoice Watchdog",
		"Department":         "Finance",
		"Problem":            "Overbilling",
		"Solution Narrative": "Automated invoice cross-checks.",
		"Value Proposition":  "Catch overcharges instantly.",
		"ROI Estimate":       "Save 3% of spend.",
		"Deep Dive":          "Compares line items against contracts.",
		"Example Scenario":   "Vendor bills twice; system flags it.",
		"Walkthrough Steps":  []any{"Connect AP inbox.", "Set matching rules."},
		"Tech Stack Details": []any{"OCR", "Rules Engine"},
		"Difficulty":         "High",
		"Upsell":             "AP Automation Suite",
	}

	out := newFixed().Normalize(raw, "Legal", "gpt-4o")
	require.Len(t, out, 1)
	bp := out[0]
	assert.Equal(t, "Invoice Watchdog", bp.Title)
	assert.Equal(t, "Finance", bp.Department)
	assert.Equal(t, "Legal", bp.Industry)
	assert.Equal(t, "Overbilling", bp.PublicView.Problem)
	assert.Equal(t, "Automated invoice cross-checks.", bp.PublicView.SolutionNarrative)
	assert.Equal(t, []string{"Connect AP inbox.", "Set matching rules."}, bp.PublicView.WalkthroughSteps)
	assert.Equal(t, []string{"OCR", "Rules Engine"}, bp.AdminView.TechStack)
	assert.Equal(t, model.DifficultyHigh, bp.AdminView.ImplementationDifficulty)
	assert.Equal(t, "AP Automation Suite", bp.AdminView.UpsellOpportunity)
	assert.Equal(t, model.SourceAI, bp.Metadata.Source)
	assert.Equal(t, "gpt-4o", bp.Metadata.Model)
	assert.Equal(t, fixedNow(), bp.Metadata.Timestamp)
}

func TestNormalize_ConcreteScenario(t *testing.T) {
	out := newFixed().Normalize(map[string]any{
		"Title":   "Invoice Watchdog",
		"Problem": "Overbilling",
	}, "", "gpt-4o")

	require.Len(t, out, 1)
	assert.Equal(t, "Invoice Watchdog", out[0].Title)
	assert.Equal(t, "Overbilling", out[0].PublicView.Problem)
	assert.Equal(t, model.DifficultyMed, out[0].AdminView.ImplementationDifficulty)
	assert.Equal(t, PlaceholderUpsell, out[0].AdminView.UpsellOpportunity)
}

func TestNormalize_Completeness(t *testing.T) {
	inputs := []any{
		map[string]any{},
		map[string]any{"Title": "Bare"},
		map[string]any{"public_view": map[string]any{}, "admin_view": map[string]any{}},
		[]any{map[string]any{"Problem": "Only a problem"}},
		map[string]any{"blueprints": []any{map[string]any{"Title": "Wrapped"}}},
	}

	for i, raw := range inputs {
		out := newFixed().Normalize(raw, "Legal", "gpt-4o")
		require.NotEmpty(t, out, "input %d", i)
		for _, bp := range out {
			assert.NotEmpty(t, bp.Title)
			assert.NotEmpty(t, bp.PublicView.Problem)
			assert.NotEmpty(t, bp.PublicView.SolutionNarrative)
			assert.True(t, model.ValidDifficulty(bp.AdminView.ImplementationDifficulty))
			assert.NotNil(t, bp.PublicView.WalkthroughSteps)
			assert.NotNil(t, bp.AdminView.TechStack)
		}
	}
}

func TestNormalize_EnvelopeUnwrapping(t *testing.T) {
	blueprints := newFixed().Normalize(map[string]any{
		"blueprints": []any{
			map[string]any{"Title": "One"},
			map[string]any{"Title": "Two"},
		},
	}, "", "gpt-4o")
	require.Len(t, blueprints, 2)

	opportunities := newFixed().Normalize(map[string]any{
		"opportunities": []any{map[string]any{"Title": "Opp"}},
	}, "", "gpt-4o")
	require.Len(t, opportunities, 1)
	assert.Equal(t, "Opp", opportunities[0].Title)
}

func TestNormalize_ArrayInput(t *testing.T) {
	out := newFixed().Normalize([]any{
		map[string]any{"Title": "A"},
		map[string]any{"Title": "B"},
		map[string]any{"Title": "C"},
	}, "", "gpt-4o")
	require.Len(t, out, 3)
}

func TestNormalize_CanonicalPassthrough(t *testing.T) {
	raw := map[string]any{
		"title":      "Canonical",
		"department": "Ops",
		"industry":   "Construction",
		"public_view": map[string]any{
			"problem":            "Late invoices",
			"solution_narrative": "Automated chasing",
			"value_proposition":  "Faster cash",
			"roi_estimate":       "5 days DSO",
			"walkthrough_steps":  []any{"Step 1"},
		},
		"admin_view": map[string]any{
			"tech_stack":                []any{"CRM"},
			"implementation_difficulty": "Low",
			"workflow_steps":            "A -> B",
			"upsell_opportunity":        "Retainer",
		},
	}

	out := newFixed().Normalize(raw, "Legal", "gpt-4o")
	require.Len(t, out, 1)
	bp := out[0]
	assert.Equal(t, "Canonical", bp.Title)
	assert.Equal(t, "Construction", bp.Industry, "canonical industry must not be overwritten")
	assert.Equal(t, "Late invoices", bp.PublicView.Problem)
	assert.Equal(t, model.DifficultyLow, bp.AdminView.ImplementationDifficulty)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newFixed()
	first := n.Normalize(map[string]any{
		"Title":   "Invoice Watchdog",
		"Problem": "Overbilling",
	}, "Legal", "gpt-4o")
	require.Len(t, first, 1)

	second := n.Normalize([]model.Blueprint{first[0]}, "Legal", "gpt-4o")
	require.Len(t, second, 1)
	assert.Equal(t, first[0], second[0])
}

func TestNormalize_WalkthroughStringOverridesWorkflow(t *testing.T) {
	out := newFixed().Normalize(map[string]any{
		"Title":          "X",
		"Workflow Steps": "A -> B",
		"Walkthrough":    "Trigger -> Action",
	}, "", "gpt-4o")
	require.Len(t, out, 1)
	assert.Equal(t, "Trigger -> Action", out[0].AdminView.WorkflowSteps)
}

func TestNormalize_NilAndScalarInputs(t *testing.T) {
	assert.Empty(t, newFixed().Normalize(nil, "", "gpt-4o"))
	// A scalar round-trips to no usable object and is dropped.
	assert.Empty(t, newFixed().Normalize("just text", "", "gpt-4o"))
}

func TestNormalize_IndustryFallbackChain(t *testing.T) {
	fromCompany := newFixed().Normalize(map[string]any{"Title": "X"}, "Healthcare", "gpt-4o")
	require.Len(t, fromCompany, 1)
	assert.Equal(t, "Healthcare", fromCompany[0].Industry)

	fromDefault := newFixed().Normalize(map[string]any{"Title": "X"}, "", "gpt-4o")
	require.Len(t, fromDefault, 1)
	assert.Equal(t, "General", fromDefault[0].Industry)
}
