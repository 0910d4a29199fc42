package fallback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestGenerate_ThreeTemplates(t *testing.T) {
	out := New().WithNow(fixedClock).Generate("Legal", "Partner")

	require.Len(t, out, 3)
	titles := []string{out[0].Title, out[1].Title, out[2].Title}
	assert.Equal(t, []string{
		"Automated Inquiry Response System",
		"Client Onboarding Streamline",
		"Review Generation Engine",
	}, titles)
}

func TestGenerate_StampsIndustryAndMetadata(t *testing.T) {
	out := New().WithNow(fixedClock).Generate("Healthcare", "")

	for _, bp := range out {
		assert.Equal(t, "Healthcare", bp.Industry)
		assert.Equal(t, model.SourceSystem, bp.Metadata.Source)
		assert.Equal(t, TemplateModel, bp.Metadata.Model)
		assert.Equal(t, fixedClock(), bp.Metadata.Timestamp)
	}
}

func TestGenerate_EmptyIndustryDefaultsToGeneral(t *testing.T) {
	out := New().WithNow(fixedClock).Generate("", "")
	require.Len(t, out, 3)
	for _, bp := range out {
		assert.Equal(t, "General", bp.Industry)
	}
}

func TestGenerate_TemplatesAreComplete(t *testing.T) {
	for _, bp := range New().WithNow(fixedClock).Generate("Legal", "") {
		assert.NotEmpty(t, bp.Title)
		assert.NotEmpty(t, bp.Department)
		assert.NotEmpty(t, bp.PublicView.Problem)
		assert.NotEmpty(t, bp.PublicView.SolutionNarrative)
		assert.NotEmpty(t, bp.PublicView.ValueProposition)
		assert.NotEmpty(t, bp.PublicView.ROIEstimate)
		assert.NotEmpty(t, bp.PublicView.WalkthroughSteps)
		assert.NotEmpty(t, bp.AdminView.TechStack)
		assert.True(t, model.ValidDifficulty(bp.AdminView.ImplementationDifficulty))
		assert.NotEmpty(t, bp.AdminView.UpsellOpportunity)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := New().WithNow(fixedClock)
	assert.Equal(t, g.Generate("Legal", "Partner"), g.Generate("Legal", "Partner"))
}
