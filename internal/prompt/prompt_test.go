package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

func TestBuild_SubstitutesPlaceholders(t *testing.T) {
	got := Build(model.CompanyProfile{
		Industry:  "Legal",
		Role:      "Managing Partner",
		PainPoint: "Intake backlog",
		Stack:     []string{"Clio", "Outlook"},
	}, "", "")

	assert.Contains(t, got, "- Industry: Legal")
	assert.Contains(t, got, "- Role: Managing Partner")
	assert.Contains(t, got, "- Tech Stack: Clio, Outlook")
	assert.Contains(t, got, "- Primary Pain Point: Intake backlog")
	assert.NotContains(t, got, "{{")
}

func TestBuild_EmptyIndustryDefaultsGeneral(t *testing.T) {
	got := Build(model.CompanyProfile{Role: "Owner", PainPoint: "Churn"}, "", "")
	assert.Contains(t, got, "- Industry: General")
}

func TestBuild_OverrideReplacesTemplate(t *testing.T) {
	got := Build(model.CompanyProfile{
		Role:      "Owner",
		PainPoint: "Churn",
		URL:       "https://acme.example",
		Size:      "11-50",
	}, "Company {{url}} with {{size}} employees hurts from {{painPoint}}.", "")

	assert.Equal(t, "Company https://acme.example with 11-50 employees hurts from Churn.", got)
}

func TestBuild_AppendsContextBlock(t *testing.T) {
	block := "\n\n*** INDUSTRY INTELLIGENCE ACTIVE ***\nTarget Persona: Partner\n"
	got := Build(model.CompanyProfile{Role: "Owner", PainPoint: "Churn"}, "", block)
	assert.True(t, strings.HasSuffix(got, block))
}

func TestBuild_BlankOverrideKeepsDefault(t *testing.T) {
	got := Build(model.CompanyProfile{Role: "Owner", PainPoint: "Churn"}, "   ", "")
	assert.Contains(t, got, "expert Solutions Architect")
}
