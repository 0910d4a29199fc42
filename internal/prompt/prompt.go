// Package prompt assembles the system prompt for blueprint generation.
package prompt

import (
	"strings"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

// DefaultSystemPrompt is the built-in generation prompt. Operators can
// replace it per request with an override; the placeholder substitution
// applies either way.
const DefaultSystemPrompt = `You are an expert Solutions Architect. Analyze the following user profile to design high-impact automation solutions.

User Profile:
- Industry: {{industry}}
- Role: {{role}}
- Tech Stack: {{stack}}
- Primary Pain Point: {{painPoint}}

Generate 3 custom automation blueprints in JSON format. Each blueprint MUST include: Title, Department, Problem, Solution Narrative, Value Proposition, ROI Estimate, Deep Dive, Example Scenario, Walkthrough Steps, Tech Stack Details, Difficulty, and Upsell.`

// Build renders the system prompt for one request. override replaces the
// default template when non-empty, and contextBlock (the resolved industry
// intelligence) is appended after substitution.
func Build(profile model.CompanyProfile, override, contextBlock string) string {
	template := DefaultSystemPrompt
	if strings.TrimSpace(override) != "" {
		template = override
	}

	industry := profile.Industry
	if industry == "" {
		industry = "General"
	}

	replacer := strings.NewReplacer(
		"{{role}}", profile.Role,
		"{{industry}}", industry,
		"{{painPoint}}", profile.PainPoint,
		"{{stack}}", strings.Join(profile.Stack, ", "),
		"{{url}}", profile.URL,
		"{{size}}", profile.Size,
	)

	return replacer.Replace(template) + contextBlock
}
