package model

import "time"

// Blueprint generation sources.
const (
	SourceAI     = "AI"
	SourceSystem = "System"
)

// Implementation difficulty levels.
const (
	DifficultyLow  = "Low"
	DifficultyMed  = "Med"
	DifficultyHigh = "High"
)

// PublicView is the customer-facing half of a blueprint.
type PublicView struct {
	Problem             string   `json:"problem"`
	SolutionNarrative   string   `json:"solution_narrative"`
	ValueProposition    string   `json:"value_proposition"`
	ROIEstimate         string   `json:"roi_estimate"`
	DetailedExplanation string   `json:"detailed_explanation"`
	ExampleScenario     string   `json:"example_scenario"`
	WalkthroughSteps    []string `json:"walkthrough_steps"`
}

// AdminView is the internals-facing half of a blueprint.
type AdminView struct {
	TechStack                []string `json:"tech_stack"`
	ImplementationDifficulty string   `json:"implementation_difficulty"`
	WorkflowSteps            string   `json:"workflow_steps"`
	UpsellOpportunity        string   `json:"upsell_opportunity"`
}

// GenerationMetadata records how and when a blueprint was produced.
type GenerationMetadata struct {
	Source    string    `json:"source"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}

// Blueprint is one generated automation recommendation in canonical shape.
type Blueprint struct {
	Title      string             `json:"title"`
	Department string             `json:"department"`
	Industry   string             `json:"industry"`
	PublicView PublicView         `json:"public_view"`
	AdminView  AdminView          `json:"admin_view"`
	Metadata   GenerationMetadata `json:"generation_metadata"`
}

// ValidDifficulty reports whether d is one of the accepted difficulty levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyLow, DifficultyMed, DifficultyHigh:
		return true
	}
	return false
}
