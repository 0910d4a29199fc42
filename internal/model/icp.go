package model

// IndustryContext is one stored industry/persona prompting profile.
// Records are looked up per request and never mutated by the orchestrator.
type IndustryContext struct {
	ID                  int64  `json:"id"`
	Industry            string `json:"industry"`
	ICPType             string `json:"icp_type"`
	NAICSCode           string `json:"naics_code,omitempty"`
	Persona             string `json:"icp_persona"`
	PromptInstructions  string `json:"prompt_instructions"`
	PrimaryPainCategory string `json:"primary_pain_category,omitempty"`
	GTMPrimary          string `json:"gtm_primary,omitempty"`
	ProfitScore         int    `json:"profit_score,omitempty"`
	LTVScore            int    `json:"ltv_score,omitempty"`
	SpeedToCloseScore   int    `json:"speed_to_close_score,omitempty"`
	EconomicDrivers     string `json:"economic_drivers,omitempty"`
	NegativeICPs        string `json:"negative_icps,omitempty"`
	DiscoveryGuidance   string `json:"discovery_guidance,omitempty"`
}
