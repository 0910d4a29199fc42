package model

import "time"

// UsageRecord is one append-only token/cost accounting row. Records are
// written asynchronously after a successful provider call and never read
// back by the generation path.
type UsageRecord struct {
	ID               string    `json:"id"`
	UserID           int64     `json:"user_id,omitempty"`
	ShadowID         string    `json:"shadow_id,omitempty"`
	IntegrationID    int64     `json:"integration_id"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	Timestamp        time.Time `json:"timestamp"`
}

// Subject classifies the accounting identity for log fields: "user" for an
// authenticated request, "shadow" for an anonymous session, "anonymous"
// when neither id is present.
func (u UsageRecord) Subject() string {
	if u.UserID != 0 {
		return "user"
	}
	if u.ShadowID != "" {
		return "shadow"
	}
	return "anonymous"
}
