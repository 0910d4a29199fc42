package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ICP target types. "dewpoint" addresses the business owner's own
// operations; "internal" addresses the prospect's end customers.
const (
	ICPTypeDewpoint = "dewpoint"
	ICPTypeInternal = "internal"
)

// ErrMissingPainPoint is returned when a profile has no pain point.
// This is the only caller-facing validation failure of the orchestrator.
var ErrMissingPainPoint = eris.New("company profile: pain point is required")

// CompanyProfile holds the prospect facts submitted with a generation
// request. It lives for the duration of one request and is never persisted
// by the orchestrator.
type CompanyProfile struct {
	Industry    string         `json:"industry,omitempty"`
	Role        string         `json:"role,omitempty"`
	Size        string         `json:"size,omitempty"`
	PainPoint   string         `json:"painPoint"`
	Stack       []string       `json:"stack,omitempty"`
	URL         string         `json:"url,omitempty"`
	Description string         `json:"description,omitempty"`
	ScanContext map[string]any `json:"scanContext,omitempty"`
	ICPType     string         `json:"icpType,omitempty"`
}

// Validate checks the required fields.
func (c CompanyProfile) Validate() error {
	if strings.TrimSpace(c.PainPoint) == "" {
		return ErrMissingPainPoint
	}
	return nil
}

// EffectiveICPType returns the profile's ICP type, defaulting to "dewpoint".
func (c CompanyProfile) EffectiveICPType() string {
	if c.ICPType == ICPTypeInternal {
		return ICPTypeInternal
	}
	return ICPTypeDewpoint
}
