package model

import (
	"math"
	"strings"
	"time"
)

// Provider kinds an integration can dispatch to.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// DefaultDailyLimitUSD applies when an integration has no explicit budget cap.
const DefaultDailyLimitUSD = 5.00

// Integration is one configured AI provider credential/model pairing.
// Credential fields hold ciphertext; they are decrypted only at the moment
// of a provider call, after the budget check has passed.
type Integration struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Provider  string         `json:"provider,omitempty"`
	AuthType  string         `json:"auth_type,omitempty"`
	BaseURL   string         `json:"base_url,omitempty"`
	APIKey    string         `json:"-"`
	APISecret string         `json:"-"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Priority  int            `json:"priority"`
	Enabled   bool           `json:"enabled"`
	CreatedAt time.Time      `json:"created_at"`
}

// HasCredential reports whether the integration carries any key material.
func (i Integration) HasCredential() bool {
	return i.APIKey != "" || i.APISecret != ""
}

// EffectivePriority maps the stored priority to a sort key. Priority 0
// means the operator never ranked the integration; it must participate as
// a last resort, never ahead of any explicit rank.
func (i Integration) EffectivePriority() int {
	if i.Priority == 0 {
		return math.MaxInt
	}
	return i.Priority
}

// ModelOverride returns the explicit model id from metadata, if set.
func (i Integration) ModelOverride() string {
	if s, ok := i.Metadata["model"].(string); ok {
		return s
	}
	return ""
}

// DailyLimitUSD returns the integration's daily spend cap.
func (i Integration) DailyLimitUSD() float64 {
	switch v := i.Metadata["daily_limit_usd"].(type) {
	case float64:
		if v > 0 {
			return v
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	}
	return DefaultDailyLimitUSD
}

// LastError returns the last recorded provider error, if any.
func (i Integration) LastError() string {
	if s, ok := i.Metadata["last_error"].(string); ok {
		return s
	}
	return ""
}

// ProviderKind resolves the provider to dispatch to. The explicit provider
// column wins; otherwise the integration name is matched against provider
// keywords. Unrecognized names default to the OpenAI-compatible path, which
// is what most third-party gateways speak.
func (i Integration) ProviderKind() string {
	switch strings.ToLower(i.Provider) {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
		return strings.ToLower(i.Provider)
	}
	name := strings.ToLower(i.Name)
	switch {
	case strings.Contains(name, "gemini") || strings.Contains(name, "google"):
		return ProviderGemini
	case strings.Contains(name, "anthropic") || strings.Contains(name, "claude"):
		return ProviderAnthropic
	default:
		return ProviderOpenAI
	}
}
