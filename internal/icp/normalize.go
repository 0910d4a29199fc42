package icp

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dewpoint-ai/blueprint-cli/pkg/openai"
)

const normalizeSystemPrompt = `You are an industry classification assistant. Map the user's free-text industry description to exactly one label from the provided canonical list. If none fits, answer "General". Respond as JSON: {"industry": "<label>"}.`

// IndustryLister exposes the canonical industry labels.
type IndustryLister interface {
	ListIndustries(ctx context.Context) ([]string, error)
}

// NormalizationService maps free-text industry descriptions to canonical
// labels with a single cheap model call. Results are memoized for the
// process lifetime and concurrent requests for the same label are
// deduplicated, so repeated lookups cost nothing.
type NormalizationService struct {
	client openai.Client
	lister IndustryLister

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]string
}

// NewNormalizationService creates a NormalizationService.
func NewNormalizationService(client openai.Client, lister IndustryLister) *NormalizationService {
	return &NormalizationService{
		client: client,
		lister: lister,
		cache:  map[string]string{},
	}
}

// NormalizeIndustry returns the canonical label for a raw industry
// description, or "" when no canonical label applies.
func (s *NormalizationService) NormalizeIndustry(ctx context.Context, industry string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(industry))
	if key == "" {
		return "", nil
	}

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		label, err := s.classify(ctx, industry)
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.cache[key] = label
		s.mu.Unlock()
		return label, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (s *NormalizationService) classify(ctx context.Context, industry string) (string, error) {
	known, err := s.lister.ListIndustries(ctx)
	if err != nil {
		return "", eris.Wrap(err, "icp: list industries")
	}
	if len(known) == 0 {
		return "", nil
	}

	// Cheap direct match before spending a model call.
	for _, label := range known {
		if strings.EqualFold(label, strings.TrimSpace(industry)) {
			return label, nil
		}
	}

	raw, err := s.client.GenerateJSON(ctx, openai.GenerateRequest{
		SystemPrompt: normalizeSystemPrompt + "\n\nCanonical list: " + strings.Join(known, ", "),
		UserContext:  industry,
		Model:        "gpt-4o-mini",
	})
	if err != nil {
		return "", eris.Wrap(err, "icp: normalize industry")
	}

	label := extractLabel(raw)
	if label == "" || strings.EqualFold(label, "general") {
		return "", nil
	}

	// Model output occasionally drifts in casing; align it with the
	// canonical list before the retry lookup.
	title := cases.Title(language.English)
	for _, knownLabel := range known {
		if strings.EqualFold(knownLabel, label) {
			return knownLabel, nil
		}
	}
	normalized := title.String(strings.ToLower(label))
	zap.L().Debug("normalized industry not in canonical list",
		zap.String("industry", industry), zap.String("label", normalized))
	return normalized, nil
}

func extractLabel(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if s, ok := v["industry"].(string); ok {
			return strings.TrimSpace(s)
		}
		if s, ok := v["label"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
