package orchestrator

import (
	"sort"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

// Rank filters and orders integrations into the candidate sequence the
// executor tries. Integrations without any credential material are dropped.
// Candidates sort ascending by effective priority, where priority 0 means
// unranked and sorts after every explicit rank; ties keep their stored
// order so operators can reason about the sequence.
func Rank(integrations []model.Integration) []model.Integration {
	candidates := make([]model.Integration, 0, len(integrations))
	for _, integ := range integrations {
		if integ.HasCredential() {
			candidates = append(candidates, integ)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EffectivePriority() < candidates[j].EffectivePriority()
	})
	return candidates
}
