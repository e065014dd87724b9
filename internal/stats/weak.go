// Package stats contains statistics calculations and reporting.
package stats

import (
	"sort"

	"github.com/verte-zerg/keydrill/internal/keys"
	"github.com/verte-zerg/keydrill/internal/model"
)

// SelectWeakShortcuts picks the shortcuts with the worst historical attempt
// averages. The result is keyed by normalized key sequence so callers can
// match it against shortcut definitions regardless of modifier spelling.
func SelectWeakShortcuts(aggs []model.AttemptAggregate, top int) map[string]struct{} {
	weakSet := map[string]struct{}{}
	if len(aggs) == 0 {
		return weakSet
	}
	candidates := make([]model.AttemptAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		ai := averageAttempts(candidates[i])
		aj := averageAttempts(candidates[j])
		if ai == aj {
			return candidates[i].Keys < candidates[j].Keys
		}
		return ai > aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for i := 0; i < top; i++ {
		weakSet[keys.NormalizeSequence(candidates[i].Keys)] = struct{}{}
	}
	return weakSet
}

func averageAttempts(agg model.AttemptAggregate) float64 {
	if agg.Completions == 0 {
		return 0
	}
	return float64(agg.AttemptSum) / float64(agg.Completions)
}
