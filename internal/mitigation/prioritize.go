// Package mitigation assigns priority tiers to mitigation strategies and
// orders them for presentation.
package mitigation

import (
	"sort"
	"strings"

	"github.com/foresight-ai/foresight/internal/database"
)

// Cost ranks for the tie-break. Unrecognized cost strings rank as medium.
const (
	costLow = iota
	costMedium
	costHigh
)

// Prioritize assigns a priority tier to every strategy and orders them by
// tier (critical first), then effectiveness descending, then original order.
// It must be called with the strategies of a single scenario: grouping by
// owning scenario is the caller's concern and is never altered here.
//
// Tier assignment is deterministic: effectiveness is the primary signal and
// estimated cost the tie-break; a high cost demotes a strategy one tier.
// Strategies without an effectiveness score default to medium rather than
// being excluded. The input slice is not modified; positions are rewritten
// on the returned ordering.
func Prioritize(strategies []*database.MitigationStrategy) []*database.MitigationStrategy {
	out := make([]*database.MitigationStrategy, len(strategies))
	copy(out, strategies)

	for _, m := range out {
		m.Priority = tierFor(m.Effectiveness, m.EstimatedCost)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority.Rank() < out[j].Priority.Rank()
		}
		return effectivenessOf(out[i]) > effectivenessOf(out[j])
	})

	for i, m := range out {
		m.Position = i
	}

	return out
}

// tierFor classifies one strategy.
func tierFor(effectiveness *int, estimatedCost string) database.PriorityTier {
	if effectiveness == nil {
		return database.PriorityMedium
	}

	expensive := costRank(estimatedCost) == costHigh

	switch eff := *effectiveness; {
	case eff >= 80:
		if expensive {
			return database.PriorityHigh
		}
		return database.PriorityCritical
	case eff >= 60:
		if expensive {
			return database.PriorityMedium
		}
		return database.PriorityHigh
	case eff >= 40:
		return database.PriorityMedium
	default:
		return database.PriorityLow
	}
}

// costRank normalizes a free-form cost bucket string.
func costRank(estimatedCost string) int {
	c := strings.ToLower(estimatedCost)
	switch {
	case strings.Contains(c, "low") || strings.Contains(c, "minimal"):
		return costLow
	case strings.Contains(c, "high") || strings.Contains(c, "significant"):
		return costHigh
	default:
		return costMedium
	}
}

// effectivenessOf treats a missing score as lower than any present score so
// unscored strategies sort after scored ones within the same tier.
func effectivenessOf(m *database.MitigationStrategy) int {
	if m.Effectiveness == nil {
		return -1
	}
	return *m.Effectiveness
}
