package risk

import (
	"sort"

	"github.com/foresight-ai/foresight/internal/database"
)

// Rank orders scenarios by risk score, descending. The sort is stable:
// scenarios with equal scores keep their generation order, so top-risks
// selection is reproducible. No items are dropped or deduplicated. The
// input slice is not modified.
func Rank(scenarios []*database.FailureScenario) []*database.FailureScenario {
	ranked := make([]*database.FailureScenario, len(scenarios))
	copy(ranked, scenarios)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RiskScore > ranked[j].RiskScore
	})

	return ranked
}
