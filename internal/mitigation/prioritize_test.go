package mitigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foresight-ai/foresight/internal/database"
)

func strategy(title string, effectiveness *int, cost string) *database.MitigationStrategy {
	return &database.MitigationStrategy{
		Title:         title,
		Effectiveness: effectiveness,
		EstimatedCost: cost,
	}
}

func intp(v int) *int { return &v }

func TestPrioritizeAssignsTiers(t *testing.T) {
	out := Prioritize([]*database.MitigationStrategy{
		strategy("cheap and effective", intp(90), "low"),
		strategy("expensive and effective", intp(90), "high"),
		strategy("solid", intp(65), "medium"),
		strategy("solid but costly", intp(65), "high"),
		strategy("middling", intp(45), "low"),
		strategy("weak", intp(20), "low"),
	})

	byTitle := make(map[string]database.PriorityTier)
	for _, m := range out {
		byTitle[m.Title] = m.Priority
	}

	assert.Equal(t, database.PriorityCritical, byTitle["cheap and effective"])
	assert.Equal(t, database.PriorityHigh, byTitle["expensive and effective"])
	assert.Equal(t, database.PriorityHigh, byTitle["solid"])
	assert.Equal(t, database.PriorityMedium, byTitle["solid but costly"])
	assert.Equal(t, database.PriorityMedium, byTitle["middling"])
	assert.Equal(t, database.PriorityLow, byTitle["weak"])
}

func TestPrioritizeDefaultsMissingEffectivenessToMedium(t *testing.T) {
	out := Prioritize([]*database.MitigationStrategy{
		strategy("unscored", nil, "high"),
	})

	require.Len(t, out, 1)
	assert.Equal(t, database.PriorityMedium, out[0].Priority)
}

func TestPrioritizeOrdersByTierThenEffectiveness(t *testing.T) {
	out := Prioritize([]*database.MitigationStrategy{
		strategy("low tier", intp(10), "low"),
		strategy("unscored", nil, "medium"),
		strategy("critical", intp(95), "low"),
		strategy("high effectiveness medium tier", intp(50), "medium"),
		strategy("high tier", intp(70), "low"),
	})

	titles := make([]string, len(out))
	for i, m := range out {
		titles[i] = m.Title
	}

	assert.Equal(t, []string{
		"critical",
		"high tier",
		"high effectiveness medium tier",
		"unscored", // medium tier, unscored sorts after scored
		"low tier",
	}, titles)

	// Positions rewritten to the prioritized order.
	for i, m := range out {
		assert.Equal(t, i, m.Position)
	}
}

func TestPrioritizeStableOnEqualTierAndEffectiveness(t *testing.T) {
	out := Prioritize([]*database.MitigationStrategy{
		strategy("first", intp(50), "medium"),
		strategy("second", intp(50), "medium"),
	})

	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "second", out[1].Title)
}

func TestPrioritizeEveryItemGetsATier(t *testing.T) {
	out := Prioritize([]*database.MitigationStrategy{
		strategy("a", nil, ""),
		strategy("b", intp(100), "free"),
		strategy("c", intp(0), "astronomical"),
	})

	require.Len(t, out, 3)
	for _, m := range out {
		assert.True(t, m.Priority.IsValid(), "strategy %q missing tier", m.Title)
	}
}
