package gateway

import (
	"fmt"
	"strings"

	"github.com/foresight-ai/foresight/internal/database"
	"github.com/foresight-ai/foresight/internal/types"
)

const scenarioSystemPrompt = `You are a risk analyst running a pre-mortem exercise. The initiative you
are given has already failed; your job is to explain how. Propose distinct,
concrete failure scenarios covering different risk categories (market,
technical, financial, operational, regulatory, people).

Respond with a single JSON object and nothing else:

{
  "scenarios": [
    {
      "title": "short scenario name",
      "description": "what happened and how it unfolded",
      "category": "market|technical|financial|operational|regulatory|people",
      "likelihood": 1-10,
      "impact": 1-10,
      "analysis": "root causes and early warning signs"
    }
  ]
}

Likelihood and impact are integers from 1 (negligible) to 10 (near-certain
or catastrophic). Propose between 5 and 8 scenarios.`

const mitigationSystemPrompt = `You are a risk analyst designing countermeasures for a specific failure
scenario identified during a pre-mortem. Propose practical mitigation
strategies that reduce the likelihood of the scenario or contain its
impact.

Respond with a single JSON object and nothing else:

{
  "mitigations": [
    {
      "title": "short strategy name",
      "description": "what to do and how it addresses the scenario",
      "estimated_cost": "low|medium|high",
      "estimated_time": "rough implementation time",
      "effectiveness": 0-100,
      "resources": "teams or resources required"
    }
  ]
}

Effectiveness is an integer estimate of how much of the risk the strategy
removes. Propose between 2 and 4 strategies.`

const reportSystemPrompt = `You are a risk analyst writing the narrative sections of a pre-mortem
report. You are given the initiative, the identified failure scenarios with
their risk scores, and the prioritized mitigation strategies.

Respond with a single JSON object and nothing else:

{
  "executive_summary": "two to four paragraphs summarizing the overall risk picture",
  "contingency_plans": [
    {
      "scenario_title": "title of a high-severity scenario",
      "plan": "what to do if this scenario materializes despite mitigations"
    }
  ],
  "recommendations": ["actionable recommendation", "..."]
}

Write contingency plans only for the highest-severity scenarios. Keep
recommendations concrete and ordered by importance.`

// scenarioUserPrompt renders the initiative for the scenario stage.
func scenarioUserPrompt(sim *database.Simulation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Initiative: %s\n", sim.Title)
	if sim.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", sim.Description)
	}
	writeContext(&b, sim.Context)
	writeParameters(&b, sim.Parameters)
	b.WriteString("\nThe initiative has failed. Explain how.")
	return b.String()
}

// mitigationUserPrompt renders one scenario for the mitigation stage.
func mitigationUserPrompt(sim *database.Simulation, sc *database.FailureScenario) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Initiative: %s\n", sim.Title)
	writeContext(&b, sim.Context)
	fmt.Fprintf(&b, "\nFailure scenario: %s\n", sc.Title)
	fmt.Fprintf(&b, "Category: %s\n", sc.Category)
	fmt.Fprintf(&b, "Description: %s\n", sc.Description)
	fmt.Fprintf(&b, "Likelihood: %d/10, Impact: %d/10\n", sc.Likelihood, sc.Impact)
	if sc.Analysis != "" {
		fmt.Fprintf(&b, "Analysis: %s\n", sc.Analysis)
	}
	b.WriteString("\nPropose mitigation strategies for this scenario.")
	return b.String()
}

// reportUserPrompt renders the full simulation state for the report stage.
func reportUserPrompt(sim *database.Simulation, scenarios []*database.FailureScenario, mitigations map[types.ID][]*database.MitigationStrategy, contingencyPlans int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Initiative: %s\n", sim.Title)
	if sim.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", sim.Description)
	}
	writeContext(&b, sim.Context)

	b.WriteString("\nFailure scenarios (risk score = likelihood x impact):\n")
	for _, sc := range scenarios {
		fmt.Fprintf(&b, "- %s [%s] likelihood %d, impact %d, risk %d\n",
			sc.Title, sc.Category, sc.Likelihood, sc.Impact, sc.RiskScore)
		for _, m := range mitigations[sc.ID] {
			fmt.Fprintf(&b, "  - mitigation (%s): %s", m.Priority, m.Title)
			if m.Effectiveness != nil {
				fmt.Fprintf(&b, " (effectiveness %d)", *m.Effectiveness)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nWrite the narrative sections of the pre-mortem report.")
	if contingencyPlans > 0 {
		fmt.Fprintf(&b, " Include contingency plans for the %d highest-severity scenarios.", contingencyPlans)
	}
	return b.String()
}

func writeContext(b *strings.Builder, c database.InitiativeContext) {
	if c.BusinessType != "" {
		fmt.Fprintf(b, "Business type: %s\n", c.BusinessType)
	}
	if c.Timeline != "" {
		fmt.Fprintf(b, "Timeline: %s\n", c.Timeline)
	}
	if c.Budget != "" {
		fmt.Fprintf(b, "Budget: %s\n", c.Budget)
	}
	if c.TeamSize > 0 {
		fmt.Fprintf(b, "Team size: %d\n", c.TeamSize)
	}
}

func writeParameters(b *strings.Builder, p database.SimulationParameters) {
	if p.RiskTolerance != "" {
		fmt.Fprintf(b, "Risk tolerance: %s\n", p.RiskTolerance)
	}
	if len(p.FocusAreas) > 0 {
		fmt.Fprintf(b, "Focus areas: %s\n", strings.Join(p.FocusAreas, ", "))
	}
}
