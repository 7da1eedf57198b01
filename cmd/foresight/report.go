package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foresight-ai/foresight/internal/report"
	"github.com/foresight-ai/foresight/internal/risk"
	"github.com/foresight-ai/foresight/internal/types"
)

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect pre-mortem reports",
}

var reportShowCmd = &cobra.Command{
	Use:   "show <simulation-id>",
	Short: "Show the report for a simulation",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

func init() {
	reportShowCmd.Flags().BoolVar(&reportJSON, "json", false, "Emit the raw report as JSON")
	reportCmd.AddCommand(reportShowCmd)
}

func runReportShow(cmd *cobra.Command, args []string) error {
	id, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	stored, err := a.reports.GetBySimulation(cmd.Context(), id)
	if err != nil {
		return err
	}

	if reportJSON {
		out, err := json.MarshalIndent(stored, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	}

	var (
		topRisks      []report.ScenarioRef
		matrix        []report.MatrixCell
		plan          []report.PlanEntry
		contingencies []report.ContingencyPlan
		recs          []string
	)
	if err := json.Unmarshal(stored.TopRisks, &topRisks); err != nil {
		return fmt.Errorf("corrupt top-risks section: %w", err)
	}
	if err := json.Unmarshal(stored.RiskMatrix, &matrix); err != nil {
		return fmt.Errorf("corrupt risk-matrix section: %w", err)
	}
	if err := json.Unmarshal(stored.MitigationPlan, &plan); err != nil {
		return fmt.Errorf("corrupt mitigation-plan section: %w", err)
	}
	if err := json.Unmarshal(stored.ContingencyPlans, &contingencies); err != nil {
		return fmt.Errorf("corrupt contingency section: %w", err)
	}
	if err := json.Unmarshal(stored.Recommendations, &recs); err != nil {
		return fmt.Errorf("corrupt recommendations section: %w", err)
	}

	heading := color.New(color.Bold, color.Underline)

	heading.Fprintln(cmd.OutOrStdout(), "Executive Summary")
	cmd.Printf("%s\n\n", stored.ExecutiveSummary)

	heading.Fprintln(cmd.OutOrStdout(), "Top Risks")
	for i, r := range topRisks {
		cmd.Printf("%d. %s [%s] risk %s (likelihood %d, impact %d)\n",
			i+1, r.Title, r.Category, colorScore(r.RiskScore), r.Likelihood, r.Impact)
	}
	cmd.Println()

	heading.Fprintln(cmd.OutOrStdout(), "Risk Matrix")
	for _, cell := range matrix {
		cmd.Printf("likelihood %s / impact %s:\n", cell.Likelihood, cell.Impact)
		for _, r := range cell.Scenarios {
			cmd.Printf("  - %s (risk %d)\n", r.Title, r.RiskScore)
		}
	}
	cmd.Println()

	heading.Fprintln(cmd.OutOrStdout(), "Mitigation Plan")
	for _, entry := range plan {
		cmd.Printf("%s (risk %d):\n", entry.ScenarioTitle, entry.RiskScore)
		for _, s := range entry.Strategies {
			line := fmt.Sprintf("  [%s] %s", s.Priority, s.Title)
			if s.Effectiveness != nil {
				line += fmt.Sprintf(" (effectiveness %d)", *s.Effectiveness)
			}
			cmd.Println(line)
		}
	}
	cmd.Println()

	if len(contingencies) > 0 {
		heading.Fprintln(cmd.OutOrStdout(), "Contingency Plans")
		for _, c := range contingencies {
			cmd.Printf("%s:\n  %s\n", c.ScenarioTitle, c.Plan)
		}
		cmd.Println()
	}

	if len(recs) > 0 {
		heading.Fprintln(cmd.OutOrStdout(), "Recommendations")
		for i, r := range recs {
			cmd.Printf("%d. %s\n", i+1, r)
		}
	}

	return nil
}

// colorScore renders a 0-100 risk score colored by severity.
func colorScore(score int) string {
	switch {
	case score >= risk.ScoreMax/2:
		return color.RedString("%d", score)
	case score >= risk.ScoreMax/5:
		return color.YellowString("%d", score)
	default:
		return color.GreenString("%d", score)
	}
}
