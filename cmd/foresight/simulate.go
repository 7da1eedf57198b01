package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foresight-ai/foresight/internal/database"
	"github.com/foresight-ai/foresight/internal/types"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run and inspect pre-mortem simulations",
}

var (
	simTitle         string
	simDescription   string
	simBusinessType  string
	simTimeline      string
	simBudget        string
	simTeamSize      int
	simRiskTolerance string
	simFocusAreas    []string
	simWait          bool

	listStatus string
)

var simulateStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Create a simulation and start the pipeline",
	RunE:  runSimulateStart,
}

var simulateStatusCmd = &cobra.Command{
	Use:   "status <simulation-id>",
	Short: "Show the status of a simulation",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimulateStatus,
}

var simulateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List simulations",
	RunE:  runSimulateList,
}

func init() {
	simulateStartCmd.Flags().StringVar(&simTitle, "title", "", "Initiative title (required)")
	simulateStartCmd.Flags().StringVar(&simDescription, "description", "", "Initiative description")
	simulateStartCmd.Flags().StringVar(&simBusinessType, "business-type", "", "Business type")
	simulateStartCmd.Flags().StringVar(&simTimeline, "timeline", "", "Initiative timeline")
	simulateStartCmd.Flags().StringVar(&simBudget, "budget", "", "Initiative budget")
	simulateStartCmd.Flags().IntVar(&simTeamSize, "team-size", 0, "Team size")
	simulateStartCmd.Flags().StringVar(&simRiskTolerance, "risk-tolerance", "", "Risk tolerance (low, moderate, high)")
	simulateStartCmd.Flags().StringSliceVar(&simFocusAreas, "focus", nil, "Risk categories to focus on")
	simulateStartCmd.Flags().BoolVar(&simWait, "wait", false, "Block until the simulation reaches a terminal state")
	simulateStartCmd.MarkFlagRequired("title")

	simulateListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")

	simulateCmd.AddCommand(simulateStartCmd)
	simulateCmd.AddCommand(simulateStatusCmd)
	simulateCmd.AddCommand(simulateListCmd)
}

func runSimulateStart(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sim := &database.Simulation{
		Title:       simTitle,
		Description: simDescription,
		Context: database.InitiativeContext{
			BusinessType: simBusinessType,
			Timeline:     simTimeline,
			Budget:       simBudget,
			TeamSize:     simTeamSize,
		},
		Parameters: database.SimulationParameters{
			RiskTolerance: simRiskTolerance,
			FocusAreas:    simFocusAreas,
		},
	}

	if err := a.simulations.Create(cmd.Context(), sim); err != nil {
		return err
	}
	if err := a.controller.Start(cmd.Context(), sim.ID); err != nil {
		return err
	}

	cmd.Printf("Simulation %s started\n", sim.ID)

	if !simWait {
		cmd.Printf("Track progress with: foresight simulate status %s\n", sim.ID)
		return nil
	}

	final, err := waitForTerminal(cmd.Context(), a, sim.ID)
	if err != nil {
		return err
	}
	printSimulation(cmd, final)
	if final.Status == database.SimulationStatusCompleted {
		cmd.Printf("View the report with: foresight report show %s\n", sim.ID)
	}
	return nil
}

// waitForTerminal polls until the simulation completes or fails.
func waitForTerminal(ctx context.Context, a *app, id types.ID) (*database.Simulation, error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		sim, err := a.simulations.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sim.Status.IsTerminal() {
			return sim, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func runSimulateStatus(cmd *cobra.Command, args []string) error {
	id, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sim, err := a.simulations.GetByID(cmd.Context(), id)
	if err != nil {
		return err
	}

	printSimulation(cmd, sim)

	count, err := a.scenarios.CountBySimulation(cmd.Context(), sim.ID)
	if err != nil {
		return err
	}
	cmd.Printf("Scenarios: %d\n", count)

	return nil
}

func runSimulateList(cmd *cobra.Command, args []string) error {
	status := database.SimulationStatus(listStatus)
	if listStatus != "" && !status.IsValid() {
		return fmt.Errorf("unknown status %q", listStatus)
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sims, err := a.simulations.List(cmd.Context(), status)
	if err != nil {
		return err
	}
	if len(sims) == 0 {
		cmd.Println("No simulations found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tCREATED")
	for _, sim := range sims {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			sim.ID,
			truncate(sim.Title, 40),
			colorStatus(sim.Status),
			sim.CreatedAt.Format(time.RFC3339),
		)
	}
	return w.Flush()
}

func printSimulation(cmd *cobra.Command, sim *database.Simulation) {
	cmd.Printf("ID:      %s\n", sim.ID)
	cmd.Printf("Title:   %s\n", sim.Title)
	cmd.Printf("Status:  %s\n", colorStatus(sim.Status))
	if sim.Error != "" {
		cmd.Printf("Error:   %s\n", sim.Error)
	}
	if sim.CompletedAt != nil {
		cmd.Printf("Done at: %s\n", sim.CompletedAt.Format(time.RFC3339))
	}
}

// colorStatus renders a status with its conventional color.
func colorStatus(status database.SimulationStatus) string {
	switch status {
	case database.SimulationStatusCompleted:
		return color.GreenString(string(status))
	case database.SimulationStatusFailed:
		return color.RedString(string(status))
	case database.SimulationStatusPending:
		return color.HiBlackString(string(status))
	default:
		return color.YellowString(string(status))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-3]) + "..."
}
