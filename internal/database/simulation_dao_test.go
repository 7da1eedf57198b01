package database

import (
	"context"
	"errors"
	"testing"

	"github.com/foresight-ai/foresight/internal/types"
)

func TestCreateAndGetSimulation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	dao := NewSimulationDAO(db)

	sim := &Simulation{
		Title:       "Launch mobile app",
		Description: "Ship the consumer mobile app in Q3",
		Context: InitiativeContext{
			BusinessType: "saas",
			Timeline:     "3 months",
			Budget:       "$250k",
			TeamSize:     6,
		},
		Parameters: SimulationParameters{
			RiskTolerance: "moderate",
			FocusAreas:    []string{"technical", "market"},
		},
		Status: SimulationStatusPending,
	}

	if err := dao.Create(ctx, sim); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sim.ID == "" {
		t.Fatal("expected ID to be auto-generated")
	}

	got, err := dao.GetByID(ctx, sim.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != sim.Title {
		t.Errorf("expected title %q, got %q", sim.Title, got.Title)
	}
	if got.Context.TeamSize != 6 {
		t.Errorf("expected team size 6, got %d", got.Context.TeamSize)
	}
	if len(got.Parameters.FocusAreas) != 2 {
		t.Errorf("expected 2 focus areas, got %d", len(got.Parameters.FocusAreas))
	}
	if got.Status != SimulationStatusPending {
		t.Errorf("expected status pending, got %s", got.Status)
	}
	if got.CompletedAt != nil {
		t.Error("expected nil CompletedAt")
	}
}

func TestGetSimulationNotFound(t *testing.T) {
	db := setupTestDB(t)
	dao := NewSimulationDAO(db)

	_, err := dao.GetByID(context.Background(), types.NewID())
	if err == nil {
		t.Fatal("expected error for missing simulation")
	}
	if !errors.Is(err, types.NewError(types.SIMULATION_NOT_FOUND, "")) {
		t.Errorf("expected SIMULATION_NOT_FOUND, got %v", err)
	}
}

func TestUpdateStatusAndMarkFailed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	dao := NewSimulationDAO(db)

	sim := &Simulation{Title: "t", Status: SimulationStatusPending}
	if err := dao.Create(ctx, sim); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := dao.UpdateStatus(ctx, sim.ID, SimulationStatusInProgress); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	if err := dao.MarkFailed(ctx, sim.ID, "generation service unavailable"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	got, err := dao.GetByID(ctx, sim.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != SimulationStatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if got.Error != "generation service unavailable" {
		t.Errorf("expected recorded error, got %q", got.Error)
	}
}

func TestMarkCompletedStampsCompletion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	dao := NewSimulationDAO(db)

	sim := &Simulation{Title: "t", Status: SimulationStatusMitigationsGenerated}
	if err := dao.Create(ctx, sim); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := dao.MarkCompleted(ctx, sim.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	got, _ := dao.GetByID(ctx, sim.ID)
	if got.Status != SimulationStatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	dao := NewSimulationDAO(db)

	sim := &Simulation{Title: "t", Status: SimulationStatusPending}
	if err := dao.Create(ctx, sim); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Skipping straight to completed is not in the transition table.
	err := dao.UpdateStatus(ctx, sim.ID, SimulationStatusCompleted)
	if !types.HasCode(err, types.SIMULATION_INVALID_STATE) {
		t.Fatalf("expected SIMULATION_INVALID_STATE, got %v", err)
	}

	got, _ := dao.GetByID(ctx, sim.ID)
	if got.Status != SimulationStatusPending {
		t.Errorf("rejected transition must not write; status is %s", got.Status)
	}
}

func TestMarkFailedRejectsTerminalSimulation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	dao := NewSimulationDAO(db)

	sim := &Simulation{Title: "t", Status: SimulationStatusCompleted}
	if err := dao.Create(ctx, sim); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := dao.MarkFailed(ctx, sim.ID, "too late")
	if !types.HasCode(err, types.SIMULATION_INVALID_STATE) {
		t.Fatalf("expected SIMULATION_INVALID_STATE, got %v", err)
	}

	got, _ := dao.GetByID(ctx, sim.ID)
	if got.Status != SimulationStatusCompleted {
		t.Errorf("terminal status must be absorbing; status is %s", got.Status)
	}
	if got.Error != "" {
		t.Errorf("rejected MarkFailed must not record an error, got %q", got.Error)
	}
}

func TestMarkCompletedRejectsOutOfOrderTransition(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	dao := NewSimulationDAO(db)

	sim := &Simulation{Title: "t", Status: SimulationStatusInProgress}
	if err := dao.Create(ctx, sim); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := dao.MarkCompleted(ctx, sim.ID)
	if !types.HasCode(err, types.SIMULATION_INVALID_STATE) {
		t.Fatalf("expected SIMULATION_INVALID_STATE, got %v", err)
	}
	got, _ := dao.GetByID(ctx, sim.ID)
	if got.CompletedAt != nil {
		t.Error("rejected MarkCompleted must not stamp completion")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	dao := NewSimulationDAO(db)

	for _, status := range []SimulationStatus{
		SimulationStatusPending,
		SimulationStatusCompleted,
		SimulationStatusCompleted,
	} {
		if err := dao.Create(ctx, &Simulation{Title: "t", Status: status}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	completed, err := dao.List(ctx, SimulationStatusCompleted)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(completed) != 2 {
		t.Errorf("expected 2 completed simulations, got %d", len(completed))
	}

	all, err := dao.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 simulations, got %d", len(all))
	}
}

func TestStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from, to SimulationStatus
		ok       bool
	}{
		{SimulationStatusPending, SimulationStatusInProgress, true},
		{SimulationStatusInProgress, SimulationStatusScenariosGenerated, true},
		{SimulationStatusInProgress, SimulationStatusFailed, true},
		{SimulationStatusScenariosGenerated, SimulationStatusMitigationsGenerated, true},
		{SimulationStatusScenariosGenerated, SimulationStatusFailed, true},
		{SimulationStatusMitigationsGenerated, SimulationStatusCompleted, true},
		{SimulationStatusMitigationsGenerated, SimulationStatusFailed, true},

		// One-directional: no going back, no skipping.
		{SimulationStatusPending, SimulationStatusScenariosGenerated, false},
		{SimulationStatusInProgress, SimulationStatusPending, false},
		{SimulationStatusInProgress, SimulationStatusCompleted, false},
		{SimulationStatusScenariosGenerated, SimulationStatusInProgress, false},

		// Terminal states are absorbing.
		{SimulationStatusCompleted, SimulationStatusInProgress, false},
		{SimulationStatusCompleted, SimulationStatusFailed, false},
		{SimulationStatusFailed, SimulationStatusInProgress, false},
		{SimulationStatusFailed, SimulationStatusCompleted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if !SimulationStatusCompleted.IsTerminal() {
		t.Error("completed should be terminal")
	}
	if !SimulationStatusFailed.IsTerminal() {
		t.Error("failed should be terminal")
	}
	if SimulationStatusInProgress.IsTerminal() {
		t.Error("in_progress should not be terminal")
	}
}
