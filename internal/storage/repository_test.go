package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/darkha03/MyCount/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testPlan() *core.Plan {
	return &core.Plan{
		HashID: "abc12345",
		Name:   "Road trip",
		Participants: []core.Participant{
			{Name: "Alice", Role: core.RoleOwner},
			{Name: "Bob", Role: core.RoleMember},
		},
	}
}

func TestPlanRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	plan := testPlan()
	if err := repo.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if plan.ID == 0 {
		t.Fatal("expected plan ID to be assigned")
	}
	for i, pp := range plan.Participants {
		if pp.ID == 0 {
			t.Fatalf("participant %d has no ID", i)
		}
	}

	got, err := repo.GetPlanByHash(ctx, "abc12345")
	if err != nil {
		t.Fatalf("GetPlanByHash: %v", err)
	}
	if got.Name != "Road trip" || len(got.Participants) != 2 {
		t.Fatalf("unexpected plan: %+v", got)
	}
	if got.Participants[0].Name != "Alice" || got.Participants[1].Name != "Bob" {
		t.Fatalf("participant order not preserved: %+v", got.Participants)
	}

	if _, err := repo.GetPlanByHash(ctx, "missing"); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}

	plans, err := repo.ListPlans(ctx)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 1 || len(plans[0].Participants) != 2 {
		t.Fatalf("unexpected plan list: %+v", plans)
	}
}

func TestUpdatePlanPreservesParticipantIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	plan := testPlan()
	if err := repo.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	aliceID := plan.Participants[0].ID

	plan.Name = "Summer trip"
	plan.Participants = append(plan.Participants, core.Participant{Name: "Carol", Role: core.RoleMember})
	if err := repo.UpdatePlan(ctx, plan); err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}

	got, err := repo.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Name != "Summer trip" {
		t.Fatalf("name not updated: %q", got.Name)
	}
	if len(got.Participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(got.Participants))
	}
	if got.Participants[0].ID != aliceID {
		t.Fatalf("existing participant ID changed: %d != %d", got.Participants[0].ID, aliceID)
	}
	if got.Participants[2].Name != "Carol" {
		t.Fatalf("new participant appended out of order: %+v", got.Participants)
	}
}

func TestJoinPlanClaimsOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	plan := testPlan()
	if err := repo.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	if err := repo.JoinPlan(ctx, plan.HashID, "Bob", 42); err != nil {
		t.Fatalf("JoinPlan: %v", err)
	}
	if err := repo.JoinPlan(ctx, plan.HashID, "Bob", 43); !errors.Is(err, ErrParticipantClaimed) {
		t.Fatalf("expected ErrParticipantClaimed, got %v", err)
	}
	if err := repo.JoinPlan(ctx, plan.HashID, "Dave", 42); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
	if err := repo.JoinPlan(ctx, "missing", "Bob", 42); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}

	got, err := repo.GetPlanByHash(ctx, plan.HashID)
	if err != nil {
		t.Fatalf("GetPlanByHash: %v", err)
	}
	if got.Participants[1].UserID == nil || *got.Participants[1].UserID != 42 {
		t.Fatalf("Bob not claimed by user 42: %+v", got.Participants[1])
	}
}

func seedExpense(t *testing.T, repo *SQLiteRepository, plan *core.Plan, name string, cents int64) *core.Expense {
	t.Helper()
	date, _ := core.ParseDate("2026-08-01")
	e := &core.Expense{
		PlanID: plan.ID,
		Name:   name,
		Amount: core.Money{Cents: cents},
		Payer:  "Alice",
		Date:   date,
		Shares: []core.Share{
			{ParticipantID: &plan.Participants[0].ID, Name: "Alice", Amount: core.Money{Cents: cents / 2}},
			{ParticipantID: &plan.Participants[1].ID, Name: "Bob", Amount: core.Money{Cents: cents - cents/2}},
		},
	}
	if err := repo.CreateExpense(context.Background(), e); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	return e
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	plan := testPlan()
	if err := repo.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	e := seedExpense(t, repo, plan, "Dinner", 3000)

	got, err := repo.GetExpense(ctx, plan.ID, e.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.Name != "Dinner" || got.Amount.Cents != 3000 || got.Payer != "Alice" {
		t.Fatalf("unexpected expense: %+v", got)
	}
	if got.Date.String() != "2026-08-01" {
		t.Fatalf("date mangled: %q", got.Date.String())
	}
	if len(got.Shares) != 2 || got.Shares[0].Amount.Cents+got.Shares[1].Amount.Cents != 3000 {
		t.Fatalf("shares do not cover the amount: %+v", got.Shares)
	}

	e.Name = "Dinner out"
	e.Amount = core.Money{Cents: 3600}
	e.Shares = []core.Share{
		{ParticipantID: &plan.Participants[0].ID, Name: "Alice", Amount: core.Money{Cents: 3600}},
	}
	if err := repo.UpdateExpense(ctx, e); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	got, err = repo.GetExpense(ctx, plan.ID, e.ID)
	if err != nil {
		t.Fatalf("GetExpense after update: %v", err)
	}
	if got.Amount.Cents != 3600 || len(got.Shares) != 1 {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := repo.DeleteExpense(ctx, plan.ID, e.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, err := repo.GetExpense(ctx, plan.ID, e.ID); !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
	if err := repo.DeleteExpense(ctx, plan.ID, e.ID); !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound on double delete, got %v", err)
	}
}

func TestPlanTotalsSkipReimbursements(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	plan := testPlan()
	if err := repo.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	seedExpense(t, repo, plan, "Dinner", 3000)
	seedExpense(t, repo, plan, "Fuel", 2000)
	seedExpense(t, repo, plan, core.ReimbursementName, 1500)

	totals, err := repo.PlanTotals(ctx)
	if err != nil {
		t.Fatalf("PlanTotals: %v", err)
	}
	if totals[plan.ID] != 5000 {
		t.Fatalf("expected 5000 cents, got %d", totals[plan.ID])
	}
}

func TestExportBookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	plan := testPlan()
	if err := repo.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	a := seedExpense(t, repo, plan, "Dinner", 3000)
	b := seedExpense(t, repo, plan, "Fuel", 2000)

	pending, err := repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExport: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}

	if err := repo.MarkExported(ctx, a.ID); err != nil {
		t.Fatalf("MarkExported: %v", err)
	}
	if err := repo.MarkExportError(ctx, b.ID); err != nil {
		t.Fatalf("MarkExportError: %v", err)
	}
	pending, err = repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExport: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending after bookkeeping, got %d", len(pending))
	}

	// An update flips the expense back to pending so it gets re-exported.
	a.Name = "Dinner out"
	if err := repo.UpdateExpense(ctx, a); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	pending, err = repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExport: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Fatalf("expected updated expense pending again: %+v", pending)
	}
}

func TestDeletePlanCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	plan := testPlan()
	if err := repo.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	e := seedExpense(t, repo, plan, "Dinner", 3000)

	if err := repo.DeletePlan(ctx, plan.HashID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if _, err := repo.GetPlanByHash(ctx, plan.HashID); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
	if _, err := repo.GetExpense(ctx, plan.ID, e.ID); !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected cascade delete of expenses, got %v", err)
	}
	if err := repo.DeletePlan(ctx, plan.HashID); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound on double delete, got %v", err)
	}
}
