package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/darkha03/MyCount/internal/amqp"
	"github.com/darkha03/MyCount/internal/core"
	"github.com/darkha03/MyCount/internal/export"
	"github.com/darkha03/MyCount/internal/storage"
)

type fakeStore struct {
	storage.Store

	plans    map[int64]*core.Plan
	expenses map[int64]*core.Expense
	pending  []int64
	exported []int64
	failed   []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans:    make(map[int64]*core.Plan),
		expenses: make(map[int64]*core.Expense),
	}
}

func (s *fakeStore) GetPlan(ctx context.Context, id int64) (*core.Plan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, storage.ErrPlanNotFound
	}
	return p, nil
}

func (s *fakeStore) GetExpense(ctx context.Context, planID, expenseID int64) (*core.Expense, error) {
	e, ok := s.expenses[expenseID]
	if !ok || e.PlanID != planID {
		return nil, storage.ErrExpenseNotFound
	}
	return e, nil
}

func (s *fakeStore) ListPendingExport(ctx context.Context, limit int) ([]core.Expense, error) {
	var out []core.Expense
	for _, id := range s.pending {
		if len(out) >= limit {
			break
		}
		if e, ok := s.expenses[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkExported(ctx context.Context, expenseID int64) error {
	s.exported = append(s.exported, expenseID)
	return nil
}

func (s *fakeStore) MarkExportError(ctx context.Context, expenseID int64) error {
	s.failed = append(s.failed, expenseID)
	return nil
}

type fakeAppender struct {
	rows []export.Row
	err  error
}

func (a *fakeAppender) Append(ctx context.Context, row export.Row) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.rows = append(a.rows, row)
	return fmt.Sprintf("Expenses!A%d:G%d", len(a.rows), len(a.rows)), nil
}

func seedStore(s *fakeStore) {
	s.plans[1] = &core.Plan{ID: 1, HashID: "abc123ef", Name: "Ski trip"}
	s.expenses[10] = &core.Expense{
		ID:     10,
		PlanID: 1,
		Name:   "Lift passes",
		Amount: core.Money{Cents: 9000},
		Payer:  "Alice",
		Date:   mustDate("2026-02-01"),
		Shares: []core.Share{
			{Name: "Alice", Amount: core.Money{Cents: 4500}},
			{Name: "Bob", Amount: core.Money{Cents: 4500}},
		},
	}
}

func mustDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestExportWorker_HandleActivity(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	appender := &fakeAppender{}
	w := NewExportWorker(store, appender, 10)

	msg := amqp.NewPlanActivityMessage(1, 10, amqp.ActionExpenseCreated)
	if err := w.HandleActivity(context.Background(), msg); err != nil {
		t.Fatalf("HandleActivity() error = %v", err)
	}

	if len(appender.rows) != 1 {
		t.Fatalf("appended rows = %d, want 1", len(appender.rows))
	}
	row := appender.rows[0]
	if row.PlanName != "Ski trip" || row.PlanHash != "abc123ef" {
		t.Errorf("row plan = %q/%q, want Ski trip/abc123ef", row.PlanName, row.PlanHash)
	}
	if row.ExpenseName != "Lift passes" || row.AmountCents != 9000 {
		t.Errorf("row expense = %q/%d, want Lift passes/9000", row.ExpenseName, row.AmountCents)
	}
	if row.Participants != "Alice, Bob" {
		t.Errorf("row participants = %q, want %q", row.Participants, "Alice, Bob")
	}
	if len(store.exported) != 1 || store.exported[0] != 10 {
		t.Errorf("exported marks = %v, want [10]", store.exported)
	}
}

func TestExportWorker_HandleActivity_SkipsDeletes(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	appender := &fakeAppender{}
	w := NewExportWorker(store, appender, 10)

	msg := amqp.NewPlanActivityMessage(1, 10, amqp.ActionExpenseDeleted)
	if err := w.HandleActivity(context.Background(), msg); err != nil {
		t.Fatalf("HandleActivity() error = %v", err)
	}
	if len(appender.rows) != 0 {
		t.Errorf("appended rows = %d, want 0 for delete action", len(appender.rows))
	}
}

func TestExportWorker_HandleActivity_MissingExpense(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	appender := &fakeAppender{}
	w := NewExportWorker(store, appender, 10)

	// An expense deleted between publish and consume is not an error.
	msg := amqp.NewPlanActivityMessage(1, 999, amqp.ActionExpenseCreated)
	if err := w.HandleActivity(context.Background(), msg); err != nil {
		t.Fatalf("HandleActivity() error = %v, want nil for missing expense", err)
	}
	if len(appender.rows) != 0 {
		t.Errorf("appended rows = %d, want 0", len(appender.rows))
	}
}

func TestExportWorker_HandleActivity_AppendFailure(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	appender := &fakeAppender{err: errors.New("quota exceeded")}
	w := NewExportWorker(store, appender, 10)

	msg := amqp.NewPlanActivityMessage(1, 10, amqp.ActionExpenseUpdated)
	err := w.HandleActivity(context.Background(), msg)
	if err == nil {
		t.Fatal("HandleActivity() error = nil, want append failure")
	}
	if len(store.failed) != 1 || store.failed[0] != 10 {
		t.Errorf("export error marks = %v, want [10]", store.failed)
	}
	if len(store.exported) != 0 {
		t.Errorf("exported marks = %v, want none", store.exported)
	}
}

func TestExportWorker_ProcessPending(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	store.expenses[11] = &core.Expense{
		ID:     11,
		PlanID: 1,
		Name:   "Dinner",
		Amount: core.Money{Cents: 6000},
		Payer:  "Bob",
		Date:   mustDate("2026-02-02"),
		Shares: []core.Share{
			{Name: "Alice", Amount: core.Money{Cents: 3000}},
			{Name: "Bob", Amount: core.Money{Cents: 3000}},
		},
	}
	store.pending = []int64{10, 11}
	appender := &fakeAppender{}
	w := NewExportWorker(store, appender, 10)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if len(appender.rows) != 2 {
		t.Fatalf("appended rows = %d, want 2", len(appender.rows))
	}
	if len(store.exported) != 2 {
		t.Errorf("exported marks = %v, want two entries", store.exported)
	}
}

func TestExportWorker_ProcessPending_RespectsBatchSize(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	store.pending = []int64{10, 10, 10}
	appender := &fakeAppender{}
	w := NewExportWorker(store, appender, 2)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if len(appender.rows) != 2 {
		t.Errorf("appended rows = %d, want 2 (batch limit)", len(appender.rows))
	}
}
