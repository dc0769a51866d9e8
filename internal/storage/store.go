// Package storage persists plans, participants and expenses in SQLite.
package storage

import (
	"context"
	"errors"

	"github.com/darkha03/MyCount/internal/core"
)

var (
	ErrPlanNotFound        = errors.New("plan not found")
	ErrExpenseNotFound     = errors.New("expense not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantClaimed  = errors.New("participant already linked to a user")
)

// Store is the persistence boundary consumed by the HTTP layer. The
// abstraction keeps handlers testable against an in-memory fake.
type Store interface {
	CreatePlan(ctx context.Context, plan *core.Plan) error
	ListPlans(ctx context.Context) ([]core.Plan, error)
	GetPlan(ctx context.Context, id int64) (*core.Plan, error)
	GetPlanByHash(ctx context.Context, hashID string) (*core.Plan, error)
	// UpdatePlan renames the plan and upserts its participants: rows with
	// a known ID are updated in place, the rest are appended.
	UpdatePlan(ctx context.Context, plan *core.Plan) error
	DeletePlan(ctx context.Context, hashID string) error
	// JoinPlan links a user to an unclaimed participant by name.
	JoinPlan(ctx context.Context, hashID, participantName string, userID int64) error

	// PlanTotals sums non-reimbursement expense amounts per plan id.
	PlanTotals(ctx context.Context) (map[int64]int64, error)

	CreateExpense(ctx context.Context, e *core.Expense) error
	UpdateExpense(ctx context.Context, e *core.Expense) error
	DeleteExpense(ctx context.Context, planID, expenseID int64) error
	GetExpense(ctx context.Context, planID, expenseID int64) (*core.Expense, error)
	ListExpenses(ctx context.Context, planID int64) ([]core.Expense, error)

	// Export bookkeeping used by the sheet export worker. Pending expenses
	// are those never exported or re-touched since the last export.
	ListPendingExport(ctx context.Context, limit int) ([]core.Expense, error)
	MarkExported(ctx context.Context, expenseID int64) error
	MarkExportError(ctx context.Context, expenseID int64) error

	Close() error
}
