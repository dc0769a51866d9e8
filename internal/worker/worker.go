// Package worker mirrors saved expenses to the configured export target.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/darkha03/MyCount/internal/amqp"
	"github.com/darkha03/MyCount/internal/core"
	"github.com/darkha03/MyCount/internal/export"
	"github.com/darkha03/MyCount/internal/storage"
)

// ExportWorker consumes plan activity and appends expenses to the export
// sheet. A periodic pending scan backs up lost AMQP messages.
type ExportWorker struct {
	store     storage.Store
	appender  export.Appender
	batchSize int
}

func NewExportWorker(store storage.Store, appender export.Appender, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleActivity processes a single plan activity message from AMQP.
func (w *ExportWorker) HandleActivity(ctx context.Context, msg *amqp.PlanActivityMessage) error {
	if msg.Action == amqp.ActionExpenseDeleted {
		// The sheet is append-only; deletions stay local.
		slog.InfoContext(ctx, "Skipping export for deleted expense",
			"plan_id", msg.PlanID,
			"expense_id", msg.ExpenseID)
		return nil
	}

	expense, err := w.store.GetExpense(ctx, msg.PlanID, msg.ExpenseID)
	if errors.Is(err, storage.ErrExpenseNotFound) {
		slog.WarnContext(ctx, "Expense gone before export, skipping",
			"plan_id", msg.PlanID,
			"expense_id", msg.ExpenseID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	plan, err := w.store.GetPlan(ctx, msg.PlanID)
	if err != nil {
		return fmt.Errorf("get plan from storage: %w", err)
	}

	return w.exportExpense(ctx, plan, expense)
}

// ProcessPending exports any expenses that have not been exported yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize)
}

// StartupCheck exports the pending backlog accumulated while the worker
// was down, using a larger batch than the periodic scan.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize*5)
}

func (w *ExportWorker) processPendingBatch(ctx context.Context, limit int) error {
	pending, err := w.store.ListPendingExport(ctx, limit)
	if err != nil {
		return fmt.Errorf("list pending export: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	exported := 0
	failed := 0
	for _, p := range pending {
		// Reload with shares; the pending listing is headers only.
		expense, err := w.store.GetExpense(ctx, p.PlanID, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending expense",
				"expense_id", p.ID, "error", err)
			failed++
			continue
		}
		plan, err := w.store.GetPlan(ctx, p.PlanID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load plan for pending expense",
				"plan_id", p.PlanID, "expense_id", p.ID, "error", err)
			failed++
			continue
		}
		if err := w.exportExpense(ctx, plan, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending expense",
				"expense_id", p.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Pending export pass completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

// Run drives the periodic pending scan until the context is cancelled.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending export pass failed", "error", err)
			}
		}
	}
}

func (w *ExportWorker) exportExpense(ctx context.Context, plan *core.Plan, expense *core.Expense) error {
	row := export.BuildRow(plan, expense)

	ref, err := w.appender.Append(ctx, row)
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error",
				"expense_id", expense.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.store.MarkExported(ctx, expense.ID); err != nil {
		// The append worked; losing the mark only means a duplicate row later.
		slog.ErrorContext(ctx, "Failed to mark as exported",
			"expense_id", expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported expense",
		"plan_id", plan.ID,
		"expense_id", expense.ID,
		"ref", ref,
		"amount_cents", expense.Amount.Cents)
	return nil
}
