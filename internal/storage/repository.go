package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/darkha03/MyCount/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// The pragma goes in the DSN so every pooled connection enforces
	// cascading deletes, not just the first one.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreatePlan(ctx context.Context, plan *core.Plan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO plans (hash_id, name) VALUES (?, ?)`,
		plan.HashID, plan.Name)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	planID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("plan id: %w", err)
	}
	plan.ID = planID

	for i := range plan.Participants {
		pp := &plan.Participants[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO plan_participants (plan_id, user_id, role, name, position)
			 VALUES (?, ?, ?, ?, ?)`,
			planID, pp.UserID, pp.Role, pp.Name, i)
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
		if pp.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("participant id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Plan created",
		"id", plan.ID,
		"hash_id", plan.HashID,
		"participants", len(plan.Participants))
	return nil
}

func (r *SQLiteRepository) ListPlans(ctx context.Context) ([]core.Plan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, hash_id, name, created_at FROM plans ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []core.Plan
	index := make(map[int64]int)
	for rows.Next() {
		var p core.Plan
		if err := rows.Scan(&p.ID, &p.HashID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		index[p.ID] = len(plans)
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}

	prows, err := r.db.QueryContext(ctx,
		`SELECT id, plan_id, user_id, role, name FROM plan_participants ORDER BY plan_id, position, id`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var pp core.Participant
		var planID int64
		if err := prows.Scan(&pp.ID, &planID, &pp.UserID, &pp.Role, &pp.Name); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		if i, ok := index[planID]; ok {
			plans[i].Participants = append(plans[i].Participants, pp)
		}
	}
	return plans, prows.Err()
}

func (r *SQLiteRepository) GetPlan(ctx context.Context, id int64) (*core.Plan, error) {
	return r.getPlan(ctx, `SELECT id, hash_id, name, created_at FROM plans WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetPlanByHash(ctx context.Context, hashID string) (*core.Plan, error) {
	return r.getPlan(ctx, `SELECT id, hash_id, name, created_at FROM plans WHERE hash_id = ?`, hashID)
}

func (r *SQLiteRepository) getPlan(ctx context.Context, query string, arg any) (*core.Plan, error) {
	var p core.Plan
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&p.ID, &p.HashID, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, role, name FROM plan_participants
		 WHERE plan_id = ? ORDER BY position, id`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pp core.Participant
		if err := rows.Scan(&pp.ID, &pp.UserID, &pp.Role, &pp.Name); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.Participants = append(p.Participants, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return &p, nil
}

func (r *SQLiteRepository) UpdatePlan(ctx context.Context, plan *core.Plan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE plans SET name = ? WHERE id = ?`, plan.Name, plan.ID)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlanNotFound
	}

	existing := make(map[int64]bool)
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM plan_participants WHERE plan_id = ?`, plan.ID)
	if err != nil {
		return fmt.Errorf("load participant ids: %w", err)
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan participant id: %w", err)
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate participant ids: %w", err)
	}

	var maxPos int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) FROM plan_participants WHERE plan_id = ?`,
		plan.ID).Scan(&maxPos); err != nil {
		return fmt.Errorf("max position: %w", err)
	}

	for i := range plan.Participants {
		pp := &plan.Participants[i]
		if pp.ID > 0 && existing[pp.ID] {
			if _, err := tx.ExecContext(ctx,
				`UPDATE plan_participants SET name = ?, user_id = ?, role = ? WHERE id = ? AND plan_id = ?`,
				pp.Name, pp.UserID, pp.Role, pp.ID, plan.ID); err != nil {
				return fmt.Errorf("update participant: %w", err)
			}
			continue
		}
		maxPos++
		res, err := tx.ExecContext(ctx,
			`INSERT INTO plan_participants (plan_id, user_id, role, name, position)
			 VALUES (?, ?, ?, ?, ?)`,
			plan.ID, pp.UserID, pp.Role, pp.Name, maxPos)
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
		if pp.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("participant id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.InfoContext(ctx, "Plan updated", "id", plan.ID, "hash_id", plan.HashID)
	return nil
}

func (r *SQLiteRepository) DeletePlan(ctx context.Context, hashID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE hash_id = ?`, hashID)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlanNotFound
	}
	slog.InfoContext(ctx, "Plan deleted", "hash_id", hashID)
	return nil
}

func (r *SQLiteRepository) JoinPlan(ctx context.Context, hashID, participantName string, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var planID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM plans WHERE hash_id = ?`, hashID).Scan(&planID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPlanNotFound
	}
	if err != nil {
		return fmt.Errorf("get plan: %w", err)
	}

	var ppID int64
	var claimed sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id FROM plan_participants WHERE plan_id = ? AND name = ?`,
		planID, participantName).Scan(&ppID, &claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrParticipantNotFound
	}
	if err != nil {
		return fmt.Errorf("get participant: %w", err)
	}
	if claimed.Valid {
		return ErrParticipantClaimed
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE plan_participants SET user_id = ? WHERE id = ?`, userID, ppID); err != nil {
		return fmt.Errorf("claim participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.InfoContext(ctx, "Participant claimed",
		"hash_id", hashID, "participant", participantName, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) PlanTotals(ctx context.Context) (map[int64]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT plan_id, SUM(amount_cents) FROM expenses WHERE name != ? GROUP BY plan_id`,
		core.ReimbursementName)
	if err != nil {
		return nil, fmt.Errorf("plan totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[int64]int64)
	for rows.Next() {
		var planID, cents int64
		if err := rows.Scan(&planID, &cents); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals[planID] = cents
	}
	return totals, rows.Err()
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e *core.Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (plan_id, name, amount_cents, payer, expense_date)
		 VALUES (?, ?, ?, ?, ?)`,
		e.PlanID, e.Name, e.Amount.Cents, e.Payer, e.Date.String())
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("expense id: %w", err)
	}

	if err := insertShares(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"plan_id", e.PlanID,
		"name", e.Name,
		"amount_cents", e.Amount.Cents,
		"shares", len(e.Shares))
	return nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET name = ?, amount_cents = ?, payer = ?, expense_date = ?,
		        export_status = 'pending'
		 WHERE id = ? AND plan_id = ?`,
		e.Name, e.Amount.Cents, e.Payer, e.Date.String(), e.ID, e.PlanID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExpenseNotFound
	}

	// Shares are replaced wholesale; the split is small and arrives complete.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM expense_shares WHERE expense_id = ?`, e.ID); err != nil {
		return fmt.Errorf("clear shares: %w", err)
	}
	if err := insertShares(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.InfoContext(ctx, "Expense updated", "id", e.ID, "plan_id", e.PlanID)
	return nil
}

func insertShares(ctx context.Context, tx *sql.Tx, e *core.Expense) error {
	for i := range e.Shares {
		s := &e.Shares[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expense_shares (expense_id, participant_id, name, amount_cents)
			 VALUES (?, ?, ?, ?)`,
			e.ID, s.ParticipantID, s.Name, s.Amount.Cents); err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, planID, expenseID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND plan_id = ?`, expenseID, planID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExpenseNotFound
	}
	slog.InfoContext(ctx, "Expense deleted", "id", expenseID, "plan_id", planID)
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, planID, expenseID int64) (*core.Expense, error) {
	var e core.Expense
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, plan_id, name, amount_cents, payer, expense_date
		 FROM expenses WHERE id = ? AND plan_id = ?`, expenseID, planID).
		Scan(&e.ID, &e.PlanID, &e.Name, &e.Amount.Cents, &e.Payer, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExpenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return nil, fmt.Errorf("stored date %q: %w", date, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT participant_id, name, amount_cents FROM expense_shares
		 WHERE expense_id = ? ORDER BY id`, e.ID)
	if err != nil {
		return nil, fmt.Errorf("get shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s core.Share
		if err := rows.Scan(&s.ParticipantID, &s.Name, &s.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		e.Shares = append(e.Shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}
	return &e, nil
}

func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, plan_id, name, amount_cents, payer, expense_date
		 FROM expenses WHERE export_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var date string
		if err := rows.Scan(&e.ID, &e.PlanID, &e.Name, &e.Amount.Cents, &e.Payer, &date); err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, expenseID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET export_status = 'exported', exported_at = CURRENT_TIMESTAMP WHERE id = ?`,
		expenseID)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, expenseID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET export_status = 'error' WHERE id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, planID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, plan_id, name, amount_cents, payer, expense_date
		 FROM expenses WHERE plan_id = ? ORDER BY expense_date DESC, id DESC`, planID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	index := make(map[int64]int)
	for rows.Next() {
		var e core.Expense
		var date string
		if err := rows.Scan(&e.ID, &e.PlanID, &e.Name, &e.Amount.Cents, &e.Payer, &date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	srows, err := r.db.QueryContext(ctx,
		`SELECT es.expense_id, es.participant_id, es.name, es.amount_cents
		 FROM expense_shares es
		 JOIN expenses e ON e.id = es.expense_id
		 WHERE e.plan_id = ? ORDER BY es.id`, planID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer srows.Close()

	for srows.Next() {
		var expenseID int64
		var s core.Share
		if err := srows.Scan(&expenseID, &s.ParticipantID, &s.Name, &s.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		if i, ok := index[expenseID]; ok {
			expenses[i].Shares = append(expenses[i].Shares, s)
		}
	}
	return expenses, srows.Err()
}
