package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/darkha03/MyCount/internal/core"
	"github.com/darkha03/MyCount/internal/ledger"
	applog "github.com/darkha03/MyCount/internal/log"
	"github.com/darkha03/MyCount/internal/storage"
)

type expenseRow struct {
	ID              int64
	Name            string
	Amount          string
	Payer           string
	Date            string
	IsReimbursement bool
}

type suggestionRow struct {
	From   string
	To     string
	Amount string
}

type statisticsRow struct {
	Name        string
	Balance     string
	Contributed string
	Consumed    string
}

func validSection(name string) bool {
	for _, s := range sectionNames {
		if s == name {
			return true
		}
	}
	return false
}

// handleSection serves a section fragment, from cache when possible.
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	hashID := r.PathValue("hashID")
	name := r.PathValue("name")

	if !validSection(name) {
		NotFoundFragment("Unknown section: " + name).Write(w)
		return
	}

	key := s.fragmentCacheKey(hashID, name)
	if html, found := s.fragmentCache.Get(key); found {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Cache", "HIT")
		_, _ = w.Write([]byte(html))
		return
	}

	html, err := s.renderSection(r.Context(), hashID, name)
	if errors.Is(err, storage.ErrPlanNotFound) {
		NotFoundFragment("Plan not found").Write(w)
		return
	}
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Section render failed",
			"error", err, "hash_id", hashID, "section", name)
		InternalErrorFragment("Failed to load section").Write(w)
		return
	}

	s.fragmentCache.Set(key, html)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (s *Server) renderSection(ctx context.Context, hashID, name string) (string, error) {
	plan, err := s.store.GetPlanByHash(ctx, hashID)
	if err != nil {
		return "", err
	}
	expenses, err := s.store.ListExpenses(ctx, plan.ID)
	if err != nil {
		return "", fmt.Errorf("list expenses: %w", err)
	}

	var data any
	switch name {
	case "expenses":
		data = buildExpensesData(plan, expenses)
	case "reimbursements":
		data = buildReimbursementsData(plan, expenses)
	case "statistics":
		data = buildStatisticsData(plan, expenses)
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "section_"+name+".html", data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

func buildExpensesData(plan *core.Plan, expenses []core.Expense) any {
	rows := make([]expenseRow, 0, len(expenses))
	var total int64
	for _, e := range expenses {
		rows = append(rows, expenseRow{
			ID:              e.ID,
			Name:            e.Name,
			Amount:          e.Amount.String(),
			Payer:           e.Payer,
			Date:            e.Date.String(),
			IsReimbursement: e.IsReimbursement(),
		})
		if !e.IsReimbursement() {
			total += e.Amount.Cents
		}
	}
	return struct {
		HashID       string
		Participants []string
		Expenses     []expenseRow
		Total        string
	}{
		HashID:       plan.HashID,
		Participants: plan.ParticipantNames(),
		Expenses:     rows,
		Total:        core.Money{Cents: total}.String(),
	}
}

func buildReimbursementsData(plan *core.Plan, expenses []core.Expense) any {
	suggestions := ledger.Suggest(ledger.Balances(expenses))
	rows := make([]suggestionRow, 0, len(suggestions))
	for _, sg := range suggestions {
		rows = append(rows, suggestionRow{
			From:   sg.From,
			To:     sg.To,
			Amount: sg.Amount.String(),
		})
	}
	return struct {
		HashID      string
		Suggestions []suggestionRow
		Settled     bool
	}{
		HashID:      plan.HashID,
		Suggestions: rows,
		Settled:     len(rows) == 0,
	}
}

func buildStatisticsData(plan *core.Plan, expenses []core.Expense) any {
	balances := ledger.Balances(expenses)
	contributions := ledger.Contributions(expenses)
	paid := ledger.ActualPaid(expenses)

	var rows []statisticsRow
	seen := make(map[string]bool)
	addRow := func(name string) {
		rows = append(rows, statisticsRow{
			Name:        name,
			Balance:     core.Money{Cents: balances[name]}.String(),
			Contributed: core.Money{Cents: paid[name]}.String(),
			Consumed:    core.Money{Cents: contributions[name]}.String(),
		})
		seen[name] = true
	}
	for _, name := range plan.ParticipantNames() {
		addRow(name)
	}
	// Payers outside the participant list still show up in the ledger.
	var extras []string
	for name := range balances {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		addRow(name)
	}

	var totalContributed int64
	for _, cents := range paid {
		totalContributed += cents
	}

	return struct {
		HashID           string
		Rows             []statisticsRow
		TotalContributed string
		Empty            bool
	}{
		HashID:           plan.HashID,
		Rows:             rows,
		TotalContributed: core.Money{Cents: totalContributed}.String(),
		Empty:            len(expenses) == 0,
	}
}

// handleExpenseDetail serves the detail/edit fragment for one expense.
func (s *Server) handleExpenseDetail(w http.ResponseWriter, r *http.Request) {
	hashID := r.PathValue("hashID")
	expenseID, err := parseID(r.PathValue("expenseID"))
	if err != nil {
		BadRequestFragment("Invalid expense id").Write(w)
		return
	}

	plan, err := s.store.GetPlanByHash(r.Context(), hashID)
	if errors.Is(err, storage.ErrPlanNotFound) {
		NotFoundFragment("Plan not found").Write(w)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get plan failed", "error", err, "hash_id", hashID)
		InternalErrorFragment("Failed to load plan").Write(w)
		return
	}

	expense, err := s.store.GetExpense(r.Context(), plan.ID, expenseID)
	if errors.Is(err, storage.ErrExpenseNotFound) {
		NotFoundFragment("Expense not found").Write(w)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get expense failed",
			"error", err, "hash_id", hashID, "expense_id", expenseID)
		InternalErrorFragment("Failed to load expense").Write(w)
		return
	}

	type shareView struct {
		Name     string
		Amount   string
		Selected bool
	}
	shareByName := make(map[string]core.Share, len(expense.Shares))
	for _, sh := range expense.Shares {
		shareByName[sh.Name] = sh
	}
	shares := make([]shareView, 0, len(plan.Participants))
	for _, name := range plan.ParticipantNames() {
		if sh, ok := shareByName[name]; ok {
			shares = append(shares, shareView{Name: name, Amount: sh.Amount.String(), Selected: true})
		} else {
			shares = append(shares, shareView{Name: name, Amount: "0.00"})
		}
	}

	data := struct {
		HashID    string
		ExpenseID int64
		Name      string
		Amount    string
		Payer     string
		Date      string
		Shares    []shareView
	}{
		HashID:    plan.HashID,
		ExpenseID: expense.ID,
		Name:      expense.Name,
		Amount:    expense.Amount.String(),
		Payer:     expense.Payer,
		Date:      expense.Date.String(),
		Shares:    shares,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "expense_detail.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Expense detail template failed",
			"error", err, "expense_id", expenseID)
		InternalErrorFragment("Failed to render expense").Write(w)
	}
}
