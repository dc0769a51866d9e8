package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/darkha03/MyCount/internal/amqp"
	applog "github.com/darkha03/MyCount/internal/log"
	"github.com/darkha03/MyCount/internal/storage"
)

// handleCreateExpense saves a new expense and answers with a JSON ack. The
// section controllers re-fetch their fragments on the HX-Trigger events, so
// no HTML is rendered here.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	hashID := r.PathValue("hashID")

	plan, err := s.store.GetPlanByHash(r.Context(), hashID)
	if errors.Is(err, storage.ErrPlanNotFound) {
		writeJSONError(w, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get plan failed", "error", err, "hash_id", hashID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}

	payload, err := parseExpensePayload(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := payload.toExpense(plan)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreateExpense(r.Context(), expense); err != nil {
		slog.ErrorContext(r.Context(), "Create expense failed",
			"error", err, "hash_id", hashID, "name", expense.Name)
		writeJSONError(w, http.StatusInternalServerError, "failed to save expense")
		return
	}

	s.invalidatePlanFragments(hashID)
	s.publishActivity(r.Context(), plan.ID, expense.ID, amqp.ActionExpenseCreated)
	s.logs.LogExpenseSaved(r.Context(), applog.OpCreate, plan.ID, hashID,
		expense.Name, expense.Amount.Cents, len(expense.Shares))

	NewFragmentResponse().
		Status(http.StatusCreated).
		TriggerExpenseCreated(hashID).
		Header("Content-Type", "application/json; charset=utf-8").
		Body([]byte(`{"id":` + formatID(expense.ID) + `}`)).
		Write(w)
}

// handleUpdateExpense replaces an existing expense wholesale.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	hashID := r.PathValue("hashID")
	expenseID, err := parseID(r.PathValue("expenseID"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	plan, err := s.store.GetPlanByHash(r.Context(), hashID)
	if errors.Is(err, storage.ErrPlanNotFound) {
		writeJSONError(w, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get plan failed", "error", err, "hash_id", hashID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}

	payload, err := parseExpensePayload(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := payload.toExpense(plan)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	expense.ID = expenseID

	if err := s.store.UpdateExpense(r.Context(), expense); err != nil {
		if errors.Is(err, storage.ErrExpenseNotFound) {
			writeJSONError(w, http.StatusNotFound, "expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update expense failed",
			"error", err, "hash_id", hashID, "expense_id", expenseID)
		writeJSONError(w, http.StatusInternalServerError, "failed to save expense")
		return
	}

	s.invalidatePlanFragments(hashID)
	s.publishActivity(r.Context(), plan.ID, expenseID, amqp.ActionExpenseUpdated)
	s.logs.LogExpenseSaved(r.Context(), applog.OpUpdate, plan.ID, hashID,
		expense.Name, expense.Amount.Cents, len(expense.Shares))

	NewFragmentResponse().
		Status(http.StatusOK).
		TriggerExpenseUpdated(hashID).
		Header("Content-Type", "application/json; charset=utf-8").
		Body([]byte(`{"id":` + formatID(expenseID) + `}`)).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	hashID := r.PathValue("hashID")
	expenseID, err := parseID(r.PathValue("expenseID"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	plan, err := s.store.GetPlanByHash(r.Context(), hashID)
	if errors.Is(err, storage.ErrPlanNotFound) {
		writeJSONError(w, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get plan failed", "error", err, "hash_id", hashID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}

	if err := s.store.DeleteExpense(r.Context(), plan.ID, expenseID); err != nil {
		if errors.Is(err, storage.ErrExpenseNotFound) {
			writeJSONError(w, http.StatusNotFound, "expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete expense failed",
			"error", err, "hash_id", hashID, "expense_id", expenseID)
		writeJSONError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}

	s.invalidatePlanFragments(hashID)
	s.publishActivity(r.Context(), plan.ID, expenseID, amqp.ActionExpenseDeleted)

	slog.InfoContext(r.Context(), "Expense deleted",
		"hash_id", hashID, "expense_id", expenseID)

	NewFragmentResponse().
		Status(http.StatusOK).
		TriggerExpenseDeleted(hashID).
		Header("Content-Type", "application/json; charset=utf-8").
		Body([]byte(`{}`)).
		Write(w)
}
