package core

import (
	"errors"
	"testing"
)

func validExpense() Expense {
	d, _ := ParseDate("2026-03-01")
	return Expense{
		PlanID: 1,
		Name:   "Dinner",
		Amount: Money{Cents: 6000},
		Payer:  "Alice",
		Date:   d,
		Shares: []Share{
			{Name: "Alice", Amount: Money{Cents: 3000}},
			{Name: "Bob", Amount: Money{Cents: 3000}},
		},
	}
}

func TestExpenseValidate(t *testing.T) {
	if err := validExpense().Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	e := validExpense()
	e.Name = "  "
	if err := e.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	e = validExpense()
	e.Amount = Money{Cents: 0}
	if err := e.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	e = validExpense()
	e.Shares = nil
	if err := e.Validate(); !errors.Is(err, ErrNoShares) {
		t.Fatalf("expected ErrNoShares, got %v", err)
	}

	e = validExpense()
	e.Shares[1].Amount.Cents = 2000
	if err := e.Validate(); !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("expected ErrUnbalanced, got %v", err)
	}

	// One cent of rounding drift is accepted.
	e = validExpense()
	e.Shares[1].Amount.Cents = 3001
	if err := e.Validate(); err != nil {
		t.Fatalf("one-cent drift rejected: %v", err)
	}

	// Negative shares pass as long as the sum balances.
	e = validExpense()
	e.Amount = Money{Cents: 5000}
	e.Shares = []Share{
		{Name: "Alice", Amount: Money{Cents: 6000}},
		{Name: "Bob", Amount: Money{Cents: -500}},
		{Name: "Carol", Amount: Money{Cents: -500}},
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("negative shares rejected: %v", err)
	}
}

func TestValidateParticipantNames(t *testing.T) {
	if err := ValidateParticipantNames([]string{"Alice", "Bob"}); err != nil {
		t.Fatalf("valid names rejected: %v", err)
	}
	if err := ValidateParticipantNames([]string{"Alice", " "}); !errors.Is(err, ErrEmptyParticipant) {
		t.Fatalf("expected ErrEmptyParticipant, got %v", err)
	}
	if err := ValidateParticipantNames([]string{"Alice", "alice"}); !errors.Is(err, ErrDuplicateNames) {
		t.Fatalf("expected ErrDuplicateNames, got %v", err)
	}
}

func TestNewHashID(t *testing.T) {
	a, b := NewHashID(), NewHashID()
	if len(a) != 8 || len(b) != 8 {
		t.Fatalf("hash ids should be 8 chars: %q %q", a, b)
	}
	if a == b {
		t.Fatalf("hash ids should differ")
	}
}

func TestIsReimbursement(t *testing.T) {
	e := validExpense()
	if e.IsReimbursement() {
		t.Fatal("ordinary expense flagged as reimbursement")
	}
	e.Name = ReimbursementName
	if !e.IsReimbursement() {
		t.Fatal("reimbursement not detected")
	}
}
