package ledger

import (
	"testing"

	"github.com/darkha03/MyCount/internal/core"
)

func expense(name, payer string, amount int64, shares map[string]int64) core.Expense {
	e := core.Expense{
		Name:   name,
		Payer:  payer,
		Amount: core.Money{Cents: amount},
	}
	// Map order does not matter for the aggregates under test.
	for n, c := range shares {
		e.Shares = append(e.Shares, core.Share{Name: n, Amount: core.Money{Cents: c}})
	}
	return e
}

func TestBalances(t *testing.T) {
	expenses := []core.Expense{
		expense("Lunch", "Alice", 12000, map[string]int64{"Alice": 4000, "Bob": 4000, "Charlie": 4000}),
		expense("Taxi", "Bob", 6000, map[string]int64{"Bob": 3000, "Charlie": 3000}),
	}
	got := Balances(expenses)
	want := map[string]int64{"Alice": 8000, "Bob": -1000, "Charlie": -7000}
	for n, w := range want {
		if got[n] != w {
			t.Errorf("balance[%s] = %d, want %d", n, got[n], w)
		}
	}
}

func TestPayerOutsideShares(t *testing.T) {
	expenses := []core.Expense{
		expense("Gift", "Dana", 5000, map[string]int64{"Alice": 2500, "Bob": 2500}),
	}
	got := Balances(expenses)
	if got["Dana"] != 5000 {
		t.Errorf("payer outside shares: balance = %d, want 5000", got["Dana"])
	}
	if got["Alice"] != -2500 || got["Bob"] != -2500 {
		t.Errorf("consumers: %v", got)
	}
}

// A reimbursement zeroes balances, is excluded from consumption, and
// nets out of what both sides actually fronted.
func TestReimbursementAggregation(t *testing.T) {
	expenses := []core.Expense{
		expense("Dinner", "Alice", 6000, map[string]int64{"Alice": 3000, "Bob": 3000}),
		expense(core.ReimbursementName, "Bob", 3000, map[string]int64{"Alice": 3000}),
	}

	balances := Balances(expenses)
	if balances["Alice"] != 0 || balances["Bob"] != 0 {
		t.Errorf("balances not settled: %v", balances)
	}

	contributed := Contributions(expenses)
	if contributed["Alice"] != 3000 || contributed["Bob"] != 3000 {
		t.Errorf("contributions should exclude reimbursements: %v", contributed)
	}

	paid := ActualPaid(expenses)
	if paid["Alice"] != 3000 || paid["Bob"] != 3000 {
		t.Errorf("actual paid should net reimbursements: %v", paid)
	}
}

func TestSuggest(t *testing.T) {
	balances := map[string]int64{"Alice": 8000, "Bob": -1000, "Charlie": -7000}
	got := Suggest(balances)
	want := []Suggestion{
		{From: "Bob", To: "Alice", Amount: core.Money{Cents: 1000}},
		{From: "Charlie", To: "Alice", Amount: core.Money{Cents: 7000}},
	}
	if len(got) != len(want) {
		t.Fatalf("suggestions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("suggestion[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSuggestSettled(t *testing.T) {
	if got := Suggest(map[string]int64{"Alice": 0, "Bob": 0}); len(got) != 0 {
		t.Fatalf("settled plan should yield no suggestions, got %v", got)
	}
}

func TestSuggestSplitsAcrossCreditors(t *testing.T) {
	balances := map[string]int64{"Alice": 3000, "Bob": 3000, "Charlie": -6000}
	got := Suggest(balances)
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %v", got)
	}
	var total int64
	for _, s := range got {
		if s.From != "Charlie" {
			t.Errorf("unexpected debtor %q", s.From)
		}
		total += s.Amount.Cents
	}
	if total != 6000 {
		t.Errorf("suggested total = %d, want 6000", total)
	}
}
