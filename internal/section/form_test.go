package section

import (
	"context"
	"errors"
	"testing"

	"github.com/darkha03/MyCount/internal/split"
)

func newTestForm(t *testing.T, api *fakeAPI, participants []string) (*ExpenseFormController, map[string]string, *int) {
	t.Helper()
	reloads := 0
	form := NewExpenseFormController(api, "abc12345", participants, func(context.Context) error {
		reloads++
		return nil
	})
	rendered := make(map[string]string)
	form.SetRenderer(func(p, v string) { rendered[p] = v })
	return form, rendered, &reloads
}

func TestFormEvenSplitRendering(t *testing.T) {
	form, rendered, _ := newTestForm(t, newFakeAPI(), []string{"Alice", "Bob", "Carol"})

	if err := form.SetTotal("10.00"); err != nil {
		t.Fatalf("set total: %v", err)
	}
	// 10.00 / 3 truncates to 3.33; the residual cent lands on the first
	// selected participant.
	want := map[string]string{"Alice": "3.34", "Bob": "3.33", "Carol": "3.33"}
	for p, v := range want {
		if rendered[p] != v {
			t.Fatalf("rendered[%s]=%s want %s (all: %v)", p, rendered[p], v, rendered)
		}
	}

	if err := form.Toggle("Carol", false); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if rendered["Alice"] != "5.00" || rendered["Bob"] != "5.00" || rendered["Carol"] != "0.00" {
		t.Fatalf("after toggle: %v", rendered)
	}
}

func TestFormManualEditRedistributes(t *testing.T) {
	form, rendered, _ := newTestForm(t, newFakeAPI(), []string{"Alice", "Bob", "Carol"})
	if err := form.SetTotal("10.00"); err != nil {
		t.Fatalf("set total: %v", err)
	}

	// Editing a share flips the form into manual mode.
	if err := form.EditShare("Alice", "4.00"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if form.Allocator().Mode() != split.ModeManual {
		t.Fatalf("edit should switch to manual mode")
	}
	if rendered["Alice"] != "4.00" || rendered["Bob"] != "3.00" || rendered["Carol"] != "3.00" {
		t.Fatalf("after edit: %v", rendered)
	}
}

func TestFormSubmitStrictValidation(t *testing.T) {
	api := newFakeAPI()
	form, _, reloads := newTestForm(t, api, []string{"Alice", "Bob"})
	form.SetName("Dinner")
	form.SetPayer("Alice")
	if err := form.SetTotal("10.00"); err != nil {
		t.Fatalf("set total: %v", err)
	}

	// Break the split: pin the lone remaining share below the total.
	if err := form.Toggle("Bob", false); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := form.EditShare("Alice", "5.00"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	err := form.Submit(context.Background())
	if !errors.Is(err, split.ErrUnbalanced) {
		t.Fatalf("submit err=%v, want ErrUnbalanced", err)
	}
	if len(api.created) != 0 {
		t.Fatalf("invalid split must never reach the server: %v", api.created)
	}
	if *reloads != 0 {
		t.Fatalf("failed submit must not refresh the owner")
	}
}

func TestFormSubmitPayloadShape(t *testing.T) {
	api := newFakeAPI()
	form, _, reloads := newTestForm(t, api, []string{"Alice", "Bob", "Carol"})
	form.SetName("Groceries")
	form.SetPayer("Bob")
	form.SetDate("2026-08-15")
	if err := form.SetTotal("25.00"); err != nil {
		t.Fatalf("set total: %v", err)
	}
	if err := form.Toggle("Carol", false); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(api.created) != 1 {
		t.Fatalf("created=%v", api.created)
	}
	p := api.created[0]
	if p.Name != "Groceries" || p.Amount != "25.00" || p.Payer != "Bob" || p.Date != "2026-08-15" {
		t.Fatalf("payload header: %+v", p)
	}
	if len(p.Participants) != len(p.Amounts) {
		t.Fatalf("parallel arrays out of step: %+v", p)
	}
	if len(p.Participants) != 2 || p.Participants[0] != "Alice" || p.Participants[1] != "Bob" {
		t.Fatalf("participants: %v", p.Participants)
	}
	if p.Amounts[0] != "12.50" || p.Amounts[1] != "12.50" {
		t.Fatalf("amounts: %v", p.Amounts)
	}
	if *reloads != 1 {
		t.Fatalf("successful submit should refresh the owner once, got %d", *reloads)
	}
}

func TestFormSubmitServerFailure(t *testing.T) {
	api := newFakeAPI()
	api.createErr = errors.New("status 500")
	form, _, reloads := newTestForm(t, api, []string{"Alice"})
	form.SetName("Taxi")
	form.SetPayer("Alice")
	if err := form.SetTotal("8.00"); err != nil {
		t.Fatalf("set total: %v", err)
	}

	if err := form.Submit(context.Background()); err == nil {
		t.Fatalf("expected submit error")
	}
	if *reloads != 0 {
		t.Fatalf("failed submit must not refresh the owner")
	}
}
