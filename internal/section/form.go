package section

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/darkha03/MyCount/internal/split"
)

// ShareRenderer receives the re-rendered 2-decimal share value for one
// participant after every allocator change.
type ShareRenderer func(participant, value string)

// ExpenseFormController binds the split allocator to the expense form.
// Every edit flows through the allocator and back out through the
// renderer, so the displayed shares always sum to the total. Submission
// is strict: a split that fails validation never reaches the server.
type ExpenseFormController struct {
	api     API
	hashID  string
	alloc   *split.Allocator
	render  ShareRenderer
	onSaved func(ctx context.Context) error

	participants []string
	name         string
	payer        string
	date         string
	expenseID    int64 // 0 means create
}

func NewExpenseFormController(api API, hashID string, participants []string, onSaved func(ctx context.Context) error) *ExpenseFormController {
	return &ExpenseFormController{
		api:          api,
		hashID:       hashID,
		alloc:        split.New(participants),
		render:       func(string, string) {},
		onSaved:      onSaved,
		participants: append([]string(nil), participants...),
	}
}

// SetRenderer installs the share display callback and pushes the current
// values through it.
func (f *ExpenseFormController) SetRenderer(r ShareRenderer) {
	if r == nil {
		r = func(string, string) {}
	}
	f.render = r
	f.renderShares()
}

func (f *ExpenseFormController) SetName(name string)   { f.name = name }
func (f *ExpenseFormController) SetPayer(payer string) { f.payer = payer }
func (f *ExpenseFormController) SetDate(date string)   { f.date = date }

// editing retargets the form at an existing expense.
func (f *ExpenseFormController) editing(expenseID int64) { f.expenseID = expenseID }

// SetTotal parses and applies a new total. In even mode every share is
// recomputed and re-rendered.
func (f *ExpenseFormController) SetTotal(value string) error {
	total, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("total %q: %w", value, err)
	}
	f.alloc.SetTotal(total)
	f.renderShares()
	return nil
}

// Toggle includes or excludes a participant from the split.
func (f *ExpenseFormController) Toggle(participant string, selected bool) error {
	if err := f.alloc.Toggle(participant, selected); err != nil {
		return err
	}
	f.renderShares()
	return nil
}

// SetMode switches between even and manual splitting.
func (f *ExpenseFormController) SetMode(mode split.Mode) {
	f.alloc.SetMode(mode)
	f.renderShares()
}

// EditShare pins one participant's amount. Editing implies manual mode;
// the remainder is redistributed over the untouched participants.
func (f *ExpenseFormController) EditShare(participant, value string) error {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("share %q: %w", value, err)
	}
	if f.alloc.Mode() != split.ModeManual {
		f.alloc.SetMode(split.ModeManual)
	}
	if err := f.alloc.EditShare(participant, amount); err != nil {
		return err
	}
	f.renderShares()
	return nil
}

// Allocator exposes the underlying state machine, read-only use expected.
func (f *ExpenseFormController) Allocator() *split.Allocator { return f.alloc }

// Submit validates the split and sends the expense. On success the owner
// is refreshed (section reload, or detail reload when editing).
func (f *ExpenseFormController) Submit(ctx context.Context) error {
	if err := f.alloc.Validate(); err != nil {
		return err
	}

	payload := ExpensePayload{
		Name:   f.name,
		Amount: f.alloc.Total().StringFixed(2),
		Payer:  f.payer,
		Date:   f.date,
	}
	for _, p := range f.alloc.Selected() {
		payload.Participants = append(payload.Participants, p)
		payload.Amounts = append(payload.Amounts, f.alloc.Rounded(p).StringFixed(2))
	}

	var err error
	if f.expenseID > 0 {
		err = f.api.UpdateExpense(ctx, f.hashID, f.expenseID, payload)
	} else {
		err = f.api.CreateExpense(ctx, f.hashID, payload)
	}
	if err != nil {
		return err
	}
	if f.onSaved != nil {
		return f.onSaved(ctx)
	}
	return nil
}

// renderShares pushes every participant's display value out, deselected
// ones included so their inputs read 0.00.
func (f *ExpenseFormController) renderShares() {
	for _, p := range f.participants {
		f.render(p, f.alloc.Rounded(p).StringFixed(2))
	}
}

func today() string {
	return time.Now().Format("2006-01-02")
}
