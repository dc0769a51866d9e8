package section

import (
	"context"
	"errors"

	"github.com/darkha03/MyCount/internal/core"
)

// MarkPaid is the "mark paid" action lifted off a suggestion row:
// From pays To the amount.
type MarkPaid struct {
	From   string
	To     string
	Amount string
}

// ReimbursementController turns mark-paid actions into synthetic
// reimbursement expenses. There is no optimistic mutation: the section
// only reloads after the server accepted the expense, and failures
// propagate to the caller untouched.
type ReimbursementController struct {
	api    API
	hashID string
	reload func(ctx context.Context) error
}

func NewReimbursementController(api API, hashID string, reload func(ctx context.Context) error) *ReimbursementController {
	return &ReimbursementController{api: api, hashID: hashID, reload: reload}
}

// MarkPaid records the payment as an expense named "Reimbursement": the
// debtor pays, the creditor holds the single share, dated today.
func (rc *ReimbursementController) MarkPaid(ctx context.Context, mp MarkPaid) error {
	if mp.From == "" || mp.To == "" || mp.Amount == "" {
		return errors.New("mark paid requires from, to and amount")
	}

	payload := ExpensePayload{
		Name:         core.ReimbursementName,
		Amount:       mp.Amount,
		Payer:        mp.From,
		Date:         today(),
		Participants: []string{mp.To},
		Amounts:      []string{mp.Amount},
	}
	if err := rc.api.CreateExpense(ctx, rc.hashID, payload); err != nil {
		return err
	}
	if rc.reload != nil {
		return rc.reload(ctx)
	}
	return nil
}
