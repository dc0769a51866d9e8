// Package split implements the interactive split allocator: it turns a
// total expense amount and a set of selected participants into
// per-participant shares that always sum back to the total, including
// live redistribution while a user edits individual amounts.
package split

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Mode int

const (
	// ModeEven divides the total equally among selected participants.
	ModeEven Mode = iota
	// ModeManual lets the user pin individual shares; the remainder is
	// spread equally across the untouched participants.
	ModeManual
)

var (
	ErrUnbalanced     = errors.New("shares do not sum to the total")
	ErrNoParticipants = errors.New("no participants selected")
	ErrEvenMode       = errors.New("share edits require manual mode")
	ErrUnknown        = errors.New("unknown participant")
)

// tolerance is the absolute drift allowed between the share sum and the
// total at validation time (one cent).
var tolerance = decimal.New(1, -2)

// Allocator holds one expense-in-progress. It is a pure state machine:
// no I/O, no rendering, strictly ordered operations.
type Allocator struct {
	total    decimal.Decimal
	mode     Mode
	order    []string
	selected map[string]bool
	shares   map[string]decimal.Decimal
}

// New creates an allocator over the plan's participants, all selected,
// in even mode with a zero total. The given order is the stable iteration
// order used for residual assignment.
func New(participants []string) *Allocator {
	a := &Allocator{
		order:    append([]string(nil), participants...),
		selected: make(map[string]bool, len(participants)),
		shares:   make(map[string]decimal.Decimal, len(participants)),
	}
	for _, p := range participants {
		a.selected[p] = true
		a.shares[p] = decimal.Zero
	}
	return a
}

// SetTotal updates the total. In even mode all selected shares are
// recomputed immediately.
func (a *Allocator) SetTotal(total decimal.Decimal) {
	a.total = total
	if a.mode == ModeEven {
		a.recomputeEven()
	}
}

// Toggle selects or deselects a participant. A deselected participant's
// share is forced to zero and it is excluded from future redistribution.
// In even mode the remaining shares are recomputed; in manual mode the
// other shares are left untouched.
func (a *Allocator) Toggle(id string, selected bool) error {
	if _, ok := a.selected[id]; !ok {
		return ErrUnknown
	}
	a.selected[id] = selected
	if !selected {
		a.shares[id] = decimal.Zero
	}
	if a.mode == ModeEven {
		a.recomputeEven()
	}
	return nil
}

// SetMode switches the split policy. Switching to even forces an
// immediate even recompute; switching to manual keeps the current values
// as the manual baseline.
func (a *Allocator) SetMode(mode Mode) {
	a.mode = mode
	if mode == ModeEven {
		a.recomputeEven()
	}
}

// EditShare pins one participant's share and spreads the remainder
// equally over every other selected participant. The redistribution is a
// flat equal split, not proportional to prior values: once the user pins
// one amount, the untouched participants are fungible. A negative
// remainder propagates unclamped; it is only ever rejected at validation.
//
// With no other selected participants the lone share keeps the edited
// value even when it breaks the total; that surfaces as a validation
// failure rather than being corrected silently.
func (a *Allocator) EditShare(id string, value decimal.Decimal) error {
	if a.mode != ModeManual {
		return ErrEvenMode
	}
	sel, ok := a.selected[id]
	if !ok {
		return ErrUnknown
	}
	if !sel {
		return ErrUnknown
	}
	a.shares[id] = value

	others := make([]string, 0, len(a.order))
	for _, p := range a.order {
		if p != id && a.selected[p] {
			others = append(others, p)
		}
	}
	if len(others) == 0 {
		return nil
	}
	each := a.total.Sub(value).Div(decimal.NewFromInt(int64(len(others))))
	for _, p := range others {
		a.shares[p] = each
	}
	return nil
}

// Validate checks the invariants required before submission: at least one
// selected participant, and shares summing to the total within one cent.
func (a *Allocator) Validate() error {
	sel := a.selectedOrder()
	if len(sel) == 0 {
		return ErrNoParticipants
	}
	sum := decimal.Zero
	for _, p := range sel {
		sum = sum.Add(a.shares[p])
	}
	if sum.Sub(a.total).Abs().GreaterThan(tolerance) {
		return ErrUnbalanced
	}
	return nil
}

// Mode returns the current split policy.
func (a *Allocator) Mode() Mode { return a.mode }

// Total returns the current total.
func (a *Allocator) Total() decimal.Decimal { return a.total }

// IsSelected reports whether the participant is part of the split.
func (a *Allocator) IsSelected(id string) bool { return a.selected[id] }

// Share returns the current (unrounded) share for a participant.
// Deselected and unknown participants report zero.
func (a *Allocator) Share(id string) decimal.Decimal {
	return a.shares[id]
}

// Selected returns the selected participants in stable order.
func (a *Allocator) Selected() []string {
	return a.selectedOrder()
}

// Rounded returns a participant's share rounded to 2 decimals, the form
// used for display and submission.
func (a *Allocator) Rounded(id string) decimal.Decimal {
	return a.shares[id].Round(2)
}

func (a *Allocator) selectedOrder() []string {
	sel := make([]string, 0, len(a.order))
	for _, p := range a.order {
		if a.selected[p] {
			sel = append(sel, p)
		}
	}
	return sel
}

// recomputeEven assigns total/n to every selected participant, truncated
// to 2 decimals, with the signed residual cents going to the first
// selected participant so the sum stays exact.
func (a *Allocator) recomputeEven() {
	sel := a.selectedOrder()
	if len(sel) == 0 {
		for _, p := range a.order {
			a.shares[p] = decimal.Zero
		}
		return
	}
	per := a.total.Div(decimal.NewFromInt(int64(len(sel)))).Truncate(2)
	sum := per.Mul(decimal.NewFromInt(int64(len(sel))))
	residual := a.total.Sub(sum)
	for i, p := range sel {
		if i == 0 {
			a.shares[p] = per.Add(residual)
		} else {
			a.shares[p] = per
		}
	}
}
