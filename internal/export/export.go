// Package export defines the outbound port for mirroring expenses to an
// external spreadsheet, plus the row shape written there.
package export

import (
	"context"
	"strings"

	"github.com/darkha03/MyCount/internal/core"
)

// Row is one exported spreadsheet line.
type Row struct {
	Date         string
	PlanName     string
	PlanHash     string
	ExpenseName  string
	Payer        string
	AmountCents  int64
	Participants string
}

// Appender writes a row to the export target and returns a reference to
// where it landed.
type Appender interface {
	Append(ctx context.Context, row Row) (ref string, err error)
}

// BuildRow flattens an expense and its plan into an export row. Share
// names are joined in split order.
func BuildRow(plan *core.Plan, e *core.Expense) Row {
	names := make([]string, len(e.Shares))
	for i, s := range e.Shares {
		names[i] = s.Name
	}
	return Row{
		Date:         e.Date.String(),
		PlanName:     plan.Name,
		PlanHash:     plan.HashID,
		ExpenseName:  e.Name,
		Payer:        e.Payer,
		AmountCents:  e.Amount.Cents,
		Participants: strings.Join(names, ", "),
	}
}
