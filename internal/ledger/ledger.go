// Package ledger derives per-participant aggregates from a plan's
// expenses: net balances, total consumption, amounts actually fronted,
// and the pairwise reimbursement suggestions shown in the
// reimbursements section.
package ledger

import (
	"sort"

	"github.com/darkha03/MyCount/internal/core"
)

// Suggestion is one suggested payment: From owes To the given amount.
// Suggestions are presentation only; settling one records an ordinary
// reimbursement expense, there is no settlement schedule to optimize.
type Suggestion struct {
	From   string
	To     string
	Amount core.Money
}

// Balances computes each participant's net position in cents. The payer
// of an expense gains the total minus their own share; every other share
// holder loses their share. A payer outside the share list gains the
// full amount. Reimbursements need no special case here: the debtor pays
// the total and the creditor holds the single share.
func Balances(expenses []core.Expense) map[string]int64 {
	balances := make(map[string]int64)
	for _, e := range expenses {
		inShares := false
		for _, s := range e.Shares {
			if s.Name == e.Payer {
				inShares = true
				balances[s.Name] += e.Amount.Cents - s.Amount.Cents
			} else {
				balances[s.Name] -= s.Amount.Cents
			}
		}
		if !inShares {
			balances[e.Payer] += e.Amount.Cents
		}
	}
	return balances
}

// Contributions sums what each participant consumed, in cents.
// Reimbursement entries are excluded: they move money, they don't
// consume anything.
func Contributions(expenses []core.Expense) map[string]int64 {
	totals := make(map[string]int64)
	for _, e := range expenses {
		if e.IsReimbursement() {
			continue
		}
		for _, s := range e.Shares {
			totals[s.Name] += s.Amount.Cents
		}
	}
	return totals
}

// ActualPaid sums what each participant actually fronted, in cents.
// Reimbursements received reduce the recipient's outlay so that settling
// up converges everyone toward their consumption.
func ActualPaid(expenses []core.Expense) map[string]int64 {
	paid := make(map[string]int64)
	for _, e := range expenses {
		paid[e.Payer] += e.Amount.Cents
		if e.IsReimbursement() {
			for _, s := range e.Shares {
				paid[s.Name] -= s.Amount.Cents
			}
		}
	}
	return paid
}

// Suggest produces pairwise payments that zero out the given balances,
// matching debtors against creditors greedily. Names are visited in
// sorted order so the output is deterministic.
func Suggest(balances map[string]int64) []Suggestion {
	names := make([]string, 0, len(balances))
	for n := range balances {
		names = append(names, n)
	}
	sort.Strings(names)

	type entry struct {
		name  string
		cents int64
	}
	var creditors, debtors []entry
	for _, n := range names {
		switch b := balances[n]; {
		case b > 0:
			creditors = append(creditors, entry{n, b})
		case b < 0:
			debtors = append(debtors, entry{n, -b})
		}
	}

	var suggestions []Suggestion
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].cents
		if creditors[j].cents < amount {
			amount = creditors[j].cents
		}
		suggestions = append(suggestions, Suggestion{
			From:   debtors[i].name,
			To:     creditors[j].name,
			Amount: core.Money{Cents: amount},
		})
		debtors[i].cents -= amount
		creditors[j].cents -= amount
		if debtors[i].cents == 0 {
			i++
		}
		if creditors[j].cents == 0 {
			j++
		}
	}
	return suggestions
}
