package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/darkha03/MyCount/internal/core"
)

// expensePayload is the wire shape of expense create/update requests:
// parallel participants/amounts arrays plus the header fields. Both JSON
// bodies and form posts are accepted.
type expensePayload struct {
	Name         string
	Amount       string
	Payer        string
	Date         string
	Participants []string
	Amounts      []string
}

var errParallelArrays = errors.New("participants and amounts must have the same length")

func parseExpensePayload(r *http.Request) (*expensePayload, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		return parseExpenseJSON(r)
	}
	return parseExpenseForm(r)
}

func parseExpenseJSON(r *http.Request) (*expensePayload, error) {
	var raw struct {
		Name         string        `json:"name"`
		Amount       json.Number   `json:"amount"`
		Payer        string        `json:"payer"`
		Date         string        `json:"date"`
		Participants []string      `json:"participants"`
		Amounts      []json.Number `json:"amounts"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	p := &expensePayload{
		Name:         sanitizeInput(raw.Name),
		Amount:       raw.Amount.String(),
		Payer:        sanitizeInput(raw.Payer),
		Date:         strings.TrimSpace(raw.Date),
		Participants: make([]string, len(raw.Participants)),
		Amounts:      make([]string, len(raw.Amounts)),
	}
	for i, name := range raw.Participants {
		p.Participants[i] = sanitizeInput(name)
	}
	for i, amt := range raw.Amounts {
		p.Amounts[i] = amt.String()
	}
	return p, nil
}

func parseExpenseForm(r *http.Request) (*expensePayload, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	p := &expensePayload{
		Name:         sanitizeInput(r.PostForm.Get("name")),
		Amount:       strings.TrimSpace(r.PostForm.Get("amount")),
		Payer:        sanitizeInput(r.PostForm.Get("payer")),
		Date:         strings.TrimSpace(r.PostForm.Get("date")),
		Participants: r.PostForm["participants"],
		Amounts:      r.PostForm["amounts"],
	}
	for i, name := range p.Participants {
		p.Participants[i] = sanitizeInput(name)
	}
	return p, nil
}

// toExpense validates the payload against the plan and builds the domain
// expense. Share names must belong to the plan; share amounts may be
// negative (a manual split can push a remainder below zero).
func (p *expensePayload) toExpense(plan *core.Plan) (*core.Expense, error) {
	if len(p.Participants) != len(p.Amounts) {
		return nil, errParallelArrays
	}

	totalCents, err := core.ParseDecimalToCents(p.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", p.Amount, err)
	}

	date := core.Today()
	if p.Date != "" {
		if date, err = core.ParseDate(p.Date); err != nil {
			return nil, fmt.Errorf("date %q: %w", p.Date, err)
		}
	}

	byName := make(map[string]*core.Participant, len(plan.Participants))
	for i := range plan.Participants {
		byName[strings.ToLower(plan.Participants[i].Name)] = &plan.Participants[i]
	}

	shares := make([]core.Share, 0, len(p.Participants))
	for i, name := range p.Participants {
		cents, err := core.ParseSignedDecimalToCents(p.Amounts[i])
		if err != nil {
			return nil, fmt.Errorf("share %d (%s): %w", i, name, err)
		}
		share := core.Share{Name: name, Amount: core.Money{Cents: cents}}
		if pp, ok := byName[strings.ToLower(name)]; ok {
			share.ParticipantID = &pp.ID
			share.Name = pp.Name
		} else {
			return nil, fmt.Errorf("unknown participant %q", name)
		}
		shares = append(shares, share)
	}

	e := &core.Expense{
		PlanID: plan.ID,
		Name:   p.Name,
		Amount: core.Money{Cents: totalCents},
		Payer:  p.Payer,
		Date:   date,
		Shares: shares,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// planPayload is the wire shape of plan create/update requests.
type planPayload struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

func parsePlanPayload(r *http.Request) (*planPayload, error) {
	var p planPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	p.Name = sanitizeInput(p.Name)
	for i, name := range p.Participants {
		p.Participants[i] = sanitizeInput(name)
	}
	return &p, nil
}

// joinPayload claims a participant slot for a user.
type joinPayload struct {
	ParticipantName string `json:"participant_name"`
	UserID          int64  `json:"user_id"`
}

func parseJoinPayload(r *http.Request) (*joinPayload, error) {
	var p joinPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	p.ParticipantName = sanitizeInput(p.ParticipantName)
	if p.ParticipantName == "" {
		return nil, errors.New("participant_name is required")
	}
	if p.UserID <= 0 {
		return nil, errors.New("user_id must be positive")
	}
	return &p, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
