package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"

	// ReimbursementName marks an expense that records a direct payment
	// between two participants instead of a shared cost.
	ReimbursementName = "Reimbursement"
)

type (
	Role string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Participant is a named member of a plan, optionally linked to a user.
	Participant struct {
		ID     int64
		Name   string
		UserID *int64
		Role   Role
	}

	// Plan is a named shared-expense group. Participants keep their
	// creation order; the split allocator relies on that order being stable.
	Plan struct {
		ID           int64
		HashID       string
		Name         string
		CreatedAt    time.Time
		Participants []Participant
	}

	// Share is the portion of one expense attributed to one participant.
	// Negative amounts are legal: a manually edited split may push the
	// remainder below zero, and validation only checks the sum.
	Share struct {
		ParticipantID *int64
		Name          string
		Amount        Money
	}

	Expense struct {
		ID     int64
		PlanID int64
		Name   string
		Amount Money
		Payer  string
		Date   Date
		Shares []Share
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrNoShares         = errors.New("expense has no shares")
	ErrUnbalanced       = errors.New("shares do not sum to the expense total")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyPayer       = errors.New("empty payer")
	ErrDuplicateNames   = errors.New("duplicate participant names")
	ErrEmptyParticipant = errors.New("participant names must be non-empty")
)

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current date truncated to day precision.
func Today() Date {
	y, m, d := time.Now().Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Payer) == "" {
		return ErrEmptyPayer
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(e.Shares) == 0 {
		return ErrNoShares
	}
	var sum int64
	for _, s := range e.Shares {
		if strings.TrimSpace(s.Name) == "" {
			return ErrEmptyParticipant
		}
		sum += s.Amount.Cents
	}
	// One cent of slack absorbs rounding from the interactive split.
	if diff := sum - e.Amount.Cents; diff > 1 || diff < -1 {
		return fmt.Errorf("%w: shares=%d total=%d", ErrUnbalanced, sum, e.Amount.Cents)
	}
	return nil
}

// IsReimbursement reports whether the expense records a direct payment
// between two participants rather than a shared cost.
func (e Expense) IsReimbursement() bool {
	return e.Name == ReimbursementName
}

// ValidateParticipantNames checks a list of participant names: every name
// non-empty, no case-insensitive duplicates.
func ValidateParticipantNames(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for i, n := range names {
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return fmt.Errorf("%w (index %d)", ErrEmptyParticipant, i)
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			return ErrDuplicateNames
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (p Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	names := make([]string, len(p.Participants))
	for i, pp := range p.Participants {
		names[i] = pp.Name
	}
	return ValidateParticipantNames(names)
}

// ParticipantNames returns the plan's participant names in stable order.
func (p Plan) ParticipantNames() []string {
	names := make([]string, len(p.Participants))
	for i, pp := range p.Participants {
		names[i] = pp.Name
	}
	return names
}
