package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by plan activity messages.
const (
	ActionExpenseCreated = "expense_created"
	ActionExpenseUpdated = "expense_updated"
	ActionExpenseDeleted = "expense_deleted"
)

// PlanActivityMessage is a lightweight notification that something changed
// in a plan. It carries identifiers only; the worker fetches the full
// records from the database.
type PlanActivityMessage struct {
	PlanID    int64     `json:"plan_id"`
	ExpenseID int64     `json:"expense_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPlanActivityMessage creates an activity message stamped with the current time
func NewPlanActivityMessage(planID, expenseID int64, action string) *PlanActivityMessage {
	return &PlanActivityMessage{
		PlanID:    planID,
		ExpenseID: expenseID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PlanActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PlanActivityMessageFromJSON creates a message from JSON bytes
func PlanActivityMessageFromJSON(data []byte) (*PlanActivityMessage, error) {
	var msg PlanActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
