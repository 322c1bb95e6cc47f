package careplan

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the outcome of the most recent generation attempt.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// CarePlan is the generated pharmacist care plan for one order. An order has
// at most one plan; a failed attempt leaves a failed row behind that a later
// attempt overwrites in place, while a succeeded row is final.
type CarePlan struct {
	ID            uuid.UUID `db:"id" json:"id"`
	OrderID       uuid.UUID `db:"order_id" json:"order_id"`
	Status        Status    `db:"status" json:"status"`
	Content       string    `db:"content" json:"content"`
	FailureReason string    `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Succeeded reports whether the plan holds final generated content.
func (cp *CarePlan) Succeeded() bool { return cp.Status == StatusSucceeded }
