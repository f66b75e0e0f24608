package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StatusHistory is one append-only entry in an order's status trail.
// Entries are written exactly once per transition and never edited.
type StatusHistory struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	PreviousStatus Status
	NewStatus      Status
	Actor          string
	Notes          string
	CreatedAt      time.Time
}

// TableName specifies the table name for StatusHistory
func (StatusHistory) TableName() string {
	return "order_status_histories"
}

// newStatusHistory creates a history entry for a transition.
// Notes default to "Status changed to <X>" when not supplied.
func newStatusHistory(orderID uuid.UUID, previous, next Status, actor, notes string) StatusHistory {
	if notes == "" {
		notes = fmt.Sprintf("Status changed to %s", next)
	}
	return StatusHistory{
		ID:             uuid.New(),
		OrderID:        orderID,
		PreviousStatus: previous,
		NewStatus:      next,
		Actor:          actor,
		Notes:          notes,
		CreatedAt:      time.Now(),
	}
}
