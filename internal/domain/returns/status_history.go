package returns

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StatusHistory is an append-only audit row recording a return status change
type StatusHistory struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReturnID       uuid.UUID `gorm:"type:uuid;not null;index" json:"return_id"`
	PreviousStatus Status    `gorm:"not null" json:"previous_status"`
	NewStatus      Status    `gorm:"not null" json:"new_status"`
	Actor          string    `gorm:"not null" json:"actor"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for StatusHistory
func (StatusHistory) TableName() string {
	return "return_status_histories"
}

func newStatusHistory(returnID uuid.UUID, previous, next Status, actor, notes string) StatusHistory {
	if notes == "" {
		notes = fmt.Sprintf("Status changed to %s", next)
	}
	return StatusHistory{
		ID:             uuid.New(),
		ReturnID:       returnID,
		PreviousStatus: previous,
		NewStatus:      next,
		Actor:          actor,
		Notes:          notes,
		CreatedAt:      time.Now(),
	}
}
