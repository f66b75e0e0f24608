package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Return is the aggregate root for a return request. It moves through the
// status graph in status.go; every change appends a StatusHistory row and the
// milestone timestamps are set once on the corresponding transition.
type Return struct {
	shared.BaseAggregateRoot
	ReturnNumber  string    `gorm:"uniqueIndex;not null" json:"return_number"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	OrderNumber   string    `gorm:"not null" json:"order_number"`
	CustomerName  string    `gorm:"not null" json:"customer_name"`
	CustomerEmail string    `gorm:"not null" json:"customer_email"`
	Reason        string    `gorm:"not null" json:"reason"`
	Status        Status    `gorm:"not null;default:'PENDING';index" json:"status"`

	RefundAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"refund_amount"`

	QCStatus QCStatus `gorm:"not null;default:'PENDING'" json:"qc_status"`
	QCNotes  string   `json:"qc_notes"`

	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`

	RejectReason string `json:"reject_reason,omitempty"`
	CancelReason string `json:"cancel_reason,omitempty"`

	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Items   []ReturnItem    `gorm:"foreignKey:ReturnID" json:"items,omitempty"`
	History []StatusHistory `gorm:"foreignKey:ReturnID" json:"history,omitempty"`
}

// TableName specifies the table name for Return
func (Return) TableName() string {
	return "returns"
}

// NewReturn creates a return request against an order, in PENDING status
func NewReturn(returnNumber string, orderID uuid.UUID, orderNumber, customerName, customerEmail, reason string) (*Return, error) {
	if returnNumber == "" {
		return nil, shared.NewDomainError("INVALID_RETURN_NUMBER", "Return number is required")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID is required")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Return reason is required")
	}

	r := &Return{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnNumber:      returnNumber,
		OrderID:           orderID,
		OrderNumber:       orderNumber,
		CustomerName:      customerName,
		CustomerEmail:     customerEmail,
		Reason:            reason,
		Status:            StatusPending,
		RefundAmount:      decimal.Zero,
		QCStatus:          QCStatusPending,
	}
	r.AddDomainEvent(NewReturnCreatedEvent(r.ID, r.ReturnNumber, r.OrderID, r.OrderNumber))
	return r, nil
}

// AddItem adds a return line. Lines can only be added while the request is
// pending; the refund amount is recalculated from the lines.
func (r *Return) AddItem(item *ReturnItem) error {
	if r.Status != StatusPending {
		return shared.NewDomainError("RETURN_NOT_EDITABLE", "Items can only be added to a pending return")
	}
	for _, existing := range r.Items {
		if existing.OrderItemID == item.OrderItemID {
			return shared.NewDomainError("DUPLICATE_ITEM", "Order item is already part of this return")
		}
	}
	item.ReturnID = r.ID
	r.Items = append(r.Items, *item)
	r.recalculateRefund()
	return nil
}

func (r *Return) recalculateRefund() {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.RefundAmount)
	}
	r.RefundAmount = total
}

// TransitionTo moves the return to the target status. The edge must exist in
// the transition graph; milestone timestamps are set once, exactly one history
// row is appended, and the matching domain event is emitted.
func (r *Return) TransitionTo(target Status, actor, notes string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown return status: "+string(target))
	}
	if !r.Status.CanTransitionTo(target) {
		return NewInvalidTransitionError(r.Status, target)
	}

	now := time.Now()
	previous := r.Status

	switch target {
	case StatusApproved:
		if len(r.Items) == 0 {
			return shared.NewDomainError("EMPTY_RETURN", "Cannot approve a return with no items")
		}
		r.ApprovedAt = &now
	case StatusRejected:
		r.RejectedAt = &now
		r.RejectReason = notes
	case StatusReceived:
		if r.ReceivedAt == nil {
			r.ReceivedAt = &now
		}
	case StatusProcessed:
		if r.QCStatus == QCStatusPending {
			return shared.NewDomainError("QC_PENDING", "Quality control must be recorded before processing")
		}
		r.ProcessedAt = &now
	case StatusRefunded:
		r.RefundedAt = &now
	case StatusCancelled:
		r.CancelledAt = &now
		r.CancelReason = notes
	}

	r.Status = target
	r.History = append(r.History, newStatusHistory(r.ID, previous, target, actor, notes))
	r.emitTransitionEvent(previous, target)
	return nil
}

func (r *Return) emitTransitionEvent(previous, target Status) {
	switch target {
	case StatusApproved:
		r.AddDomainEvent(NewReturnApprovedEvent(r.ID, r.ReturnNumber, r.OrderID))
	case StatusRejected:
		r.AddDomainEvent(NewReturnRejectedEvent(r.ID, r.ReturnNumber, r.OrderID, r.RejectReason))
	case StatusReceived:
		r.AddDomainEvent(NewReturnReceivedEvent(r.ID, r.ReturnNumber, r.OrderID))
	case StatusRefunded:
		r.AddDomainEvent(NewReturnRefundedEvent(r.ID, r.ReturnNumber, r.OrderID, r.RefundAmount))
	default:
		r.AddDomainEvent(NewReturnStatusChangedEvent(r.ID, r.ReturnNumber, previous, target))
	}
}

// RecordQCResult records the quality-control outcome. Only meaningful once the
// shipment has been received and before the return is processed.
func (r *Return) RecordQCResult(result QCStatus, notes string) error {
	if !result.IsValid() || result == QCStatusPending {
		return shared.NewDomainError("INVALID_QC_STATUS", "QC result must be PASSED or FAILED")
	}
	if r.Status != StatusReceived {
		return shared.NewDomainError("INVALID_STATE", "QC can only be recorded on a received return")
	}
	r.QCStatus = result
	r.QCNotes = notes
	return nil
}

// SetTracking records the customer's return shipment tracking details
func (r *Return) SetTracking(trackingNumber, carrier string) error {
	if r.Status != StatusApproved && r.Status != StatusReceived {
		return shared.NewDomainError("INVALID_STATE", "Tracking can only be set on an approved return")
	}
	r.TrackingNumber = trackingNumber
	r.Carrier = carrier
	return nil
}

// RestockableItems returns the lines that should re-enter stock when the
// refund is issued. Items that failed QC are never restocked.
func (r *Return) RestockableItems() []ReturnItem {
	if r.QCStatus == QCStatusFailed {
		return nil
	}
	var items []ReturnItem
	for _, item := range r.Items {
		if item.Restockable {
			items = append(items, item)
		}
	}
	return items
}

// TotalQuantity returns the total quantity across all return lines
func (r *Return) TotalQuantity() int {
	total := 0
	for _, item := range r.Items {
		total += item.Quantity
	}
	return total
}
