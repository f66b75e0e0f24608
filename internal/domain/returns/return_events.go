package returns

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

const AggregateTypeReturn = "Return"

// Event type constants
const (
	EventTypeReturnCreated       = "ReturnCreated"
	EventTypeReturnApproved      = "ReturnApproved"
	EventTypeReturnRejected      = "ReturnRejected"
	EventTypeReturnReceived      = "ReturnReceived"
	EventTypeReturnRefunded      = "ReturnRefunded"
	EventTypeReturnStatusChanged = "ReturnStatusChanged"
)

// ReturnCreatedEvent is emitted when a return request is created
type ReturnCreatedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string    `json:"return_number"`
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
}

func NewReturnCreatedEvent(returnID uuid.UUID, returnNumber string, orderID uuid.UUID, orderNumber string) *ReturnCreatedEvent {
	return &ReturnCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnCreated, AggregateTypeReturn, returnID),
		ReturnNumber:    returnNumber,
		OrderID:         orderID,
		OrderNumber:     orderNumber,
	}
}

func (e *ReturnCreatedEvent) EventType() string { return EventTypeReturnCreated }

// ReturnApprovedEvent is emitted when a return request is approved
type ReturnApprovedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string    `json:"return_number"`
	OrderID      uuid.UUID `json:"order_id"`
}

func NewReturnApprovedEvent(returnID uuid.UUID, returnNumber string, orderID uuid.UUID) *ReturnApprovedEvent {
	return &ReturnApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnApproved, AggregateTypeReturn, returnID),
		ReturnNumber:    returnNumber,
		OrderID:         orderID,
	}
}

func (e *ReturnApprovedEvent) EventType() string { return EventTypeReturnApproved }

// ReturnRejectedEvent is emitted when a return request is rejected
type ReturnRejectedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string    `json:"return_number"`
	OrderID      uuid.UUID `json:"order_id"`
	Reason       string    `json:"reason"`
}

func NewReturnRejectedEvent(returnID uuid.UUID, returnNumber string, orderID uuid.UUID, reason string) *ReturnRejectedEvent {
	return &ReturnRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRejected, AggregateTypeReturn, returnID),
		ReturnNumber:    returnNumber,
		OrderID:         orderID,
		Reason:          reason,
	}
}

func (e *ReturnRejectedEvent) EventType() string { return EventTypeReturnRejected }

// ReturnReceivedEvent is emitted when the return shipment arrives
type ReturnReceivedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string    `json:"return_number"`
	OrderID      uuid.UUID `json:"order_id"`
}

func NewReturnReceivedEvent(returnID uuid.UUID, returnNumber string, orderID uuid.UUID) *ReturnReceivedEvent {
	return &ReturnReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnReceived, AggregateTypeReturn, returnID),
		ReturnNumber:    returnNumber,
		OrderID:         orderID,
	}
}

func (e *ReturnReceivedEvent) EventType() string { return EventTypeReturnReceived }

// ReturnRefundedEvent is emitted when the refund is issued
type ReturnRefundedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string          `json:"return_number"`
	OrderID      uuid.UUID       `json:"order_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

func NewReturnRefundedEvent(returnID uuid.UUID, returnNumber string, orderID uuid.UUID, amount decimal.Decimal) *ReturnRefundedEvent {
	return &ReturnRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRefunded, AggregateTypeReturn, returnID),
		ReturnNumber:    returnNumber,
		OrderID:         orderID,
		RefundAmount:    amount,
	}
}

func (e *ReturnRefundedEvent) EventType() string { return EventTypeReturnRefunded }

// ReturnStatusChangedEvent is emitted for transitions without a dedicated event
type ReturnStatusChangedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber   string `json:"return_number"`
	PreviousStatus Status `json:"previous_status"`
	NewStatus      Status `json:"new_status"`
}

func NewReturnStatusChangedEvent(returnID uuid.UUID, returnNumber string, previous, next Status) *ReturnStatusChangedEvent {
	return &ReturnStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnStatusChanged, AggregateTypeReturn, returnID),
		ReturnNumber:    returnNumber,
		PreviousStatus:  previous,
		NewStatus:       next,
	}
}

func (e *ReturnStatusChangedEvent) EventType() string { return EventTypeReturnStatusChanged }
