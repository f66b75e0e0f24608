package order

import (
	"fmt"
	"strings"
)

// Status represents the fulfillment status of an order
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

// statusTransitions encodes the full order status graph as a lookup table
// so the set of legal edges is closed and exhaustively testable.
// DELIVERED is terminal: refunds change the payment status, not the order status.
var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from this status
func (s Status) AllowedTransitions() []Status {
	allowed := statusTransitions[s]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// IsTerminal returns true if no further status transitions are possible
func (s Status) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// PaymentStatus represents the payment status of an order.
// It is a second, loosely-coupled state machine next to Status.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusPaid              PaymentStatus = "PAID"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// paymentTransitions encodes the payment status graph
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:           {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:              {PaymentStatusRefunded, PaymentStatusPartiallyRefunded},
	PaymentStatusFailed:            {},
	PaymentStatusRefunded:          {},
	PaymentStatusPartiallyRefunded: {},
}

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the payment status can transition to the target
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the payment statuses reachable from this status
func (s PaymentStatus) AllowedTransitions() []PaymentStatus {
	allowed := paymentTransitions[s]
	out := make([]PaymentStatus, len(allowed))
	copy(out, allowed)
	return out
}

// InvalidTransitionError is returned when a requested status edge is not in
// the transition graph. It carries the currently allowed next statuses so
// callers can surface them to an operator.
type InvalidTransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot transition order from %s to %s (allowed: %s)",
		e.From, e.To, strings.Join(allowed, ", "))
}

// Code returns the error code for API error mapping
func (e *InvalidTransitionError) Code() string {
	return "INVALID_TRANSITION"
}

// NewInvalidTransitionError creates an InvalidTransitionError for the edge
func NewInvalidTransitionError(from, to Status) *InvalidTransitionError {
	return &InvalidTransitionError{
		From:    from,
		To:      to,
		Allowed: from.AllowedTransitions(),
	}
}

// InvalidPaymentTransitionError is the payment-machine counterpart of
// InvalidTransitionError
type InvalidPaymentTransitionError struct {
	From    PaymentStatus
	To      PaymentStatus
	Allowed []PaymentStatus
}

// Error implements the error interface
func (e *InvalidPaymentTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot transition payment status from %s to %s (allowed: %s)",
		e.From, e.To, strings.Join(allowed, ", "))
}

// Code returns the error code for API error mapping
func (e *InvalidPaymentTransitionError) Code() string {
	return "INVALID_TRANSITION"
}

// NewInvalidPaymentTransitionError creates an InvalidPaymentTransitionError
func NewInvalidPaymentTransitionError(from, to PaymentStatus) *InvalidPaymentTransitionError {
	return &InvalidPaymentTransitionError{
		From:    from,
		To:      to,
		Allowed: from.AllowedTransitions(),
	}
}
