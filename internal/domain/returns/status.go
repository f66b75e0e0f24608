package returns

import (
	"fmt"
	"strings"
)

// Status represents the status of a return request
type Status string

const (
	StatusPending   Status = "PENDING"   // waiting for approval
	StatusApproved  Status = "APPROVED"  // approved, awaiting the return shipment
	StatusRejected  Status = "REJECTED"  // rejected by an operator
	StatusReceived  Status = "RECEIVED"  // return shipment arrived, awaiting QC
	StatusProcessed Status = "PROCESSED" // QC complete, ready to refund
	StatusRefunded  Status = "REFUNDED"  // refund issued, restockable items re-entered stock
	StatusCancelled Status = "CANCELLED"
)

// statusTransitions encodes the return status graph as a lookup table
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusReceived, StatusCancelled},
	StatusReceived:  {StatusProcessed, StatusCancelled},
	StatusProcessed: {StatusRefunded},
	StatusRejected:  {},
	StatusRefunded:  {},
	StatusCancelled: {},
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

// IsTerminal returns true if no further transitions are possible
func (s Status) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// InvalidTransitionError is returned when a requested return status edge is
// not in the transition graph. It carries the allowed next statuses.
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
	return fmt.Sprintf("cannot transition return from %s to %s (allowed: %s)",
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

// QCStatus represents the quality-control outcome for a received return
type QCStatus string

const (
	QCStatusPending QCStatus = "PENDING"
	QCStatusPassed  QCStatus = "PASSED"
	QCStatusFailed  QCStatus = "FAILED"
)

// IsValid checks if the status is a valid QCStatus
func (s QCStatus) IsValid() bool {
	switch s {
	case QCStatusPending, QCStatusPassed, QCStatusFailed:
		return true
	}
	return false
}
