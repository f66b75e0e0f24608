package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/shared"
)

// ReturnNotificationHandler mails customers about decisions on their
// return requests. Return events carry only identifiers, so the handler
// loads the return to resolve the recipient.
type ReturnNotificationHandler struct {
	returnRepo returns.Repository
	mailer     Mailer
	logger     *zap.Logger
}

// NewReturnNotificationHandler creates a handler for return lifecycle events
func NewReturnNotificationHandler(returnRepo returns.Repository, mailer Mailer, logger *zap.Logger) *ReturnNotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReturnNotificationHandler{
		returnRepo: returnRepo,
		mailer:     mailer,
		logger:     logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ReturnNotificationHandler) EventTypes() []string {
	return []string{
		returns.EventTypeReturnCreated,
		returns.EventTypeReturnApproved,
		returns.EventTypeReturnRejected,
		returns.EventTypeReturnRefunded,
	}
}

// Handle builds and sends the customer mail for the event
func (h *ReturnNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	ret, err := h.returnRepo.FindByID(ctx, event.AggregateID())
	if err != nil {
		h.logger.Error("failed to load return for notification",
			zap.String("event_type", event.EventType()),
			zap.String("return_id", event.AggregateID().String()),
			zap.Error(err),
		)
		return err
	}

	var subject, body string
	switch e := event.(type) {
	case *returns.ReturnCreatedEvent:
		subject = fmt.Sprintf("Return request %s received", e.ReturnNumber)
		body = fmt.Sprintf("Hi %s, we have received your return request %s for order %s. We will review it shortly.",
			ret.CustomerName, e.ReturnNumber, e.OrderNumber)
	case *returns.ReturnApprovedEvent:
		subject = fmt.Sprintf("Return %s approved", e.ReturnNumber)
		body = fmt.Sprintf("Your return %s has been approved. Please ship the items back to us and share the tracking number.",
			e.ReturnNumber)
	case *returns.ReturnRejectedEvent:
		subject = fmt.Sprintf("Return %s rejected", e.ReturnNumber)
		body = fmt.Sprintf("Your return %s could not be accepted: %s", e.ReturnNumber, e.Reason)
	case *returns.ReturnRefundedEvent:
		subject = fmt.Sprintf("Refund issued for return %s", e.ReturnNumber)
		body = fmt.Sprintf("We have issued a refund of ₹%s for return %s. It should reach your account within 5-7 business days.",
			e.RefundAmount.StringFixed(2), e.ReturnNumber)
	default:
		return nil
	}

	if ret.CustomerEmail == "" {
		return nil
	}

	if err := h.mailer.Send(ctx, ret.CustomerEmail, subject, body); err != nil {
		h.logger.Error("failed to send return notification",
			zap.String("event_type", event.EventType()),
			zap.String("to", ret.CustomerEmail),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("return notification sent",
		zap.String("event_type", event.EventType()),
		zap.String("to", ret.CustomerEmail),
	)
	return nil
}

// Ensure ReturnNotificationHandler implements shared.EventHandler
var _ shared.EventHandler = (*ReturnNotificationHandler)(nil)
