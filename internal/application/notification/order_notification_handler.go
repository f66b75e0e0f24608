package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderNotificationHandler mails customers on order lifecycle milestones.
// It runs after the transaction that produced the event has committed, so
// a mail failure can only cost a notification, never an order.
type OrderNotificationHandler struct {
	mailer Mailer
	logger *zap.Logger
}

// NewOrderNotificationHandler creates a handler for order lifecycle events
func NewOrderNotificationHandler(mailer Mailer, logger *zap.Logger) *OrderNotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderNotificationHandler{
		mailer: mailer,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderNotificationHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderPaid,
		order.EventTypeOrderShipped,
		order.EventTypeOrderDelivered,
		order.EventTypeOrderCancelled,
	}
}

// Handle builds and sends the customer mail for the event
func (h *OrderNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var to, subject, body string

	switch e := event.(type) {
	case *order.OrderCreatedEvent:
		to = e.CustomerEmail
		subject = fmt.Sprintf("Order %s received", e.OrderNumber)
		body = fmt.Sprintf("Hi %s, we have received your order %s for a total of ₹%s. We will confirm it as soon as your payment clears.",
			e.CustomerName, e.OrderNumber, e.Total.StringFixed(2))
	case *order.OrderPaidEvent:
		to = e.CustomerEmail
		subject = fmt.Sprintf("Payment received for order %s", e.OrderNumber)
		body = fmt.Sprintf("We have received your payment of ₹%s for order %s. Your order is confirmed and will ship soon.",
			e.Total.StringFixed(2), e.OrderNumber)
	case *order.OrderShippedEvent:
		to = e.CustomerEmail
		subject = fmt.Sprintf("Order %s shipped", e.OrderNumber)
		body = fmt.Sprintf("Your order %s is on its way. Track it with %s via %s.",
			e.OrderNumber, e.TrackingNumber, e.Carrier)
	case *order.OrderDeliveredEvent:
		to = e.CustomerEmail
		subject = fmt.Sprintf("Order %s delivered", e.OrderNumber)
		body = fmt.Sprintf("Your order %s has been delivered. We hope you love it!", e.OrderNumber)
	case *order.OrderCancelledEvent:
		to = e.CustomerEmail
		subject = fmt.Sprintf("Order %s cancelled", e.OrderNumber)
		body = fmt.Sprintf("Your order %s has been cancelled. Any captured payment will be refunded to the original method.",
			e.OrderNumber)
	default:
		h.logger.Warn("unexpected event type for order notifications",
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if to == "" {
		return nil
	}

	if err := h.mailer.Send(ctx, to, subject, body); err != nil {
		h.logger.Error("failed to send order notification",
			zap.String("event_type", event.EventType()),
			zap.String("to", to),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("order notification sent",
		zap.String("event_type", event.EventType()),
		zap.String("to", to),
	)
	return nil
}

// Ensure OrderNotificationHandler implements shared.EventHandler
var _ shared.EventHandler = (*OrderNotificationHandler)(nil)
