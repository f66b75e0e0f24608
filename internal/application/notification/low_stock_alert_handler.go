package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// LowStockAlertHandler mails the operations team when a product's stock
// status crosses into lowstock or outofstock. Recoveries (back to
// instock) are logged but not mailed.
type LowStockAlertHandler struct {
	opsEmail string
	mailer   Mailer
	logger   *zap.Logger
}

// NewLowStockAlertHandler creates a handler for stock status boundary events
func NewLowStockAlertHandler(opsEmail string, mailer Mailer, logger *zap.Logger) *LowStockAlertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockAlertHandler{
		opsEmail: opsEmail,
		mailer:   mailer,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockStatusChanged}
}

// Handle mails operations when stock degrades across a threshold
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	statusEvent, ok := event.(*inventory.StockStatusChangedEvent)
	if !ok {
		h.logger.Warn("unexpected event type for stock alerts",
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if statusEvent.NewStatus == inventory.StockStatusInStock {
		h.logger.Info("product stock recovered",
			zap.String("sku", statusEvent.SKU),
			zap.String("previous_status", string(statusEvent.PreviousStatus)),
		)
		return nil
	}

	if h.opsEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("[stock alert] %s is %s", statusEvent.SKU, statusEvent.NewStatus)
	body := fmt.Sprintf("%s (%s) moved from %s to %s with %d units remaining. Consider restocking.",
		statusEvent.ProductName, statusEvent.SKU,
		statusEvent.PreviousStatus, statusEvent.NewStatus, statusEvent.StockQuantity)

	if err := h.mailer.Send(ctx, h.opsEmail, subject, body); err != nil {
		h.logger.Error("failed to send stock alert",
			zap.String("sku", statusEvent.SKU),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("stock alert sent",
		zap.String("sku", statusEvent.SKU),
		zap.String("new_status", string(statusEvent.NewStatus)),
	)
	return nil
}

// Ensure LowStockAlertHandler implements shared.EventHandler
var _ shared.EventHandler = (*LowStockAlertHandler)(nil)
