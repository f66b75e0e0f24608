package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	appshared "github.com/storefront/backend/internal/application/shared"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// Webhook processing outcomes
const (
	OutcomeAccepted = "accepted" // side effects applied, or duplicate no-op
	OutcomeRejected = "rejected" // signature failed or amount mismatched, nothing changed
	OutcomeIgnored  = "ignored"  // unknown event type, acknowledged so the gateway stops retrying
)

// WebhookResult contains the result of processing a gateway webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Outcome   string `json:"outcome"`
	Message   string `json:"message,omitempty"`
}

// DefaultAmountTolerance is the permitted difference, in minor currency units,
// between the captured amount and the order total. One unit absorbs
// rounding between the gateway and the decimal order total.
const DefaultAmountTolerance = 1

// WebhookServiceConfig contains configuration for WebhookService
type WebhookServiceConfig struct {
	Gateway          Gateway
	TxScope          appshared.TransactionScope
	Ledger           *inventory.LedgerService
	IdempotencyStore shared.IdempotencyStore
	Idempotency      shared.IdempotencyConfig
	EventBus         shared.EventPublisher
	AmountTolerance  int64
	Logger           *zap.Logger
}

// WebhookService processes payment gateway webhook events. Events may be
// delivered more than once; every side effect is guarded twice - by the
// event-id idempotency store up front and by the order's payment state
// inside the write transaction, which closes the race between two
// concurrent deliveries of the same event.
type WebhookService struct {
	gateway    Gateway
	txScope    appshared.TransactionScope
	ledger     *inventory.LedgerService
	idemStore  shared.IdempotencyStore
	idemConfig shared.IdempotencyConfig
	eventBus   shared.EventPublisher
	tolerance  int64
	logger     *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	tolerance := cfg.AmountTolerance
	if tolerance <= 0 {
		tolerance = DefaultAmountTolerance
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		gateway:    cfg.Gateway,
		txScope:    cfg.TxScope,
		ledger:     cfg.Ledger,
		idemStore:  cfg.IdempotencyStore,
		idemConfig: cfg.Idempotency,
		eventBus:   cfg.EventBus,
		tolerance:  tolerance,
		logger:     logger,
	}
}

// ProcessWebhook verifies, deduplicates and applies one gateway webhook
// delivery. The signature is checked over the raw body before the body is
// parsed; a mismatch or missing header rejects the delivery without any
// state change. Order update, history append and ledger rows for one event
// commit or roll back together.
func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if signature == "" || !s.gateway.VerifyWebhookSignature(payload, signature) {
		s.logger.Error("Webhook signature verification failed",
			zap.Int("payload_bytes", len(payload)))
		return &WebhookResult{Outcome: OutcomeRejected, Message: "invalid signature"}, shared.ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Error("Failed to parse webhook payload", zap.Error(err))
		return &WebhookResult{Outcome: OutcomeRejected, Message: "malformed payload"},
			shared.NewDomainError("INVALID_PAYLOAD", "Webhook payload is not valid JSON")
	}

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: event.Event,
		Outcome:   OutcomeAccepted,
	}

	// Whole-event redelivery short-circuit. Best effort: a store failure
	// falls through to the in-transaction payment-state guard.
	if s.idemStore != nil && s.idemConfig.Enabled && event.ID != "" {
		processed, err := s.idemStore.IsProcessed(ctx, event.ID)
		if err != nil {
			s.logger.Warn("Idempotency store lookup failed",
				zap.String("event_id", event.ID), zap.Error(err))
		} else if processed {
			result.Message = "duplicate delivery"
			return result, nil
		}
	}

	s.logger.Info("Processing gateway webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Event))

	var err error
	switch event.Event {
	case EventPaymentCaptured, EventOrderPaid:
		// The gateway emits both for a successful payment with no ordering
		// guarantee; both are the same idempotent mark-paid keyed by the
		// gateway payment id.
		err = s.handlePaymentCaptured(ctx, event, result)
	case EventPaymentFailed:
		err = s.handlePaymentFailed(ctx, event, result)
	case EventPaymentAuthorized:
		// Authorization precedes capture and changes no order state
		result.Message = "authorization acknowledged"
	case EventRefundCreated:
		err = s.handleRefundCreated(ctx, event, result)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", event.Event))
		result.Outcome = OutcomeIgnored
		result.Message = "event type not handled"
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Event),
			zap.Error(err))
		result.Outcome = OutcomeRejected
		result.Message = err.Error()
		return result, err
	}

	if s.idemStore != nil && s.idemConfig.Enabled && event.ID != "" {
		if _, err := s.idemStore.MarkProcessed(ctx, event.ID, s.idemConfig.TTL); err != nil {
			s.logger.Warn("Failed to mark event as processed",
				zap.String("event_id", event.ID), zap.Error(err))
		}
	}

	return result, nil
}

// handlePaymentCaptured marks the order paid and commits stock, exactly once
// per gateway payment id no matter how often the event is delivered.
func (s *WebhookService) handlePaymentCaptured(ctx context.Context, event WebhookEvent, result *WebhookResult) error {
	payment := event.Payload.Payment
	if payment == nil || payment.ID == "" {
		return shared.NewDomainError("INVALID_PAYLOAD", "Payment entity missing from event payload")
	}

	// Some gateway event variants omit the amount; the authoritative value
	// is then fetched from the gateway API before any state is touched.
	capturedAmount := payment.Amount
	if capturedAmount <= 0 {
		details, err := s.gateway.FetchPaymentDetails(ctx, payment.ID)
		if err != nil {
			return fmt.Errorf("fetch payment %s from gateway: %w", payment.ID, err)
		}
		capturedAmount = details.Amount
		s.logger.Info("Fetched payment amount from gateway",
			zap.String("payment_id", payment.ID),
			zap.Int64("amount_minor_units", capturedAmount))
	}

	var updated *order.Order
	var stockEvents []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByGatewayOrderID(ctx, payment.OrderID)
		if err != nil {
			return fmt.Errorf("find order for gateway order %s: %w", payment.OrderID, err)
		}
		o, err = repos.OrderRepo().FindByIDForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}

		// Idempotency guard, inside the write transaction: a second
		// delivery of this capture sees the payment already recorded and
		// leaves without any side effect.
		if o.IsPaidWith(payment.ID) {
			result.Message = "payment already recorded"
			return nil
		}

		// Amount reconciliation in minor units. A mismatch is a fail-safe,
		// not an error to auto-correct: the order stays untouched.
		orderMinor := o.GetTotalMoney().MinorUnits()
		if diff := orderMinor - capturedAmount; diff > s.tolerance || diff < -s.tolerance {
			s.logger.Error("Webhook amount does not match order total",
				zap.String("order_number", o.OrderNumber),
				zap.Int64("order_minor_units", orderMinor),
				zap.Int64("captured_minor_units", capturedAmount))
			return shared.ErrAmountMismatch
		}

		from := o.Status
		applied, err := o.MarkPaid(payment.ID, "", "", "payment-gateway")
		if err != nil {
			return err
		}
		if applied && order.CommitsStock(from, o.Status) {
			for _, item := range o.Items {
				stock, err := s.ledger.ApplyDelta(ctx, repos, item.ProductID, -item.Quantity,
					inventory.MovementTypeSale, "Order confirmed", o.OrderNumber)
				if err != nil {
					return err
				}
				stockEvents = append(stockEvents, stock.GetDomainEvents()...)
				stock.ClearDomainEvents()
			}
		}

		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, updated)
	s.publishStockEvents(ctx, stockEvents)
	return nil
}

// handlePaymentFailed records a failed payment attempt
func (s *WebhookService) handlePaymentFailed(ctx context.Context, event WebhookEvent, result *WebhookResult) error {
	payment := event.Payload.Payment
	if payment == nil {
		return shared.NewDomainError("INVALID_PAYLOAD", "Payment entity missing from event payload")
	}

	reason := payment.ErrorDescription
	if reason == "" {
		reason = "Payment failed at gateway"
	}

	var updated *order.Order
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByGatewayOrderID(ctx, payment.OrderID)
		if err != nil {
			return fmt.Errorf("find order for gateway order %s: %w", payment.OrderID, err)
		}
		o, err = repos.OrderRepo().FindByIDForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}

		if o.PaymentStatus == order.PaymentStatusFailed {
			result.Message = "failure already recorded"
			return nil
		}
		if err := o.MarkPaymentFailed(reason); err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, updated)
	return nil
}

// handleRefundCreated reflects a gateway-initiated refund on the order's
// payment status: a refund covering the full total is a full refund,
// anything less is partial.
func (s *WebhookService) handleRefundCreated(ctx context.Context, event WebhookEvent, result *WebhookResult) error {
	refund := event.Payload.Refund
	if refund == nil {
		return shared.NewDomainError("INVALID_PAYLOAD", "Refund entity missing from event payload")
	}

	var updated *order.Order
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByGatewayOrderID(ctx, refund.OrderID)
		if err != nil {
			return fmt.Errorf("find order for gateway order %s: %w", refund.OrderID, err)
		}
		o, err = repos.OrderRepo().FindByIDForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}

		if o.PaymentStatus == order.PaymentStatusRefunded {
			result.Message = "refund already recorded"
			return nil
		}

		orderMinor := o.GetTotalMoney().MinorUnits()
		if refund.Amount >= orderMinor-s.tolerance {
			err = o.MarkRefunded()
		} else {
			err = o.MarkPartiallyRefunded()
		}
		if err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, updated)
	return nil
}

func (s *WebhookService) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventBus == nil || o == nil {
		return
	}
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
	o.ClearDomainEvents()
}

func (s *WebhookService) publishStockEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish stock events", zap.Error(err))
	}
}
