package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Order represents one purchase transaction. It is the aggregate root for
// the order lifecycle: status and payment status are mutated only through
// the transition methods below, never by direct field writes, and orders
// are never deleted - cancellation is a terminal status, not a row removal.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber   string
	Status        Status
	PaymentStatus PaymentStatus

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	// Address snapshots copied at creation time, never re-derived from a
	// live address book.
	BillingAddress  valueobject.Address `gorm:"type:jsonb"`
	ShippingAddress valueobject.Address `gorm:"type:jsonb"`

	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal

	// Payment gateway correlation
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	TransactionID    string

	// Shipment tracking
	TrackingNumber string
	Carrier        string

	ConfirmedAt  *time.Time
	ShippedAt    *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string

	Items   []OrderItem
	History []StatusHistory
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order in PENDING/PENDING state
func NewOrder(orderNumber, customerName, customerEmail, customerPhone string, billing, shipping valueobject.Address) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer name cannot be empty")
	}
	if customerEmail == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer email cannot be empty")
	}
	if shipping.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address is required")
	}
	if billing.IsEmpty() {
		billing = shipping
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		Status:            StatusPending,
		PaymentStatus:     PaymentStatusPending,
		CustomerName:      customerName,
		CustomerEmail:     customerEmail,
		CustomerPhone:     customerPhone,
		BillingAddress:    billing,
		ShippingAddress:   shipping,
		Subtotal:          decimal.Zero,
		TaxAmount:         decimal.Zero,
		ShippingCost:      decimal.Zero,
		DiscountAmount:    decimal.Zero,
		Total:             decimal.Zero,
		Items:             make([]OrderItem, 0),
		History:           make([]StatusHistory, 0),
	}

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// AddItem adds a product snapshot to the order. Items can only be added
// before the order leaves PENDING; after that the snapshot is frozen.
func (o *Order) AddItem(productID uuid.UUID, productName, sku string, quantity int, unitPrice valueobject.Money, attributes string) (*OrderItem, error) {
	if o.Status != StatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to an order that has left pending status")
	}

	item, err := NewOrderItem(o.ID, productID, productName, sku, quantity, unitPrice, attributes)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return item, nil
}

// SetShippingCost sets the shipping cost, only while pending
func (o *Order) SetShippingCost(cost valueobject.Money) error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot change shipping cost after order confirmation")
	}
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Shipping cost cannot be negative")
	}

	o.ShippingCost = cost.Amount()
	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return nil
}

// SetTaxAmount sets the tax amount, only while pending
func (o *Order) SetTaxAmount(tax valueobject.Money) error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot change tax after order confirmation")
	}
	if tax.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Tax amount cannot be negative")
	}

	o.TaxAmount = tax.Amount()
	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return nil
}

// ApplyDiscount applies an order-level discount, only while pending
func (o *Order) ApplyDiscount(discount valueobject.Money) error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply discount after order confirmation")
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if discount.Amount().GreaterThan(o.Subtotal) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed subtotal")
	}

	o.DiscountAmount = discount.Amount()
	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return nil
}

// SetGatewayOrderID records the gateway-side order reference created at checkout
func (o *Order) SetGatewayOrderID(gatewayOrderID string) {
	o.GatewayOrderID = gatewayOrderID
	o.UpdatedAt = time.Now()
}

// SetTracking records shipment tracking details
func (o *Order) SetTracking(trackingNumber, carrier string) {
	o.TrackingNumber = trackingNumber
	o.Carrier = carrier
	o.UpdatedAt = time.Now()
}

// TransitionTo moves the order to a new status. The edge must exist in the
// transition graph; otherwise an InvalidTransitionError carrying the allowed
// next statuses is returned. Every successful transition appends exactly one
// status history entry.
func (o *Order) TransitionTo(target Status, actor, notes string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+string(target))
	}
	if !o.Status.CanTransitionTo(target) {
		return NewInvalidTransitionError(o.Status, target)
	}

	previous := o.Status
	now := time.Now()

	switch target {
	case StatusConfirmed:
		if len(o.Items) == 0 {
			return shared.NewDomainError("NO_ITEMS", "Cannot confirm an order without items")
		}
		o.ConfirmedAt = &now
		o.AddDomainEvent(NewOrderConfirmedEvent(o))
	case StatusShipped:
		// Set-once: a repeated shipment transition can never regress the timestamp
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
		o.AddDomainEvent(NewOrderShippedEvent(o))
	case StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
		o.AddDomainEvent(NewOrderDeliveredEvent(o))
	case StatusCancelled:
		o.CancelledAt = &now
		o.CancelReason = notes
		// Cancellation resolves the payment machine: a captured payment is
		// refunded, an uncaptured one is failed.
		switch o.PaymentStatus {
		case PaymentStatusPaid:
			o.PaymentStatus = PaymentStatusRefunded
		case PaymentStatusPending:
			o.PaymentStatus = PaymentStatusFailed
		}
		o.AddDomainEvent(NewOrderCancelledEvent(o, RestocksOnCancel(previous, target)))
	}

	o.Status = target
	o.History = append(o.History, newStatusHistory(o.ID, previous, target, actor, notes))
	o.UpdatedAt = now

	return nil
}

// MarkPaid records a successful payment capture. The operation is
// idempotent: if the order is already paid with the same gateway payment id
// it returns applied=false and no error, so a redelivered webhook produces
// no second side effect. A payment success while the order is still pending
// auto-advances the order to CONFIRMED.
func (o *Order) MarkPaid(gatewayPaymentID, gatewaySignature, transactionID, actor string) (applied bool, err error) {
	if o.PaymentStatus == PaymentStatusPaid && o.GatewayPaymentID == gatewayPaymentID {
		return false, nil
	}
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusPaid) {
		return false, NewInvalidPaymentTransitionError(o.PaymentStatus, PaymentStatusPaid)
	}

	o.PaymentStatus = PaymentStatusPaid
	o.GatewayPaymentID = gatewayPaymentID
	if gatewaySignature != "" {
		o.GatewaySignature = gatewaySignature
	}
	if transactionID != "" {
		o.TransactionID = transactionID
	}
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderPaidEvent(o))

	// Payment success implies order confirmation
	if o.Status == StatusPending {
		if err := o.TransitionTo(StatusConfirmed, actor, "Payment received"); err != nil {
			return false, err
		}
	}

	return true, nil
}

// MarkPaymentFailed records a failed payment attempt
func (o *Order) MarkPaymentFailed(reason string) error {
	if o.PaymentStatus == PaymentStatusFailed {
		return nil
	}
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusFailed) {
		return NewInvalidPaymentTransitionError(o.PaymentStatus, PaymentStatusFailed)
	}

	o.PaymentStatus = PaymentStatusFailed
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderPaymentFailedEvent(o, reason))

	return nil
}

// MarkRefunded moves the payment status to REFUNDED (full refund)
func (o *Order) MarkRefunded() error {
	if o.PaymentStatus == PaymentStatusRefunded {
		return nil
	}
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusRefunded) {
		return NewInvalidPaymentTransitionError(o.PaymentStatus, PaymentStatusRefunded)
	}

	o.PaymentStatus = PaymentStatusRefunded
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderRefundedEvent(o, false))

	return nil
}

// MarkPartiallyRefunded moves the payment status to PARTIALLY_REFUNDED
func (o *Order) MarkPartiallyRefunded() error {
	if o.PaymentStatus == PaymentStatusPartiallyRefunded {
		return nil
	}
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusPartiallyRefunded) {
		return NewInvalidPaymentTransitionError(o.PaymentStatus, PaymentStatusPartiallyRefunded)
	}

	o.PaymentStatus = PaymentStatusPartiallyRefunded
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderRefundedEvent(o, true))

	return nil
}

// IsPaidWith returns true if the order is already paid with the given
// gateway payment id. Used by the webhook processor's idempotency check.
func (o *Order) IsPaidWith(gatewayPaymentID string) bool {
	return o.PaymentStatus == PaymentStatusPaid && o.GatewayPaymentID == gatewayPaymentID
}

// recalculateTotals recomputes the monetary breakdown. The invariant
// Total = Subtotal + ShippingCost + TaxAmount - DiscountAmount holds after
// every write that touches a monetary field.
func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	o.Subtotal = subtotal
	o.Total = o.Subtotal.Add(o.ShippingCost).Add(o.TaxAmount).Sub(o.DiscountAmount)
}

// GetTotalMoney returns the order total as Money
func (o *Order) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyINR(o.Total)
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// GetItem returns an item by its ID, or nil
func (o *Order) GetItem(itemID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// IsDelivered returns true if the order has been delivered
func (o *Order) IsDelivered() bool {
	return o.Status == StatusDelivered
}

// IsCancelled returns true if the order is cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == StatusCancelled
}

// IsTerminal returns true if the order status permits no further transitions
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// CommitsStock reports whether the given status edge moves stock out of
// inventory. Stock is decremented exactly once, when the order first
// becomes confirmed.
func CommitsStock(from, to Status) bool {
	return from == StatusPending && to == StatusConfirmed
}

// RestocksOnCancel reports whether cancelling along the given edge must
// restore stock: any post-confirmation, pre-delivery state already had its
// stock decremented.
func RestocksOnCancel(from, to Status) bool {
	if to != StatusCancelled {
		return false
	}
	switch from {
	case StatusConfirmed, StatusProcessing, StatusShipped:
		return true
	}
	return false
}
