package payment

// Gateway webhook event types the processor routes on
const (
	EventPaymentCaptured   = "payment.captured"
	EventPaymentFailed     = "payment.failed"
	EventPaymentAuthorized = "payment.authorized"
	EventOrderPaid         = "order.paid"
	EventRefundCreated     = "refund.created"
)

// WebhookEvent is the gateway's event envelope as delivered on the webhook
type WebhookEvent struct {
	ID        string         `json:"id"`
	Event     string         `json:"event"`
	CreatedAt int64          `json:"created_at"`
	Payload   WebhookPayload `json:"payload"`
}

// WebhookPayload carries the entity the event is about. Exactly one of the
// fields is set depending on the event type.
type WebhookPayload struct {
	Payment *PaymentEntity `json:"payment,omitempty"`
	Refund  *RefundEntity  `json:"refund,omitempty"`
}

// PaymentEntity is the gateway's payment object inside webhook payloads.
// Amount is in minor currency units.
type PaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"` // gateway-side order id
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	Method           string `json:"method"`
	ErrorCode        string `json:"error_code,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// RefundEntity is the gateway's refund object inside webhook payloads.
// Amount is the refunded amount in minor currency units.
type RefundEntity struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"` // gateway-side order id
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}
