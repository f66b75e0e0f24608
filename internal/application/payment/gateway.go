package payment

import "context"

// PaymentDetails is the gateway's view of a payment, fetched for
// reconciliation. Amount is in minor currency units (paise).
type PaymentDetails struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Method    string `json:"method"`
}

// Gateway is the engine's contract with the payment provider. The engine
// never talks to the provider's API directly; it only needs signature
// verification over raw webhook bodies and payment detail lookups.
type Gateway interface {
	// VerifyWebhookSignature verifies the HMAC signature over the raw,
	// unparsed webhook body in constant time
	VerifyWebhookSignature(payload []byte, signature string) bool

	// VerifyPaymentSignature verifies the checkout callback signature over
	// "<gatewayOrderID>|<gatewayPaymentID>"
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool

	// FetchPaymentDetails fetches payment details from the gateway API
	FetchPaymentDetails(ctx context.Context, paymentID string) (*PaymentDetails, error)
}
