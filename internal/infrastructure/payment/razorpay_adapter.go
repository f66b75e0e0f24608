package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apppayment "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const razorpayPaymentPath = "/payments/%s"

// Gateway API errors
var (
	ErrGatewayUnavailable   = shared.NewDomainError("GATEWAY_UNAVAILABLE", "Payment gateway is unreachable")
	ErrGatewayRequestFailed = shared.NewDomainError("GATEWAY_REQUEST_FAILED", "Payment gateway request failed")
)

// RazorpayAdapter talks to a Razorpay-compatible payment gateway. It covers
// the two things the order engine needs from the provider: HMAC signature
// verification and payment detail lookups for webhook reconciliation.
//
// Signature verification never parses the body first - the HMAC is computed
// over the raw bytes exactly as received on the wire.
type RazorpayAdapter struct {
	config     config.GatewayConfig
	httpClient *http.Client
}

// NewRazorpayAdapter creates a new Razorpay gateway adapter
func NewRazorpayAdapter(cfg config.GatewayConfig) (*RazorpayAdapter, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("razorpay: key_id and key_secret are required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("razorpay: webhook_secret is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RazorpayAdapter{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// VerifyWebhookSignature verifies the X-Razorpay-Signature header value
// against the raw webhook body using the webhook secret
func (a *RazorpayAdapter) VerifyWebhookSignature(payload []byte, signature string) bool {
	return verifyHMAC(payload, signature, a.config.WebhookSecret)
}

// VerifyPaymentSignature verifies the checkout callback signature, which the
// gateway computes over "<gatewayOrderID>|<gatewayPaymentID>" with the key
// secret
func (a *RazorpayAdapter) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	message := gatewayOrderID + "|" + gatewayPaymentID
	return verifyHMAC([]byte(message), signature, a.config.KeySecret)
}

// FetchPaymentDetails fetches a payment from the gateway API for
// amount reconciliation
func (a *RazorpayAdapter) FetchPaymentDetails(ctx context.Context, paymentID string) (*apppayment.PaymentDetails, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("razorpay: payment id is required")
	}

	url := a.config.BaseURL + fmt.Sprintf(razorpayPaymentPath, paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(a.config.KeyID, a.config.KeySecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp razorpayErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return nil, fmt.Errorf("%w: %s - %s", ErrGatewayRequestFailed, errResp.Error.Code, errResp.Error.Description)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrGatewayRequestFailed, resp.StatusCode)
	}

	var p razorpayPayment
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, fmt.Errorf("razorpay: failed to parse response: %w", err)
	}

	return &apppayment.PaymentDetails{
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Status:    p.Status,
		Method:    p.Method,
	}, nil
}

// verifyHMAC compares an expected HMAC-SHA256 hex digest against the
// received signature in constant time
func verifyHMAC(message []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// Ensure RazorpayAdapter implements the gateway contract
var _ apppayment.Gateway = (*RazorpayAdapter)(nil)
