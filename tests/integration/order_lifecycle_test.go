package integration

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventoryapp "github.com/storefront/backend/internal/application/inventory"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	returnsapp "github.com/storefront/backend/internal/application/returns"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
)

const testWebhookSecret = "whsec_integration_test"

// lifecycleSetup wires the full application stack over a real database
type lifecycleSetup struct {
	DB               *TestDB
	MovementRepo     inventory.StockMovementRepository
	StockRepo        inventory.ProductStockRepository
	OrderService     *orderapp.Service
	ReturnService    *returnsapp.Service
	InventoryService *inventoryapp.Service
	WebhookService   *paymentapp.WebhookService
}

func newLifecycleSetup(t *testing.T) *lifecycleSetup {
	t.Helper()

	tdb := NewTestDB(t)
	txScope := persistence.NewGormTransactionScope(tdb.DB)
	ledger := inventory.NewLedgerService()

	gateway, err := payment.NewRazorpayAdapter(config.GatewayConfig{
		KeyID:         "rzp_test_integration",
		KeySecret:     "key_secret_integration",
		WebhookSecret: testWebhookSecret,
		BaseURL:       "https://gateway.invalid/v1",
		Timeout:       time.Second,
	})
	require.NoError(t, err)

	idemStore := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idemStore.Close() })

	webhookService := paymentapp.NewWebhookService(paymentapp.WebhookServiceConfig{
		Gateway:          gateway,
		TxScope:          txScope,
		Ledger:           ledger,
		IdempotencyStore: idemStore,
		Idempotency:      shared.IdempotencyConfig{TTL: time.Hour, Enabled: true},
	})

	return &lifecycleSetup{
		DB:               tdb,
		MovementRepo:     persistence.NewGormStockMovementRepository(tdb.DB),
		StockRepo:        persistence.NewGormProductStockRepository(tdb.DB),
		OrderService:     orderapp.NewService(txScope, ledger),
		ReturnService:    returnsapp.NewService(txScope, ledger, returnsapp.Policy{WindowDays: 30}),
		InventoryService: inventoryapp.NewService(txScope, ledger),
		WebhookService:   webhookService,
	}
}

func (s *lifecycleSetup) registerProduct(t *testing.T, quantity int) uuid.UUID {
	t.Helper()

	productID := uuid.New()
	_, err := s.InventoryService.RegisterProduct(context.Background(), inventoryapp.RegisterProductRequest{
		ProductID:         productID,
		SKU:               "SKU-" + productID.String()[:8],
		ProductName:       "Integration Widget",
		InitialQuantity:   quantity,
		LowStockThreshold: 2,
	})
	require.NoError(t, err)
	return productID
}

func (s *lifecycleSetup) createOrder(t *testing.T, productID uuid.UUID, quantity int, unitPrice string, gatewayOrderID string) *orderapp.OrderResponse {
	t.Helper()

	price, err := decimal.NewFromString(unitPrice)
	require.NoError(t, err)

	resp, err := s.OrderService.Create(context.Background(), orderapp.CreateOrderRequest{
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		ShippingAddress: orderapp.AddressInput{
			FullName:   "Asha Rao",
			Line1:      "14 MG Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
			Country:    "IN",
		},
		Items: []orderapp.CreateOrderItemInput{{
			ProductID:   productID,
			ProductName: "Integration Widget",
			SKU:         "SKU-TEST",
			Quantity:    quantity,
			UnitPrice:   price,
		}},
		GatewayOrderID: gatewayOrderID,
	})
	require.NoError(t, err)
	return resp
}

func (s *lifecycleSetup) stockQuantity(t *testing.T, productID uuid.UUID) int {
	t.Helper()

	stock, err := s.StockRepo.FindByProductID(context.Background(), productID)
	require.NoError(t, err)
	return stock.StockQuantity
}

func (s *lifecycleSetup) movements(t *testing.T, productID uuid.UUID) []inventory.StockMovement {
	t.Helper()

	movements, err := s.MovementRepo.FindByProductID(context.Background(), productID, shared.Filter{})
	require.NoError(t, err)
	return movements
}

func signWebhook(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedEventBody(t *testing.T, eventID, gatewayOrderID, paymentID string, amount int64) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"id":         eventID,
		"event":      "payment.captured",
		"created_at": time.Now().Unix(),
		"payload": map[string]any{
			"payment": map[string]any{
				"id":       paymentID,
				"order_id": gatewayOrderID,
				"amount":   amount,
				"currency": "INR",
				"status":   "captured",
				"method":   "upi",
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestOrderConfirmationCommitsAndCancelRestoresStock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := newLifecycleSetup(t)
	ctx := context.Background()

	productID := setup.registerProduct(t, 20)
	created := setup.createOrder(t, productID, 3, "100.00", "")

	// Creation reserves nothing: stock moves on confirmation only
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, 20, setup.stockQuantity(t, productID))

	confirmed, err := setup.OrderService.UpdateStatus(ctx, created.ID, orderapp.UpdateStatusRequest{
		Status: "CONFIRMED",
		Actor:  "ops",
	})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", confirmed.Status)
	assert.Equal(t, 17, setup.stockQuantity(t, productID))

	// Registration left an opening RESTOCK row, confirmation adds the SALE
	movements := setup.movements(t, productID)
	require.Len(t, movements, 2)
	assert.Equal(t, inventory.MovementTypeSale, movements[1].Type)
	assert.Equal(t, -3, movements[1].Quantity)
	assert.Equal(t, 17, movements[1].StockAfter)
	assert.Equal(t, created.OrderNumber, movements[1].Reference)

	cancelled, err := setup.OrderService.UpdateStatus(ctx, created.ID, orderapp.UpdateStatusRequest{
		Status: "CANCELLED",
		Actor:  "ops",
		Notes:  "customer changed their mind",
	})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	// Cancelling an unpaid order resolves the payment machine to FAILED
	assert.Equal(t, "FAILED", cancelled.PaymentStatus)
	assert.Equal(t, 20, setup.stockQuantity(t, productID))

	movements = setup.movements(t, productID)
	require.Len(t, movements, 3)
	assert.Equal(t, inventory.MovementTypeReturn, movements[2].Type)
	assert.Equal(t, 3, movements[2].Quantity)
	assert.Equal(t, 20, movements[2].StockAfter)

	history, err := setup.OrderService.GetStatusHistory(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "CONFIRMED", history[0].NewStatus)
	assert.Equal(t, "CANCELLED", history[1].NewStatus)
}

func TestWebhookPaymentCaptureIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := newLifecycleSetup(t)
	ctx := context.Background()

	productID := setup.registerProduct(t, 10)
	created := setup.createOrder(t, productID, 2, "150.00", "order_itest_1")

	// Total 300.00 INR = 30000 minor units
	body := capturedEventBody(t, "evt_itest_1", "order_itest_1", "pay_itest_1", 30000)

	result, err := setup.WebhookService.ProcessWebhook(ctx, body, signWebhook(body))
	require.NoError(t, err)
	assert.Equal(t, paymentapp.OutcomeAccepted, result.Outcome)

	updated, err := setup.OrderService.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", updated.PaymentStatus)
	// Payment success auto-advances a pending order and commits stock
	assert.Equal(t, "CONFIRMED", updated.Status)
	assert.Equal(t, "pay_itest_1", updated.GatewayPaymentID)
	assert.Equal(t, 8, setup.stockQuantity(t, productID))

	// Redelivery of the same event is absorbed by the idempotency store
	result, err = setup.WebhookService.ProcessWebhook(ctx, body, signWebhook(body))
	require.NoError(t, err)
	assert.Equal(t, paymentapp.OutcomeAccepted, result.Outcome)
	assert.Equal(t, "duplicate delivery", result.Message)
	assert.Equal(t, 8, setup.stockQuantity(t, productID))

	// Same capture under a fresh event id hits the in-transaction guard
	body = capturedEventBody(t, "evt_itest_2", "order_itest_1", "pay_itest_1", 30000)
	result, err = setup.WebhookService.ProcessWebhook(ctx, body, signWebhook(body))
	require.NoError(t, err)
	assert.Equal(t, paymentapp.OutcomeAccepted, result.Outcome)
	assert.Equal(t, "payment already recorded", result.Message)
	assert.Equal(t, 8, setup.stockQuantity(t, productID))

	// Opening RESTOCK plus a single SALE despite three deliveries
	require.Len(t, setup.movements(t, productID), 2)
}

func TestWebhookAmountMismatchLeavesOrderUntouched(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := newLifecycleSetup(t)
	ctx := context.Background()

	productID := setup.registerProduct(t, 10)
	created := setup.createOrder(t, productID, 2, "150.00", "order_itest_2")

	// Captured 100.00 against a 300.00 order
	body := capturedEventBody(t, "evt_itest_3", "order_itest_2", "pay_itest_2", 10000)

	result, err := setup.WebhookService.ProcessWebhook(ctx, body, signWebhook(body))
	require.ErrorIs(t, err, shared.ErrAmountMismatch)
	assert.Equal(t, paymentapp.OutcomeRejected, result.Outcome)

	updated, err := setup.OrderService.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", updated.PaymentStatus)
	assert.Equal(t, "PENDING", updated.Status)
	assert.Equal(t, 10, setup.stockQuantity(t, productID))
	// Only the opening RESTOCK row, nothing from the rejected capture
	require.Len(t, setup.movements(t, productID), 1)
}

func TestReturnRefundRestocksAndReconcilesPayment(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := newLifecycleSetup(t)
	ctx := context.Background()

	productID := setup.registerProduct(t, 15)
	created := setup.createOrder(t, productID, 4, "50.00", "order_itest_3")

	// No verifier configured, so the synchronous confirmation is accepted
	paid, err := setup.OrderService.ConfirmPayment(ctx, created.ID, orderapp.ConfirmPaymentRequest{
		GatewayOrderID:   "order_itest_3",
		GatewayPaymentID: "pay_itest_3",
		GatewaySignature: "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, "PAID", paid.PaymentStatus)
	assert.Equal(t, "CONFIRMED", paid.Status)
	assert.Equal(t, 11, setup.stockQuantity(t, productID))

	for _, status := range []string{"PROCESSING", "SHIPPED", "DELIVERED"} {
		_, err := setup.OrderService.UpdateStatus(ctx, created.ID, orderapp.UpdateStatusRequest{
			Status: status,
			Actor:  "ops",
		})
		require.NoError(t, err)
	}

	ret, err := setup.ReturnService.Create(ctx, returnsapp.CreateReturnRequest{
		OrderID: created.ID,
		Reason:  "Wrong size",
		Items: []returnsapp.ReturnItemInput{{
			OrderItemID: paid.Items[0].ID,
			Quantity:    3,
			Restockable: true,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", ret.Status)
	assert.True(t, ret.RefundAmount.Equal(decimal.RequireFromString("150.00")))

	for _, status := range []string{"APPROVED", "RECEIVED"} {
		ret, err = setup.ReturnService.UpdateStatus(ctx, ret.ID, returnsapp.UpdateStatusRequest{
			Status: status,
			Actor:  "ops",
		})
		require.NoError(t, err)
	}

	// Processing requires a recorded QC outcome
	_, err = setup.ReturnService.UpdateStatus(ctx, ret.ID, returnsapp.UpdateStatusRequest{Status: "PROCESSED"})
	require.Error(t, err)

	ret, err = setup.ReturnService.RecordQC(ctx, ret.ID, returnsapp.RecordQCRequest{
		Result: "PASSED",
		Notes:  "all items intact",
	})
	require.NoError(t, err)
	assert.Equal(t, "PASSED", ret.QCStatus)

	ret, err = setup.ReturnService.UpdateStatus(ctx, ret.ID, returnsapp.UpdateStatusRequest{Status: "PROCESSED"})
	require.NoError(t, err)

	ret, err = setup.ReturnService.UpdateStatus(ctx, ret.ID, returnsapp.UpdateStatusRequest{Status: "REFUNDED"})
	require.NoError(t, err)
	assert.Equal(t, "REFUNDED", ret.Status)

	// 3 of 4 units refunded: partial refund on the order, stock restored
	updated, err := setup.OrderService.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "PARTIALLY_REFUNDED", updated.PaymentStatus)
	assert.Equal(t, 14, setup.stockQuantity(t, productID))

	movements := setup.movements(t, productID)
	require.Len(t, movements, 3)
	assert.Equal(t, inventory.MovementTypeReturn, movements[2].Type)
	assert.Equal(t, 3, movements[2].Quantity)
	assert.Equal(t, ret.ReturnNumber, movements[2].Reference)

	// Ledger replay: summing every delta from zero must reproduce the
	// projection, and the last row's running balance must agree
	total := 0
	for _, movement := range movements {
		total += movement.Quantity
	}
	assert.Equal(t, setup.stockQuantity(t, productID), total)
	assert.Equal(t, setup.stockQuantity(t, productID), movements[len(movements)-1].StockAfter)
}
