package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appshared "github.com/storefront/backend/internal/application/shared"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ==================== test fakes ====================

type fakeGateway struct {
	secret      string
	fetchAmount int64
	fetchErr    error
	fetches     int
}

func (g *fakeGateway) VerifyWebhookSignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *fakeGateway) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(signature))
}

func (g *fakeGateway) FetchPaymentDetails(_ context.Context, paymentID string) (*PaymentDetails, error) {
	g.fetches++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return &PaymentDetails{
		PaymentID: paymentID,
		OrderID:   "gw_order_1",
		Amount:    g.fetchAmount,
		Currency:  "INR",
		Status:    "captured",
	}, nil
}

func (g *fakeGateway) sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*order.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeOrderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (*order.Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) (*order.Order, error) {
	for _, o := range r.orders {
		if o.GatewayOrderID == gatewayOrderID {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) FindAll(_ context.Context, _ shared.Filter) ([]order.Order, error) {
	var out []order.Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrderRepo) Save(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.orders)), nil
}

func (r *fakeOrderRepo) FindStatusHistory(_ context.Context, orderID uuid.UUID) ([]order.StatusHistory, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o.History, nil
}

func (r *fakeOrderRepo) ExistsByOrderNumber(_ context.Context, orderNumber string) (bool, error) {
	_, err := r.FindByOrderNumber(context.Background(), orderNumber)
	return err == nil, nil
}

func (r *fakeOrderRepo) GenerateOrderNumber(_ context.Context) (string, error) {
	return "ORD-20250114-0001", nil
}

type fakeStockRepo struct {
	stocks map[uuid.UUID]*inventory.ProductStock
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{stocks: make(map[uuid.UUID]*inventory.ProductStock)}
}

func (r *fakeStockRepo) FindByProductID(_ context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	stock, ok := r.stocks[productID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return stock, nil
}

func (r *fakeStockRepo) FindByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	return r.FindByProductID(ctx, productID)
}

func (r *fakeStockRepo) FindByProductIDs(_ context.Context, productIDs []uuid.UUID) ([]inventory.ProductStock, error) {
	var out []inventory.ProductStock
	for _, id := range productIDs {
		if stock, ok := r.stocks[id]; ok {
			out = append(out, *stock)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) FindBelowThreshold(_ context.Context, _ shared.Filter) ([]inventory.ProductStock, error) {
	return nil, nil
}

func (r *fakeStockRepo) Save(_ context.Context, stock *inventory.ProductStock) error {
	r.stocks[stock.ProductID] = stock
	return nil
}

type fakeMovementRepo struct {
	movements []inventory.StockMovement
}

func (r *fakeMovementRepo) Append(_ context.Context, movement *inventory.StockMovement) error {
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeMovementRepo) FindByProductID(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) FindByReference(_ context.Context, reference string) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.Reference == reference {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) CountByProductID(_ context.Context, productID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range r.movements {
		if m.ProductID == productID {
			n++
		}
	}
	return n, nil
}

type fakeIdemStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{seen: make(map[string]bool)}
}

func (s *fakeIdemStore) MarkProcessed(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *fakeIdemStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[eventID], nil
}

func (s *fakeIdemStore) Close() error { return nil }

// ==================== fixture ====================

type webhookFixture struct {
	svc       *WebhookService
	gateway   *fakeGateway
	orderRepo *fakeOrderRepo
	stockRepo *fakeStockRepo
	moveRepo  *fakeMovementRepo
	order     *order.Order
	productID uuid.UUID
}

// newWebhookFixture seeds a pending order of 2 x 499.00 with gateway order
// id gw_order_1 and 10 units of stock for its product.
func newWebhookFixture(t *testing.T) *webhookFixture {
	gateway := &fakeGateway{secret: "whsec_test"}
	orderRepo := newFakeOrderRepo()
	stockRepo := newFakeStockRepo()
	moveRepo := &fakeMovementRepo{}

	addr, err := valueobject.NewAddress("Asha Rao", "12 MG Road", "Bengaluru", "Karnataka", "560001")
	require.NoError(t, err)
	o, err := order.NewOrder("ORD-20250114-0001", "Asha Rao", "asha@example.com", "", addr, addr)
	require.NoError(t, err)

	productID := uuid.New()
	_, err = o.AddItem(productID, "Cotton Kurta", "SKU-001", 2, valueobject.NewMoneyINRFromFloat(499.00), "")
	require.NoError(t, err)
	o.SetGatewayOrderID("gw_order_1")
	o.ClearDomainEvents()
	require.NoError(t, orderRepo.Save(context.Background(), o))

	stock, err := inventory.NewProductStock(productID, "SKU-001", "Cotton Kurta", 10, 5)
	require.NoError(t, err)
	require.NoError(t, stockRepo.Save(context.Background(), stock))

	txScope := appshared.NewNoOpTransactionScope(orderRepo, nil, stockRepo, moveRepo)
	svc := NewWebhookService(WebhookServiceConfig{
		Gateway:          gateway,
		TxScope:          txScope,
		Ledger:           inventory.NewLedgerService(),
		IdempotencyStore: newFakeIdemStore(),
		Idempotency:      shared.DefaultIdempotencyConfig(),
	})

	return &webhookFixture{
		svc:       svc,
		gateway:   gateway,
		orderRepo: orderRepo,
		stockRepo: stockRepo,
		moveRepo:  moveRepo,
		order:     o,
		productID: productID,
	}
}

func (f *webhookFixture) deliver(t *testing.T, event WebhookEvent) (*WebhookResult, error) {
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return f.svc.ProcessWebhook(context.Background(), payload, f.gateway.sign(payload))
}

func capturedEvent(eventID, paymentID string, amountMinor int64) WebhookEvent {
	return WebhookEvent{
		ID:    eventID,
		Event: EventPaymentCaptured,
		Payload: WebhookPayload{Payment: &PaymentEntity{
			ID:       paymentID,
			OrderID:  "gw_order_1",
			Amount:   amountMinor,
			Currency: "INR",
			Status:   "captured",
		}},
	}
}

// ==================== tests ====================

func TestWebhookService_SignatureVerification(t *testing.T) {
	f := newWebhookFixture(t)
	payload, err := json.Marshal(capturedEvent("evt_1", "pay_1", 99800))
	require.NoError(t, err)

	t.Run("rejects missing signature", func(t *testing.T) {
		result, err := f.svc.ProcessWebhook(context.Background(), payload, "")
		assert.ErrorIs(t, err, shared.ErrInvalidSignature)
		assert.Equal(t, OutcomeRejected, result.Outcome)
	})

	t.Run("rejects bad signature without state change", func(t *testing.T) {
		result, err := f.svc.ProcessWebhook(context.Background(), payload, "deadbeef")
		assert.ErrorIs(t, err, shared.ErrInvalidSignature)
		assert.Equal(t, OutcomeRejected, result.Outcome)
		assert.Equal(t, order.PaymentStatusPending, f.order.PaymentStatus)
		assert.Empty(t, f.moveRepo.movements)
	})

	t.Run("rejects tampered payload", func(t *testing.T) {
		sig := f.gateway.sign(payload)
		tampered := append([]byte{}, payload...)
		tampered[len(tampered)-2] ^= 0xff
		_, err := f.svc.ProcessWebhook(context.Background(), tampered, sig)
		assert.ErrorIs(t, err, shared.ErrInvalidSignature)
	})
}

func TestWebhookService_PaymentCaptured(t *testing.T) {
	t.Run("marks paid, confirms order and decrements stock", func(t *testing.T) {
		f := newWebhookFixture(t)

		result, err := f.deliver(t, capturedEvent("evt_1", "pay_1", 99800))
		require.NoError(t, err)
		assert.Equal(t, OutcomeAccepted, result.Outcome)

		assert.Equal(t, order.PaymentStatusPaid, f.order.PaymentStatus)
		assert.Equal(t, order.StatusConfirmed, f.order.Status)
		assert.Equal(t, "pay_1", f.order.GatewayPaymentID)
		assert.Equal(t, 8, f.stockRepo.stocks[f.productID].StockQuantity)
		require.Len(t, f.moveRepo.movements, 1)
		assert.Equal(t, -2, f.moveRepo.movements[0].Quantity)
		assert.Len(t, f.order.History, 1)
	})

	t.Run("double delivery produces one ledger row and one history entry", func(t *testing.T) {
		f := newWebhookFixture(t)
		event := capturedEvent("evt_1", "pay_1", 99800)

		_, err := f.deliver(t, event)
		require.NoError(t, err)
		result, err := f.deliver(t, event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAccepted, result.Outcome, "duplicate still acknowledged")

		assert.Len(t, f.moveRepo.movements, 1, "exactly one ledger row")
		assert.Len(t, f.order.History, 1, "exactly one history entry")
		assert.Equal(t, 8, f.stockRepo.stocks[f.productID].StockQuantity)
	})

	t.Run("redelivery under a fresh event id is still a no-op", func(t *testing.T) {
		// Same capture, different envelope id: the event-id store misses,
		// the in-transaction payment-state guard catches it.
		f := newWebhookFixture(t)
		_, err := f.deliver(t, capturedEvent("evt_1", "pay_1", 99800))
		require.NoError(t, err)

		result, err := f.deliver(t, capturedEvent("evt_2", "pay_1", 99800))
		require.NoError(t, err)
		assert.Equal(t, OutcomeAccepted, result.Outcome)
		assert.Len(t, f.moveRepo.movements, 1)
		assert.Len(t, f.order.History, 1)
	})

	t.Run("order.paid behaves as the same mark-paid operation", func(t *testing.T) {
		f := newWebhookFixture(t)
		_, err := f.deliver(t, capturedEvent("evt_1", "pay_1", 99800))
		require.NoError(t, err)

		event := capturedEvent("evt_2", "pay_1", 99800)
		event.Event = EventOrderPaid
		result, err := f.deliver(t, event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAccepted, result.Outcome)
		assert.Len(t, f.moveRepo.movements, 1)
	})
}

func TestWebhookService_AmountMismatch(t *testing.T) {
	// Captured ₹299.00 against a total of ₹300.00: logged, order untouched.
	f := newWebhookFixture(t)
	f.order.Items = nil
	productID := uuid.New()
	_, err := f.order.AddItem(productID, "Saree", "SKU-002", 1, valueobject.NewMoneyINR(decimal.NewFromInt(300)), "")
	require.NoError(t, err)
	stock, err := inventory.NewProductStock(productID, "SKU-002", "Saree", 10, 5)
	require.NoError(t, err)
	require.NoError(t, f.stockRepo.Save(context.Background(), stock))

	result, err := f.deliver(t, capturedEvent("evt_1", "pay_1", 29900))
	assert.ErrorIs(t, err, shared.ErrAmountMismatch)
	assert.Equal(t, OutcomeRejected, result.Outcome)

	assert.Equal(t, order.StatusPending, f.order.Status)
	assert.Equal(t, order.PaymentStatusPending, f.order.PaymentStatus)
	assert.Empty(t, f.moveRepo.movements)

	t.Run("one minor unit of rounding is tolerated", func(t *testing.T) {
		result, err := f.deliver(t, capturedEvent("evt_2", "pay_1", 29999))
		require.NoError(t, err)
		assert.Equal(t, OutcomeAccepted, result.Outcome)
		assert.Equal(t, order.PaymentStatusPaid, f.order.PaymentStatus)
	})
}

func TestWebhookService_CapturedWithoutAmount(t *testing.T) {
	// Some capture payloads omit the amount. The handler fetches the
	// payment from the gateway and verifies the fetched amount instead.
	t.Run("fetches the amount from the gateway and accepts", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.gateway.fetchAmount = 99800

		result, err := f.deliver(t, capturedEvent("evt_1", "pay_1", 0))
		require.NoError(t, err)
		assert.Equal(t, OutcomeAccepted, result.Outcome)
		assert.Equal(t, 1, f.gateway.fetches)

		assert.Equal(t, order.PaymentStatusPaid, f.order.PaymentStatus)
		assert.Equal(t, order.StatusConfirmed, f.order.Status)
		require.Len(t, f.moveRepo.movements, 1)
	})

	t.Run("fetched amount still goes through the mismatch check", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.gateway.fetchAmount = 50000

		result, err := f.deliver(t, capturedEvent("evt_1", "pay_1", 0))
		assert.ErrorIs(t, err, shared.ErrAmountMismatch)
		assert.Equal(t, OutcomeRejected, result.Outcome)
		assert.Equal(t, order.PaymentStatusPending, f.order.PaymentStatus)
		assert.Empty(t, f.moveRepo.movements)
	})

	t.Run("gateway fetch failure leaves the order untouched", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.gateway.fetchErr = errors.New("gateway unavailable")

		_, err := f.deliver(t, capturedEvent("evt_1", "pay_1", 0))
		assert.Error(t, err)
		assert.Equal(t, order.PaymentStatusPending, f.order.PaymentStatus)
		assert.Empty(t, f.moveRepo.movements)
	})
}

func TestWebhookService_PaymentFailed(t *testing.T) {
	f := newWebhookFixture(t)

	event := WebhookEvent{
		ID:    "evt_1",
		Event: EventPaymentFailed,
		Payload: WebhookPayload{Payment: &PaymentEntity{
			ID:               "pay_1",
			OrderID:          "gw_order_1",
			ErrorDescription: "Card declined by issuer",
		}},
	}
	result, err := f.deliver(t, event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, result.Outcome)
	assert.Equal(t, order.PaymentStatusFailed, f.order.PaymentStatus)
	assert.Equal(t, order.StatusPending, f.order.Status, "failure does not cancel the order")
	assert.Empty(t, f.moveRepo.movements)
}

func TestWebhookService_RefundCreated(t *testing.T) {
	paidFixture := func(t *testing.T) *webhookFixture {
		f := newWebhookFixture(t)
		_, err := f.deliver(t, capturedEvent("evt_1", "pay_1", 99800))
		require.NoError(t, err)
		return f
	}

	t.Run("full refund", func(t *testing.T) {
		f := paidFixture(t)
		event := WebhookEvent{
			ID:    "evt_2",
			Event: EventRefundCreated,
			Payload: WebhookPayload{Refund: &RefundEntity{
				ID: "rfnd_1", PaymentID: "pay_1", OrderID: "gw_order_1", Amount: 99800,
			}},
		}
		_, err := f.deliver(t, event)
		require.NoError(t, err)
		assert.Equal(t, order.PaymentStatusRefunded, f.order.PaymentStatus)
	})

	t.Run("partial refund", func(t *testing.T) {
		f := paidFixture(t)
		event := WebhookEvent{
			ID:    "evt_2",
			Event: EventRefundCreated,
			Payload: WebhookPayload{Refund: &RefundEntity{
				ID: "rfnd_1", PaymentID: "pay_1", OrderID: "gw_order_1", Amount: 49900,
			}},
		}
		_, err := f.deliver(t, event)
		require.NoError(t, err)
		assert.Equal(t, order.PaymentStatusPartiallyRefunded, f.order.PaymentStatus)
	})
}

func TestWebhookService_UnknownAndAuthorized(t *testing.T) {
	f := newWebhookFixture(t)

	t.Run("unknown event type is acknowledged as ignored", func(t *testing.T) {
		event := WebhookEvent{ID: "evt_1", Event: "payment.downtime.started"}
		result, err := f.deliver(t, event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, result.Outcome)
	})

	t.Run("authorization acknowledged with no state change", func(t *testing.T) {
		event := capturedEvent("evt_2", "pay_1", 99800)
		event.Event = EventPaymentAuthorized
		result, err := f.deliver(t, event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAccepted, result.Outcome)
		assert.Equal(t, order.PaymentStatusPending, f.order.PaymentStatus)
	})
}

func TestWebhookService_UnknownGatewayOrder(t *testing.T) {
	f := newWebhookFixture(t)
	event := capturedEvent("evt_1", "pay_1", 99800)
	event.Payload.Payment.OrderID = "gw_order_missing"

	result, err := f.deliver(t, event)
	assert.Error(t, err)
	assert.Equal(t, OutcomeRejected, result.Outcome)
}
