package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	appshared "github.com/storefront/backend/internal/application/shared"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// SignatureVerifier verifies gateway checkout callback signatures
type SignatureVerifier interface {
	// VerifyPaymentSignature verifies the signature the gateway computed
	// over "<gatewayOrderID>|<gatewayPaymentID>"
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// Service handles order lifecycle operations. Status changes and their
// inventory side effects always run inside one transaction scope: the order
// row, its history entry, the ledger movement and the stock counter commit
// or roll back together.
type Service struct {
	txScope        appshared.TransactionScope
	ledger         *inventory.LedgerService
	verifier       SignatureVerifier
	eventPublisher shared.EventPublisher
}

// NewService creates a new order Service
func NewService(txScope appshared.TransactionScope, ledger *inventory.LedgerService) *Service {
	return &Service{
		txScope: txScope,
		ledger:  ledger,
	}
}

// SetEventPublisher sets the event publisher for notifications.
// Publishing happens after commit and never affects the outcome.
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetSignatureVerifier sets the verifier for the synchronous payment path
func (s *Service) SetSignatureVerifier(verifier SignatureVerifier) {
	s.verifier = verifier
}

// Create creates a new order. Stock availability is checked for every line
// before the order is persisted; an order that cannot be fulfilled is
// rejected outright rather than created in a broken state. Stock is NOT
// decremented here - that happens exactly once, on confirmation.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	var created *order.Order

	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		productIDs := make([]uuid.UUID, len(req.Items))
		for i, item := range req.Items {
			productIDs[i] = item.ProductID
		}
		stocks, err := repos.ProductStockRepo().FindByProductIDs(ctx, productIDs)
		if err != nil {
			return err
		}
		byProduct := make(map[uuid.UUID]inventory.ProductStock, len(stocks))
		for _, stock := range stocks {
			byProduct[stock.ProductID] = stock
		}
		for _, item := range req.Items {
			stock, ok := byProduct[item.ProductID]
			if !ok {
				return shared.NewDomainError("INSUFFICIENT_STOCK",
					fmt.Sprintf("Product %s is not stocked", item.ProductName))
			}
			if !stock.HasAvailable(item.Quantity) {
				return shared.NewDomainError("INSUFFICIENT_STOCK",
					fmt.Sprintf("Product %s has %d in stock, %d requested",
						item.ProductName, stock.StockQuantity, item.Quantity))
			}
		}

		orderNumber, err := repos.OrderRepo().GenerateOrderNumber(ctx)
		if err != nil {
			return err
		}

		shipping, err := toAddress(req.ShippingAddress)
		if err != nil {
			return err
		}
		billing := shipping
		if req.BillingAddress != nil {
			billing, err = toAddress(*req.BillingAddress)
			if err != nil {
				return err
			}
		}

		o, err := order.NewOrder(orderNumber, req.CustomerName, req.CustomerEmail, req.CustomerPhone, billing, shipping)
		if err != nil {
			return err
		}

		for _, item := range req.Items {
			unitPrice := valueobject.NewMoneyINR(item.UnitPrice)
			if _, err := o.AddItem(item.ProductID, item.ProductName, item.SKU, item.Quantity, unitPrice, item.Attributes); err != nil {
				return err
			}
		}

		if req.ShippingCost != nil {
			if err := o.SetShippingCost(valueobject.NewMoneyINR(*req.ShippingCost)); err != nil {
				return err
			}
		}
		if req.TaxAmount != nil {
			if err := o.SetTaxAmount(valueobject.NewMoneyINR(*req.TaxAmount)); err != nil {
				return err
			}
		}
		if req.Discount != nil {
			if err := o.ApplyDiscount(valueobject.NewMoneyINR(*req.Discount)); err != nil {
				return err
			}
		}
		if req.GatewayOrderID != "" {
			o.SetGatewayOrderID(req.GatewayOrderID)
		}

		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, created)
	response := ToOrderResponse(created)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *Service) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	var response OrderResponse
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		response = ToOrderResponse(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// GetByOrderNumber retrieves an order by its order number
func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	var response OrderResponse
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByOrderNumber(ctx, orderNumber)
		if err != nil {
			return err
		}
		response = ToOrderResponse(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = *filter.Status
	}
	if filter.PaymentStatus != nil {
		domainFilter.Filters["payment_status"] = *filter.PaymentStatus
	}
	if filter.CustomerEmail != nil {
		domainFilter.Filters["customer_email"] = *filter.CustomerEmail
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	var items []OrderListItemResponse
	var total int64
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		orders, err := repos.OrderRepo().FindAll(ctx, domainFilter)
		if err != nil {
			return err
		}
		total, err = repos.OrderRepo().Count(ctx, domainFilter)
		if err != nil {
			return err
		}
		items = make([]OrderListItemResponse, len(orders))
		for i, o := range orders {
			items[i] = ToOrderListItemResponse(&o)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateStatus moves an order to a new status. The order row is locked and
// the transition re-validated inside the transaction, so two concurrent
// conflicting updates serialize and the loser gets an invalid-transition
// error instead of silently overwriting. Confirmation writes one SALE ledger
// row per line; cancelling a stock-committed order writes compensating
// RETURN rows.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	target := order.Status(req.Status)
	actor := req.Actor
	if actor == "" {
		actor = "system"
	}

	var updated *order.Order
	var stockEvents []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		from := o.Status
		if err := o.TransitionTo(target, actor, req.Notes); err != nil {
			return err
		}

		stockEvents, err = s.applyStockSideEffects(ctx, repos, o, from, target)
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
		return nil, err
	}

	s.publishEvents(ctx, updated)
	s.publish(ctx, stockEvents)
	response := ToOrderResponse(updated)
	return &response, nil
}

// ConfirmPayment is the synchronous payment path: the storefront verified
// the gateway callback and reports the capture. Idempotent for the same
// gateway payment id.
func (s *Service) ConfirmPayment(ctx context.Context, orderID uuid.UUID, req ConfirmPaymentRequest) (*OrderResponse, error) {
	if s.verifier != nil && !s.verifier.VerifyPaymentSignature(req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		return nil, shared.ErrInvalidSignature
	}

	var updated *order.Order
	var stockEvents []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		from := o.Status
		applied, err := o.MarkPaid(req.GatewayPaymentID, req.GatewaySignature, "", "checkout")
		if err != nil {
			return err
		}
		if !applied {
			updated = o
			return nil
		}

		stockEvents, err = s.applyStockSideEffects(ctx, repos, o, from, o.Status)
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
		return nil, err
	}

	s.publishEvents(ctx, updated)
	s.publish(ctx, stockEvents)
	response := ToOrderResponse(updated)
	return &response, nil
}

// SetTracking records shipment tracking details on an order
func (s *Service) SetTracking(ctx context.Context, orderID uuid.UUID, req SetTrackingRequest) (*OrderResponse, error) {
	var updated *order.Order
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		o.SetTracking(req.TrackingNumber, req.Carrier)
		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(updated)
	return &response, nil
}

// GetStatusHistory retrieves an order's audit trail in chronological order
func (s *Service) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistoryResponse, error) {
	var history []order.StatusHistory
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if _, err := repos.OrderRepo().FindByID(ctx, orderID); err != nil {
			return err
		}
		var err error
		history, err = repos.OrderRepo().FindStatusHistory(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToStatusHistoryResponses(history), nil
}

// applyStockSideEffects writes the ledger rows implied by a status edge
// and returns the stock events the deltas raised, for publication after
// commit. Ledger failure aborts the whole transaction: an order never
// reaches a status whose stock effect did not happen.
func (s *Service) applyStockSideEffects(ctx context.Context, repos appshared.TransactionalRepositories, o *order.Order, from, to order.Status) ([]shared.DomainEvent, error) {
	var events []shared.DomainEvent
	apply := func(productID uuid.UUID, delta int, movementType inventory.MovementType, reason string) error {
		stock, err := s.ledger.ApplyDelta(ctx, repos, productID, delta, movementType, reason, o.OrderNumber)
		if err != nil {
			return err
		}
		events = append(events, stock.GetDomainEvents()...)
		stock.ClearDomainEvents()
		return nil
	}

	switch {
	case order.CommitsStock(from, to):
		for _, item := range o.Items {
			if err := apply(item.ProductID, -item.Quantity, inventory.MovementTypeSale, "Order confirmed"); err != nil {
				return nil, err
			}
		}
	case order.RestocksOnCancel(from, to):
		for _, item := range o.Items {
			if err := apply(item.ProductID, item.Quantity, inventory.MovementTypeReturn, "Order cancelled"); err != nil {
				return nil, err
			}
		}
	}
	return events, nil
}

func (s *Service) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil || o == nil {
		return
	}
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Notification failures never affect the committed state
	_ = s.eventPublisher.Publish(ctx, events...)
	o.ClearDomainEvents()
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func toAddress(in AddressInput) (valueobject.Address, error) {
	opts := []valueobject.AddressOption{}
	if in.Line2 != "" {
		opts = append(opts, valueobject.WithLine2(in.Line2))
	}
	if in.Phone != "" {
		opts = append(opts, valueobject.WithPhone(in.Phone))
	}
	if in.Country != "" {
		opts = append(opts, valueobject.WithCountry(in.Country))
	}
	return valueobject.NewAddress(in.FullName, in.Line1, in.City, in.State, in.PostalCode, opts...)
}
