package inventory

import (
	"context"

	"github.com/google/uuid"

	appshared "github.com/storefront/backend/internal/application/shared"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// Service handles stock operations outside the order flow: registering
// products, supplier restocks, manual adjustments and ledger queries.
// All writes go through the ledger service.
type Service struct {
	txScope        appshared.TransactionScope
	ledger         *inventory.LedgerService
	eventPublisher shared.EventPublisher
}

// NewService creates a new inventory Service
func NewService(txScope appshared.TransactionScope, ledger *inventory.LedgerService) *Service {
	return &Service{
		txScope: txScope,
		ledger:  ledger,
	}
}

// SetEventPublisher sets the event publisher for stock status notifications
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RegisterProduct creates the stock projection for a new product. An
// initial quantity is recorded as a RESTOCK ledger row so the ledger
// replays to the projection from day one.
func (s *Service) RegisterProduct(ctx context.Context, req RegisterProductRequest) (*ProductStockResponse, error) {
	var response ProductStockResponse
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if existing, err := repos.ProductStockRepo().FindByProductID(ctx, req.ProductID); err == nil && existing != nil {
			return shared.ErrAlreadyExists
		}

		stock, err := inventory.NewProductStock(req.ProductID, req.SKU, req.ProductName, 0, req.LowStockThreshold)
		if err != nil {
			return err
		}
		if err := repos.ProductStockRepo().Save(ctx, stock); err != nil {
			return err
		}

		if req.InitialQuantity > 0 {
			stock, err = s.ledger.ApplyDelta(ctx, repos, req.ProductID, req.InitialQuantity,
				inventory.MovementTypeRestock, "Initial stock", "")
			if err != nil {
				return err
			}
		}

		response = ToProductStockResponse(stock)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// Restock records supplier stock arriving for a product
func (s *Service) Restock(ctx context.Context, productID uuid.UUID, req RestockRequest) (*ProductStockResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}
	reason := req.Reason
	if reason == "" {
		reason = "Supplier restock"
	}
	return s.applyDelta(ctx, productID, req.Quantity, inventory.MovementTypeRestock, reason, req.Ref)
}

// Adjust records a manual stock correction with a signed delta
func (s *Service) Adjust(ctx context.Context, productID uuid.UUID, req AdjustStockRequest) (*ProductStockResponse, error) {
	return s.applyDelta(ctx, productID, req.Quantity, inventory.MovementTypeAdjustment, req.Reason, req.Ref)
}

// GetStock retrieves the stock projection for a product
func (s *Service) GetStock(ctx context.Context, productID uuid.UUID) (*ProductStockResponse, error) {
	var response ProductStockResponse
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		stock, err := repos.ProductStockRepo().FindByProductID(ctx, productID)
		if err != nil {
			return err
		}
		response = ToProductStockResponse(stock)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// GetLowStock lists products at or below their low stock threshold
func (s *Service) GetLowStock(ctx context.Context, filter shared.Filter) ([]ProductStockResponse, error) {
	var out []ProductStockResponse
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		stocks, err := repos.ProductStockRepo().FindBelowThreshold(ctx, filter)
		if err != nil {
			return err
		}
		out = make([]ProductStockResponse, len(stocks))
		for i := range stocks {
			out[i] = ToProductStockResponse(&stocks[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetInventoryHistory retrieves a product's ledger rows in creation order
func (s *Service) GetInventoryHistory(ctx context.Context, productID uuid.UUID, filter MovementHistoryFilter) ([]StockMovementResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: filter.OrderDir,
	}
	if domainFilter.OrderDir == "" {
		domainFilter.OrderDir = "asc"
	}

	var movements []inventory.StockMovement
	var total int64
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if _, err := repos.ProductStockRepo().FindByProductID(ctx, productID); err != nil {
			return err
		}
		var err error
		movements, err = repos.MovementRepo().FindByProductID(ctx, productID, domainFilter)
		if err != nil {
			return err
		}
		total, err = repos.MovementRepo().CountByProductID(ctx, productID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return ToStockMovementResponses(movements), total, nil
}

func (s *Service) applyDelta(ctx context.Context, productID uuid.UUID, delta int, movementType inventory.MovementType, reason, reference string) (*ProductStockResponse, error) {
	var response ProductStockResponse
	var stock *inventory.ProductStock
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		stock, err = s.ledger.ApplyDelta(ctx, repos, productID, delta, movementType, reason, reference)
		if err != nil {
			return err
		}
		response = ToProductStockResponse(stock)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Publish only after commit: a rolled-back delta must not alert
	if s.eventPublisher != nil && stock != nil {
		if events := stock.GetDomainEvents(); len(events) > 0 {
			_ = s.eventPublisher.Publish(ctx, events...)
			stock.ClearDomainEvents()
		}
	}
	return &response, nil
}
