package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// LedgerService is the single write path for stock. Every stock change is
// ledger-backed: within one atomic unit of work it locks the product's
// stock row, writes the movement with the resulting balance, and updates
// the cached counter. No other component may write StockQuantity.
type LedgerService struct{}

// NewLedgerService creates a new LedgerService
func NewLedgerService() *LedgerService {
	return &LedgerService{}
}

// LedgerRepositories is the slice of repository access ApplyDelta needs.
// Callers pass transaction-scoped repositories so the movement append and
// the counter write commit or roll back together.
type LedgerRepositories interface {
	// ProductStockRepo returns the product stock repository
	ProductStockRepo() ProductStockRepository
	// MovementRepo returns the stock movement repository
	MovementRepo() StockMovementRepository
}

// ApplyDelta applies one signed stock delta for a product and returns the
// updated projection. The product row is read under a row lock so
// concurrent deltas on the same product serialize; the ledger row records
// the raw delta while the counter is clamped to zero. The returned
// instance carries any domain events the delta raised (a stock status
// boundary crossing); callers publish them after their transaction
// commits.
func (s *LedgerService) ApplyDelta(ctx context.Context, repos LedgerRepositories, productID uuid.UUID, delta int, movementType MovementType, reason, reference string) (*ProductStock, error) {
	if delta == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity delta cannot be zero")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}

	stock, err := repos.ProductStockRepo().FindByProductIDForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product stock: %w", err)
	}

	stockAfter := stock.applyDelta(delta)

	movement, err := NewStockMovement(productID, movementType, delta, reason, reference, stockAfter)
	if err != nil {
		return nil, err
	}

	if err := repos.MovementRepo().Append(ctx, movement); err != nil {
		return nil, fmt.Errorf("append stock movement: %w", err)
	}
	if err := repos.ProductStockRepo().Save(ctx, stock); err != nil {
		return nil, fmt.Errorf("save product stock: %w", err)
	}

	return stock, nil
}
