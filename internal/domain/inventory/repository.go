package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// ProductStockRepository defines the interface for product stock persistence
type ProductStockRepository interface {
	// FindByProductID finds the stock projection for a product
	FindByProductID(ctx context.Context, productID uuid.UUID) (*ProductStock, error)

	// FindByProductIDForUpdate finds the stock projection and locks the row
	// for the duration of the surrounding transaction, serializing
	// concurrent stock writes for the same product
	FindByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*ProductStock, error)

	// FindByProductIDs finds stock projections for multiple products
	FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]ProductStock, error)

	// FindBelowThreshold finds products at or below their low stock threshold
	FindBelowThreshold(ctx context.Context, filter shared.Filter) ([]ProductStock, error)

	// Save creates or updates a stock projection
	Save(ctx context.Context, stock *ProductStock) error
}

// StockMovementRepository defines the interface for the append-only ledger
type StockMovementRepository interface {
	// Append writes a new ledger row. Movements are immutable: there is no
	// update or delete.
	Append(ctx context.Context, movement *StockMovement) error

	// FindByProductID returns a product's movements in creation order
	FindByProductID(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindByReference returns movements recorded for an order or return
	FindByReference(ctx context.Context, reference string) ([]StockMovement, error)

	// CountByProductID counts a product's ledger rows
	CountByProductID(ctx context.Context, productID uuid.UUID) (int64, error)
}
