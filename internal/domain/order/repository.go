package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence
type Repository interface {
	// FindByID finds an order by ID, items and history preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUpdate finds an order by ID and locks the row for the
	// duration of the surrounding transaction. Transition code paths use
	// this so two concurrent transitions on the same order serialize.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindByGatewayOrderID finds an order by the gateway-side order reference
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)

	// FindAll finds orders matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Save creates or updates an order together with its items and any
	// newly appended status history rows
	Save(ctx context.Context, o *Order) error

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindStatusHistory returns the order's status trail in creation order
	FindStatusHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistory, error)

	// ExistsByOrderNumber checks if an order number is already taken
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// GenerateOrderNumber generates a unique, sequential-per-day order
	// number, retrying on collision
	GenerateOrderNumber(ctx context.Context) (string, error)
}
