package returns

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Repository defines the persistence operations for Return aggregates
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Return, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Return, error)
	FindByReturnNumber(ctx context.Context, returnNumber string) (*Return, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*Return, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Return, error)
	Save(ctx context.Context, ret *Return) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	FindStatusHistory(ctx context.Context, returnID uuid.UUID) ([]StatusHistory, error)
	ExistsByReturnNumber(ctx context.Context, returnNumber string) (bool, error)
	GenerateReturnNumber(ctx context.Context) (string, error)
}
