package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormProductStockRepository implements inventory.ProductStockRepository using GORM
type GormProductStockRepository struct {
	db *gorm.DB
}

// NewGormProductStockRepository creates a new GormProductStockRepository
func NewGormProductStockRepository(db *gorm.DB) *GormProductStockRepository {
	return &GormProductStockRepository{db: db}
}

// FindByProductID finds the stock projection for a product
func (r *GormProductStockRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	var stock inventory.ProductStock
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stock, nil
}

// FindByProductIDForUpdate finds the stock projection and locks its row,
// serializing concurrent stock writes for the same product
func (r *GormProductStockRepository) FindByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	var stock inventory.ProductStock
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).
		First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stock, nil
}

// FindByProductIDs finds stock projections for multiple products
func (r *GormProductStockRepository) FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]inventory.ProductStock, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var stocks []inventory.ProductStock
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// FindBelowThreshold finds products at or below their low stock threshold
func (r *GormProductStockRepository) FindBelowThreshold(ctx context.Context, filter shared.Filter) ([]inventory.ProductStock, error) {
	var stocks []inventory.ProductStock
	query := r.db.WithContext(ctx).
		Model(&inventory.ProductStock{}).
		Where("stock_quantity <= low_stock_threshold")

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("sku ILIKE ? OR product_name ILIKE ?", searchPattern, searchPattern)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	orderBy := "stock_quantity"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	orderDir := "ASC"
	if strings.ToLower(filter.OrderDir) == "desc" {
		orderDir = "DESC"
	}
	if err := query.Order(orderBy + " " + orderDir).Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// Save creates or updates a stock projection
func (r *GormProductStockRepository) Save(ctx context.Context, stock *inventory.ProductStock) error {
	return r.db.WithContext(ctx).Save(stock).Error
}

// Ensure GormProductStockRepository implements inventory.ProductStockRepository
var _ inventory.ProductStockRepository = (*GormProductStockRepository)(nil)
