package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// StockStatus is the availability classification derived from the stock counter
type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusLowStock   StockStatus = "lowstock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// String returns the string representation of StockStatus
func (s StockStatus) String() string {
	return string(s)
}

// DefaultLowStockThreshold is used when a product has no explicit threshold
const DefaultLowStockThreshold = 5

// ProductStock is the materialized current-stock view for one product,
// derived from the stock movement ledger. StockQuantity is a cache: only
// the ledger service may write it, and it is clamped to zero on write
// even if the ledger records a delta that would mathematically go negative.
type ProductStock struct {
	shared.BaseAggregateRoot
	ProductID         uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex"`
	SKU               string      `gorm:"type:varchar(100)"`
	ProductName       string      `gorm:"type:varchar(255)"`
	StockQuantity     int         `gorm:"not null;default:0"`
	LowStockThreshold int         `gorm:"not null;default:5"`
	StockStatus       StockStatus `gorm:"type:varchar(20);not null;default:'instock'"`
}

// TableName returns the table name for GORM
func (ProductStock) TableName() string {
	return "product_stocks"
}

// NewProductStock creates a stock projection row for a product
func NewProductStock(productID uuid.UUID, sku, productName string, initialQuantity, lowStockThreshold int) (*ProductStock, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if initialQuantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Initial quantity cannot be negative")
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}

	ps := &ProductStock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		SKU:               sku,
		ProductName:       productName,
		StockQuantity:     initialQuantity,
		LowStockThreshold: lowStockThreshold,
	}
	ps.StockStatus = ps.deriveStatus()

	return ps, nil
}

// applyDelta applies a signed stock delta and returns the resulting
// quantity. The counter is clamped to zero: the ledger may record the raw
// delta, but the visible stock never goes below zero. Unexported so that
// every write path goes through the LedgerService.
func (p *ProductStock) applyDelta(delta int) int {
	newStock := p.StockQuantity + delta
	if newStock < 0 {
		newStock = 0
	}

	previous := p.StockStatus
	p.StockQuantity = newStock
	p.StockStatus = p.deriveStatus()
	p.UpdatedAt = time.Now()

	if previous != p.StockStatus {
		p.AddDomainEvent(NewStockStatusChangedEvent(p, previous))
	}

	return newStock
}

// HasAvailable returns true if at least the requested quantity is in stock
func (p *ProductStock) HasAvailable(quantity int) bool {
	return quantity > 0 && p.StockQuantity >= quantity
}

// SetLowStockThreshold updates the threshold and rederives the status
func (p *ProductStock) SetLowStockThreshold(threshold int) error {
	if threshold <= 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold must be positive")
	}
	p.LowStockThreshold = threshold
	p.StockStatus = p.deriveStatus()
	p.UpdatedAt = time.Now()
	return nil
}

func (p *ProductStock) deriveStatus() StockStatus {
	switch {
	case p.StockQuantity <= 0:
		return StockStatusOutOfStock
	case p.StockQuantity <= p.LowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}
