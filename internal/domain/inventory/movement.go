package inventory

import (
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// MovementType represents the type of stock movement recorded in the ledger
type MovementType string

const (
	// MovementTypeSale is stock leaving inventory for a confirmed order
	MovementTypeSale MovementType = "SALE"
	// MovementTypeReturn is stock re-entering inventory from a cancellation or customer return
	MovementTypeReturn MovementType = "RETURN"
	// MovementTypeRestock is stock arriving from a supplier
	MovementTypeRestock MovementType = "RESTOCK"
	// MovementTypeAdjustment is a manual correction (stocktake, damage write-off)
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeSale, MovementTypeReturn, MovementTypeRestock, MovementTypeAdjustment:
		return true
	}
	return false
}

// StockMovement is one immutable row in the append-only inventory ledger.
// The ledger is the source of truth for why stock changed; the product's
// stock counter is a cache derived from it. Rows are never edited -
// corrections are new rows.
type StockMovement struct {
	shared.BaseEntity
	ProductID uuid.UUID    `gorm:"type:uuid;not null;index:idx_stock_movements_product"`
	Type      MovementType `gorm:"type:varchar(20);not null;index:idx_stock_movements_type"`
	Quantity  int          `gorm:"not null"` // signed delta: negative for sales, positive for returns/restocks
	Reason    string       `gorm:"type:varchar(255)"`
	Reference string       `gorm:"type:varchar(50);index:idx_stock_movements_reference"` // order or return id
	// StockAfter is the resulting absolute stock count at the moment the
	// row was written. Replaying all deltas for a product from zero must
	// equal the final StockAfter.
	StockAfter int `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a ledger row for a stock delta
func NewStockMovement(productID uuid.UUID, movementType MovementType, quantity int, reason, reference string, stockAfter int) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantity == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity delta cannot be zero")
	}
	if stockAfter < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Resulting stock cannot be negative")
	}

	return &StockMovement{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Type:       movementType,
		Quantity:   quantity,
		Reason:     reason,
		Reference:  reference,
		StockAfter: stockAfter,
	}, nil
}

// IsInbound returns true if the movement increases stock
func (m *StockMovement) IsInbound() bool {
	return m.Quantity > 0
}

// IsOutbound returns true if the movement decreases stock
func (m *StockMovement) IsOutbound() bool {
	return m.Quantity < 0
}
