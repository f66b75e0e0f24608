package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// ReturnItem is a line of a return request. It is immutable after creation:
// the refund amount is fixed when the line is added.
type ReturnItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ReturnID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"return_id"`
	OrderItemID  uuid.UUID       `gorm:"type:uuid;not null" json:"order_item_id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ProductName  string          `gorm:"not null" json:"product_name"`
	SKU          string          `gorm:"not null" json:"sku"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"unit_price"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Restockable  bool            `gorm:"not null;default:true" json:"restockable"`
	Reason       string          `json:"reason"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"refund_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName specifies the table name for ReturnItem
func (ReturnItem) TableName() string {
	return "return_items"
}

// NewReturnItem creates a return line against an order item. quantity must not
// exceed orderedQuantity, the quantity on the original order line.
func NewReturnItem(orderItemID, productID uuid.UUID, productName, sku string, unitPrice decimal.Decimal, quantity, orderedQuantity int, restockable bool, reason string) (*ReturnItem, error) {
	if orderItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER_ITEM", "Order item ID is required")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID is required")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name is required")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	if quantity > orderedQuantity {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Return quantity cannot exceed ordered quantity")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &ReturnItem{
		ID:           uuid.New(),
		OrderItemID:  orderItemID,
		ProductID:    productID,
		ProductName:  productName,
		SKU:          sku,
		UnitPrice:    unitPrice,
		Quantity:     quantity,
		Restockable:  restockable,
		Reason:       reason,
		RefundAmount: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:    time.Now(),
	}, nil
}
