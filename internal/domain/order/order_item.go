package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderItem is an immutable snapshot of a product line at order time.
// It must not change even if the underlying product is later edited or
// deleted, so there are no mutators on this type.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	SKU         string
	UnitPrice   decimal.Decimal
	Quantity    int
	Attributes  string // serialized variant attributes (size, color, ...)
	LineTotal   decimal.Decimal
	CreatedAt   time.Time
}

// TableName specifies the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates a new order item snapshot
func NewOrderItem(orderID, productID uuid.UUID, productName, sku string, quantity int, unitPrice valueobject.Money, attributes string) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	price := unitPrice.Amount()
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		SKU:         sku,
		UnitPrice:   price,
		Quantity:    quantity,
		Attributes:  attributes,
		LineTotal:   price.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:   time.Now(),
	}, nil
}

// GetUnitPriceMoney returns the unit price as a Money value object
func (i *OrderItem) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(i.UnitPrice)
}

// GetLineTotalMoney returns the line total as a Money value object
func (i *OrderItem) GetLineTotalMoney() valueobject.Money {
	return valueobject.NewMoneyINR(i.LineTotal)
}
