package inventory

import (
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProductStock = "ProductStock"

// Event type constants
const (
	EventTypeStockStatusChanged = "StockStatusChanged"
)

// StockStatusChangedEvent is raised when a product's derived stock status
// crosses a boundary (e.g. instock -> lowstock). Used to drive low-stock
// operator notifications.
type StockStatusChangedEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID   `json:"product_id"`
	SKU            string      `json:"sku"`
	ProductName    string      `json:"product_name"`
	PreviousStatus StockStatus `json:"previous_status"`
	NewStatus      StockStatus `json:"new_status"`
	StockQuantity  int         `json:"stock_quantity"`
}

// NewStockStatusChangedEvent creates a new StockStatusChangedEvent
func NewStockStatusChangedEvent(stock *ProductStock, previous StockStatus) *StockStatusChangedEvent {
	return &StockStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockStatusChanged, AggregateTypeProductStock, stock.ID),
		ProductID:       stock.ProductID,
		SKU:             stock.SKU,
		ProductName:     stock.ProductName,
		PreviousStatus:  previous,
		NewStatus:       stock.StockStatus,
		StockQuantity:   stock.StockQuantity,
	}
}

// EventType returns the event type name
func (e *StockStatusChangedEvent) EventType() string {
	return EventTypeStockStatusChanged
}
