package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/inventory"
)

// ==================== Inventory DTOs ====================

// RestockRequest represents supplier stock arriving for a product
type RestockRequest struct {
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Reason   string `json:"reason" binding:"max=255"`
	Ref      string `json:"reference" binding:"max=50"`
}

// AdjustStockRequest represents a manual stock correction. Quantity is a
// signed delta: negative for write-offs, positive for found stock.
type AdjustStockRequest struct {
	Quantity int    `json:"quantity" binding:"required"`
	Reason   string `json:"reason" binding:"required,min=1,max=255"`
	Ref      string `json:"reference" binding:"max=50"`
}

// RegisterProductRequest creates the stock projection for a new product
type RegisterProductRequest struct {
	ProductID         uuid.UUID `json:"product_id" binding:"required"`
	SKU               string    `json:"sku" binding:"required,min=1,max=100"`
	ProductName       string    `json:"product_name" binding:"required,min=1,max=200"`
	InitialQuantity   int       `json:"initial_quantity" binding:"min=0"`
	LowStockThreshold int       `json:"low_stock_threshold" binding:"min=0"`
}

// MovementHistoryFilter represents filter options for the movement history
type MovementHistoryFilter struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductStockResponse represents a stock projection in API responses
type ProductStockResponse struct {
	ProductID         uuid.UUID `json:"product_id"`
	SKU               string    `json:"sku"`
	ProductName       string    `json:"product_name"`
	StockQuantity     int       `json:"stock_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	StockStatus       string    `json:"stock_status"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StockMovementResponse represents one ledger row in API responses
type StockMovementResponse struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	Type       string    `json:"type"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	StockAfter int       `json:"stock_after"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToProductStockResponse converts a ProductStock to its response DTO
func ToProductStockResponse(stock *inventory.ProductStock) ProductStockResponse {
	return ProductStockResponse{
		ProductID:         stock.ProductID,
		SKU:               stock.SKU,
		ProductName:       stock.ProductName,
		StockQuantity:     stock.StockQuantity,
		LowStockThreshold: stock.LowStockThreshold,
		StockStatus:       string(stock.StockStatus),
		UpdatedAt:         stock.UpdatedAt,
	}
}

// ToStockMovementResponses converts ledger rows to response DTOs
func ToStockMovementResponses(movements []inventory.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, len(movements))
	for i, m := range movements {
		out[i] = StockMovementResponse{
			ID:         m.ID,
			ProductID:  m.ProductID,
			Type:       string(m.Type),
			Quantity:   m.Quantity,
			Reason:     m.Reason,
			Reference:  m.Reference,
			StockAfter: m.StockAfter,
			CreatedAt:  m.CreatedAt,
		}
	}
	return out
}
