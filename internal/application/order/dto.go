package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/order"
)

// ==================== Order DTOs ====================

// AddressInput represents an address in create order requests
type AddressInput struct {
	FullName   string `json:"full_name" binding:"required,min=1,max=200"`
	Line1      string `json:"line1" binding:"required,min=1,max=255"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required,min=1,max=100"`
	State      string `json:"state" binding:"required,min=1,max=100"`
	PostalCode string `json:"postal_code" binding:"required,min=1,max=20"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// CreateOrderItemInput represents an item in the create order request
type CreateOrderItemInput struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,min=1,max=200"`
	SKU         string          `json:"sku" binding:"required,min=1,max=100"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	Attributes  string          `json:"attributes"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	CustomerName    string                 `json:"customer_name" binding:"required,min=1,max=200"`
	CustomerEmail   string                 `json:"customer_email" binding:"required,email"`
	CustomerPhone   string                 `json:"customer_phone"`
	ShippingAddress AddressInput           `json:"shipping_address" binding:"required"`
	BillingAddress  *AddressInput          `json:"billing_address"`
	Items           []CreateOrderItemInput `json:"items" binding:"required,min=1"`
	ShippingCost    *decimal.Decimal       `json:"shipping_cost"`
	TaxAmount       *decimal.Decimal       `json:"tax_amount"`
	Discount        *decimal.Decimal       `json:"discount"`
	GatewayOrderID  string                 `json:"gateway_order_id"`
}

// UpdateStatusRequest represents a request to move an order to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Actor  string `json:"actor"`
	Notes  string `json:"notes" binding:"max=500"`
}

// SetTrackingRequest represents a request to record shipment tracking
type SetTrackingRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,min=1,max=100"`
	Carrier        string `json:"carrier" binding:"required,min=1,max=100"`
}

// ConfirmPaymentRequest represents a synchronous payment confirmation,
// used when the storefront verifies the checkout callback itself instead
// of waiting for the gateway webhook.
type ConfirmPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	GatewaySignature string `json:"gateway_signature" binding:"required"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search        string     `form:"search"`
	Status        *string    `form:"status"`
	PaymentStatus *string    `form:"payment_status"`
	CustomerEmail *string    `form:"customer_email"`
	StartDate     *time.Time `form:"start_date"`
	EndDate       *time.Time `form:"end_date"`
	Page          int        `form:"page" binding:"min=0"`
	PageSize      int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents an order item in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Attributes  string          `json:"attributes,omitempty"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// StatusHistoryResponse represents one audit trail entry in API responses
type StatusHistoryResponse struct {
	ID             uuid.UUID `json:"id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Actor          string    `json:"actor"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"order_number"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"payment_status"`
	AllowedStatuses  []string            `json:"allowed_statuses"`
	CustomerName     string              `json:"customer_name"`
	CustomerEmail    string              `json:"customer_email"`
	CustomerPhone    string              `json:"customer_phone,omitempty"`
	ShippingAddress  string              `json:"shipping_address"`
	BillingAddress   string              `json:"billing_address"`
	Items            []OrderItemResponse `json:"items"`
	ItemCount        int                 `json:"item_count"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	TaxAmount        decimal.Decimal     `json:"tax_amount"`
	ShippingCost     decimal.Decimal     `json:"shipping_cost"`
	DiscountAmount   decimal.Decimal     `json:"discount_amount"`
	Total            decimal.Decimal     `json:"total"`
	GatewayOrderID   string              `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string              `json:"gateway_payment_id,omitempty"`
	TrackingNumber   string              `json:"tracking_number,omitempty"`
	Carrier          string              `json:"carrier,omitempty"`
	ConfirmedAt      *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt        *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason     string              `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// OrderListItemResponse is the compact shape used in list endpoints
type OrderListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	ItemCount     int             `json:"item_count"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToOrderResponse converts an Order aggregate to its response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Attributes:  item.Attributes,
			LineTotal:   item.LineTotal,
		}
	}

	allowed := o.Status.AllowedTransitions()
	allowedStrs := make([]string, len(allowed))
	for i, s := range allowed {
		allowedStrs[i] = string(s)
	}

	return OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		Status:           string(o.Status),
		PaymentStatus:    string(o.PaymentStatus),
		AllowedStatuses:  allowedStrs,
		CustomerName:     o.CustomerName,
		CustomerEmail:    o.CustomerEmail,
		CustomerPhone:    o.CustomerPhone,
		ShippingAddress:  o.ShippingAddress.FormatOneLine(),
		BillingAddress:   o.BillingAddress.FormatOneLine(),
		Items:            items,
		ItemCount:        len(items),
		Subtotal:         o.Subtotal,
		TaxAmount:        o.TaxAmount,
		ShippingCost:     o.ShippingCost,
		DiscountAmount:   o.DiscountAmount,
		Total:            o.Total,
		GatewayOrderID:   o.GatewayOrderID,
		GatewayPaymentID: o.GatewayPaymentID,
		TrackingNumber:   o.TrackingNumber,
		Carrier:          o.Carrier,
		ConfirmedAt:      o.ConfirmedAt,
		ShippedAt:        o.ShippedAt,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// ToOrderListItemResponse converts an Order to its list item DTO
func ToOrderListItemResponse(o *order.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		ItemCount:     len(o.Items),
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
	}
}

// ToStatusHistoryResponses converts history entries to response DTOs
func ToStatusHistoryResponses(entries []order.StatusHistory) []StatusHistoryResponse {
	out := make([]StatusHistoryResponse, len(entries))
	for i, h := range entries {
		out[i] = StatusHistoryResponse{
			ID:             h.ID,
			PreviousStatus: string(h.PreviousStatus),
			NewStatus:      string(h.NewStatus),
			Actor:          h.Actor,
			Notes:          h.Notes,
			CreatedAt:      h.CreatedAt,
		}
	}
	return out
}
