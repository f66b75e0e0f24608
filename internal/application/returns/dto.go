package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/returns"
)

// ==================== Return DTOs ====================

// ReturnItemInput represents one line of a return request
type ReturnItemInput struct {
	OrderItemID uuid.UUID `json:"order_item_id" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required,min=1"`
	Restockable bool      `json:"restockable"`
	Reason      string    `json:"reason" binding:"max=255"`
}

// CreateReturnRequest represents a request to open a return against an order
type CreateReturnRequest struct {
	OrderID uuid.UUID         `json:"order_id" binding:"required"`
	Reason  string            `json:"reason" binding:"required,min=1,max=500"`
	Items   []ReturnItemInput `json:"items" binding:"required,min=1"`
}

// UpdateStatusRequest represents a request to move a return to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Actor  string `json:"actor"`
	Notes  string `json:"notes" binding:"max=500"`
}

// RecordQCRequest represents the quality-control outcome for a received return
type RecordQCRequest struct {
	Result string `json:"result" binding:"required,oneof=PASSED FAILED"`
	Notes  string `json:"notes" binding:"max=500"`
}

// SetTrackingRequest records the customer's return shipment tracking
type SetTrackingRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,min=1,max=100"`
	Carrier        string `json:"carrier" binding:"required,min=1,max=100"`
}

// ReturnListFilter represents filter options for the return list
type ReturnListFilter struct {
	Search   string  `form:"search"`
	Status   *string `form:"status"`
	Page     int     `form:"page" binding:"min=0"`
	PageSize int     `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string  `form:"order_by"`
	OrderDir string  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ReturnItemResponse represents a return line in API responses
type ReturnItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderItemID  uuid.UUID       `json:"order_item_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	SKU          string          `json:"sku"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	Restockable  bool            `json:"restockable"`
	Reason       string          `json:"reason,omitempty"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
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

// ReturnResponse represents a return in API responses
type ReturnResponse struct {
	ID              uuid.UUID            `json:"id"`
	ReturnNumber    string               `json:"return_number"`
	OrderID         uuid.UUID            `json:"order_id"`
	OrderNumber     string               `json:"order_number"`
	Status          string               `json:"status"`
	AllowedStatuses []string             `json:"allowed_statuses"`
	CustomerName    string               `json:"customer_name"`
	CustomerEmail   string               `json:"customer_email"`
	Reason          string               `json:"reason"`
	RefundAmount    decimal.Decimal      `json:"refund_amount"`
	QCStatus        string               `json:"qc_status"`
	QCNotes         string               `json:"qc_notes,omitempty"`
	TrackingNumber  string               `json:"tracking_number,omitempty"`
	Carrier         string               `json:"carrier,omitempty"`
	RejectReason    string               `json:"reject_reason,omitempty"`
	CancelReason    string               `json:"cancel_reason,omitempty"`
	Items           []ReturnItemResponse `json:"items"`
	ApprovedAt      *time.Time           `json:"approved_at,omitempty"`
	RejectedAt      *time.Time           `json:"rejected_at,omitempty"`
	ReceivedAt      *time.Time           `json:"received_at,omitempty"`
	ProcessedAt     *time.Time           `json:"processed_at,omitempty"`
	RefundedAt      *time.Time           `json:"refunded_at,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ToReturnResponse converts a Return aggregate to its response DTO
func ToReturnResponse(r *returns.Return) ReturnResponse {
	items := make([]ReturnItemResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = ReturnItemResponse{
			ID:           item.ID,
			OrderItemID:  item.OrderItemID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			SKU:          item.SKU,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			Restockable:  item.Restockable,
			Reason:       item.Reason,
			RefundAmount: item.RefundAmount,
		}
	}

	allowed := r.Status.AllowedTransitions()
	allowedStrs := make([]string, len(allowed))
	for i, s := range allowed {
		allowedStrs[i] = string(s)
	}

	return ReturnResponse{
		ID:              r.ID,
		ReturnNumber:    r.ReturnNumber,
		OrderID:         r.OrderID,
		OrderNumber:     r.OrderNumber,
		Status:          string(r.Status),
		AllowedStatuses: allowedStrs,
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		Reason:          r.Reason,
		RefundAmount:    r.RefundAmount,
		QCStatus:        string(r.QCStatus),
		QCNotes:         r.QCNotes,
		TrackingNumber:  r.TrackingNumber,
		Carrier:         r.Carrier,
		RejectReason:    r.RejectReason,
		CancelReason:    r.CancelReason,
		Items:           items,
		ApprovedAt:      r.ApprovedAt,
		RejectedAt:      r.RejectedAt,
		ReceivedAt:      r.ReceivedAt,
		ProcessedAt:     r.ProcessedAt,
		RefundedAt:      r.RefundedAt,
		CancelledAt:     r.CancelledAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ToStatusHistoryResponses converts history entries to response DTOs
func ToStatusHistoryResponses(entries []returns.StatusHistory) []StatusHistoryResponse {
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
