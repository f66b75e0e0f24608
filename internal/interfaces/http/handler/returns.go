package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	returnsapp "github.com/storefront/backend/internal/application/returns"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// ReturnHandler handles return and refund API endpoints
type ReturnHandler struct {
	BaseHandler
	returnService *returnsapp.Service
}

// NewReturnHandler creates a new ReturnHandler
func NewReturnHandler(returnService *returnsapp.Service) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

// RegisterRoutes registers return routes on the API group
func (h *ReturnHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ret := rg.Group("/returns")
	{
		ret.POST("", h.Create)
		ret.GET("", h.List)
		ret.GET("/:id", h.GetByID)
		ret.PATCH("/:id/status", h.UpdateStatus)
		ret.POST("/:id/qc", h.RecordQC)
		ret.PUT("/:id/tracking", h.SetTracking)
		ret.GET("/:id/history", h.GetStatusHistory)
	}
}

// Create opens a return against a delivered order
func (h *ReturnHandler) Create(c *gin.Context) {
	var req returnsapp.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.returnService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID returns a single return with its items
func (h *ReturnHandler) GetByID(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	resp, err := h.returnService.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns a paginated return list with optional filters
func (h *ReturnHandler) List(c *gin.Context) {
	var filter returnsapp.ReturnListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	items, total, err := h.returnService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// UpdateStatus moves a return along its state machine. The refund edge
// triggers restock and order payment status updates in one transaction.
func (h *ReturnHandler) UpdateStatus(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	var req returnsapp.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.returnService.UpdateStatus(c.Request.Context(), returnID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// RecordQC records the quality-control outcome for a received return
func (h *ReturnHandler) RecordQC(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	var req returnsapp.RecordQCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.returnService.RecordQC(c.Request.Context(), returnID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// SetTracking records the customer's return shipment tracking
func (h *ReturnHandler) SetTracking(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	var req returnsapp.SetTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.returnService.SetTracking(c.Request.Context(), returnID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetStatusHistory returns a return's full status audit trail
func (h *ReturnHandler) GetStatusHistory(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	history, err := h.returnService.GetStatusHistory(c.Request.Context(), returnID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, history)
}
