package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// SignatureHeader is the header the gateway signs webhook deliveries with
const SignatureHeader = "X-Razorpay-Signature"

// maxWebhookBodySize caps webhook payloads at 1 MiB
const maxWebhookBodySize = 1 << 20

// WebhookHandler receives payment gateway webhook deliveries
type WebhookHandler struct {
	BaseHandler
	webhookService *paymentapp.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *paymentapp.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// RegisterRoutes registers webhook routes on the API group
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/payment", h.HandlePaymentWebhook)
}

// HandlePaymentWebhook processes one gateway webhook delivery. The body is
// read raw before any parsing because the signature covers the exact bytes
// on the wire; reformatting the JSON first would break verification.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	signature := c.GetHeader(SignatureHeader)

	result, err := h.webhookService.ProcessWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		h.handleWebhookError(c, result, err)
		return
	}

	// Accepted and ignored deliveries both return 200 so the gateway
	// stops retrying
	h.Success(c, result)
}

// handleWebhookError picks the status code the gateway's retry policy
// reacts to: 401 tells it the delivery was not authentic, 4xx business
// rejections stop retries, 5xx asks it to try again later.
func (h *WebhookHandler) handleWebhookError(c *gin.Context, result *paymentapp.WebhookResult, err error) {
	if errors.Is(err, shared.ErrInvalidSignature) {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Webhook signature verification failed")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		statusCode := dto.GetHTTPStatus(domainErr.Code)
		c.JSON(statusCode, dto.NewErrorResponseWithDetails(
			domainErr.Code, domainErr.Message, getRequestID(c), result))
		return
	}

	// Transient failure (db down, gateway unreachable): signal the
	// gateway to redeliver
	h.InternalError(c, "Failed to process webhook event")
}
