package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// Business rule error codes. These mirror the domain error codes so a
// handler can pass them through without translation.
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeAmountMismatch      = "AMOUNT_MISMATCH"
	ErrCodeReturnWindowExpired = "RETURN_WINDOW_EXPIRED"
	ErrCodeReturnIneligible    = "RETURN_INELIGIBLE"
	ErrCodeInvalidPayload      = "INVALID_PAYLOAD"
)

// Gateway error codes
const (
	ErrCodeGatewayUnavailable   = "GATEWAY_UNAVAILABLE"
	ErrCodeGatewayRequestFailed = "GATEWAY_REQUEST_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidPayload:      http.StatusBadRequest,
	"INVALID_STATUS":           http.StatusBadRequest,
	"INVALID_QUANTITY":         http.StatusBadRequest,
	"INVALID_PRODUCT":          http.StatusBadRequest,
	"INVALID_AMOUNT":           http.StatusBadRequest,
	"INVALID_ADDRESS":          http.StatusBadRequest,
	"INVALID_REASON":           http.StatusBadRequest,
	"INVALID_THRESHOLD":        http.StatusBadRequest,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition:   http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeAmountMismatch:      http.StatusUnprocessableEntity,
	ErrCodeReturnWindowExpired: http.StatusUnprocessableEntity,
	ErrCodeReturnIneligible:    http.StatusUnprocessableEntity,

	// A bad signature is an authentication failure, not a validation one
	ErrCodeInvalidSignature: http.StatusUnauthorized,

	ErrCodeGatewayUnavailable:   http.StatusBadGateway,
	ErrCodeGatewayRequestFailed: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Codes without an explicit mapping are business-rule violations and
// map to 422 Unprocessable Entity.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
