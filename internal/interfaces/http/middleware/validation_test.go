package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	type payload struct {
		CustomerEmail string `json:"customer_email" binding:"required,email"`
		Quantity      int    `json:"quantity" binding:"required,gt=0"`
	}

	SetupValidator()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req payload
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("lists failed fields by json tag", func(t *testing.T) {
		body := strings.NewReader(`{"customer_email": "not-an-email", "quantity": 0}`)
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp struct {
			Success bool `json:"success"`
			Error   struct {
				Code    string                 `json:"code"`
				Message string                 `json:"message"`
				Details []dto.ValidationDetail `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "customer_email", resp.Error.Details[0].Field)
		assert.Equal(t, "Invalid email format", resp.Error.Details[0].Message)
		assert.Equal(t, "quantity", resp.Error.Details[1].Field)
	})

	t.Run("falls back to plain message for malformed JSON", func(t *testing.T) {
		body := strings.NewReader(`{"customer_email":`)
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeBadRequest)
	})

	t.Run("passes valid input through", func(t *testing.T) {
		body := strings.NewReader(`{"customer_email": "asha@example.com", "quantity": 2}`)
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestValidationMessage(t *testing.T) {
	type input struct {
		Email    string `validate:"email"`
		Name     string `validate:"required"`
		Quantity int    `validate:"gt=0"`
		Result   string `validate:"oneof=PASSED FAILED"`
	}

	v := validator.New()
	err := v.Struct(input{Email: "invalid", Result: "MAYBE"})
	require.Error(t, err)

	expected := map[string]string{
		"Email":    "Invalid email format",
		"Name":     "This field is required",
		"Quantity": "Must be greater than 0",
		"Result":   "Must be one of: PASSED FAILED",
	}
	for _, e := range err.(validator.ValidationErrors) {
		assert.Equal(t, expected[e.Field()], validationMessage(e), e.Field())
	}
}
