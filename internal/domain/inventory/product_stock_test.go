package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestStock(t *testing.T, quantity, threshold int) *ProductStock {
	ps, err := NewProductStock(uuid.New(), "SKU-001", "Cotton Kurta", quantity, threshold)
	require.NoError(t, err)
	return ps
}

// ============================================
// NewProductStock Tests
// ============================================

func TestNewProductStock(t *testing.T) {
	t.Run("creates projection with derived status", func(t *testing.T) {
		ps := createTestStock(t, 10, 5)
		assert.Equal(t, 10, ps.StockQuantity)
		assert.Equal(t, StockStatusInStock, ps.StockStatus)
	})

	t.Run("defaults threshold when not positive", func(t *testing.T) {
		ps := createTestStock(t, 10, 0)
		assert.Equal(t, DefaultLowStockThreshold, ps.LowStockThreshold)
	})

	t.Run("rejects negative initial quantity", func(t *testing.T) {
		_, err := NewProductStock(uuid.New(), "SKU-001", "Cotton Kurta", -1, 5)
		assert.Error(t, err)
	})

	t.Run("rejects nil product id", func(t *testing.T) {
		_, err := NewProductStock(uuid.Nil, "SKU-001", "Cotton Kurta", 10, 5)
		assert.Error(t, err)
	})
}

// ============================================
// Status Derivation Tests
// ============================================

func TestProductStock_StatusDerivation(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		threshold int
		want      StockStatus
	}{
		{"zero is out of stock", 0, 5, StockStatusOutOfStock},
		{"at threshold is low stock", 5, 5, StockStatusLowStock},
		{"one is low stock", 1, 5, StockStatusLowStock},
		{"above threshold is in stock", 6, 5, StockStatusInStock},
		{"custom threshold boundary", 10, 10, StockStatusLowStock},
		{"just above custom threshold", 11, 10, StockStatusInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := createTestStock(t, tt.quantity, tt.threshold)
			assert.Equal(t, tt.want, ps.StockStatus)
		})
	}
}

// ============================================
// applyDelta Tests
// ============================================

func TestProductStock_ApplyDelta(t *testing.T) {
	t.Run("applies positive and negative deltas", func(t *testing.T) {
		ps := createTestStock(t, 10, 5)

		assert.Equal(t, 8, ps.applyDelta(-2))
		assert.Equal(t, 8, ps.StockQuantity)

		assert.Equal(t, 10, ps.applyDelta(2))
		assert.Equal(t, 10, ps.StockQuantity)
	})

	t.Run("clamps to zero on oversell", func(t *testing.T) {
		ps := createTestStock(t, 3, 5)
		assert.Equal(t, 0, ps.applyDelta(-7))
		assert.Equal(t, 0, ps.StockQuantity)
		assert.Equal(t, StockStatusOutOfStock, ps.StockStatus)
	})

	t.Run("emits event only on status boundary cross", func(t *testing.T) {
		ps := createTestStock(t, 10, 5)
		ps.ClearDomainEvents()

		ps.applyDelta(-2) // 8, still in stock
		assert.Empty(t, ps.GetDomainEvents())

		ps.applyDelta(-4) // 4, crossed into low stock
		require.Len(t, ps.GetDomainEvents(), 1)
		event, ok := ps.GetDomainEvents()[0].(*StockStatusChangedEvent)
		require.True(t, ok)
		assert.Equal(t, StockStatusInStock, event.PreviousStatus)
		assert.Equal(t, StockStatusLowStock, event.NewStatus)
	})
}

func TestProductStock_HasAvailable(t *testing.T) {
	ps := createTestStock(t, 5, 5)
	assert.True(t, ps.HasAvailable(5))
	assert.True(t, ps.HasAvailable(1))
	assert.False(t, ps.HasAvailable(6))
	assert.False(t, ps.HasAvailable(0))
	assert.False(t, ps.HasAvailable(-1))
}

func TestProductStock_SetLowStockThreshold(t *testing.T) {
	ps := createTestStock(t, 8, 5)
	require.Equal(t, StockStatusInStock, ps.StockStatus)

	require.NoError(t, ps.SetLowStockThreshold(10))
	assert.Equal(t, StockStatusLowStock, ps.StockStatus)

	assert.Error(t, ps.SetLowStockThreshold(0))
}

// ============================================
// StockMovement Tests
// ============================================

func TestNewStockMovement(t *testing.T) {
	productID := uuid.New()

	t.Run("records signed delta with resulting balance", func(t *testing.T) {
		m, err := NewStockMovement(productID, MovementTypeSale, -2, "Order confirmed", "ORD-20250114-0001", 8)
		require.NoError(t, err)
		assert.True(t, m.IsOutbound())
		assert.Equal(t, -2, m.Quantity)
		assert.Equal(t, 8, m.StockAfter)
	})

	t.Run("rejects zero delta", func(t *testing.T) {
		_, err := NewStockMovement(productID, MovementTypeAdjustment, 0, "", "", 5)
		assert.Error(t, err)
	})

	t.Run("rejects negative resulting stock", func(t *testing.T) {
		_, err := NewStockMovement(productID, MovementTypeSale, -2, "", "", -1)
		assert.Error(t, err)
	})

	t.Run("rejects unknown movement type", func(t *testing.T) {
		_, err := NewStockMovement(productID, MovementType("BOGUS"), 1, "", "", 1)
		assert.Error(t, err)
	})
}
