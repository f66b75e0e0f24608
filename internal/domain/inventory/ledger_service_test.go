package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
)

// fakeLedgerRepos is an in-memory LedgerRepositories for exercising the
// ledger service without a database.
type fakeLedgerRepos struct {
	stocks    map[uuid.UUID]*ProductStock
	movements []StockMovement
}

func newFakeLedgerRepos() *fakeLedgerRepos {
	return &fakeLedgerRepos{stocks: make(map[uuid.UUID]*ProductStock)}
}

func (f *fakeLedgerRepos) ProductStockRepo() ProductStockRepository { return (*fakeStockRepo)(f) }
func (f *fakeLedgerRepos) MovementRepo() StockMovementRepository    { return (*fakeMovementRepo)(f) }

type fakeStockRepo fakeLedgerRepos

func (f *fakeStockRepo) FindByProductID(_ context.Context, productID uuid.UUID) (*ProductStock, error) {
	stock, ok := f.stocks[productID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return stock, nil
}

func (f *fakeStockRepo) FindByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*ProductStock, error) {
	return f.FindByProductID(ctx, productID)
}

func (f *fakeStockRepo) FindByProductIDs(_ context.Context, productIDs []uuid.UUID) ([]ProductStock, error) {
	var out []ProductStock
	for _, id := range productIDs {
		if stock, ok := f.stocks[id]; ok {
			out = append(out, *stock)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) FindBelowThreshold(_ context.Context, _ shared.Filter) ([]ProductStock, error) {
	var out []ProductStock
	for _, stock := range f.stocks {
		if stock.StockStatus != StockStatusInStock {
			out = append(out, *stock)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) Save(_ context.Context, stock *ProductStock) error {
	f.stocks[stock.ProductID] = stock
	return nil
}

type fakeMovementRepo fakeLedgerRepos

func (f *fakeMovementRepo) Append(_ context.Context, movement *StockMovement) error {
	f.movements = append(f.movements, *movement)
	return nil
}

func (f *fakeMovementRepo) FindByProductID(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]StockMovement, error) {
	var out []StockMovement
	for _, m := range f.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovementRepo) FindByReference(_ context.Context, reference string) ([]StockMovement, error) {
	var out []StockMovement
	for _, m := range f.movements {
		if m.Reference == reference {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovementRepo) CountByProductID(_ context.Context, productID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range f.movements {
		if m.ProductID == productID {
			n++
		}
	}
	return n, nil
}

// ============================================
// LedgerService Tests
// ============================================

func TestLedgerService_ApplyDelta(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService()

	seed := func(t *testing.T, quantity int) (*fakeLedgerRepos, uuid.UUID) {
		repos := newFakeLedgerRepos()
		ps := createTestStock(t, quantity, 5)
		repos.stocks[ps.ProductID] = ps
		return repos, ps.ProductID
	}

	t.Run("writes one ledger row and updates the counter", func(t *testing.T) {
		repos, productID := seed(t, 10)

		stock, err := svc.ApplyDelta(ctx, repos, productID, -2, MovementTypeSale, "Order confirmed", "ORD-20250114-0001")
		require.NoError(t, err)
		assert.Equal(t, 8, stock.StockQuantity)
		assert.Equal(t, 8, repos.stocks[productID].StockQuantity)

		require.Len(t, repos.movements, 1)
		assert.Equal(t, -2, repos.movements[0].Quantity)
		assert.Equal(t, 8, repos.movements[0].StockAfter)
		assert.Equal(t, MovementTypeSale, repos.movements[0].Type)
	})

	t.Run("sale then cancellation restores the original count", func(t *testing.T) {
		repos, productID := seed(t, 10)

		_, err := svc.ApplyDelta(ctx, repos, productID, -2, MovementTypeSale, "Order confirmed", "ORD-20250114-0002")
		require.NoError(t, err)
		stock, err := svc.ApplyDelta(ctx, repos, productID, 2, MovementTypeReturn, "Order cancelled", "ORD-20250114-0002")
		require.NoError(t, err)

		assert.Equal(t, 10, stock.StockQuantity)
		require.Len(t, repos.movements, 2)
	})

	t.Run("ledger records raw delta even when the counter clamps", func(t *testing.T) {
		repos, productID := seed(t, 3)

		stock, err := svc.ApplyDelta(ctx, repos, productID, -7, MovementTypeAdjustment, "Stocktake correction", "")
		require.NoError(t, err)
		assert.Equal(t, 0, stock.StockQuantity)
		require.Len(t, repos.movements, 1)
		assert.Equal(t, -7, repos.movements[0].Quantity, "ledger keeps the raw delta")
		assert.Equal(t, 0, repos.movements[0].StockAfter)
	})

	t.Run("returned projection carries the status boundary event", func(t *testing.T) {
		repos, productID := seed(t, 10)

		stock, err := svc.ApplyDelta(ctx, repos, productID, -6, MovementTypeSale, "Order confirmed", "ORD-20250114-0003")
		require.NoError(t, err)

		events := stock.GetDomainEvents()
		require.Len(t, events, 1)
		statusEvent, ok := events[0].(*StockStatusChangedEvent)
		require.True(t, ok)
		assert.Equal(t, StockStatusInStock, statusEvent.PreviousStatus)
		assert.Equal(t, StockStatusLowStock, statusEvent.NewStatus)
	})

	t.Run("rejects zero delta without touching the ledger", func(t *testing.T) {
		repos, productID := seed(t, 10)
		_, err := svc.ApplyDelta(ctx, repos, productID, 0, MovementTypeSale, "", "")
		assert.Error(t, err)
		assert.Empty(t, repos.movements)
	})

	t.Run("unknown product surfaces not found", func(t *testing.T) {
		repos := newFakeLedgerRepos()
		_, err := svc.ApplyDelta(ctx, repos, uuid.New(), -1, MovementTypeSale, "", "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("replaying all deltas equals the final balance", func(t *testing.T) {
		repos, productID := seed(t, 0)

		deltas := []struct {
			delta int
			mt    MovementType
		}{
			{20, MovementTypeRestock},
			{-3, MovementTypeSale},
			{-5, MovementTypeSale},
			{3, MovementTypeReturn},
			{-1, MovementTypeAdjustment},
		}
		for _, d := range deltas {
			_, err := svc.ApplyDelta(ctx, repos, productID, d.delta, d.mt, "", "")
			require.NoError(t, err)
		}

		replayed := 0
		for _, m := range repos.movements {
			replayed += m.Quantity
			if replayed < 0 {
				replayed = 0
			}
		}
		last := repos.movements[len(repos.movements)-1]
		assert.Equal(t, last.StockAfter, replayed)
		assert.Equal(t, repos.stocks[productID].StockQuantity, replayed)
	})
}
