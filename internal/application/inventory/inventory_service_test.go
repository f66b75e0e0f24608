package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appshared "github.com/storefront/backend/internal/application/shared"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// ==================== test fakes ====================

type fakeStockRepo struct {
	stocks map[uuid.UUID]*inventory.ProductStock
}

func (r *fakeStockRepo) FindByProductID(_ context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	stock, ok := r.stocks[productID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return stock, nil
}

func (r *fakeStockRepo) FindByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	return r.FindByProductID(ctx, productID)
}

func (r *fakeStockRepo) FindByProductIDs(_ context.Context, productIDs []uuid.UUID) ([]inventory.ProductStock, error) {
	var out []inventory.ProductStock
	for _, id := range productIDs {
		if stock, ok := r.stocks[id]; ok {
			out = append(out, *stock)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) FindBelowThreshold(_ context.Context, _ shared.Filter) ([]inventory.ProductStock, error) {
	var out []inventory.ProductStock
	for _, stock := range r.stocks {
		if stock.StockQuantity <= stock.LowStockThreshold {
			out = append(out, *stock)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) Save(_ context.Context, stock *inventory.ProductStock) error {
	r.stocks[stock.ProductID] = stock
	return nil
}

type fakeMovementRepo struct {
	movements []inventory.StockMovement
}

func (r *fakeMovementRepo) Append(_ context.Context, movement *inventory.StockMovement) error {
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeMovementRepo) FindByProductID(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) FindByReference(_ context.Context, reference string) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.Reference == reference {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) CountByProductID(_ context.Context, productID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range r.movements {
		if m.ProductID == productID {
			n++
		}
	}
	return n, nil
}

// ==================== fixture ====================

type inventoryFixture struct {
	svc       *Service
	stockRepo *fakeStockRepo
	moveRepo  *fakeMovementRepo
}

func newInventoryFixture() *inventoryFixture {
	stockRepo := &fakeStockRepo{stocks: make(map[uuid.UUID]*inventory.ProductStock)}
	moveRepo := &fakeMovementRepo{}
	txScope := appshared.NewNoOpTransactionScope(nil, nil, stockRepo, moveRepo)
	return &inventoryFixture{
		svc:       NewService(txScope, inventory.NewLedgerService()),
		stockRepo: stockRepo,
		moveRepo:  moveRepo,
	}
}

func registerRequest(quantity int) RegisterProductRequest {
	return RegisterProductRequest{
		ProductID:         uuid.New(),
		SKU:               "SKU-001",
		ProductName:       "Cotton Kurta",
		InitialQuantity:   quantity,
		LowStockThreshold: 5,
	}
}

// ==================== tests ====================

func TestInventoryService_RegisterProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("records initial quantity as a restock ledger row", func(t *testing.T) {
		f := newInventoryFixture()
		resp, err := f.svc.RegisterProduct(ctx, registerRequest(25))
		require.NoError(t, err)

		assert.Equal(t, 25, resp.StockQuantity)
		assert.Equal(t, string(inventory.StockStatusInStock), resp.StockStatus)
		require.Len(t, f.moveRepo.movements, 1)
		assert.Equal(t, inventory.MovementTypeRestock, f.moveRepo.movements[0].Type)
		assert.Equal(t, 25, f.moveRepo.movements[0].Quantity)
		assert.Equal(t, "Initial stock", f.moveRepo.movements[0].Reason)
	})

	t.Run("zero initial quantity writes no ledger row", func(t *testing.T) {
		f := newInventoryFixture()
		resp, err := f.svc.RegisterProduct(ctx, registerRequest(0))
		require.NoError(t, err)

		assert.Equal(t, 0, resp.StockQuantity)
		assert.Equal(t, string(inventory.StockStatusOutOfStock), resp.StockStatus)
		assert.Empty(t, f.moveRepo.movements)
	})

	t.Run("rejects a product registered twice", func(t *testing.T) {
		f := newInventoryFixture()
		req := registerRequest(10)
		_, err := f.svc.RegisterProduct(ctx, req)
		require.NoError(t, err)

		_, err = f.svc.RegisterProduct(ctx, req)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestInventoryService_Restock(t *testing.T) {
	ctx := context.Background()

	t.Run("adds stock and defaults the reason", func(t *testing.T) {
		f := newInventoryFixture()
		req := registerRequest(3)
		_, err := f.svc.RegisterProduct(ctx, req)
		require.NoError(t, err)

		resp, err := f.svc.Restock(ctx, req.ProductID, RestockRequest{Quantity: 20, Ref: "PO-1001"})
		require.NoError(t, err)

		assert.Equal(t, 23, resp.StockQuantity)
		require.Len(t, f.moveRepo.movements, 2)
		last := f.moveRepo.movements[1]
		assert.Equal(t, "Supplier restock", last.Reason)
		assert.Equal(t, "PO-1001", last.Reference)
		assert.Equal(t, 23, last.StockAfter)
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		f := newInventoryFixture()
		req := registerRequest(3)
		_, err := f.svc.RegisterProduct(ctx, req)
		require.NoError(t, err)

		_, err = f.svc.Restock(ctx, req.ProductID, RestockRequest{Quantity: 0})
		assert.Error(t, err)
		_, err = f.svc.Restock(ctx, req.ProductID, RestockRequest{Quantity: -5})
		assert.Error(t, err)
	})

	t.Run("unknown product returns not found", func(t *testing.T) {
		f := newInventoryFixture()
		_, err := f.svc.Restock(ctx, uuid.New(), RestockRequest{Quantity: 5})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestInventoryService_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("negative delta writes off stock", func(t *testing.T) {
		f := newInventoryFixture()
		req := registerRequest(10)
		_, err := f.svc.RegisterProduct(ctx, req)
		require.NoError(t, err)

		resp, err := f.svc.Adjust(ctx, req.ProductID, AdjustStockRequest{Quantity: -4, Reason: "Damaged in warehouse"})
		require.NoError(t, err)

		assert.Equal(t, 6, resp.StockQuantity)
		last := f.moveRepo.movements[len(f.moveRepo.movements)-1]
		assert.Equal(t, inventory.MovementTypeAdjustment, last.Type)
		assert.Equal(t, -4, last.Quantity)
	})

	t.Run("adjustment below zero clamps the projection", func(t *testing.T) {
		f := newInventoryFixture()
		req := registerRequest(3)
		_, err := f.svc.RegisterProduct(ctx, req)
		require.NoError(t, err)

		resp, err := f.svc.Adjust(ctx, req.ProductID, AdjustStockRequest{Quantity: -10, Reason: "Stocktake correction"})
		require.NoError(t, err)

		assert.Equal(t, 0, resp.StockQuantity)
		assert.Equal(t, string(inventory.StockStatusOutOfStock), resp.StockStatus)
		// the ledger keeps the raw delta even when the projection clamps
		last := f.moveRepo.movements[len(f.moveRepo.movements)-1]
		assert.Equal(t, -10, last.Quantity)
		assert.Equal(t, 0, last.StockAfter)
	})
}

func TestInventoryService_GetLowStock(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture()

	low := registerRequest(2)
	_, err := f.svc.RegisterProduct(ctx, low)
	require.NoError(t, err)
	healthy := RegisterProductRequest{
		ProductID: uuid.New(), SKU: "SKU-002", ProductName: "Saree",
		InitialQuantity: 50, LowStockThreshold: 5,
	}
	_, err = f.svc.RegisterProduct(ctx, healthy)
	require.NoError(t, err)

	out, err := f.svc.GetLowStock(ctx, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, low.ProductID, out[0].ProductID)
}

func TestInventoryService_GetInventoryHistory(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture()

	req := registerRequest(10)
	_, err := f.svc.RegisterProduct(ctx, req)
	require.NoError(t, err)
	_, err = f.svc.Restock(ctx, req.ProductID, RestockRequest{Quantity: 5})
	require.NoError(t, err)
	_, err = f.svc.Adjust(ctx, req.ProductID, AdjustStockRequest{Quantity: -2, Reason: "Damaged"})
	require.NoError(t, err)

	movements, total, err := f.svc.GetInventoryHistory(ctx, req.ProductID, MovementHistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, movements, 3)
	assert.Equal(t, 10, movements[0].StockAfter)
	assert.Equal(t, 15, movements[1].StockAfter)
	assert.Equal(t, 13, movements[2].StockAfter)

	t.Run("unknown product returns not found", func(t *testing.T) {
		_, _, err := f.svc.GetInventoryHistory(ctx, uuid.New(), MovementHistoryFilter{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
