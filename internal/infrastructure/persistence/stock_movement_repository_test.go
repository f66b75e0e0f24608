package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// newMockStockRepositories creates ledger repositories with a mocked SQL connection
func newMockStockRepositories(t *testing.T) (*GormStockMovementRepository, *GormProductStockRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStockMovementRepository(gormDB), NewGormProductStockRepository(gormDB), mock, mockDB
}

func TestGormStockMovementRepository_Append(t *testing.T) {
	t.Run("inserts a ledger row", func(t *testing.T) {
		moveRepo, _, mock, mockDB := newMockStockRepositories(t)
		defer mockDB.Close()

		movement, err := inventory.NewStockMovement(
			uuid.New(), inventory.MovementTypeSale, -2, "Order confirmed", "ORD-20250114-0001", 5)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "stock_movements"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = moveRepo.Append(context.Background(), movement)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockMovementRepository_FindByProductID(t *testing.T) {
	t.Run("returns movements oldest first by default", func(t *testing.T) {
		moveRepo, _, mock, mockDB := newMockStockRepositories(t)
		defer mockDB.Close()

		productID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "product_id", "type", "quantity", "reason", "reference", "stock_after"}).
			AddRow(uuid.New(), productID, "RESTOCK", 10, "Initial stock", "", 10).
			AddRow(uuid.New(), productID, "SALE", -2, "Order confirmed", "ORD-20250114-0001", 8)

		mock.ExpectQuery(`SELECT \* FROM "stock_movements" WHERE product_id = \$1 ORDER BY created_at ASC`).
			WithArgs(productID).
			WillReturnRows(rows)

		movements, err := moveRepo.FindByProductID(context.Background(), productID, shared.Filter{})

		assert.NoError(t, err)
		require.Len(t, movements, 2)
		assert.Equal(t, inventory.MovementTypeRestock, movements[0].Type)
		assert.Equal(t, 8, movements[1].StockAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockMovementRepository_CountByProductID(t *testing.T) {
	t.Run("counts a product's ledger rows", func(t *testing.T) {
		moveRepo, _, mock, mockDB := newMockStockRepositories(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_movements" WHERE product_id = \$1`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		count, err := moveRepo.CountByProductID(context.Background(), productID)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductStockRepository_FindByProductID(t *testing.T) {
	t.Run("finds an existing stock projection", func(t *testing.T) {
		_, stockRepo, mock, mockDB := newMockStockRepositories(t)
		defer mockDB.Close()

		productID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "product_id", "sku", "product_name", "stock_quantity", "low_stock_threshold", "stock_status"}).
			AddRow(uuid.New(), productID, "SKU-001", "Cotton Kurta", 7, 5, "instock")

		mock.ExpectQuery(`SELECT \* FROM "product_stocks" WHERE product_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(productID, 1).
			WillReturnRows(rows)

		stock, err := stockRepo.FindByProductID(context.Background(), productID)

		assert.NoError(t, err)
		assert.NotNil(t, stock)
		assert.Equal(t, productID, stock.ProductID)
		assert.Equal(t, 7, stock.StockQuantity)
		assert.Equal(t, inventory.StockStatusInStock, stock.StockStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for an unknown product", func(t *testing.T) {
		_, stockRepo, mock, mockDB := newMockStockRepositories(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "product_stocks" WHERE product_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(productID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		stock, err := stockRepo.FindByProductID(context.Background(), productID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Nil(t, stock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductStockRepository_FindByProductIDs(t *testing.T) {
	t.Run("returns empty result for empty input", func(t *testing.T) {
		_, stockRepo, _, mockDB := newMockStockRepositories(t)
		defer mockDB.Close()

		stocks, err := stockRepo.FindByProductIDs(context.Background(), []uuid.UUID{})

		assert.NoError(t, err)
		assert.Empty(t, stocks)
	})
}

func TestGormProductStockRepository_FindByProductIDForUpdate(t *testing.T) {
	t.Run("locks the projection row", func(t *testing.T) {
		_, stockRepo, mock, mockDB := newMockStockRepositories(t)
		defer mockDB.Close()

		productID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "product_id", "stock_quantity", "low_stock_threshold", "stock_status"}).
			AddRow(uuid.New(), productID, 3, 5, "lowstock")

		mock.ExpectQuery(`SELECT \* FROM "product_stocks" WHERE product_id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(productID, 1).
			WillReturnRows(rows)

		stock, err := stockRepo.FindByProductIDForUpdate(context.Background(), productID)

		assert.NoError(t, err)
		assert.NotNil(t, stock)
		assert.Equal(t, inventory.StockStatusLowStock, stock.StockStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
