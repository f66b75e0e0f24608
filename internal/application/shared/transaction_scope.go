package shared

import (
	"context"

	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/returns"
)

// TransactionScope provides transactional access to the engine's repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. Order status changes and their ledger side effects always
// run inside one scope so the order row, its history, the stock movement and
// the stock counter change together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// transaction. All repositories returned share the same underlying database
// transaction. It satisfies inventory.LedgerRepositories, so the ledger
// service can be invoked directly against a scope's repositories.
type TransactionalRepositories interface {
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() order.Repository
	// ReturnRepo returns the return repository scoped to the current transaction
	ReturnRepo() returns.Repository
	// ProductStockRepo returns the product stock repository scoped to the current transaction
	ProductStockRepo() inventory.ProductStockRepository
	// MovementRepo returns the stock movement repository scoped to the current transaction
	MovementRepo() inventory.StockMovementRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests against in-memory repositories.
type NoOpTransactionScope struct {
	orderRepo        order.Repository
	returnRepo       returns.Repository
	productStockRepo inventory.ProductStockRepository
	movementRepo     inventory.StockMovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orderRepo order.Repository,
	returnRepo returns.Repository,
	productStockRepo inventory.ProductStockRepository,
	movementRepo inventory.StockMovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:        orderRepo,
		returnRepo:       returnRepo,
		productStockRepo: productStockRepo,
		movementRepo:     movementRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() order.Repository {
	return s.orderRepo
}

// ReturnRepo returns the return repository.
func (s *NoOpTransactionScope) ReturnRepo() returns.Repository {
	return s.returnRepo
}

// ProductStockRepo returns the product stock repository.
func (s *NoOpTransactionScope) ProductStockRepo() inventory.ProductStockRepository {
	return s.productStockRepo
}

// MovementRepo returns the stock movement repository.
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
