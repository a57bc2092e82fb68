package costing

import (
	"context"

	"github.com/erp/costing/internal/domain/catalog"
	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/inventory"
)

// TransactionScope runs a function inside one database transaction.
// If the function returns an error the transaction is rolled back, so a
// rejected movement leaves no trace.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to every repository the costing
// operations touch. Inside Execute they all share the same transaction.
type TransactionalRepositories interface {
	Batches() inventory.StockBatchRepository
	Movements() inventory.StockMovementRepository
	Stocks() inventory.StockRepository
	CostCalculations() inventory.CostCalculationRepository
	Methods() costing.CostingMethodRepository
	Rules() costing.CostingRuleRepository
	Units() catalog.UnitRepository
	Products() catalog.ProductRepository
	Packagings() catalog.PackagingRepository
}

// Repositories is a plain TransactionalRepositories holder
type Repositories struct {
	BatchRepo           inventory.StockBatchRepository
	MovementRepo        inventory.StockMovementRepository
	StockRepo           inventory.StockRepository
	CostCalculationRepo inventory.CostCalculationRepository
	MethodRepo          costing.CostingMethodRepository
	RuleRepo            costing.CostingRuleRepository
	UnitRepo            catalog.UnitRepository
	ProductRepo         catalog.ProductRepository
	PackagingRepo       catalog.PackagingRepository
}

func (r *Repositories) Batches() inventory.StockBatchRepository      { return r.BatchRepo }
func (r *Repositories) Movements() inventory.StockMovementRepository { return r.MovementRepo }
func (r *Repositories) Stocks() inventory.StockRepository            { return r.StockRepo }
func (r *Repositories) CostCalculations() inventory.CostCalculationRepository {
	return r.CostCalculationRepo
}
func (r *Repositories) Methods() costing.CostingMethodRepository { return r.MethodRepo }
func (r *Repositories) Rules() costing.CostingRuleRepository     { return r.RuleRepo }
func (r *Repositories) Units() catalog.UnitRepository            { return r.UnitRepo }
func (r *Repositories) Products() catalog.ProductRepository      { return r.ProductRepo }
func (r *Repositories) Packagings() catalog.PackagingRepository  { return r.PackagingRepo }

// NoOpTransactionScope runs the function against fixed repositories without
// a transaction. Useful with in-memory fakes.
type NoOpTransactionScope struct {
	repos TransactionalRepositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(repos TransactionalRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn with the wrapped repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*Repositories)(nil)
)
