package persistence

import (
	"context"

	appcosting "github.com/erp/costing/internal/application/costing"
	"gorm.io/gorm"
)

// NewRepositories builds every repository on db. Passing a transaction
// handle scopes them all to that transaction.
func NewRepositories(db *gorm.DB) *appcosting.Repositories {
	return &appcosting.Repositories{
		BatchRepo:           NewGormStockBatchRepository(db),
		MovementRepo:        NewGormStockMovementRepository(db),
		StockRepo:           NewGormStockRepository(db),
		CostCalculationRepo: NewGormCostCalculationRepository(db),
		MethodRepo:          NewGormCostingMethodRepository(db),
		RuleRepo:            NewGormCostingRuleRepository(db),
		UnitRepo:            NewGormUnitRepository(db),
		ProductRepo:         NewGormProductRepository(db),
		PackagingRepo:       NewGormPackagingRepository(db),
	}
}

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. An error from fn, or a
// failing commit, rolls everything back. Commit errors are translated so
// serialization failures surface as concurrency conflicts.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appcosting.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
	return translateError(err)
}

var _ appcosting.TransactionScope = (*GormTransactionScope)(nil)
