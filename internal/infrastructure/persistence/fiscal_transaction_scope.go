package persistence

import (
	"context"

	appfiscal "github.com/fiscal/backend/internal/application/fiscalimport"
	"github.com/fiscal/backend/internal/domain/finance"
	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/fiscal/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Reconciliation runs all of its writes through one scope so that stock,
// ledger and status mutations commit or roll back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfiscal.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ImportRepo returns the document import repository scoped to the current transaction
func (r *gormTransactionalRepositories) ImportRepo() fiscal.DocumentImportRepository {
	return NewGormDocumentImportRepository(r.tx)
}

// InventoryRepo returns the inventory item repository scoped to the current transaction
func (r *gormTransactionalRepositories) InventoryRepo() inventory.InventoryItemRepository {
	return NewGormInventoryItemRepository(r.tx)
}

// InventoryTxRepo returns the stock movement repository scoped to the current transaction
func (r *gormTransactionalRepositories) InventoryTxRepo() inventory.InventoryTransactionRepository {
	return NewGormInventoryTransactionRepository(r.tx)
}

// PayableRepo returns the account payable repository scoped to the current transaction
func (r *gormTransactionalRepositories) PayableRepo() finance.AccountPayableRepository {
	return NewGormAccountPayableRepository(r.tx)
}

var _ appfiscal.TransactionScope = (*GormTransactionScope)(nil)
var _ appfiscal.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
