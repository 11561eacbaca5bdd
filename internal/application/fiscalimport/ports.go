package fiscalimport

import (
	"context"

	"github.com/fiscal/backend/internal/domain/finance"
	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/fiscal/backend/internal/domain/inventory"
)

// TransactionalRepositories provides access to all repositories participating
// in one reconciliation transaction
type TransactionalRepositories interface {
	ImportRepo() fiscal.DocumentImportRepository
	InventoryRepo() inventory.InventoryItemRepository
	InventoryTxRepo() inventory.InventoryTransactionRepository
	PayableRepo() finance.AccountPayableRepository
}

// TransactionScope executes a function atomically: either every write inside
// commits, or none do
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// DocumentFetcher retrieves raw document bytes from a remote location
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
