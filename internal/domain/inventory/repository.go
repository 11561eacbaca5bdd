package inventory

import (
	"context"

	"github.com/google/uuid"
)

// InventoryItemRepository defines the persistence contract for stock records
type InventoryItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	FindByProductID(ctx context.Context, productID uuid.UUID) (*InventoryItem, error)
	Save(ctx context.Context, item *InventoryItem) error
}

// InventoryTransactionRepository defines the persistence contract for the
// stock movement audit trail. Transactions are append-only.
type InventoryTransactionRepository interface {
	Save(ctx context.Context, tx *InventoryTransaction) error
	FindBySource(ctx context.Context, sourceType SourceType, sourceID string) ([]InventoryTransaction, error)
	FindByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]InventoryTransaction, error)
}
