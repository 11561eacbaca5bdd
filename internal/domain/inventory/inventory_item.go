package inventory

import (
	"time"

	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem tracks the on-hand stock of one product. It is the aggregate
// root for stock operations.
//
// The fiscal document is the authoritative record of what physically moved,
// so outbound movements may drive the balance negative: a sale recorded
// before its purchase entry was imported is a bookkeeping lag, not an error.
type InventoryItem struct {
	shared.BaseAggregateRoot
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // moving weighted average
	LastMovementAt *time.Time
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates an empty stock record for a product
func NewInventoryItem(productID uuid.UUID) (*InventoryItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}

	return &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		QuantityOnHand:    decimal.Zero,
		UnitCost:          decimal.Zero,
	}, nil
}

// Increase adds stock and recalculates the moving weighted average cost.
// The average only folds in the new cost while the balance is positive;
// replenishing from a negative balance resets the cost to the incoming one.
func (i *InventoryItem) Increase(quantity, unitCost decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	oldQuantity := i.QuantityOnHand
	if oldQuantity.LessThanOrEqual(decimal.Zero) {
		i.UnitCost = unitCost
	} else {
		totalValue := oldQuantity.Mul(i.UnitCost).Add(quantity.Mul(unitCost))
		i.UnitCost = totalValue.Div(oldQuantity.Add(quantity)).Round(4)
	}

	i.QuantityOnHand = i.QuantityOnHand.Add(quantity)
	i.touch()

	return nil
}

// Decrease removes stock. The balance may go negative.
func (i *InventoryItem) Decrease(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	i.QuantityOnHand = i.QuantityOnHand.Sub(quantity)
	i.touch()

	return nil
}

func (i *InventoryItem) touch() {
	now := time.Now()
	i.LastMovementAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()
}

// TotalValue returns the stock valuation at average cost
func (i *InventoryItem) TotalValue() decimal.Decimal {
	return i.QuantityOnHand.Mul(i.UnitCost)
}

// IsNegative returns true when outbound documents outpaced entries
func (i *InventoryItem) IsNegative() bool {
	return i.QuantityOnHand.IsNegative()
}
