package inventory

import (
	"time"

	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a stock movement
type TransactionType string

const (
	// TransactionTypeInbound represents stock entering (purchase entry document)
	TransactionTypeInbound TransactionType = "INBOUND"
	// TransactionTypeOutbound represents stock leaving (sale document)
	TransactionTypeOutbound TransactionType = "OUTBOUND"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeInbound || t == TransactionTypeOutbound
}

// SourceType identifies the kind of document that caused a movement
type SourceType string

const (
	// SourceTypeFiscalImport is a movement applied by document reconciliation
	SourceTypeFiscalImport SourceType = "FISCAL_IMPORT"
	// SourceTypeManualAdjustment is an operator correction
	SourceTypeManualAdjustment SourceType = "MANUAL_ADJUSTMENT"
)

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	return s == SourceTypeFiscalImport || s == SourceTypeManualAdjustment
}

// InventoryTransaction is an immutable audit record of one stock movement.
// Corrections are made with new transactions, never by editing old ones.
type InventoryTransaction struct {
	shared.BaseEntity
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	TransactionType TransactionType `gorm:"type:varchar(20);not null;index"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"` // always positive, direction in type
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SourceType      SourceType      `gorm:"type:varchar(30);not null;index:idx_inv_tx_source"`
	SourceID        string          `gorm:"type:varchar(50);not null;index:idx_inv_tx_source"` // import ID
	Reference       string          `gorm:"type:varchar(100)"`                                 // document access key
	OperatorID      *uuid.UUID      `gorm:"type:uuid"`
	TransactionDate time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// NewInventoryTransaction creates a new stock movement record
func NewInventoryTransaction(
	inventoryItemID uuid.UUID,
	productID uuid.UUID,
	txType TransactionType,
	quantity decimal.Decimal,
	unitCost decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	sourceType SourceType,
	sourceID string,
) (*InventoryTransaction, error) {
	if inventoryItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVENTORY_ITEM", "Inventory item ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}
	if sourceID == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID cannot be empty")
	}

	return &InventoryTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		InventoryItemID: inventoryItemID,
		ProductID:       productID,
		TransactionType: txType,
		Quantity:        quantity,
		UnitCost:        unitCost,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		SourceType:      sourceType,
		SourceID:        sourceID,
		TransactionDate: time.Now(),
	}, nil
}

// WithReference sets the reference code, typically the document access key
func (t *InventoryTransaction) WithReference(reference string) *InventoryTransaction {
	t.Reference = reference
	return t
}

// WithOperatorID sets the user who triggered the movement
func (t *InventoryTransaction) WithOperatorID(operatorID uuid.UUID) *InventoryTransaction {
	t.OperatorID = &operatorID
	return t
}

// SignedQuantity returns the quantity with its direction applied
func (t *InventoryTransaction) SignedQuantity() decimal.Decimal {
	if t.TransactionType == TransactionTypeOutbound {
		return t.Quantity.Neg()
	}
	return t.Quantity
}
