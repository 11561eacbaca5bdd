package fiscal

import (
	"time"

	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemStatus represents the matching status of a line item
type LineItemStatus string

const (
	// LineItemStatusPending means the item has no catalog resolution yet
	LineItemStatusPending LineItemStatus = "pending"
	// LineItemStatusMatched means the item was resolved to an existing product
	LineItemStatusMatched LineItemStatus = "matched"
	// LineItemStatusCreated means a new product was created from the item
	LineItemStatusCreated LineItemStatus = "created"
	// LineItemStatusError means resolution failed irrecoverably
	LineItemStatusError LineItemStatus = "error"
)

// IsValid returns true if the status is a valid LineItemStatus
func (s LineItemStatus) IsValid() bool {
	switch s {
	case LineItemStatusPending, LineItemStatusMatched, LineItemStatusCreated, LineItemStatusError:
		return true
	}
	return false
}

// IsResolved returns true when the item carries a catalog resolution
func (s LineItemStatus) IsResolved() bool {
	return s == LineItemStatusMatched || s == LineItemStatusCreated
}

// LineItem is one merchandise line of a DocumentImport. It is owned by its
// parent import and cannot outlive it.
type LineItem struct {
	shared.BaseEntity
	DocumentImportID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode      string          `gorm:"type:varchar(60)"`
	Description      string          `gorm:"type:varchar(255);not null"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit             string          `gorm:"type:varchar(20)"`
	UnitValue        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalValue       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NCM              string          `gorm:"type:varchar(10)"`
	CFOP             string          `gorm:"type:varchar(10)"`
	TaxCode          string          `gorm:"type:varchar(10)"`
	MatchedProductID *uuid.UUID      `gorm:"type:uuid;index"`
	MatchConfidence  float64         `gorm:"not null;default:0"`
	Status           LineItemStatus  `gorm:"type:varchar(20);not null;default:'pending'"`
}

// TableName returns the table name for GORM
func (LineItem) TableName() string {
	return "fiscal_line_items"
}

// newLineItem builds a pending line item from normalized data. Only the
// DocumentImport aggregate creates line items.
func newLineItem(importID uuid.UUID, data LineItemData) LineItem {
	return LineItem{
		BaseEntity:       shared.NewBaseEntity(),
		DocumentImportID: importID,
		ProductCode:      data.ProductCode,
		Description:      data.Description,
		Quantity:         data.Quantity,
		Unit:             data.Unit,
		UnitValue:        data.UnitValue,
		TotalValue:       data.TotalValue,
		NCM:              data.NCM,
		CFOP:             data.CFOP,
		TaxCode:          data.TaxCode,
		MatchConfidence:  0,
		Status:           LineItemStatusPending,
	}
}

// IsPending returns true if the item still awaits resolution
func (li *LineItem) IsPending() bool {
	return li.Status == LineItemStatusPending
}

// IsResolved returns true if the item carries a catalog resolution
func (li *LineItem) IsResolved() bool {
	return li.Status.IsResolved()
}

// resolve records a catalog resolution on the item. The MatchedProductID /
// status invariant is enforced here: a resolved status always carries a
// product and a pending status never does.
func (li *LineItem) resolve(productID uuid.UUID, confidence float64, status LineItemStatus) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Matched product ID cannot be empty")
	}
	if confidence < 0 || confidence > 1 {
		return shared.NewDomainError("INVALID_CONFIDENCE", "Match confidence must be within [0,1]")
	}
	if !status.IsResolved() {
		return shared.NewDomainError("INVALID_STATUS", "Resolution status must be matched or created")
	}

	id := productID
	li.MatchedProductID = &id
	li.MatchConfidence = confidence
	li.Status = status
	li.UpdatedAt = time.Now()

	return nil
}

// markError flags the item as failed; any previous resolution is discarded
func (li *LineItem) markError() {
	li.MatchedProductID = nil
	li.MatchConfidence = 0
	li.Status = LineItemStatusError
	li.UpdatedAt = time.Now()
}
