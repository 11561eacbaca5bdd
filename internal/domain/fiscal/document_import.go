package fiscal

import (
	"fmt"
	"time"

	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportStatus represents the lifecycle status of a DocumentImport
type ImportStatus string

const (
	// ImportStatusPending means the record exists but matching has not run yet
	ImportStatusPending ImportStatus = "pending"
	// ImportStatusProcessing means matching ran and unresolved items remain
	ImportStatusProcessing ImportStatus = "processing"
	// ImportStatusValidated means every item is resolved and the import can be completed
	ImportStatusValidated ImportStatus = "validated"
	// ImportStatusImported is terminal: the economic effects were applied
	ImportStatusImported ImportStatus = "imported"
	// ImportStatusError means the import failed before reaching a terminal state
	ImportStatusError ImportStatus = "error"
)

// IsValid returns true if the status is a valid ImportStatus
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusValidated,
		ImportStatusImported, ImportStatusError:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are allowed
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusImported
}

// DocumentImport is the persistent record of one ingested fiscal document and
// its reconciliation state. It is the aggregate root owning its line items.
type DocumentImport struct {
	shared.BaseAggregateRoot
	SourceType       SourceType      `gorm:"type:varchar(10);not null"`
	DocumentType     DocumentType    `gorm:"type:varchar(10);not null;index"`
	DocumentNumber   string          `gorm:"type:varchar(20);not null;index"`
	AccessKey        string          `gorm:"type:varchar(44);not null;uniqueIndex"`
	DocumentDate     time.Time       `gorm:"not null;index"`
	IssuerName       string          `gorm:"type:varchar(200);not null"`
	IssuerDocument   string          `gorm:"type:varchar(20)"`
	TotalValue       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status           ImportStatus    `gorm:"type:varchar(20);not null;default:'pending';index"`
	Items            []LineItem      `gorm:"foreignKey:DocumentImportID"`
	UpdatedInventory bool            `gorm:"not null;default:false"`
	UpdatedFinancial bool            `gorm:"not null;default:false"`
	ImportDate       *time.Time
	ErrorMessage     string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (DocumentImport) TableName() string {
	return "document_imports"
}

// NewDocumentImport creates a pending import from a normalized envelope and
// its line-item data. Items are created in one batch here and never added
// afterward.
func NewDocumentImport(
	source SourceType,
	envelope DocumentEnvelope,
	items []LineItemData,
	createdBy uuid.UUID,
) (*DocumentImport, error) {
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Source type must be file or url")
	}
	if !envelope.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Unsupported document type")
	}
	if envelope.AccessKey == "" {
		return nil, shared.NewDomainError("INVALID_ACCESS_KEY", "Document access key cannot be empty")
	}
	if len(envelope.AccessKey) != 44 {
		return nil, shared.NewDomainError("INVALID_ACCESS_KEY", "Document access key must have 44 digits")
	}
	if !envelope.Type.HasItems() && len(items) > 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", fmt.Sprintf("Document type %s carries no merchandise items", envelope.Type))
	}

	imp := &DocumentImport{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(createdBy),
		SourceType:        source,
		DocumentType:      envelope.Type,
		DocumentNumber:    envelope.Number,
		AccessKey:         envelope.AccessKey,
		DocumentDate:      envelope.IssuedAt,
		IssuerName:        envelope.IssuerName,
		IssuerDocument:    envelope.IssuerDocument,
		TotalValue:        envelope.TotalValue,
		Status:            ImportStatusPending,
	}

	imp.Items = make([]LineItem, 0, len(items))
	for _, data := range items {
		imp.Items = append(imp.Items, newLineItem(imp.ID, data))
	}

	imp.AddDomainEvent(NewDocumentImportCreatedEvent(imp))

	return imp, nil
}

// findItem returns a pointer into the Items slice, or nil
func (d *DocumentImport) findItem(itemID uuid.UUID) *LineItem {
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			return &d.Items[i]
		}
	}
	return nil
}

// PendingItemCount returns the number of items still awaiting resolution
func (d *DocumentImport) PendingItemCount() int {
	count := 0
	for i := range d.Items {
		if d.Items[i].IsPending() {
			count++
		}
	}
	return count
}

// ResolvedItems returns the items that carry a catalog resolution, in
// document order. Only these participate in reconciliation side effects.
func (d *DocumentImport) ResolvedItems() []LineItem {
	resolved := make([]LineItem, 0, len(d.Items))
	for i := range d.Items {
		if d.Items[i].IsResolved() {
			resolved = append(resolved, d.Items[i])
		}
	}
	return resolved
}

// computeStatus derives the parent status from child statuses. It is the
// single place the processing/validated decision is made, so the invariant
// holds after every child mutation rather than only on one call path.
func (d *DocumentImport) computeStatus() ImportStatus {
	if d.PendingItemCount() > 0 {
		return ImportStatusProcessing
	}
	return ImportStatusValidated
}

// recalculate re-derives the parent status after a child mutation. It only
// acts between matching and completion: pending imports have not finished
// matching yet, and terminal or error states are never recomputed away.
func (d *DocumentImport) recalculate() {
	if d.Status != ImportStatusProcessing && d.Status != ImportStatusValidated {
		return
	}

	previous := d.Status
	d.Status = d.computeStatus()
	d.UpdatedAt = time.Now()

	if previous != ImportStatusValidated && d.Status == ImportStatusValidated {
		d.AddDomainEvent(NewDocumentImportValidatedEvent(d))
	}
}

// FinishMatching is called once automatic matching has run over every item.
// The parent leaves pending and lands on processing or validated depending
// on what the matcher resolved.
func (d *DocumentImport) FinishMatching() error {
	if d.Status != ImportStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot finish matching for import in %s status", d.Status))
	}
	d.IncrementVersion()
	d.Status = ImportStatusProcessing
	d.recalculate()
	return nil
}

// ApplyAutomaticMatch records a matcher resolution on an item. The caller
// decides, via its confidence threshold, whether a fuzzy candidate is
// trustworthy enough to reach this method at all.
func (d *DocumentImport) ApplyAutomaticMatch(itemID, productID uuid.UUID, confidence float64) error {
	return d.applyResolution(itemID, productID, confidence, LineItemStatusMatched)
}

// ApplyManualMatch records an operator-chosen resolution. Manual overrides
// are maximally trusted: confidence is forced to 1.0.
func (d *DocumentImport) ApplyManualMatch(itemID, productID uuid.UUID) error {
	return d.applyResolution(itemID, productID, 1.0, LineItemStatusMatched)
}

// ApplyCreatedProduct records that a new catalog product was created from
// the item itself.
func (d *DocumentImport) ApplyCreatedProduct(itemID, productID uuid.UUID) error {
	return d.applyResolution(itemID, productID, 1.0, LineItemStatusCreated)
}

func (d *DocumentImport) applyResolution(itemID, productID uuid.UUID, confidence float64, status LineItemStatus) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify items of an imported document")
	}

	item := d.findItem(itemID)
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", fmt.Sprintf("Line item %s does not belong to this import", itemID))
	}

	if err := item.resolve(productID, confidence, status); err != nil {
		return err
	}

	d.IncrementVersion()
	d.recalculate()

	return nil
}

// MarkItemError flags an item whose resolution failed irrecoverably,
// discarding any previous resolution. The item leaves the pending count,
// so the parent may validate past it; like unmatched items, error items
// are excluded from reconciliation side effects.
func (d *DocumentImport) MarkItemError(itemID uuid.UUID) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify items of an imported document")
	}

	item := d.findItem(itemID)
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", fmt.Sprintf("Line item %s does not belong to this import", itemID))
	}

	item.markError()
	d.IncrementVersion()
	d.recalculate()

	return nil
}

// Complete flips the import to its terminal state after the economic side
// effects have been applied. The flags record which effects actually ran.
func (d *DocumentImport) Complete(updatedInventory, updatedFinancial bool) error {
	if d.Status != ImportStatusValidated {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete import in %s status, expected %s", d.Status, ImportStatusValidated))
	}

	now := time.Now()
	d.Status = ImportStatusImported
	d.UpdatedInventory = updatedInventory
	d.UpdatedFinancial = updatedFinancial
	d.ImportDate = &now
	d.UpdatedAt = now
	d.IncrementVersion()

	d.AddDomainEvent(NewDocumentImportCompletedEvent(d))

	return nil
}

// MarkError flags the import as failed with a diagnostic message
func (d *DocumentImport) MarkError(message string) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot mark an imported document as failed")
	}

	d.Status = ImportStatusError
	d.ErrorMessage = message
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// IsImported returns true once the economic effects were applied
func (d *DocumentImport) IsImported() bool {
	return d.Status == ImportStatusImported
}
