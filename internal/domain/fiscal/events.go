package fiscal

import (
	"github.com/fiscal/backend/internal/domain/shared"
)

// Event types for document import events
const (
	EventTypeDocumentImportCreated   = "fiscal.import.created"
	EventTypeDocumentImportValidated = "fiscal.import.validated"
	EventTypeDocumentImportCompleted = "fiscal.import.completed"
)

// DocumentImportCreatedEvent is raised when a document is first persisted
type DocumentImportCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentType   DocumentType `json:"document_type"`
	DocumentNumber string       `json:"document_number"`
	AccessKey      string       `json:"access_key"`
	ItemCount      int          `json:"item_count"`
}

// NewDocumentImportCreatedEvent creates a new DocumentImportCreatedEvent
func NewDocumentImportCreatedEvent(imp *DocumentImport) *DocumentImportCreatedEvent {
	return &DocumentImportCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentImportCreated, "DocumentImport", imp.ID),
		DocumentType:    imp.DocumentType,
		DocumentNumber:  imp.DocumentNumber,
		AccessKey:       imp.AccessKey,
		ItemCount:       len(imp.Items),
	}
}

// DocumentImportValidatedEvent is raised when every item is resolved
type DocumentImportValidatedEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string `json:"document_number"`
}

// NewDocumentImportValidatedEvent creates a new DocumentImportValidatedEvent
func NewDocumentImportValidatedEvent(imp *DocumentImport) *DocumentImportValidatedEvent {
	return &DocumentImportValidatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentImportValidated, "DocumentImport", imp.ID),
		DocumentNumber:  imp.DocumentNumber,
	}
}

// DocumentImportCompletedEvent is raised on the single transition into imported
type DocumentImportCompletedEvent struct {
	shared.BaseDomainEvent
	DocumentNumber   string `json:"document_number"`
	UpdatedInventory bool   `json:"updated_inventory"`
	UpdatedFinancial bool   `json:"updated_financial"`
}

// NewDocumentImportCompletedEvent creates a new DocumentImportCompletedEvent
func NewDocumentImportCompletedEvent(imp *DocumentImport) *DocumentImportCompletedEvent {
	return &DocumentImportCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeDocumentImportCompleted, "DocumentImport", imp.ID),
		DocumentNumber:   imp.DocumentNumber,
		UpdatedInventory: imp.UpdatedInventory,
		UpdatedFinancial: imp.UpdatedFinancial,
	}
}
