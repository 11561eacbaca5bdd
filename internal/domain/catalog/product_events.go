package catalog

import (
	"github.com/fiscal/backend/internal/domain/shared"
)

// Event types for product events
const (
	EventTypeProductCreated = "catalog.product.created"
)

// ProductCreatedEvent is raised when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, "Product", product.ID),
		Code:            product.Code,
		Name:            product.Name,
	}
}
