package catalog

import (
	"context"

	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines the persistence contract for products
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindBySKUOrBarcode finds a product whose SKU or barcode equals the given code.
	// Returns shared.ErrNotFound when no product matches.
	FindBySKUOrBarcode(ctx context.Context, code string) (*Product, error)
	// SearchByText finds products whose name or description contains the given text
	SearchByText(ctx context.Context, text string, limit int) ([]Product, error)
	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	// ExistsByCode checks if a product with the given SKU exists
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error
}
