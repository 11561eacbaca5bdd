package fiscal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ImportFilter narrows a document import listing
type ImportFilter struct {
	Status       *ImportStatus
	DocumentType *DocumentType
	DateFrom     *time.Time
	DateTo       *time.Time
	Search       string // matched against document number and issuer name
	Page         int
	PageSize     int
}

// DocumentImportRepository defines the persistence contract for imports.
// Implementations load and save the aggregate with its items.
type DocumentImportRepository interface {
	// FindByID loads an import with its items preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*DocumentImport, error)
	// FindAll lists imports matching the filter, newest first
	FindAll(ctx context.Context, filter ImportFilter) ([]DocumentImport, int64, error)
	// ExistsByAccessKey reports whether a document with this legal key was
	// already imported
	ExistsByAccessKey(ctx context.Context, accessKey string) (bool, error)
	// Save persists the aggregate and its items
	Save(ctx context.Context, imp *DocumentImport) error
}
