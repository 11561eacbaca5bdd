package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentImportRepository implements fiscal.DocumentImportRepository using GORM
type GormDocumentImportRepository struct {
	db *gorm.DB
}

// NewGormDocumentImportRepository creates a new GormDocumentImportRepository
func NewGormDocumentImportRepository(db *gorm.DB) *GormDocumentImportRepository {
	return &GormDocumentImportRepository{db: db}
}

// FindByID loads an import with its items preloaded
func (r *GormDocumentImportRepository) FindByID(ctx context.Context, id uuid.UUID) (*fiscal.DocumentImport, error) {
	var imp fiscal.DocumentImport
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("fiscal_line_items.created_at ASC")
		}).
		First(&imp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &imp, nil
}

// FindAll lists imports matching the filter, newest first
func (r *GormDocumentImportRepository) FindAll(ctx context.Context, filter fiscal.ImportFilter) ([]fiscal.DocumentImport, int64, error) {
	query := r.db.WithContext(ctx).Model(&fiscal.DocumentImport{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DocumentType != nil {
		query = query.Where("document_type = ?", *filter.DocumentType)
	}
	if filter.DateFrom != nil {
		query = query.Where("document_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("document_date <= ?", *filter.DateTo)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(document_number) LIKE ? OR LOWER(issuer_name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	var imports []fiscal.DocumentImport
	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&imports).Error; err != nil {
		return nil, 0, err
	}

	return imports, total, nil
}

// ExistsByAccessKey reports whether a document with this legal key exists
func (r *GormDocumentImportRepository) ExistsByAccessKey(ctx context.Context, accessKey string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&fiscal.DocumentImport{}).
		Where("access_key = ?", accessKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save persists the aggregate and its items in one write
func (r *GormDocumentImportRepository) Save(ctx context.Context, imp *fiscal.DocumentImport) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(imp).Error
}

var _ fiscal.DocumentImportRepository = (*GormDocumentImportRepository)(nil)
