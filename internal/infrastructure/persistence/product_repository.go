package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/fiscal/backend/internal/domain/catalog"
	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindBySKUOrBarcode finds a product whose SKU or barcode equals the code.
// SKU comparison is case-insensitive, barcodes are matched exactly.
func (r *GormProductRepository) FindBySKUOrBarcode(ctx context.Context, code string) (*catalog.Product, error) {
	if code == "" {
		return nil, shared.ErrNotFound
	}

	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Where("code = ? OR (barcode <> '' AND barcode = ?)", strings.ToUpper(code), code).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// SearchByText finds active products whose name or description contains the
// given text, case-insensitively
func (r *GormProductRepository) SearchByText(ctx context.Context, text string, limit int) ([]catalog.Product, error) {
	if strings.TrimSpace(text) == "" {
		return []catalog.Product{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + strings.ToLower(strings.TrimSpace(text)) + "%"

	var products []catalog.Product
	if err := r.db.WithContext(ctx).
		Where("status = ? AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)",
			catalog.ProductStatusActive, pattern, pattern).
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindAll lists products with pagination
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var products []catalog.Product
	query := r.db.WithContext(ctx).Model(&catalog.Product{})

	if filter.OrderBy != "" {
		direction := "ASC"
		if strings.EqualFold(filter.OrderDir, "desc") {
			direction = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + direction)
	}
	if filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ExistsByCode reports whether a product with this SKU exists
func (r *GormProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save persists a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
