package persistence

import (
	"context"
	"errors"

	"github.com/fiscal/backend/internal/domain/finance"
	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountPayableRepository implements finance.AccountPayableRepository using GORM
type GormAccountPayableRepository struct {
	db *gorm.DB
}

// NewGormAccountPayableRepository creates a new GormAccountPayableRepository
func NewGormAccountPayableRepository(db *gorm.DB) *GormAccountPayableRepository {
	return &GormAccountPayableRepository{db: db}
}

// FindByID finds a payable by its ID
func (r *GormAccountPayableRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.AccountPayable, error) {
	var ap finance.AccountPayable
	if err := r.db.WithContext(ctx).First(&ap, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ap, nil
}

// FindBySource lists payables created from one source document
func (r *GormAccountPayableRepository) FindBySource(ctx context.Context, sourceType finance.PayableSourceType, sourceID uuid.UUID) ([]finance.AccountPayable, error) {
	var payables []finance.AccountPayable
	if err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("created_at ASC").
		Find(&payables).Error; err != nil {
		return nil, err
	}
	return payables, nil
}

// ExistsByNumber reports whether a payable with this number exists
func (r *GormAccountPayableRepository) ExistsByNumber(ctx context.Context, payableNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&finance.AccountPayable{}).
		Where("payable_number = ?", payableNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save persists a payable
func (r *GormAccountPayableRepository) Save(ctx context.Context, ap *finance.AccountPayable) error {
	return r.db.WithContext(ctx).Save(ap).Error
}

var _ finance.AccountPayableRepository = (*GormAccountPayableRepository)(nil)
