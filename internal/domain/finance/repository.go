package finance

import (
	"context"

	"github.com/google/uuid"
)

// AccountPayableRepository defines the persistence contract for payables
type AccountPayableRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AccountPayable, error)
	FindBySource(ctx context.Context, sourceType PayableSourceType, sourceID uuid.UUID) ([]AccountPayable, error)
	ExistsByNumber(ctx context.Context, payableNumber string) (bool, error)
	Save(ctx context.Context, ap *AccountPayable) error
}
