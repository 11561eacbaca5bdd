package persistence

import (
	"context"
	"testing"
	"time"

	appfiscal "github.com/fiscal/backend/internal/application/fiscalimport"
	"github.com/fiscal/backend/internal/domain/finance"
	"github.com/fiscal/backend/internal/domain/inventory"
	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupScopeTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&inventory.InventoryItem{},
		&inventory.InventoryTransaction{},
		&finance.AccountPayable{},
	)
	require.NoError(t, err)

	return db
}

func TestGormTransactionScope_Execute(t *testing.T) {
	t.Run("commits all writes on success", func(t *testing.T) {
		db := setupScopeTestDB(t)
		scope := NewGormTransactionScope(db)
		ctx := context.Background()

		productID := uuid.New()
		importID := uuid.New()

		err := scope.Execute(ctx, func(repos appfiscal.TransactionalRepositories) error {
			item, err := inventory.NewInventoryItem(productID)
			if err != nil {
				return err
			}
			if err := item.Increase(decimal.NewFromInt(10), decimal.NewFromFloat(2.50)); err != nil {
				return err
			}
			if err := repos.InventoryRepo().Save(ctx, item); err != nil {
				return err
			}

			payable, err := finance.NewAccountPayable(
				"AP-00000000000000000000000000000000000000000001",
				"Distribuidora Alfa LTDA", "14200166000187",
				finance.PayableSourceTypeFiscalImport, importID, "46",
				decimal.NewFromFloat(60.00), time.Now().AddDate(0, 0, 30),
			)
			if err != nil {
				return err
			}
			return repos.PayableRepo().Save(ctx, payable)
		})
		require.NoError(t, err)

		item, err := NewGormInventoryItemRepository(db).FindByProductID(ctx, productID)
		require.NoError(t, err)
		assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(10)))

		exists, err := NewGormAccountPayableRepository(db).ExistsByNumber(ctx, "AP-00000000000000000000000000000000000000000001")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("rolls back every write when the function fails", func(t *testing.T) {
		db := setupScopeTestDB(t)
		scope := NewGormTransactionScope(db)
		ctx := context.Background()

		productID := uuid.New()
		failure := shared.NewDomainError("DUPLICATE_PAYABLE", "A payable for this document already exists")

		err := scope.Execute(ctx, func(repos appfiscal.TransactionalRepositories) error {
			item, err := inventory.NewInventoryItem(productID)
			if err != nil {
				return err
			}
			if err := item.Increase(decimal.NewFromInt(10), decimal.NewFromFloat(2.50)); err != nil {
				return err
			}
			if err := repos.InventoryRepo().Save(ctx, item); err != nil {
				return err
			}
			return failure
		})
		require.ErrorIs(t, err, failure)

		// The stock write inside the failed scope must not be visible
		item, err := NewGormInventoryItemRepository(db).FindByProductID(ctx, productID)
		assert.Nil(t, item)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}
