package fiscalimport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fiscal/backend/internal/domain/finance"
	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/fiscal/backend/internal/domain/inventory"
	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory implementation of every repository a
// reconciliation touches, shared by all of them
type memStore struct {
	imports   map[uuid.UUID]*fiscal.DocumentImport
	stock     map[uuid.UUID]*inventory.InventoryItem
	movements []*inventory.InventoryTransaction
	payables  map[string]*finance.AccountPayable
}

func newMemStore() *memStore {
	return &memStore{
		imports:  make(map[uuid.UUID]*fiscal.DocumentImport),
		stock:    make(map[uuid.UUID]*inventory.InventoryItem),
		payables: make(map[string]*finance.AccountPayable),
	}
}

type memImportRepo struct{ store *memStore }

func (r *memImportRepo) FindByID(ctx context.Context, id uuid.UUID) (*fiscal.DocumentImport, error) {
	imp, ok := r.store.imports[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return imp, nil
}

func (r *memImportRepo) FindAll(ctx context.Context, filter fiscal.ImportFilter) ([]fiscal.DocumentImport, int64, error) {
	return nil, 0, nil
}

func (r *memImportRepo) ExistsByAccessKey(ctx context.Context, accessKey string) (bool, error) {
	for _, imp := range r.store.imports {
		if imp.AccessKey == accessKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *memImportRepo) Save(ctx context.Context, imp *fiscal.DocumentImport) error {
	r.store.imports[imp.ID] = imp
	return nil
}

type memInventoryRepo struct{ store *memStore }

func (r *memInventoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	for _, item := range r.store.stock {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memInventoryRepo) FindByProductID(ctx context.Context, productID uuid.UUID) (*inventory.InventoryItem, error) {
	item, ok := r.store.stock[productID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func (r *memInventoryRepo) Save(ctx context.Context, item *inventory.InventoryItem) error {
	r.store.stock[item.ProductID] = item
	return nil
}

type memInventoryTxRepo struct{ store *memStore }

func (r *memInventoryTxRepo) Save(ctx context.Context, tx *inventory.InventoryTransaction) error {
	r.store.movements = append(r.store.movements, tx)
	return nil
}

func (r *memInventoryTxRepo) FindBySource(ctx context.Context, sourceType inventory.SourceType, sourceID string) ([]inventory.InventoryTransaction, error) {
	var out []inventory.InventoryTransaction
	for _, tx := range r.store.movements {
		if tx.SourceType == sourceType && tx.SourceID == sourceID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (r *memInventoryTxRepo) FindByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]inventory.InventoryTransaction, error) {
	var out []inventory.InventoryTransaction
	for _, tx := range r.store.movements {
		if tx.ProductID == productID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

type memPayableRepo struct{ store *memStore }

func (r *memPayableRepo) FindByID(ctx context.Context, id uuid.UUID) (*finance.AccountPayable, error) {
	for _, ap := range r.store.payables {
		if ap.ID == id {
			return ap, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPayableRepo) FindBySource(ctx context.Context, sourceType finance.PayableSourceType, sourceID uuid.UUID) ([]finance.AccountPayable, error) {
	var out []finance.AccountPayable
	for _, ap := range r.store.payables {
		if ap.SourceType == sourceType && ap.SourceID == sourceID {
			out = append(out, *ap)
		}
	}
	return out, nil
}

func (r *memPayableRepo) ExistsByNumber(ctx context.Context, payableNumber string) (bool, error) {
	_, ok := r.store.payables[payableNumber]
	return ok, nil
}

func (r *memPayableRepo) Save(ctx context.Context, ap *finance.AccountPayable) error {
	r.store.payables[ap.PayableNumber] = ap
	return nil
}

// memScope runs the function directly against the shared store. Rollback is
// not simulated: the tests assert that failing paths bail out before writing.
type memScope struct{ store *memStore }

func (s *memScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *memScope) ImportRepo() fiscal.DocumentImportRepository {
	return &memImportRepo{store: s.store}
}

func (s *memScope) InventoryRepo() inventory.InventoryItemRepository {
	return &memInventoryRepo{store: s.store}
}

func (s *memScope) InventoryTxRepo() inventory.InventoryTransactionRepository {
	return &memInventoryTxRepo{store: s.store}
}

func (s *memScope) PayableRepo() finance.AccountPayableRepository {
	return &memPayableRepo{store: s.store}
}

func reconcilerFixture() (*ReconciliationService, *memStore) {
	store := newMemStore()
	return NewReconciliationService(&memScope{store: store}, zap.NewNop()), store
}

var testDocDate = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

// storedImport builds a validated import with every item resolved and puts it
// in the store. Returned product IDs follow item order.
func storedImport(t *testing.T, store *memStore, docType fiscal.DocumentType, itemCount int) (*fiscal.DocumentImport, []uuid.UUID) {
	t.Helper()

	envelope := fiscal.DocumentEnvelope{
		Type:           docType,
		Number:         "4655",
		AccessKey:      "35200714200166000187550010000000046550000046",
		IssuedAt:       testDocDate,
		IssuerName:     "Distribuidora Alfa LTDA",
		IssuerDocument: "14200166000187",
		TotalValue:     decimal.NewFromFloat(60.00),
	}

	items := make([]fiscal.LineItemData, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		items = append(items, fiscal.LineItemData{
			ProductCode: "SKU-00" + string(rune('1'+i)),
			Description: "Item",
			Quantity:    decimal.NewFromInt(10),
			Unit:        "UN",
			UnitValue:   decimal.NewFromFloat(2.5),
			TotalValue:  decimal.NewFromFloat(25),
		})
	}

	imp, err := fiscal.NewDocumentImport(fiscal.SourceTypeFile, envelope, items, uuid.New())
	require.NoError(t, err)

	productIDs := make([]uuid.UUID, 0, itemCount)
	for i := range imp.Items {
		productID := uuid.New()
		productIDs = append(productIDs, productID)
		require.NoError(t, imp.ApplyAutomaticMatch(imp.Items[i].ID, productID, 1.0))
	}
	require.NoError(t, imp.FinishMatching())
	require.Equal(t, fiscal.ImportStatusValidated, imp.Status)

	store.imports[imp.ID] = imp
	return imp, productIDs
}

func TestCompleteImport(t *testing.T) {
	ctx := context.Background()

	t.Run("entry document moves stock in and creates a payable", func(t *testing.T) {
		service, store := reconcilerFixture()
		imp, productIDs := storedImport(t, store, fiscal.DocumentTypeNFe, 2)

		result, err := service.CompleteImport(ctx, imp.ID)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.True(t, result.InventoryUpdated)
		assert.True(t, result.FinancialUpdated)

		assert.Equal(t, fiscal.ImportStatusImported, imp.Status)
		assert.True(t, imp.UpdatedInventory)
		assert.True(t, imp.UpdatedFinancial)
		require.NotNil(t, imp.ImportDate)

		for _, productID := range productIDs {
			stock := store.stock[productID]
			require.NotNil(t, stock)
			assert.True(t, stock.QuantityOnHand.Equal(decimal.NewFromInt(10)))
			assert.True(t, stock.UnitCost.Equal(decimal.NewFromFloat(2.5)))
		}

		require.Len(t, store.movements, 2)
		first := store.movements[0]
		assert.Equal(t, inventory.TransactionTypeInbound, first.TransactionType)
		assert.Equal(t, imp.ID.String(), first.SourceID)
		assert.Equal(t, inventory.SourceTypeFiscalImport, first.SourceType)
		assert.Equal(t, imp.AccessKey, first.Reference)
		assert.True(t, first.BalanceBefore.IsZero())
		assert.True(t, first.BalanceAfter.Equal(decimal.NewFromInt(10)))

		payable := store.payables["AP-"+imp.AccessKey]
		require.NotNil(t, payable)
		assert.Equal(t, imp.IssuerName, payable.CreditorName)
		assert.Equal(t, imp.IssuerDocument, payable.CreditorDocument)
		assert.True(t, payable.TotalAmount.Equal(imp.TotalValue))
		assert.Equal(t, finance.PayableSourceTypeFiscalImport, payable.SourceType)
		assert.Equal(t, imp.ID, payable.SourceID)
		assert.Equal(t, testDocDate.AddDate(0, 0, 30), payable.DueDate)
	})

	t.Run("exit document moves stock out without a payable", func(t *testing.T) {
		service, store := reconcilerFixture()
		imp, productIDs := storedImport(t, store, fiscal.DocumentTypeNFCe, 1)

		result, err := service.CompleteImport(ctx, imp.ID)

		require.NoError(t, err)
		assert.True(t, result.InventoryUpdated)
		assert.False(t, result.FinancialUpdated)
		assert.False(t, imp.UpdatedFinancial)

		// No prior stock record: the balance goes negative
		stock := store.stock[productIDs[0]]
		require.NotNil(t, stock)
		assert.True(t, stock.QuantityOnHand.Equal(decimal.NewFromInt(-10)))
		assert.True(t, stock.IsNegative())

		require.Len(t, store.movements, 1)
		assert.Equal(t, inventory.TransactionTypeOutbound, store.movements[0].TransactionType)
		assert.Empty(t, store.payables)
	})

	t.Run("entry tops up an existing stock record at weighted average cost", func(t *testing.T) {
		service, store := reconcilerFixture()
		imp, productIDs := storedImport(t, store, fiscal.DocumentTypeNFe, 1)

		existing, err := inventory.NewInventoryItem(productIDs[0])
		require.NoError(t, err)
		require.NoError(t, existing.Increase(decimal.NewFromInt(10), decimal.NewFromFloat(4.5)))
		store.stock[productIDs[0]] = existing

		_, err = service.CompleteImport(ctx, imp.ID)

		require.NoError(t, err)
		stock := store.stock[productIDs[0]]
		assert.True(t, stock.QuantityOnHand.Equal(decimal.NewFromInt(20)))
		// (10*4.5 + 10*2.5) / 20
		assert.True(t, stock.UnitCost.Equal(decimal.NewFromFloat(3.5)))
	})

	t.Run("waybill without items completes with no side effects", func(t *testing.T) {
		service, store := reconcilerFixture()
		imp, _ := storedImport(t, store, fiscal.DocumentTypeCTe, 0)

		result, err := service.CompleteImport(ctx, imp.ID)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.InventoryUpdated)
		assert.False(t, result.FinancialUpdated)
		assert.Equal(t, fiscal.ImportStatusImported, imp.Status)
		assert.Empty(t, store.movements)
		assert.Empty(t, store.payables)
	})

	t.Run("rejects an import that is not validated", func(t *testing.T) {
		service, store := reconcilerFixture()

		envelope := fiscal.DocumentEnvelope{
			Type:       fiscal.DocumentTypeNFe,
			Number:     "1",
			AccessKey:  "35200714200166000187550010000000046550000046",
			IssuedAt:   testDocDate,
			IssuerName: "X",
			TotalValue: decimal.NewFromInt(10),
		}
		imp, err := fiscal.NewDocumentImport(fiscal.SourceTypeFile, envelope, []fiscal.LineItemData{{
			Description: "Item",
			Quantity:    decimal.NewFromInt(1),
			UnitValue:   decimal.NewFromInt(10),
			TotalValue:  decimal.NewFromInt(10),
		}}, uuid.New())
		require.NoError(t, err)
		store.imports[imp.ID] = imp

		_, err = service.CompleteImport(ctx, imp.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		assert.Contains(t, domainErr.Message, "pending")
		assert.Equal(t, fiscal.ImportStatusPending, imp.Status)
		assert.Empty(t, store.movements)
		assert.Empty(t, store.payables)
	})

	t.Run("completing twice applies effects only once", func(t *testing.T) {
		service, store := reconcilerFixture()
		imp, _ := storedImport(t, store, fiscal.DocumentTypeNFe, 2)

		_, err := service.CompleteImport(ctx, imp.ID)
		require.NoError(t, err)

		_, err = service.CompleteImport(ctx, imp.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		assert.Len(t, store.movements, 2)
		assert.Len(t, store.payables, 1)
	})

	t.Run("fails on unknown import", func(t *testing.T) {
		service, _ := reconcilerFixture()

		_, err := service.CompleteImport(ctx, uuid.New())

		require.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
