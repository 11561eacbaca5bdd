package fiscalimport

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiscal/backend/internal/domain/finance"
	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/fiscal/backend/internal/domain/inventory"
	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// payableTermDays is how long after the document date a generated payable falls due
const payableTermDays = 30

// ReconciliationService applies the economic side effects of a validated
// import: stock movements for every resolved item and, for entry documents,
// an account payable owed to the issuer. All writes happen inside one
// transaction, so a failure part way through leaves no partial effects.
type ReconciliationService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(scope TransactionScope, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		scope:  scope,
		logger: logger.Named("fiscalimport.reconciliation"),
	}
}

// CompleteImport reconciles a validated import. Calling it on an import in
// any other status fails without side effects, so a repeated call after a
// successful completion is rejected rather than applied twice.
func (s *ReconciliationService) CompleteImport(ctx context.Context, importID uuid.UUID) (ReconciliationResult, error) {
	var result ReconciliationResult

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		imp, err := repos.ImportRepo().FindByID(ctx, importID)
		if err != nil {
			return err
		}

		if imp.Status != fiscal.ImportStatusValidated {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot complete import in %s status, expected %s", imp.Status, fiscal.ImportStatusValidated))
		}

		inventoryUpdated, err := s.applyStockMovements(ctx, repos, imp)
		if err != nil {
			return err
		}

		financialUpdated, err := s.createPayable(ctx, repos, imp)
		if err != nil {
			return err
		}

		if err := imp.Complete(inventoryUpdated, financialUpdated); err != nil {
			return err
		}
		if err := repos.ImportRepo().Save(ctx, imp); err != nil {
			return fmt.Errorf("failed to persist completed import: %w", err)
		}

		result = ReconciliationResult{
			Success:          true,
			Message:          fmt.Sprintf("document %s imported", imp.DocumentNumber),
			InventoryUpdated: inventoryUpdated,
			FinancialUpdated: financialUpdated,
		}
		return nil
	})
	if err != nil {
		return ReconciliationResult{}, err
	}

	s.logger.Info("import reconciled",
		zap.String("import_id", importID.String()),
		zap.Bool("inventory_updated", result.InventoryUpdated),
		zap.Bool("financial_updated", result.FinancialUpdated))

	return result, nil
}

// applyStockMovements moves stock for every resolved item. Entry documents
// increase stock at the item's unit value; exit documents decrease it, and
// the balance is allowed to go negative.
func (s *ReconciliationService) applyStockMovements(ctx context.Context, repos TransactionalRepositories, imp *fiscal.DocumentImport) (bool, error) {
	resolved := imp.ResolvedItems()
	if len(resolved) == 0 {
		return false, nil
	}

	entry := imp.DocumentType.IsEntry()

	for i := range resolved {
		item := &resolved[i]
		productID := *item.MatchedProductID

		stock, err := s.findOrCreateStock(ctx, repos, productID)
		if err != nil {
			return false, err
		}

		balanceBefore := stock.QuantityOnHand
		txType := inventory.TransactionTypeOutbound
		if entry {
			txType = inventory.TransactionTypeInbound
			err = stock.Increase(item.Quantity, item.UnitValue)
		} else {
			err = stock.Decrease(item.Quantity)
		}
		if err != nil {
			return false, err
		}

		if err := repos.InventoryRepo().Save(ctx, stock); err != nil {
			return false, fmt.Errorf("failed to persist stock for product %s: %w", productID, err)
		}

		movement, err := inventory.NewInventoryTransaction(
			stock.ID,
			productID,
			txType,
			item.Quantity,
			item.UnitValue,
			balanceBefore,
			stock.QuantityOnHand,
			inventory.SourceTypeFiscalImport,
			imp.ID.String(),
		)
		if err != nil {
			return false, err
		}
		movement.WithReference(imp.AccessKey)

		if err := repos.InventoryTxRepo().Save(ctx, movement); err != nil {
			return false, fmt.Errorf("failed to persist stock movement for product %s: %w", productID, err)
		}
	}

	return true, nil
}

func (s *ReconciliationService) findOrCreateStock(ctx context.Context, repos TransactionalRepositories, productID uuid.UUID) (*inventory.InventoryItem, error) {
	stock, err := repos.InventoryRepo().FindByProductID(ctx, productID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return inventory.NewInventoryItem(productID)
}

// createPayable registers the amount owed to the issuer of an entry document.
// Exit documents and zero-value documents generate no payable.
func (s *ReconciliationService) createPayable(ctx context.Context, repos TransactionalRepositories, imp *fiscal.DocumentImport) (bool, error) {
	if !imp.DocumentType.IsEntry() || !imp.TotalValue.IsPositive() {
		return false, nil
	}

	// The access key is unique per document, so the derived number is too
	payableNumber := "AP-" + imp.AccessKey

	exists, err := repos.PayableRepo().ExistsByNumber(ctx, payableNumber)
	if err != nil {
		return false, err
	}
	if exists {
		return false, shared.NewDomainError("DUPLICATE_PAYABLE",
			fmt.Sprintf("payable %s already exists for this document", payableNumber))
	}

	payable, err := finance.NewAccountPayable(
		payableNumber,
		imp.IssuerName,
		imp.IssuerDocument,
		finance.PayableSourceTypeFiscalImport,
		imp.ID,
		imp.DocumentNumber,
		imp.TotalValue,
		imp.DocumentDate.AddDate(0, 0, payableTermDays),
	)
	if err != nil {
		return false, err
	}

	if err := repos.PayableRepo().Save(ctx, payable); err != nil {
		return false, fmt.Errorf("failed to persist payable %s: %w", payableNumber, err)
	}

	return true, nil
}
