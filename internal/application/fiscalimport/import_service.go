package fiscalimport

import (
	"context"
	"fmt"
	"strings"

	"github.com/fiscal/backend/internal/domain/catalog"
	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/fiscal/backend/internal/infrastructure/config"
	"github.com/fiscal/backend/internal/infrastructure/fiscalxml"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportService drives the document import pipeline: validate, normalize,
// persist, match. Reconciliation side effects live in ReconciliationService.
type ImportService struct {
	imports    fiscal.DocumentImportRepository
	products   catalog.ProductRepository
	validator  *fiscalxml.Validator
	normalizer *fiscalxml.Normalizer
	matcher    *ItemMatcher
	fetcher    DocumentFetcher
	cfg        config.ImportConfig
	logger     *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	imports fiscal.DocumentImportRepository,
	products catalog.ProductRepository,
	validator *fiscalxml.Validator,
	normalizer *fiscalxml.Normalizer,
	matcher *ItemMatcher,
	fetcher DocumentFetcher,
	cfg config.ImportConfig,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		imports:    imports,
		products:   products,
		validator:  validator,
		normalizer: normalizer,
		matcher:    matcher,
		fetcher:    fetcher,
		cfg:        cfg,
		logger:     logger.Named("fiscalimport"),
	}
}

// ImportXML runs the whole single-document pipeline over raw bytes.
// Nothing is persisted unless the document passes structural validation.
func (s *ImportService) ImportXML(ctx context.Context, data []byte, createdBy uuid.UUID) (*DocumentImportDTO, error) {
	return s.importDocument(ctx, fiscal.SourceTypeFile, data, createdBy)
}

// ImportFromURL fetches a document and imports it. Fetch failures surface
// the HTTP status as a structured error.
func (s *ImportService) ImportFromURL(ctx context.Context, url string, createdBy uuid.UUID) (*DocumentImportDTO, error) {
	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.importDocument(ctx, fiscal.SourceTypeURL, data, createdBy)
}

// ImportBatch imports files sequentially with per-file error isolation:
// one file failing never aborts the rest. The result always carries one
// entry per input file, in input order.
func (s *ImportService) ImportBatch(ctx context.Context, files []BatchFile, createdBy uuid.UUID) BatchImportResult {
	result := BatchImportResult{
		Results: make([]FileImportResult, 0, len(files)),
	}

	for _, file := range files {
		dto, err := s.importDocument(ctx, fiscal.SourceTypeFile, file.Data, createdBy)
		if err != nil {
			result.Failed++
			result.Results = append(result.Results, FileImportResult{
				File:    file.Name,
				Success: false,
				Message: err.Error(),
			})
			s.logger.Warn("batch file import failed",
				zap.String("file", file.Name),
				zap.Error(err))
			continue
		}

		id := dto.ID
		result.Success++
		result.Results = append(result.Results, FileImportResult{
			File:     file.Name,
			Success:  true,
			Message:  fmt.Sprintf("document %s imported with status %s", dto.DocumentNumber, dto.Status),
			ImportID: &id,
		})
	}

	return result
}

func (s *ImportService) importDocument(ctx context.Context, source fiscal.SourceType, data []byte, createdBy uuid.UUID) (*DocumentImportDTO, error) {
	validation := s.validator.Validate(data)
	if !validation.IsValid {
		issue := validation.Errors[0]
		return nil, shared.NewDomainError(issue.Code, issue.Message)
	}

	exists, err := s.imports.ExistsByAccessKey(ctx, validation.DocumentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check document key: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("DUPLICATE_DOCUMENT",
			fmt.Sprintf("document with key %s was already imported", validation.DocumentKey))
	}

	envelope, items, err := s.normalizer.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}

	if err := s.checkTotals(envelope, items); err != nil {
		return nil, err
	}

	imp, err := fiscal.NewDocumentImport(source, envelope, items, createdBy)
	if err != nil {
		return nil, err
	}

	if err := s.matchItems(ctx, imp); err != nil {
		return nil, err
	}

	if err := s.imports.Save(ctx, imp); err != nil {
		return nil, fmt.Errorf("failed to persist document import: %w", err)
	}

	s.logger.Info("document imported",
		zap.String("document_type", string(imp.DocumentType)),
		zap.String("document_number", imp.DocumentNumber),
		zap.String("access_key", imp.AccessKey),
		zap.String("status", string(imp.Status)),
		zap.Int("items", len(imp.Items)),
		zap.Int("pending_items", imp.PendingItemCount()))

	dto := ToDocumentImportDTO(imp)
	return &dto, nil
}

// checkTotals cross-checks the declared document total against the sum of
// line totals, applying the configured mismatch policy
func (s *ImportService) checkTotals(envelope fiscal.DocumentEnvelope, items []fiscal.LineItemData) error {
	if !envelope.Type.HasItems() || len(items) == 0 {
		return nil
	}

	itemsTotal := fiscal.ItemsTotal(items)
	if itemsTotal.Equal(envelope.TotalValue) {
		return nil
	}

	if s.cfg.TotalMismatchPolicy == config.TotalMismatchReject {
		return shared.NewDomainError("TOTAL_MISMATCH",
			fmt.Sprintf("declared total %s does not match sum of line totals %s", envelope.TotalValue, itemsTotal))
	}

	s.logger.Warn("declared total does not match sum of line totals",
		zap.String("access_key", envelope.AccessKey),
		zap.String("declared_total", envelope.TotalValue.String()),
		zap.String("items_total", itemsTotal.String()))
	return nil
}

// matchItems runs automatic matching over every item, then finishes the
// matching phase so the parent lands on processing or validated
func (s *ImportService) matchItems(ctx context.Context, imp *fiscal.DocumentImport) error {
	for i := range imp.Items {
		item := &imp.Items[i]
		outcome, err := s.matcher.Match(ctx, item)
		if err != nil {
			return fmt.Errorf("failed to match item %q: %w", item.Description, err)
		}
		if !outcome.AutoAccept {
			continue
		}
		if err := imp.ApplyAutomaticMatch(item.ID, outcome.ProductID, outcome.Confidence); err != nil {
			return err
		}
	}

	return imp.FinishMatching()
}

// Get loads one import with its items
func (s *ImportService) Get(ctx context.Context, id uuid.UUID) (*DocumentImportDTO, error) {
	imp, err := s.imports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToDocumentImportDTO(imp)
	return &dto, nil
}

// List queries imports by status, subtype, date range and free text
func (s *ImportService) List(ctx context.Context, query ListImportsQuery) (shared.Paginated[DocumentImportDTO], error) {
	filter := fiscal.ImportFilter{
		DateFrom: query.DateFrom,
		DateTo:   query.DateTo,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	if query.Status != "" {
		status := fiscal.ImportStatus(query.Status)
		if !status.IsValid() {
			return shared.Paginated[DocumentImportDTO]{}, shared.NewDomainError("INVALID_STATUS",
				fmt.Sprintf("unknown import status %q", query.Status))
		}
		filter.Status = &status
	}
	if query.DocumentType != "" {
		docType := fiscal.DocumentType(strings.ToLower(query.DocumentType))
		if !docType.IsValid() {
			return shared.Paginated[DocumentImportDTO]{}, shared.NewDomainError("INVALID_DOCUMENT_TYPE",
				fmt.Sprintf("unknown document type %q", query.DocumentType))
		}
		filter.DocumentType = &docType
	}

	imports, total, err := s.imports.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[DocumentImportDTO]{}, err
	}

	dtos := make([]DocumentImportDTO, 0, len(imports))
	for i := range imports {
		dtos = append(dtos, ToDocumentImportDTO(&imports[i]))
	}

	return shared.NewPaginated(dtos, total, filter.Page, filter.PageSize), nil
}

// ValidateItemMappings applies operator decisions to pending items. Calling
// it with an empty mapping list is allowed and simply reports the current
// state, which may already be validated when nothing is pending.
func (s *ImportService) ValidateItemMappings(ctx context.Context, importID uuid.UUID, mappings []ItemMapping) (MappingResult, error) {
	imp, err := s.imports.FindByID(ctx, importID)
	if err != nil {
		return MappingResult{}, err
	}

	for _, mapping := range mappings {
		if mapping.CreateProduct {
			if err := s.createProductFromItem(ctx, imp, mapping.ItemID); err != nil {
				return MappingResult{}, err
			}
			continue
		}
		if mapping.ProductID == nil {
			return MappingResult{}, shared.NewDomainError("INVALID_MAPPING",
				fmt.Sprintf("mapping for item %s names no product and does not request creation", mapping.ItemID))
		}
		if _, err := s.products.FindByID(ctx, *mapping.ProductID); err != nil {
			return MappingResult{}, fmt.Errorf("mapped product %s: %w", mapping.ProductID, err)
		}
		if err := imp.ApplyManualMatch(mapping.ItemID, *mapping.ProductID); err != nil {
			return MappingResult{}, err
		}
	}

	if len(mappings) > 0 {
		if err := s.imports.Save(ctx, imp); err != nil {
			return MappingResult{}, fmt.Errorf("failed to persist item mappings: %w", err)
		}
	}

	pending := imp.PendingItemCount()
	message := fmt.Sprintf("%d item(s) still pending", pending)
	if pending == 0 {
		message = "all items resolved"
	}

	return MappingResult{
		Success:      true,
		Message:      message,
		Status:       string(imp.Status),
		PendingItems: pending,
	}, nil
}

// createProductFromItem registers a new catalog product using the line
// item's own data, then resolves the item to it
func (s *ImportService) createProductFromItem(ctx context.Context, imp *fiscal.DocumentImport, itemID uuid.UUID) error {
	var item *fiscal.LineItem
	for i := range imp.Items {
		if imp.Items[i].ID == itemID {
			item = &imp.Items[i]
			break
		}
	}
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND",
			fmt.Sprintf("line item %s does not belong to this import", itemID))
	}

	code := item.ProductCode
	if code == "" {
		code = fmt.Sprintf("IMP-%s", strings.ToUpper(itemID.String()[:8]))
	}
	unit := item.Unit
	if unit == "" {
		unit = "UN"
	}

	product, err := catalog.NewProduct(code, item.Description, unit)
	if err != nil {
		return s.failItem(ctx, imp, item.ID, err)
	}
	if item.NCM != "" {
		if err := product.SetNCM(item.NCM); err != nil {
			return s.failItem(ctx, imp, item.ID, err)
		}
	}
	if err := product.SetPrices(item.UnitValue, item.UnitValue); err != nil {
		return s.failItem(ctx, imp, item.ID, err)
	}

	if err := s.products.Save(ctx, product); err != nil {
		return fmt.Errorf("failed to create product from item: %w", err)
	}

	s.logger.Info("product created from document item",
		zap.String("code", product.Code),
		zap.String("name", product.Name))

	return imp.ApplyCreatedProduct(itemID, product.ID)
}

// failItem records that the item's own data cannot produce a catalog
// product, so the failure is visible on the import itself and not only in
// the response to this call
func (s *ImportService) failItem(ctx context.Context, imp *fiscal.DocumentImport, itemID uuid.UUID, cause error) error {
	if err := imp.MarkItemError(itemID); err != nil {
		return cause
	}
	if err := s.imports.Save(ctx, imp); err != nil {
		s.logger.Warn("failed to persist item error state",
			zap.String("import_id", imp.ID.String()),
			zap.String("item_id", itemID.String()),
			zap.Error(err))
	}
	return cause
}
