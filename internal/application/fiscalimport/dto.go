package fiscalimport

import (
	"time"

	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemDTO is the API projection of one document line item
type LineItemDTO struct {
	ID               uuid.UUID       `json:"id"`
	ProductCode      string          `json:"product_code"`
	Description      string          `json:"description"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit"`
	UnitValue        decimal.Decimal `json:"unit_value"`
	TotalValue       decimal.Decimal `json:"total_value"`
	NCM              string          `json:"ncm,omitempty"`
	CFOP             string          `json:"cfop,omitempty"`
	TaxCode          string          `json:"tax_code,omitempty"`
	MatchedProductID *uuid.UUID      `json:"matched_product_id,omitempty"`
	MatchConfidence  float64         `json:"match_confidence"`
	Status           string          `json:"status"`
}

// DocumentImportDTO is the API projection of a document import
type DocumentImportDTO struct {
	ID               uuid.UUID       `json:"id"`
	SourceType       string          `json:"source_type"`
	DocumentType     string          `json:"document_type"`
	DocumentNumber   string          `json:"document_number"`
	AccessKey        string          `json:"access_key"`
	DocumentDate     time.Time       `json:"document_date"`
	IssuerName       string          `json:"issuer_name"`
	IssuerDocument   string          `json:"issuer_document,omitempty"`
	TotalValue       decimal.Decimal `json:"total_value"`
	Status           string          `json:"status"`
	Items            []LineItemDTO   `json:"items"`
	PendingItems     int             `json:"pending_items"`
	UpdatedInventory bool            `json:"updated_inventory"`
	UpdatedFinancial bool            `json:"updated_financial"`
	ImportDate       *time.Time      `json:"import_date,omitempty"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToDocumentImportDTO converts a domain aggregate to its API projection
func ToDocumentImportDTO(imp *fiscal.DocumentImport) DocumentImportDTO {
	items := make([]LineItemDTO, 0, len(imp.Items))
	for i := range imp.Items {
		items = append(items, toLineItemDTO(&imp.Items[i]))
	}

	return DocumentImportDTO{
		ID:               imp.ID,
		SourceType:       string(imp.SourceType),
		DocumentType:     string(imp.DocumentType),
		DocumentNumber:   imp.DocumentNumber,
		AccessKey:        imp.AccessKey,
		DocumentDate:     imp.DocumentDate,
		IssuerName:       imp.IssuerName,
		IssuerDocument:   imp.IssuerDocument,
		TotalValue:       imp.TotalValue,
		Status:           string(imp.Status),
		Items:            items,
		PendingItems:     imp.PendingItemCount(),
		UpdatedInventory: imp.UpdatedInventory,
		UpdatedFinancial: imp.UpdatedFinancial,
		ImportDate:       imp.ImportDate,
		ErrorMessage:     imp.ErrorMessage,
		CreatedAt:        imp.CreatedAt,
	}
}

func toLineItemDTO(item *fiscal.LineItem) LineItemDTO {
	return LineItemDTO{
		ID:               item.ID,
		ProductCode:      item.ProductCode,
		Description:      item.Description,
		Quantity:         item.Quantity,
		Unit:             item.Unit,
		UnitValue:        item.UnitValue,
		TotalValue:       item.TotalValue,
		NCM:              item.NCM,
		CFOP:             item.CFOP,
		TaxCode:          item.TaxCode,
		MatchedProductID: item.MatchedProductID,
		MatchConfidence:  item.MatchConfidence,
		Status:           string(item.Status),
	}
}

// BatchFile is one named payload inside a batch import request
type BatchFile struct {
	Name string
	Data []byte
}

// FileImportResult is the per-file outcome of a batch import
type FileImportResult struct {
	File     string     `json:"file"`
	Success  bool       `json:"success"`
	Message  string     `json:"message"`
	ImportID *uuid.UUID `json:"import_id,omitempty"`
}

// BatchImportResult aggregates a whole batch. Results always carries one
// entry per input file, in input order.
type BatchImportResult struct {
	Success int                `json:"success"`
	Failed  int                `json:"failed"`
	Results []FileImportResult `json:"results"`
}

// ItemMapping is one operator decision about a pending line item: link it to
// an existing product, or create a product from the item itself.
type ItemMapping struct {
	ItemID        uuid.UUID  `json:"item_id"`
	ProductID     *uuid.UUID `json:"product_id,omitempty"`
	CreateProduct bool       `json:"create_product,omitempty"`
}

// MappingResult reports the import state after manual resolution
type MappingResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Status       string `json:"status"`
	PendingItems int    `json:"pending_items"`
}

// ReconciliationResult reports which side effects completing an import ran
type ReconciliationResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	InventoryUpdated bool   `json:"inventory_updated"`
	FinancialUpdated bool   `json:"financial_updated"`
}

// ListImportsQuery narrows a document import listing
type ListImportsQuery struct {
	Status       string
	DocumentType string
	DateFrom     *time.Time
	DateTo       *time.Time
	Search       string
	Page         int
	PageSize     int
}
