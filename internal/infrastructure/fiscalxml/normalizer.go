package fiscalxml

import (
	"fmt"
	"strings"

	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/shopspring/decimal"
)

// Normalizer turns raw bytes of a structurally valid document into the
// canonical envelope and line-item projection. Parsing is deterministic:
// the same bytes always yield the same envelope and item list.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize parses the document into an envelope plus ordered line items.
// Logistics subtypes yield an empty item list. The input should already have
// passed the Validator; failures here are operational errors.
func (n *Normalizer) Normalize(data []byte) (fiscal.DocumentEnvelope, []fiscal.LineItemData, error) {
	doc, failure := parseDocument(data)
	if failure != nil {
		return fiscal.DocumentEnvelope{}, nil, fmt.Errorf("cannot normalize document: %s", failure.Message)
	}

	issued, _ := parseIssueDate(doc.IssuedRaw)

	envelope := fiscal.DocumentEnvelope{
		Type:           doc.Type,
		Number:         doc.Number,
		AccessKey:      doc.AccessKey,
		IssuedAt:       issued,
		IssuerName:     strings.TrimSpace(doc.IssuerName),
		IssuerDocument: strings.TrimSpace(doc.IssuerDocument),
		TotalValue:     parseAmount(doc.TotalRaw),
	}

	if !doc.Type.HasItems() {
		return envelope, nil, nil
	}

	items := make([]fiscal.LineItemData, 0, len(doc.Items))
	for _, det := range doc.Items {
		items = append(items, fiscal.LineItemData{
			ProductCode: strings.TrimSpace(det.Prod.Code),
			Description: strings.TrimSpace(det.Prod.Description),
			Quantity:    parseAmount(det.Prod.Quantity),
			Unit:        strings.TrimSpace(det.Prod.Unit),
			UnitValue:   parseAmount(det.Prod.UnitValue),
			TotalValue:  parseAmount(det.Prod.Total),
			NCM:         strings.TrimSpace(det.Prod.NCM),
			CFOP:        strings.TrimSpace(det.Prod.CFOP),
			TaxCode:     findTaxCode(det.Tax.ICMS.Inner),
		})
	}

	return envelope, items, nil
}

// parseAmount parses a numeric field tolerantly: absent or unparsable
// values become zero rather than failing the whole document.
func parseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
