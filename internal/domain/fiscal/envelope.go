package fiscal

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentEnvelope is the canonical, subtype-independent projection of a
// fiscal document's header. It is ephemeral: produced by the normalizer and
// consumed when a DocumentImport is created.
type DocumentEnvelope struct {
	Type           DocumentType
	Number         string
	AccessKey      string // 44-digit legal key from the info block Id attribute
	IssuedAt       time.Time
	IssuerName     string
	IssuerDocument string // issuer CNPJ
	TotalValue     decimal.Decimal
}

// LineItemData is the canonical projection of one merchandise line, produced
// by the normalizer alongside the envelope.
type LineItemData struct {
	ProductCode string
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitValue   decimal.Decimal
	TotalValue  decimal.Decimal
	NCM         string
	CFOP        string
	TaxCode     string // CST or CSOSN, opaque to this subsystem
}

// ItemsTotal returns the sum of line totals, used to cross-check the
// declared document total.
func ItemsTotal(items []LineItemData) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalValue)
	}
	return total
}
