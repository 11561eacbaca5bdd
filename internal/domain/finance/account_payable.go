package finance

import (
	"fmt"
	"time"

	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableStatus represents the status of an account payable
type PayableStatus string

const (
	PayableStatusPending   PayableStatus = "PENDING"   // unpaid, outstanding = total
	PayableStatusPartial   PayableStatus = "PARTIAL"   // partially paid
	PayableStatusPaid      PayableStatus = "PAID"      // fully paid
	PayableStatusCancelled PayableStatus = "CANCELLED" // cancelled before any payment
)

// IsValid checks if the status is a valid PayableStatus
func (s PayableStatus) IsValid() bool {
	switch s {
	case PayableStatusPending, PayableStatusPartial, PayableStatusPaid, PayableStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PayableStatus
func (s PayableStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the payable is in a terminal state
func (s PayableStatus) IsTerminal() bool {
	return s == PayableStatusPaid || s == PayableStatusCancelled
}

// CanApplyPayment returns true if payments can be applied in this status
func (s PayableStatus) CanApplyPayment() bool {
	return s == PayableStatusPending || s == PayableStatusPartial
}

// PayableSourceType represents the kind of document that created the payable
type PayableSourceType string

const (
	// PayableSourceTypeFiscalImport is a payable created by document reconciliation
	PayableSourceTypeFiscalImport PayableSourceType = "FISCAL_IMPORT"
	// PayableSourceTypeManual is a manually created payable
	PayableSourceTypeManual PayableSourceType = "MANUAL"
)

// IsValid checks if the source type is valid
func (s PayableSourceType) IsValid() bool {
	return s == PayableSourceTypeFiscalImport || s == PayableSourceTypeManual
}

// AccountPayable tracks money owed to the issuer of a purchase document.
// It is the aggregate root for payable operations.
type AccountPayable struct {
	shared.BaseAggregateRoot
	PayableNumber     string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	CreditorName      string            `gorm:"type:varchar(200);not null"`
	CreditorDocument  string            `gorm:"type:varchar(20)"` // creditor CNPJ
	SourceType        PayableSourceType `gorm:"type:varchar(30);not null;index:idx_payable_source"`
	SourceID          uuid.UUID         `gorm:"type:uuid;not null;index:idx_payable_source"` // import ID
	SourceNumber      string            `gorm:"type:varchar(50);not null"`                   // document number
	TotalAmount       decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	PaidAmount        decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	OutstandingAmount decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	Status            PayableStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate           time.Time         `gorm:"not null;index"`
	PaidAt            *time.Time
	CancelledAt       *time.Time
	CancelReason      string            `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (AccountPayable) TableName() string {
	return "account_payables"
}

// NewAccountPayable creates a new pending payable
func NewAccountPayable(
	payableNumber string,
	creditorName string,
	creditorDocument string,
	sourceType PayableSourceType,
	sourceID uuid.UUID,
	sourceNumber string,
	totalAmount decimal.Decimal,
	dueDate time.Time,
) (*AccountPayable, error) {
	if payableNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYABLE_NUMBER", "Payable number cannot be empty")
	}
	if len(payableNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_PAYABLE_NUMBER", "Payable number cannot exceed 50 characters")
	}
	if creditorName == "" {
		return nil, shared.NewDomainError("INVALID_CREDITOR", "Creditor name cannot be empty")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Source type is not valid")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID cannot be empty")
	}
	if sourceNumber == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_NUMBER", "Source number cannot be empty")
	}
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be empty")
	}

	ap := &AccountPayable{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PayableNumber:     payableNumber,
		CreditorName:      creditorName,
		CreditorDocument:  creditorDocument,
		SourceType:        sourceType,
		SourceID:          sourceID,
		SourceNumber:      sourceNumber,
		TotalAmount:       totalAmount,
		PaidAmount:        decimal.Zero,
		OutstandingAmount: totalAmount,
		Status:            PayableStatusPending,
		DueDate:           dueDate,
	}

	ap.AddDomainEvent(NewAccountPayableCreatedEvent(ap))

	return ap, nil
}

// ApplyPayment applies a payment against the outstanding amount
func (ap *AccountPayable) ApplyPayment(amount decimal.Decimal) error {
	if !ap.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to payable in %s status", ap.Status))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(ap.OutstandingAmount) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING", fmt.Sprintf("Payment amount %s exceeds outstanding amount %s", amount, ap.OutstandingAmount))
	}

	ap.PaidAmount = ap.PaidAmount.Add(amount)
	ap.OutstandingAmount = ap.TotalAmount.Sub(ap.PaidAmount)

	if ap.OutstandingAmount.IsZero() {
		now := time.Now()
		ap.Status = PayableStatusPaid
		ap.PaidAt = &now
		ap.AddDomainEvent(NewAccountPayablePaidEvent(ap))
	} else {
		ap.Status = PayableStatusPartial
	}

	ap.UpdatedAt = time.Now()
	ap.IncrementVersion()

	return nil
}

// Cancel voids the payable before any payment was applied
func (ap *AccountPayable) Cancel(reason string) error {
	if ap.Status != PayableStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel payable in %s status", ap.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancellation reason is required")
	}

	now := time.Now()
	ap.Status = PayableStatusCancelled
	ap.CancelledAt = &now
	ap.CancelReason = reason
	ap.OutstandingAmount = decimal.Zero
	ap.UpdatedAt = now
	ap.IncrementVersion()

	return nil
}

// IsOverdue returns true if the payable is unpaid past its due date
func (ap *AccountPayable) IsOverdue(now time.Time) bool {
	return ap.Status.CanApplyPayment() && now.After(ap.DueDate)
}
