package finance

import (
	"time"

	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for account payable events
const (
	EventTypeAccountPayableCreated = "finance.payable.created"
	EventTypeAccountPayablePaid    = "finance.payable.paid"
)

// AccountPayableCreatedEvent is raised when a payable is created
type AccountPayableCreatedEvent struct {
	shared.BaseDomainEvent
	PayableNumber string          `json:"payable_number"`
	CreditorName  string          `json:"creditor_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DueDate       time.Time       `json:"due_date"`
}

// NewAccountPayableCreatedEvent creates a new AccountPayableCreatedEvent
func NewAccountPayableCreatedEvent(ap *AccountPayable) *AccountPayableCreatedEvent {
	return &AccountPayableCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountPayableCreated, "AccountPayable", ap.ID),
		PayableNumber:   ap.PayableNumber,
		CreditorName:    ap.CreditorName,
		TotalAmount:     ap.TotalAmount,
		DueDate:         ap.DueDate,
	}
}

// AccountPayablePaidEvent is raised when a payable is fully paid
type AccountPayablePaidEvent struct {
	shared.BaseDomainEvent
	PayableNumber string          `json:"payable_number"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// NewAccountPayablePaidEvent creates a new AccountPayablePaidEvent
func NewAccountPayablePaidEvent(ap *AccountPayable) *AccountPayablePaidEvent {
	return &AccountPayablePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountPayablePaid, "AccountPayable", ap.ID),
		PayableNumber:   ap.PayableNumber,
		PaidAmount:      ap.PaidAmount,
	}
}
