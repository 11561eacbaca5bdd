package finance

import (
	"testing"
	"time"

	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayable(t *testing.T) *AccountPayable {
	t.Helper()
	ap, err := NewAccountPayable(
		"AP-2026-0001",
		"Distribuidora Alfa LTDA",
		"12345678000190",
		PayableSourceTypeFiscalImport,
		uuid.New(),
		"12345",
		decimal.NewFromFloat(150.00),
		time.Now().AddDate(0, 0, 30),
	)
	require.NoError(t, err)
	return ap
}

func TestNewAccountPayable(t *testing.T) {
	t.Run("should create pending payable", func(t *testing.T) {
		ap := newTestPayable(t)

		assert.Equal(t, PayableStatusPending, ap.Status)
		assert.True(t, ap.OutstandingAmount.Equal(decimal.NewFromFloat(150.00)))
		assert.True(t, ap.PaidAmount.IsZero())
		assert.Len(t, ap.GetDomainEvents(), 1)
	})

	t.Run("should reject non-positive amount", func(t *testing.T) {
		_, err := NewAccountPayable(
			"AP-2026-0002", "Creditor", "", PayableSourceTypeFiscalImport,
			uuid.New(), "1", decimal.Zero, time.Now(),
		)

		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)
	})

	t.Run("should reject empty payable number", func(t *testing.T) {
		_, err := NewAccountPayable(
			"", "Creditor", "", PayableSourceTypeFiscalImport,
			uuid.New(), "1", decimal.NewFromInt(10), time.Now(),
		)

		require.Error(t, err)
	})

	t.Run("should reject nil source", func(t *testing.T) {
		_, err := NewAccountPayable(
			"AP-2026-0003", "Creditor", "", PayableSourceTypeFiscalImport,
			uuid.Nil, "1", decimal.NewFromInt(10), time.Now(),
		)

		require.Error(t, err)
	})
}

func TestAccountPayableApplyPayment(t *testing.T) {
	t.Run("should transition to partial then paid", func(t *testing.T) {
		ap := newTestPayable(t)

		require.NoError(t, ap.ApplyPayment(decimal.NewFromFloat(100.00)))
		assert.Equal(t, PayableStatusPartial, ap.Status)
		assert.True(t, ap.OutstandingAmount.Equal(decimal.NewFromFloat(50.00)))

		require.NoError(t, ap.ApplyPayment(decimal.NewFromFloat(50.00)))
		assert.Equal(t, PayableStatusPaid, ap.Status)
		assert.True(t, ap.OutstandingAmount.IsZero())
		require.NotNil(t, ap.PaidAt)
	})

	t.Run("should reject payment exceeding outstanding", func(t *testing.T) {
		ap := newTestPayable(t)

		err := ap.ApplyPayment(decimal.NewFromFloat(200.00))

		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "EXCEEDS_OUTSTANDING", domainErr.Code)
	})

	t.Run("should reject payment on paid payable", func(t *testing.T) {
		ap := newTestPayable(t)
		require.NoError(t, ap.ApplyPayment(decimal.NewFromFloat(150.00)))

		err := ap.ApplyPayment(decimal.NewFromFloat(1.00))

		require.Error(t, err)
	})
}

func TestAccountPayableCancel(t *testing.T) {
	t.Run("should cancel pending payable", func(t *testing.T) {
		ap := newTestPayable(t)

		require.NoError(t, ap.Cancel("document voided"))

		assert.Equal(t, PayableStatusCancelled, ap.Status)
		assert.True(t, ap.OutstandingAmount.IsZero())
		require.NotNil(t, ap.CancelledAt)
	})

	t.Run("should reject cancelling partially paid payable", func(t *testing.T) {
		ap := newTestPayable(t)
		require.NoError(t, ap.ApplyPayment(decimal.NewFromFloat(10.00)))

		err := ap.Cancel("late void")

		require.Error(t, err)
	})

	t.Run("should require a reason", func(t *testing.T) {
		ap := newTestPayable(t)

		err := ap.Cancel("")

		require.Error(t, err)
	})
}

func TestAccountPayableIsOverdue(t *testing.T) {
	ap := newTestPayable(t)

	assert.False(t, ap.IsOverdue(time.Now()))
	assert.True(t, ap.IsOverdue(ap.DueDate.Add(24*time.Hour)))

	require.NoError(t, ap.ApplyPayment(decimal.NewFromFloat(150.00)))
	assert.False(t, ap.IsOverdue(ap.DueDate.Add(24*time.Hour)))
}
