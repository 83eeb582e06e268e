package transfer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/pkg/apperrors"
)

func TestValidateAllocations(t *testing.T) {
	g1 := uuid.New()
	g2 := uuid.New()
	balance := decimal.NewFromInt(3000)

	t.Run("accepts a cent-exact split", func(t *testing.T) {
		allocations := []Allocation{
			{GuarantorID: g1, Amount: decimal.NewFromInt(1500)},
			{GuarantorID: g2, Amount: decimal.NewFromInt(1500)},
		}
		assert.NoError(t, ValidateAllocations(allocations, balance))
	})

	t.Run("rejects an empty split", func(t *testing.T) {
		err := ValidateAllocations(nil, balance)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects a non-positive share", func(t *testing.T) {
		allocations := []Allocation{
			{GuarantorID: g1, Amount: decimal.NewFromInt(3000)},
			{GuarantorID: g2, Amount: decimal.Zero},
		}
		err := ValidateAllocations(allocations, balance)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects a guarantor allocated twice", func(t *testing.T) {
		allocations := []Allocation{
			{GuarantorID: g1, Amount: decimal.NewFromInt(1500)},
			{GuarantorID: g1, Amount: decimal.NewFromInt(1500)},
		}
		err := ValidateAllocations(allocations, balance)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects a sum a cent off the balance", func(t *testing.T) {
		allocations := []Allocation{
			{GuarantorID: g1, Amount: decimal.NewFromInt(1500)},
			{GuarantorID: g2, Amount: decimal.NewFromFloat(1500.01)},
		}
		err := ValidateAllocations(allocations, balance)
		assert.ErrorIs(t, err, apperrors.ErrSplitMismatch)
	})

	t.Run("tolerates sub-cent drift", func(t *testing.T) {
		allocations := []Allocation{
			{GuarantorID: g1, Amount: decimal.NewFromFloat(1500.005)},
			{GuarantorID: g2, Amount: decimal.NewFromInt(1500)},
		}
		assert.NoError(t, ValidateAllocations(allocations, balance))
	})
}

func TestValidateTerms(t *testing.T) {
	today := time.Now()
	future := func(days int) time.Time { return today.AddDate(0, 0, days) }

	t.Run("single payment needs a due date", func(t *testing.T) {
		err := ValidateTerms(PaymentTerms{Type: debt.PaymentTypeSingle}, today)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("single payment due today is fine", func(t *testing.T) {
		due := today
		assert.NoError(t, ValidateTerms(PaymentTerms{Type: debt.PaymentTypeSingle, DueDate: &due}, today))
	})

	t.Run("single payment rejects a past due date", func(t *testing.T) {
		due := future(-1)
		err := ValidateTerms(PaymentTerms{Type: debt.PaymentTypeSingle, DueDate: &due}, today)
		assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
	})

	t.Run("installment count is bounded", func(t *testing.T) {
		for _, count := range []int{0, 1, 13} {
			err := ValidateTerms(PaymentTerms{Type: debt.PaymentTypeInstallments, InstallmentCount: count}, today)
			assert.ErrorIs(t, err, apperrors.ErrValidation, "count=%d", count)
		}
	})

	t.Run("date count must match the installment count", func(t *testing.T) {
		terms := PaymentTerms{
			Type:             debt.PaymentTypeInstallments,
			InstallmentCount: 3,
			InstallmentDates: []time.Time{future(10), future(20)},
		}
		assert.ErrorIs(t, ValidateTerms(terms, today), apperrors.ErrValidation)
	})

	t.Run("installment dates must not be in the past", func(t *testing.T) {
		terms := PaymentTerms{
			Type:             debt.PaymentTypeInstallments,
			InstallmentCount: 2,
			InstallmentDates: []time.Time{future(-5), future(10)},
		}
		assert.ErrorIs(t, ValidateTerms(terms, today), apperrors.ErrInvalidDate)
	})

	t.Run("installment dates must be strictly increasing", func(t *testing.T) {
		terms := PaymentTerms{
			Type:             debt.PaymentTypeInstallments,
			InstallmentCount: 2,
			InstallmentDates: []time.Time{future(10), future(10)},
		}
		assert.ErrorIs(t, ValidateTerms(terms, today), apperrors.ErrInvalidDate)
	})

	t.Run("a valid installment plan passes", func(t *testing.T) {
		terms := PaymentTerms{
			Type:             debt.PaymentTypeInstallments,
			InstallmentCount: 3,
			InstallmentDates: []time.Time{future(30), future(60), future(90)},
		}
		assert.NoError(t, ValidateTerms(terms, today))
	})

	t.Run("unknown payment type is rejected", func(t *testing.T) {
		err := ValidateTerms(PaymentTerms{Type: "weekly"}, today)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
