package transfer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/pkg/apperrors"
)

const (
	MinInstallments = 2
	MaxInstallments = 12
)

// PaymentTerms describes how the created guarantor debts are to be repaid:
// either one due date or an installment plan of 2 to 12 dated parts.
type PaymentTerms struct {
	Type             debt.PaymentType
	DueDate          *time.Time
	InstallmentCount int
	InstallmentDates []time.Time
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateAllocations checks the split against the balance owed at commit
// time. The sum must match the balance to the cent; the tolerance absorbs
// rounding, nothing more.
func ValidateAllocations(allocations []Allocation, balance decimal.Decimal) error {
	if len(allocations) == 0 {
		return apperrors.NewValidationError("allocations", "cannot be empty")
	}
	seen := make(map[string]bool, len(allocations))
	for _, a := range allocations {
		if !a.Amount.IsPositive() {
			return apperrors.NewValidationError("allocations", fmt.Sprintf("amount for guarantor %s must be positive", a.GuarantorID))
		}
		if seen[a.GuarantorID.String()] {
			return apperrors.NewValidationError("allocations", fmt.Sprintf("guarantor %s allocated twice", a.GuarantorID))
		}
		seen[a.GuarantorID.String()] = true
	}

	sum := allocationSum(allocations)
	if sum.Sub(balance).Abs().GreaterThanOrEqual(centTolerance) {
		return fmt.Errorf("%w: allocated %s, balance is %s", apperrors.ErrSplitMismatch, sum, balance)
	}
	return nil
}

// ValidateTerms checks the payment terms against the given day. All dates
// must lie on or after today; installment dates must be strictly increasing.
func ValidateTerms(terms PaymentTerms, today time.Time) error {
	today = dateOnly(today)

	switch terms.Type {
	case debt.PaymentTypeSingle:
		if terms.DueDate == nil {
			return apperrors.NewValidationError("dueDate", "required for single payment terms")
		}
		if dateOnly(*terms.DueDate).Before(today) {
			return fmt.Errorf("%w: due date %s is in the past", apperrors.ErrInvalidDate, terms.DueDate.Format(time.DateOnly))
		}

	case debt.PaymentTypeInstallments:
		if terms.InstallmentCount < MinInstallments || terms.InstallmentCount > MaxInstallments {
			return apperrors.NewValidationError("installmentCount", fmt.Sprintf("must be between %d and %d", MinInstallments, MaxInstallments))
		}
		if len(terms.InstallmentDates) != terms.InstallmentCount {
			return apperrors.NewValidationError("installmentDates", fmt.Sprintf("expected %d dates, got %d", terms.InstallmentCount, len(terms.InstallmentDates)))
		}
		for i, d := range terms.InstallmentDates {
			if dateOnly(d).Before(today) {
				return fmt.Errorf("%w: installment date %s is in the past", apperrors.ErrInvalidDate, d.Format(time.DateOnly))
			}
			if i > 0 && !dateOnly(d).After(dateOnly(terms.InstallmentDates[i-1])) {
				return fmt.Errorf("%w: installment dates must be strictly increasing", apperrors.ErrInvalidDate)
			}
		}

	default:
		return apperrors.NewValidationError("paymentType", fmt.Sprintf("unknown payment type %q", terms.Type))
	}
	return nil
}
