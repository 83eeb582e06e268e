package debt

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeSingle       PaymentType = "single"
	PaymentTypeInstallments PaymentType = "installments"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// GuarantorDebt is the repayment obligation a guarantor inherits when an
// overdue loan is transferred. Debts are created exclusively by the transfer
// engine, never directly. Amount is fixed at creation; balance and status
// are derived from payments.
type GuarantorDebt struct {
	ID                 uuid.UUID
	GuarantorID        uuid.UUID
	OriginalBorrowerID uuid.UUID
	OriginalLoanID     uuid.UUID
	Amount             decimal.Decimal
	PaymentType        PaymentType

	// DueDate is set for single-payment debts, the installment fields for
	// installment plans.
	DueDate           *time.Time
	InstallmentAmount *decimal.Decimal
	InstallmentDates  []time.Time

	Payments     []Payment
	TransferDate time.Time

	// Status is a cached copy of DeriveStatus, refreshed on write and by
	// the nightly batch job. Reads that care should re-derive.
	Status Status

	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is append-only, same contract as loan payments.
type Payment struct {
	ID     uuid.UUID
	Amount decimal.Decimal
	Date   time.Time
	Method string
}

// Balance is the debt amount minus the sum of applied payments, clamped at
// zero against inconsistent input.
func (d *GuarantorDebt) Balance() decimal.Decimal {
	balance := d.Amount
	for _, p := range d.Payments {
		balance = balance.Sub(p.Amount)
	}
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

func (d *GuarantorDebt) paidTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range d.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// expectedByDate is the cumulative amount the installment plan requires to
// have been paid by the given date. The last installment absorbs the
// rounding remainder, so the expected total over all dates equals Amount
// exactly.
func (d *GuarantorDebt) expectedByDate(asOf time.Time) decimal.Decimal {
	if d.InstallmentAmount == nil || len(d.InstallmentDates) == 0 {
		return decimal.Zero
	}
	expected := decimal.Zero
	for i, due := range d.InstallmentDates {
		if due.After(asOf) {
			break
		}
		if i == len(d.InstallmentDates)-1 {
			expected = d.Amount
		} else {
			expected = expected.Add(*d.InstallmentAmount)
		}
	}
	return expected
}

// DeriveStatus computes the debt status as of the given date: paid once the
// balance reaches zero, overdue once a due date has passed without enough
// payment to cover it, active otherwise. The stored Status field is only a
// cache of this derivation.
func (d *GuarantorDebt) DeriveStatus(asOf time.Time) Status {
	if d.Balance().IsZero() {
		return StatusPaid
	}

	switch d.PaymentType {
	case PaymentTypeSingle:
		if d.DueDate != nil && asOf.After(*d.DueDate) {
			return StatusOverdue
		}
	case PaymentTypeInstallments:
		if d.paidTotal().LessThan(d.expectedByDate(asOf)) {
			return StatusOverdue
		}
	}
	return StatusActive
}
