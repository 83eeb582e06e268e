package transfer

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocation assigns part of the loan balance to one guarantor. Order
// matters: when splitting equally, the first allocation absorbs the cent
// remainder.
type Allocation struct {
	GuarantorID uuid.UUID
	Amount      decimal.Decimal
}

var centTolerance = decimal.New(1, -2)

// EqualSplit divides balance across the guarantors so the shares sum to the
// balance exactly to the cent. Every guarantor gets the balance divided by
// the headcount rounded down to the cent; the first one additionally absorbs
// the remainder.
func EqualSplit(balance decimal.Decimal, guarantorIDs []uuid.UUID) []Allocation {
	n := len(guarantorIDs)
	if n == 0 {
		return nil
	}

	base := balance.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	remainder := balance.Sub(base.Mul(decimal.NewFromInt(int64(n))))

	allocations := make([]Allocation, 0, n)
	for i, id := range guarantorIDs {
		amount := base
		if i == 0 {
			amount = amount.Add(remainder)
		}
		allocations = append(allocations, Allocation{GuarantorID: id, Amount: amount})
	}
	return allocations
}

// InstallmentAmount is the per-installment amount for a debt of the given
// size: the amount divided by the count, rounded down to the cent. The last
// installment absorbs the rounding remainder when the plan is settled.
func InstallmentAmount(amount decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(int64(count))).RoundDown(2)
}

func allocationSum(allocations []Allocation) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range allocations {
		sum = sum.Add(a.Amount)
	}
	return sum
}
