package loan

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dayOffset(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, days)
}

func loanWithPayments(amount float64, paymentAmounts ...float64) *Loan {
	l := &Loan{
		ID:         uuid.New(),
		BorrowerID: uuid.New(),
		Amount:     decimal.NewFromFloat(amount),
		LoanDate:   dayOffset(-60),
		ReturnDate: dayOffset(-10),
	}
	for _, p := range paymentAmounts {
		l.Payments = append(l.Payments, Payment{
			ID:     uuid.New(),
			Amount: decimal.NewFromFloat(p),
			Date:   dayOffset(-30),
		})
	}
	return l
}

func TestLoanBalance(t *testing.T) {
	t.Run("subtracts payments from the amount", func(t *testing.T) {
		l := loanWithPayments(3000, 500, 250.50)
		assert.True(t, l.Balance().Equal(decimal.NewFromFloat(2249.50)), "got %s", l.Balance())
	})

	t.Run("is the full amount when nothing was paid", func(t *testing.T) {
		l := loanWithPayments(3000)
		assert.True(t, l.Balance().Equal(decimal.NewFromInt(3000)))
	})

	t.Run("clamps at zero on inconsistent input", func(t *testing.T) {
		l := loanWithPayments(100, 150)
		assert.True(t, l.Balance().IsZero())
	})
}

func TestLoanGuarantors(t *testing.T) {
	g1 := uuid.New()
	g2 := uuid.New()

	t.Run("skips unset slots", func(t *testing.T) {
		l := &Loan{Guarantor1ID: &g1}
		assert.Equal(t, []uuid.UUID{g1}, l.Guarantors())

		l = &Loan{Guarantor2ID: &g2}
		assert.Equal(t, []uuid.UUID{g2}, l.Guarantors())

		l = &Loan{}
		assert.Empty(t, l.Guarantors())
	})

	t.Run("returns both in slot order", func(t *testing.T) {
		l := &Loan{Guarantor1ID: &g1, Guarantor2ID: &g2}
		assert.Equal(t, []uuid.UUID{g1, g2}, l.Guarantors())
	})

	t.Run("HasGuarantor matches either slot", func(t *testing.T) {
		l := &Loan{Guarantor1ID: &g1, Guarantor2ID: &g2}
		assert.True(t, l.HasGuarantor(g1))
		assert.True(t, l.HasGuarantor(g2))
		assert.False(t, l.HasGuarantor(uuid.New()))
	})
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		days     int
		expected Severity
	}{
		{1, SeverityLow},
		{6, SeverityLow},
		{7, SeverityMedium},
		{30, SeverityMedium},
		{31, SeverityHigh},
		{365, SeverityHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifySeverity(tt.days), "days=%d", tt.days)
	}
}

func TestDetectOverdue(t *testing.T) {
	asOf := time.Now().UTC()

	t.Run("orders most urgent first", func(t *testing.T) {
		recent := loanWithPayments(1000)
		recent.ReturnDate = asOf.AddDate(0, 0, -3)
		old := loanWithPayments(2000)
		old.ReturnDate = asOf.AddDate(0, 0, -45)

		overdue := DetectOverdue([]*Loan{recent, old}, asOf)
		assert.Len(t, overdue, 2)
		assert.Equal(t, old.ID, overdue[0].Loan.ID)
		assert.Equal(t, 45, overdue[0].DaysOverdue)
		assert.Equal(t, SeverityHigh, overdue[0].Severity)
		assert.Equal(t, recent.ID, overdue[1].Loan.ID)
		assert.Equal(t, SeverityLow, overdue[1].Severity)
	})

	t.Run("excludes loans due today or later", func(t *testing.T) {
		today := loanWithPayments(1000)
		today.ReturnDate = asOf
		future := loanWithPayments(1000)
		future.ReturnDate = asOf.AddDate(0, 0, 30)

		assert.Empty(t, DetectOverdue([]*Loan{today, future}, asOf))
	})

	t.Run("excludes settled loans", func(t *testing.T) {
		settled := loanWithPayments(1000, 1000)
		settled.ReturnDate = asOf.AddDate(0, 0, -10)

		assert.Empty(t, DetectOverdue([]*Loan{settled}, asOf))
	})

	t.Run("excludes transferred loans", func(t *testing.T) {
		transferred := loanWithPayments(1000)
		transferred.ReturnDate = asOf.AddDate(0, 0, -10)
		transferred.TransferredToGuarantors = true

		assert.Empty(t, DetectOverdue([]*Loan{transferred}, asOf))
	})

	t.Run("reports the outstanding balance", func(t *testing.T) {
		l := loanWithPayments(3000, 1000)
		l.ReturnDate = asOf.AddDate(0, 0, -8)

		overdue := DetectOverdue([]*Loan{l}, asOf)
		assert.Len(t, overdue, 1)
		assert.True(t, overdue[0].Balance.Equal(decimal.NewFromInt(2000)))
		assert.Equal(t, SeverityMedium, overdue[0].Severity)
	})
}
