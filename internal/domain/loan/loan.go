package loan

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Loan struct {
	ID           uuid.UUID
	BorrowerID   uuid.UUID
	Amount       decimal.Decimal
	LoanDate     time.Time
	ReturnDate   time.Time
	Guarantor1ID *uuid.UUID
	Guarantor2ID *uuid.UUID
	Payments     []Payment

	// Once TransferredToGuarantors is set the loan is terminal: it is
	// excluded from overdue reporting and from further transfer attempts.
	TransferredToGuarantors bool
	TransferDate            *time.Time
	TransferredBy           string
	TransferNotes           string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is append-only. A recorded payment is never edited or removed.
type Payment struct {
	ID     uuid.UUID
	Amount decimal.Decimal
	Date   time.Time
	Method string
}

// Balance is the outstanding principal: amount minus the sum of applied
// payments. Payments that would overshoot are rejected at recording time,
// so a consistent store never produces a negative balance; the clamp only
// guards against inconsistent snapshots fed in from outside.
func (l *Loan) Balance() decimal.Decimal {
	balance := l.Amount
	for _, p := range l.Payments {
		balance = balance.Sub(p.Amount)
	}
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// Guarantors returns the guarantor ids associated with the loan, skipping
// unset slots.
func (l *Loan) Guarantors() []uuid.UUID {
	var ids []uuid.UUID
	if l.Guarantor1ID != nil {
		ids = append(ids, *l.Guarantor1ID)
	}
	if l.Guarantor2ID != nil {
		ids = append(ids, *l.Guarantor2ID)
	}
	return ids
}

func (l *Loan) HasGuarantor(id uuid.UUID) bool {
	for _, g := range l.Guarantors() {
		if g == id {
			return true
		}
	}
	return false
}

type OverdueLoan struct {
	Loan        *Loan
	DaysOverdue int
	Balance     decimal.Decimal
	Severity    Severity
}

// ClassifySeverity buckets an overdue loan by days elapsed past its return
// date: more than 30 days is high, 7 through 30 is medium, anything shorter
// is low.
func ClassifySeverity(daysOverdue int) Severity {
	switch {
	case daysOverdue > 30:
		return SeverityHigh
	case daysOverdue >= 7:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// DetectOverdue filters the given loans down to the overdue worklist as of
// the given date: not yet transferred, past their return date, and carrying
// an outstanding balance. The result is ordered most urgent first.
func DetectOverdue(loans []*Loan, asOf time.Time) []OverdueLoan {
	var overdue []OverdueLoan
	for _, l := range loans {
		if l.TransferredToGuarantors {
			continue
		}
		days := daysBetween(l.ReturnDate, asOf)
		if days < 1 {
			continue
		}
		balance := l.Balance()
		if !balance.IsPositive() {
			continue
		}
		overdue = append(overdue, OverdueLoan{
			Loan:        l,
			DaysOverdue: days,
			Balance:     balance,
			Severity:    ClassifySeverity(days),
		})
	}

	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].DaysOverdue > overdue[j].DaysOverdue
	})
	return overdue
}
