package snapshot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gemach-ledger/internal/domain/blacklist"
	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/domain/loan"
	"gemach-ledger/internal/domain/party"
	"gemach-ledger/internal/pkg/apperrors"
)

// Snapshot is the wire form of the whole ledger: all five collections in one
// structured document. Import replaces the full collection set atomically.
type Snapshot struct {
	ExportedAt       time.Time        `json:"exportedAt"`
	Borrowers        []Person         `json:"borrowers"`
	Guarantors       []Person         `json:"guarantors"`
	Loans            []Loan           `json:"loans"`
	GuarantorDebts   []GuarantorDebt  `json:"guarantorDebts"`
	BlacklistEntries []BlacklistEntry `json:"blacklistEntries"`
}

type Person struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone,omitempty"`
	Email   string    `json:"email,omitempty"`
	Address string    `json:"address,omitempty"`
}

type Payment struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Method string          `json:"method,omitempty"`
}

type Loan struct {
	ID                      uuid.UUID       `json:"id"`
	BorrowerID              uuid.UUID       `json:"borrowerId"`
	Amount                  decimal.Decimal `json:"amount"`
	LoanDate                time.Time       `json:"loanDate"`
	ReturnDate              time.Time       `json:"returnDate"`
	Guarantor1ID            *uuid.UUID      `json:"guarantor1Id,omitempty"`
	Guarantor2ID            *uuid.UUID      `json:"guarantor2Id,omitempty"`
	Payments                []Payment       `json:"payments"`
	TransferredToGuarantors bool            `json:"transferredToGuarantors"`
	TransferDate            *time.Time      `json:"transferDate,omitempty"`
	TransferredBy           string          `json:"transferredBy,omitempty"`
	TransferNotes           string          `json:"transferNotes,omitempty"`
}

type GuarantorDebt struct {
	ID                 uuid.UUID        `json:"id"`
	GuarantorID        uuid.UUID        `json:"guarantorId"`
	OriginalBorrowerID uuid.UUID        `json:"originalBorrowerId"`
	OriginalLoanID     uuid.UUID        `json:"originalLoanId"`
	Amount             decimal.Decimal  `json:"amount"`
	PaymentType        string           `json:"paymentType"`
	DueDate            *time.Time       `json:"dueDate,omitempty"`
	InstallmentAmount  *decimal.Decimal `json:"installmentAmount,omitempty"`
	InstallmentDates   []time.Time      `json:"installmentDates,omitempty"`
	Payments           []Payment        `json:"payments"`
	TransferDate       time.Time        `json:"transferDate"`
	Status             string           `json:"status"`
	Notes              string           `json:"notes,omitempty"`
}

type BlacklistEntry struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	PersonID      uuid.UUID  `json:"personId"`
	Reason        string     `json:"reason"`
	BlockedDate   time.Time  `json:"blockedDate"`
	BlockedBy     string     `json:"blockedBy"`
	IsActive      bool       `json:"isActive"`
	RemovedDate   *time.Time `json:"removedDate,omitempty"`
	RemovedBy     string     `json:"removedBy,omitempty"`
	RemovalReason string     `json:"removalReason,omitempty"`
}

// Validate rejects snapshots that would corrupt the ledger on import:
// duplicate ids, dangling references, or more than one active blacklist
// entry per subject.
func (s *Snapshot) Validate() error {
	borrowers := make(map[uuid.UUID]bool, len(s.Borrowers))
	for _, b := range s.Borrowers {
		if borrowers[b.ID] {
			return apperrors.NewValidationError("borrowers", fmt.Sprintf("duplicate borrower id %s", b.ID))
		}
		borrowers[b.ID] = true
	}
	guarantors := make(map[uuid.UUID]bool, len(s.Guarantors))
	for _, g := range s.Guarantors {
		if guarantors[g.ID] {
			return apperrors.NewValidationError("guarantors", fmt.Sprintf("duplicate guarantor id %s", g.ID))
		}
		guarantors[g.ID] = true
	}

	loans := make(map[uuid.UUID]bool, len(s.Loans))
	for _, l := range s.Loans {
		if loans[l.ID] {
			return apperrors.NewValidationError("loans", fmt.Sprintf("duplicate loan id %s", l.ID))
		}
		loans[l.ID] = true
		if !borrowers[l.BorrowerID] {
			return apperrors.NewValidationError("loans", fmt.Sprintf("loan %s references unknown borrower %s", l.ID, l.BorrowerID))
		}
		for _, gid := range []*uuid.UUID{l.Guarantor1ID, l.Guarantor2ID} {
			if gid != nil && !guarantors[*gid] {
				return apperrors.NewValidationError("loans", fmt.Sprintf("loan %s references unknown guarantor %s", l.ID, *gid))
			}
		}
	}

	for _, d := range s.GuarantorDebts {
		if !guarantors[d.GuarantorID] {
			return apperrors.NewValidationError("guarantorDebts", fmt.Sprintf("debt %s references unknown guarantor %s", d.ID, d.GuarantorID))
		}
		if !loans[d.OriginalLoanID] {
			return apperrors.NewValidationError("guarantorDebts", fmt.Sprintf("debt %s references unknown loan %s", d.ID, d.OriginalLoanID))
		}
	}

	active := make(map[string]bool)
	for _, e := range s.BlacklistEntries {
		t := blacklist.SubjectType(e.Type)
		if !t.Valid() {
			return apperrors.NewValidationError("blacklistEntries", fmt.Sprintf("entry %s has unknown subject type %q", e.ID, e.Type))
		}
		if !e.IsActive {
			continue
		}
		key := e.Type + "/" + e.PersonID.String()
		if active[key] {
			return apperrors.NewValidationError("blacklistEntries", fmt.Sprintf("more than one active entry for %s %s", e.Type, e.PersonID))
		}
		active[key] = true
	}
	return nil
}

// Ledger is the in-memory counterpart of a Snapshot, expressed in domain
// types.
type Ledger struct {
	Borrowers        []*party.Borrower
	Guarantors       []*party.Guarantor
	Loans            []*loan.Loan
	Debts            []*debt.GuarantorDebt
	BlacklistEntries []*blacklist.Entry
}

func FromLedger(l *Ledger, exportedAt time.Time) *Snapshot {
	s := &Snapshot{
		ExportedAt:       exportedAt,
		Borrowers:        make([]Person, 0, len(l.Borrowers)),
		Guarantors:       make([]Person, 0, len(l.Guarantors)),
		Loans:            make([]Loan, 0, len(l.Loans)),
		GuarantorDebts:   make([]GuarantorDebt, 0, len(l.Debts)),
		BlacklistEntries: make([]BlacklistEntry, 0, len(l.BlacklistEntries)),
	}

	for _, b := range l.Borrowers {
		s.Borrowers = append(s.Borrowers, Person{ID: b.ID, Name: b.Name, Phone: b.Phone, Email: b.Email, Address: b.Address})
	}
	for _, g := range l.Guarantors {
		s.Guarantors = append(s.Guarantors, Person{ID: g.ID, Name: g.Name, Phone: g.Phone, Email: g.Email, Address: g.Address})
	}
	for _, ln := range l.Loans {
		payments := make([]Payment, 0, len(ln.Payments))
		for _, p := range ln.Payments {
			payments = append(payments, Payment{ID: p.ID, Amount: p.Amount, Date: p.Date, Method: p.Method})
		}
		s.Loans = append(s.Loans, Loan{
			ID:                      ln.ID,
			BorrowerID:              ln.BorrowerID,
			Amount:                  ln.Amount,
			LoanDate:                ln.LoanDate,
			ReturnDate:              ln.ReturnDate,
			Guarantor1ID:            ln.Guarantor1ID,
			Guarantor2ID:            ln.Guarantor2ID,
			Payments:                payments,
			TransferredToGuarantors: ln.TransferredToGuarantors,
			TransferDate:            ln.TransferDate,
			TransferredBy:           ln.TransferredBy,
			TransferNotes:           ln.TransferNotes,
		})
	}
	for _, d := range l.Debts {
		payments := make([]Payment, 0, len(d.Payments))
		for _, p := range d.Payments {
			payments = append(payments, Payment{ID: p.ID, Amount: p.Amount, Date: p.Date, Method: p.Method})
		}
		s.GuarantorDebts = append(s.GuarantorDebts, GuarantorDebt{
			ID:                 d.ID,
			GuarantorID:        d.GuarantorID,
			OriginalBorrowerID: d.OriginalBorrowerID,
			OriginalLoanID:     d.OriginalLoanID,
			Amount:             d.Amount,
			PaymentType:        string(d.PaymentType),
			DueDate:            d.DueDate,
			InstallmentAmount:  d.InstallmentAmount,
			InstallmentDates:   d.InstallmentDates,
			Payments:           payments,
			TransferDate:       d.TransferDate,
			Status:             string(d.Status),
			Notes:              d.Notes,
		})
	}
	for _, e := range l.BlacklistEntries {
		s.BlacklistEntries = append(s.BlacklistEntries, BlacklistEntry{
			ID:            e.ID,
			Type:          string(e.Type),
			PersonID:      e.PersonID,
			Reason:        e.Reason,
			BlockedDate:   e.BlockedDate,
			BlockedBy:     e.BlockedBy,
			IsActive:      e.IsActive,
			RemovedDate:   e.RemovedDate,
			RemovedBy:     e.RemovedBy,
			RemovalReason: e.RemovalReason,
		})
	}
	return s
}

// ToLedger converts a validated snapshot back into domain form.
func (s *Snapshot) ToLedger() *Ledger {
	l := &Ledger{
		Borrowers:        make([]*party.Borrower, 0, len(s.Borrowers)),
		Guarantors:       make([]*party.Guarantor, 0, len(s.Guarantors)),
		Loans:            make([]*loan.Loan, 0, len(s.Loans)),
		Debts:            make([]*debt.GuarantorDebt, 0, len(s.GuarantorDebts)),
		BlacklistEntries: make([]*blacklist.Entry, 0, len(s.BlacklistEntries)),
	}

	for _, b := range s.Borrowers {
		l.Borrowers = append(l.Borrowers, &party.Borrower{ID: b.ID, Name: b.Name, Phone: b.Phone, Email: b.Email, Address: b.Address})
	}
	for _, g := range s.Guarantors {
		l.Guarantors = append(l.Guarantors, &party.Guarantor{ID: g.ID, Name: g.Name, Phone: g.Phone, Email: g.Email, Address: g.Address})
	}
	for _, ln := range s.Loans {
		payments := make([]loan.Payment, 0, len(ln.Payments))
		for _, p := range ln.Payments {
			payments = append(payments, loan.Payment{ID: p.ID, Amount: p.Amount, Date: p.Date, Method: p.Method})
		}
		l.Loans = append(l.Loans, &loan.Loan{
			ID:                      ln.ID,
			BorrowerID:              ln.BorrowerID,
			Amount:                  ln.Amount,
			LoanDate:                ln.LoanDate,
			ReturnDate:              ln.ReturnDate,
			Guarantor1ID:            ln.Guarantor1ID,
			Guarantor2ID:            ln.Guarantor2ID,
			Payments:                payments,
			TransferredToGuarantors: ln.TransferredToGuarantors,
			TransferDate:            ln.TransferDate,
			TransferredBy:           ln.TransferredBy,
			TransferNotes:           ln.TransferNotes,
		})
	}
	for _, d := range s.GuarantorDebts {
		payments := make([]debt.Payment, 0, len(d.Payments))
		for _, p := range d.Payments {
			payments = append(payments, debt.Payment{ID: p.ID, Amount: p.Amount, Date: p.Date, Method: p.Method})
		}
		l.Debts = append(l.Debts, &debt.GuarantorDebt{
			ID:                 d.ID,
			GuarantorID:        d.GuarantorID,
			OriginalBorrowerID: d.OriginalBorrowerID,
			OriginalLoanID:     d.OriginalLoanID,
			Amount:             d.Amount,
			PaymentType:        debt.PaymentType(d.PaymentType),
			DueDate:            d.DueDate,
			InstallmentAmount:  d.InstallmentAmount,
			InstallmentDates:   d.InstallmentDates,
			Payments:           payments,
			TransferDate:       d.TransferDate,
			Status:             debt.Status(d.Status),
			Notes:              d.Notes,
		})
	}
	for _, e := range s.BlacklistEntries {
		l.BlacklistEntries = append(l.BlacklistEntries, &blacklist.Entry{
			ID:            e.ID,
			Type:          blacklist.SubjectType(e.Type),
			PersonID:      e.PersonID,
			Reason:        e.Reason,
			BlockedDate:   e.BlockedDate,
			BlockedBy:     e.BlockedBy,
			IsActive:      e.IsActive,
			RemovedDate:   e.RemovedDate,
			RemovedBy:     e.RemovedBy,
			RemovalReason: e.RemovalReason,
		})
	}
	return l
}
