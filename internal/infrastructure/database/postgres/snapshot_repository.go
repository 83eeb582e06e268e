package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gemach-ledger/internal/domain/blacklist"
	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/domain/loan"
	"gemach-ledger/internal/domain/party"
	"gemach-ledger/internal/domain/snapshot"
	"gemach-ledger/internal/pkg/apperrors"
)

type SnapshotRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ snapshot.Repository = (*SnapshotRepository)(nil)

func NewSnapshotRepository(db DBPool, logger *slog.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: db, logger: logger.With("component", "SnapshotRepository")}
}

// ExportLedger reads all collections inside a repeatable-read transaction so
// concurrent writes cannot tear the snapshot.
func (r *SnapshotRepository) ExportLedger(ctx context.Context) (*snapshot.Ledger, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin export transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SET TRANSACTION ISOLATION LEVEL REPEATABLE READ`); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	l := &snapshot.Ledger{}
	if l.Borrowers, err = exportBorrowers(ctx, tx); err != nil {
		return nil, err
	}
	if l.Guarantors, err = exportGuarantors(ctx, tx); err != nil {
		return nil, err
	}
	if l.Loans, err = exportLoans(ctx, tx); err != nil {
		return nil, err
	}
	if l.Debts, err = exportDebts(ctx, tx); err != nil {
		return nil, err
	}
	if l.BlacklistEntries, err = exportBlacklist(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

func exportBorrowers(ctx context.Context, tx pgx.Tx) ([]*party.Borrower, error) {
	rows, err := tx.Query(ctx, fmt.Sprintf(selectPersonSQL, "borrowers")+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var borrowers []*party.Borrower
	for rows.Next() {
		var b party.Borrower
		if err := rows.Scan(&b.ID, &b.Name, &b.Phone, &b.Email, &b.Address, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		borrowers = append(borrowers, &b)
	}
	return borrowers, rows.Err()
}

func exportGuarantors(ctx context.Context, tx pgx.Tx) ([]*party.Guarantor, error) {
	rows, err := tx.Query(ctx, fmt.Sprintf(selectPersonSQL, "guarantors")+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var guarantors []*party.Guarantor
	for rows.Next() {
		var g party.Guarantor
		if err := rows.Scan(&g.ID, &g.Name, &g.Phone, &g.Email, &g.Address, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		guarantors = append(guarantors, &g)
	}
	return guarantors, rows.Err()
}

func exportLoans(ctx context.Context, tx pgx.Tx) ([]*loan.Loan, error) {
	rows, err := tx.Query(ctx, selectLoanSQL+` ORDER BY loan_date`)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*loan.Loan)
	var loans []*loan.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		byID[l.ID] = l
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	payRows, err := tx.Query(ctx, selectLoanPaymentsSQL+` ORDER BY paid_date`)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer payRows.Close()

	for payRows.Next() {
		var p loan.Payment
		var owner uuid.UUID
		if err := payRows.Scan(&p.ID, &owner, &p.Amount, &p.Date, &p.Method); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		if l, ok := byID[owner]; ok {
			l.Payments = append(l.Payments, p)
		}
	}
	return loans, payRows.Err()
}

func exportDebts(ctx context.Context, tx pgx.Tx) ([]*debt.GuarantorDebt, error) {
	rows, err := tx.Query(ctx, selectDebtSQL+` ORDER BY transfer_date`)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*debt.GuarantorDebt)
	var debts []*debt.GuarantorDebt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		byID[d.ID] = d
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	payRows, err := tx.Query(ctx, selectDebtPaymentsSQL+` ORDER BY paid_date`)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer payRows.Close()

	for payRows.Next() {
		var p debt.Payment
		var owner uuid.UUID
		if err := payRows.Scan(&p.ID, &owner, &p.Amount, &p.Date, &p.Method); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		if d, ok := byID[owner]; ok {
			d.Payments = append(d.Payments, p)
		}
	}
	return debts, payRows.Err()
}

func exportBlacklist(ctx context.Context, tx pgx.Tx) ([]*blacklist.Entry, error) {
	rows, err := tx.Query(ctx, selectEntrySQL+` ORDER BY blocked_date`)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var entries []*blacklist.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceLedger deletes every collection and re-inserts the given ledger in
// one transaction. Child tables go first so foreign keys hold throughout.
func (r *SnapshotRepository) ReplaceLedger(ctx context.Context, l *snapshot.Ledger) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin import transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range []string{
		"debt_payments", "guarantor_debts", "loan_payments", "loans",
		"blacklist_entries", "borrowers", "guarantors",
	} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
			r.logger.ErrorContext(ctx, "Failed to clear table", "table", table, "error", err)
			return fmt.Errorf("%w: failed to clear %s: %w", apperrors.ErrDatabase, table, err)
		}
	}

	for _, b := range l.Borrowers {
		if _, err := tx.Exec(ctx, fmt.Sprintf(insertPersonSQL, "borrowers"),
			b.ID, b.Name, b.Phone, b.Email, b.Address, b.CreatedAt, b.UpdatedAt); err != nil {
			return fmt.Errorf("%w: failed to insert borrower %s: %w", apperrors.ErrDatabase, b.ID, err)
		}
	}
	for _, g := range l.Guarantors {
		if _, err := tx.Exec(ctx, fmt.Sprintf(insertPersonSQL, "guarantors"),
			g.ID, g.Name, g.Phone, g.Email, g.Address, g.CreatedAt, g.UpdatedAt); err != nil {
			return fmt.Errorf("%w: failed to insert guarantor %s: %w", apperrors.ErrDatabase, g.ID, err)
		}
	}
	if err := r.insertLoans(ctx, tx, l.Loans); err != nil {
		return err
	}
	if err := r.insertDebts(ctx, tx, l.Debts); err != nil {
		return err
	}
	for _, e := range l.BlacklistEntries {
		if _, err := tx.Exec(ctx, insertEntrySQL, entryArgs(e)...); err != nil {
			return fmt.Errorf("%w: failed to insert blacklist entry %s: %w", apperrors.ErrDatabase, e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit import transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	r.logger.InfoContext(ctx, "Ledger replaced",
		"borrowers", len(l.Borrowers), "guarantors", len(l.Guarantors),
		"loans", len(l.Loans), "debts", len(l.Debts), "blacklist_entries", len(l.BlacklistEntries))
	return nil
}

func (r *SnapshotRepository) insertLoans(ctx context.Context, tx pgx.Tx, loans []*loan.Loan) error {
	insertLoanSQL := `
		INSERT INTO loans (id, borrower_id, amount, loan_date, return_date, guarantor1_id, guarantor2_id,
		                   transferred_to_guarantors, transfer_date, transferred_by, transfer_notes,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	insertPaymentSQL := `
		INSERT INTO loan_payments (id, loan_id, amount, paid_date, method)
		VALUES ($1, $2, $3, $4, $5)`

	for _, l := range loans {
		if _, err := tx.Exec(ctx, insertLoanSQL,
			l.ID, l.BorrowerID, l.Amount, l.LoanDate, l.ReturnDate, l.Guarantor1ID, l.Guarantor2ID,
			l.TransferredToGuarantors, l.TransferDate, l.TransferredBy, l.TransferNotes,
			l.CreatedAt, l.UpdatedAt); err != nil {
			return fmt.Errorf("%w: failed to insert loan %s: %w", apperrors.ErrDatabase, l.ID, err)
		}
		for _, p := range l.Payments {
			if _, err := tx.Exec(ctx, insertPaymentSQL, p.ID, l.ID, p.Amount, p.Date, p.Method); err != nil {
				return fmt.Errorf("%w: failed to insert loan payment %s: %w", apperrors.ErrDatabase, p.ID, err)
			}
		}
	}
	return nil
}

func (r *SnapshotRepository) insertDebts(ctx context.Context, tx pgx.Tx, debts []*debt.GuarantorDebt) error {
	insertDebtSQL := `
		INSERT INTO guarantor_debts (id, guarantor_id, original_borrower_id, original_loan_id,
		                             amount, payment_type, due_date, installment_amount,
		                             installment_dates, transfer_date, status, notes,
		                             created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	insertPaymentSQL := `
		INSERT INTO debt_payments (id, debt_id, amount, paid_date, method)
		VALUES ($1, $2, $3, $4, $5)`

	for _, d := range debts {
		if _, err := tx.Exec(ctx, insertDebtSQL,
			d.ID, d.GuarantorID, d.OriginalBorrowerID, d.OriginalLoanID,
			d.Amount, d.PaymentType, d.DueDate, d.InstallmentAmount,
			d.InstallmentDates, d.TransferDate, d.Status, d.Notes,
			d.CreatedAt, d.UpdatedAt); err != nil {
			return fmt.Errorf("%w: failed to insert guarantor debt %s: %w", apperrors.ErrDatabase, d.ID, err)
		}
		for _, p := range d.Payments {
			if _, err := tx.Exec(ctx, insertPaymentSQL, p.ID, d.ID, p.Amount, p.Date, p.Method); err != nil {
				return fmt.Errorf("%w: failed to insert debt payment %s: %w", apperrors.ErrDatabase, p.ID, err)
			}
		}
	}
	return nil
}
