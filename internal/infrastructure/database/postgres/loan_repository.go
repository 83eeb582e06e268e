package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gemach-ledger/internal/domain/loan"
	"gemach-ledger/internal/pkg/apperrors"
)

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

var errMsgFormat = "%w: %w"

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

const selectLoanSQL = `
	SELECT id, borrower_id, amount, loan_date, return_date, guarantor1_id, guarantor2_id,
	       transferred_to_guarantors, transfer_date, transferred_by, transfer_notes,
	       created_at, updated_at
	FROM loans`

const selectLoanPaymentsSQL = `
	SELECT id, loan_id, amount, paid_date, method
	FROM loan_payments`

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.BorrowerID, &l.Amount, &l.LoanDate, &l.ReturnDate, &l.Guarantor1ID, &l.Guarantor2ID,
		&l.TransferredToGuarantors, &l.TransferDate, &l.TransferredBy, &l.TransferNotes,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) CreateLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	insertSQL := `
		INSERT INTO loans (id, borrower_id, amount, loan_date, return_date, guarantor1_id, guarantor2_id,
		                   transferred_to_guarantors, transfer_date, transferred_by, transfer_notes,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, insertSQL,
		l.ID, l.BorrowerID, l.Amount, l.LoanDate, l.ReturnDate, l.Guarantor1ID, l.Guarantor2ID,
		l.TransferredToGuarantors, l.TransferDate, l.TransferredBy, l.TransferNotes,
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}
	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", l.ID)
	return l, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID uuid.UUID) (*loan.Loan, error) {
	l, err := scanLoan(r.db.QueryRow(ctx, selectLoanSQL+` WHERE id = $1`, loanID))
	if err != nil {
		return nil, err
	}

	payments, err := r.loadPayments(ctx, loanID)
	if err != nil {
		return nil, err
	}
	l.Payments = payments
	return l, nil
}

func (r *LoanRepository) loadPayments(ctx context.Context, loanID uuid.UUID) ([]loan.Payment, error) {
	rows, err := r.db.Query(ctx, selectLoanPaymentsSQL+` WHERE loan_id = $1 ORDER BY paid_date`, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query loan payments: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var payments []loan.Payment
	for rows.Next() {
		var p loan.Payment
		var owner uuid.UUID
		if err := rows.Scan(&p.ID, &owner, &p.Amount, &p.Date, &p.Method); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *LoanRepository) getLoans(ctx context.Context, whereSQL string) ([]*loan.Loan, error) {
	rows, err := r.db.Query(ctx, selectLoanSQL+whereSQL)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans", "error", err)
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

	payRows, err := r.db.Query(ctx, selectLoanPaymentsSQL+` ORDER BY paid_date`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query loan payments: %w", apperrors.ErrDatabase, err)
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

func (r *LoanRepository) GetAllLoans(ctx context.Context) ([]*loan.Loan, error) {
	return r.getLoans(ctx, ` ORDER BY loan_date DESC`)
}

func (r *LoanRepository) GetUntransferredLoans(ctx context.Context) ([]*loan.Loan, error) {
	return r.getLoans(ctx, ` WHERE transferred_to_guarantors = FALSE ORDER BY return_date`)
}

func (r *LoanRepository) AddPayment(ctx context.Context, loanID uuid.UUID, p loan.Payment) error {
	insertSQL := `
		INSERT INTO loan_payments (id, loan_id, amount, paid_date, method)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, insertSQL, p.ID, loanID, p.Amount, p.Date, p.Method)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan payment", "loan_id", loanID, "error", err)
		return fmt.Errorf("%w: failed to insert loan payment: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) GetLoanByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, loanID uuid.UUID) (*loan.Loan, error) {
	l, err := scanLoan(tx.QueryRow(ctx, selectLoanSQL+` WHERE id = $1 FOR UPDATE`, loanID))
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectLoanPaymentsSQL+` WHERE loan_id = $1 ORDER BY paid_date`, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query loan payments: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p loan.Payment
		var owner uuid.UUID
		if err := rows.Scan(&p.ID, &owner, &p.Amount, &p.Date, &p.Method); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		l.Payments = append(l.Payments, p)
	}
	return l, rows.Err()
}

func (r *LoanRepository) MarkTransferredInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	updateSQL := `
		UPDATE loans
		SET transferred_to_guarantors = $1,
		    transfer_date = $2,
		    transferred_by = $3,
		    transfer_notes = $4,
		    updated_at = $5
		WHERE id = $6`

	cmdTag, err := tx.Exec(ctx, updateSQL,
		l.TransferredToGuarantors, l.TransferDate, l.TransferredBy, l.TransferNotes, l.UpdatedAt, l.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark loan transferred", "loan_id", l.ID, "error", err)
		return fmt.Errorf("%w: failed to mark loan transferred: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: loan %s not found", apperrors.ErrNotFound, l.ID)
	}
	return nil
}
