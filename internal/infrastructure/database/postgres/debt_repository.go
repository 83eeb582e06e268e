package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/pkg/apperrors"
)

type DebtRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ debt.Repository = (*DebtRepository)(nil)

func NewDebtRepository(db DBPool, logger *slog.Logger) *DebtRepository {
	return &DebtRepository{db: db, logger: logger.With("component", "DebtRepository")}
}

const selectDebtSQL = `
	SELECT id, guarantor_id, original_borrower_id, original_loan_id, amount, payment_type,
	       due_date, installment_amount, installment_dates, transfer_date, status, notes,
	       created_at, updated_at
	FROM guarantor_debts`

const selectDebtPaymentsSQL = `
	SELECT id, debt_id, amount, paid_date, method
	FROM debt_payments`

func scanDebt(row pgx.Row) (*debt.GuarantorDebt, error) {
	var d debt.GuarantorDebt
	err := row.Scan(
		&d.ID, &d.GuarantorID, &d.OriginalBorrowerID, &d.OriginalLoanID, &d.Amount, &d.PaymentType,
		&d.DueDate, &d.InstallmentAmount, &d.InstallmentDates, &d.TransferDate, &d.Status, &d.Notes,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DebtRepository) CreateDebtInTx(ctx context.Context, tx pgx.Tx, d *debt.GuarantorDebt) error {
	insertSQL := `
		INSERT INTO guarantor_debts (id, guarantor_id, original_borrower_id, original_loan_id,
		                             amount, payment_type, due_date, installment_amount,
		                             installment_dates, transfer_date, status, notes,
		                             created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := tx.Exec(ctx, insertSQL,
		d.ID, d.GuarantorID, d.OriginalBorrowerID, d.OriginalLoanID,
		d.Amount, d.PaymentType, d.DueDate, d.InstallmentAmount,
		d.InstallmentDates, d.TransferDate, d.Status, d.Notes,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert guarantor debt", "debt_id", d.ID, "error", err)
		return fmt.Errorf("%w: failed to insert guarantor debt: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *DebtRepository) GetDebtByID(ctx context.Context, debtID uuid.UUID) (*debt.GuarantorDebt, error) {
	d, err := scanDebt(r.db.QueryRow(ctx, selectDebtSQL+` WHERE id = $1`, debtID))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, selectDebtPaymentsSQL+` WHERE debt_id = $1 ORDER BY paid_date`, debtID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query debt payments: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p debt.Payment
		var owner uuid.UUID
		if err := rows.Scan(&p.ID, &owner, &p.Amount, &p.Date, &p.Method); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		d.Payments = append(d.Payments, p)
	}
	return d, rows.Err()
}

func (r *DebtRepository) getDebts(ctx context.Context, whereSQL string) ([]*debt.GuarantorDebt, error) {
	rows, err := r.db.Query(ctx, selectDebtSQL+whereSQL)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query guarantor debts", "error", err)
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

	payRows, err := r.db.Query(ctx, selectDebtPaymentsSQL+` ORDER BY paid_date`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query debt payments: %w", apperrors.ErrDatabase, err)
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

func (r *DebtRepository) GetAllDebts(ctx context.Context) ([]*debt.GuarantorDebt, error) {
	return r.getDebts(ctx, ` ORDER BY transfer_date DESC`)
}

func (r *DebtRepository) GetUnpaidDebts(ctx context.Context) ([]*debt.GuarantorDebt, error) {
	return r.getDebts(ctx, ` WHERE status <> 'paid' ORDER BY transfer_date`)
}

func (r *DebtRepository) AddPayment(ctx context.Context, debtID uuid.UUID, p debt.Payment) error {
	insertSQL := `
		INSERT INTO debt_payments (id, debt_id, amount, paid_date, method)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, insertSQL, p.ID, debtID, p.Amount, p.Date, p.Method)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert debt payment", "debt_id", debtID, "error", err)
		return fmt.Errorf("%w: failed to insert debt payment: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *DebtRepository) UpdateStatus(ctx context.Context, debtID uuid.UUID, status debt.Status) error {
	updateSQL := `
		UPDATE guarantor_debts
		SET status = $1, updated_at = now()
		WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, updateSQL, status, debtID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update debt status", "debt_id", debtID, "error", err)
		return fmt.Errorf("%w: failed to update debt status: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: guarantor debt %s not found", apperrors.ErrNotFound, debtID)
	}
	return nil
}
