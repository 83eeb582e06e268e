package loan

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository interface {
	CreateLoan(ctx context.Context, l *Loan) (*Loan, error)

	GetLoanByID(ctx context.Context, loanID uuid.UUID) (*Loan, error)

	// GetAllLoans returns every loan with its payments loaded.
	GetAllLoans(ctx context.Context) ([]*Loan, error)

	// GetUntransferredLoans returns loans whose balance may still be owed by
	// the original borrower, with payments loaded. Input to the overdue
	// detector.
	GetUntransferredLoans(ctx context.Context) ([]*Loan, error)

	AddPayment(ctx context.Context, loanID uuid.UUID, p Payment) error

	// GetLoanByIDForUpdateInTx locks the loan row for the duration of the
	// transaction. Two concurrent transfer commits on the same loan
	// serialize here.
	GetLoanByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, loanID uuid.UUID) (*Loan, error)

	MarkTransferredInTx(ctx context.Context, tx pgx.Tx, l *Loan) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
