package debt

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository interface {
	// CreateDebtInTx inserts a new debt inside the caller's transaction.
	// The transfer engine is the only caller; debts are never created
	// outside a transfer commit.
	CreateDebtInTx(ctx context.Context, tx pgx.Tx, d *GuarantorDebt) error

	GetDebtByID(ctx context.Context, debtID uuid.UUID) (*GuarantorDebt, error)

	GetAllDebts(ctx context.Context) ([]*GuarantorDebt, error)

	// GetUnpaidDebts returns debts whose cached status is not paid, with
	// payments loaded. Input to the nightly status refresh.
	GetUnpaidDebts(ctx context.Context) ([]*GuarantorDebt, error)

	AddPayment(ctx context.Context, debtID uuid.UUID, p Payment) error

	UpdateStatus(ctx context.Context, debtID uuid.UUID, status Status) error
}
