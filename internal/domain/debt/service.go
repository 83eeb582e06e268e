package debt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"gemach-ledger/internal/config"
	"gemach-ledger/internal/infrastructure/monitoring"
	"gemach-ledger/internal/pkg/apperrors"
)

type DebtService interface {
	GetDebt(ctx context.Context, debtID uuid.UUID) (*GuarantorDebt, error)

	ListDebts(ctx context.Context) ([]*GuarantorDebt, error)

	GetBalance(ctx context.Context, debtID uuid.UUID) (decimal.Decimal, error)

	// RecordPayment appends a payment to the debt and refreshes the cached
	// status. Rejects non-positive amounts and payments exceeding the
	// remaining balance.
	RecordPayment(ctx context.Context, debtID uuid.UUID, amount decimal.Decimal, date time.Time, method string) error
}

var _ DebtService = (*debtService)(nil)

type debtService struct {
	repo      Repository
	ledgerCfg config.LedgerConfig
	logger    *slog.Logger
}

func NewDebtService(repo Repository, ledgerCfg config.LedgerConfig, logger *slog.Logger) DebtService {
	if repo == nil {
		panic("debt repository cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &debtService{
		repo:      repo,
		ledgerCfg: ledgerCfg,
		logger:    logger.With(slog.String("component", "debtService")),
	}
}

func (s *debtService) GetDebt(ctx context.Context, debtID uuid.UUID) (*GuarantorDebt, error) {
	d, err := s.repo.GetDebtByID(ctx, debtID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Guarantor debt not found", "debtID", debtID)
			return nil, fmt.Errorf("%w: guarantor debt %s not found", apperrors.ErrNotFound, debtID)
		}
		s.logger.ErrorContext(ctx, "Failed to get guarantor debt", "debtID", debtID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get guarantor debt %s: %v", apperrors.ErrInternalServer, debtID, err)
	}
	return d, nil
}

func (s *debtService) ListDebts(ctx context.Context) ([]*GuarantorDebt, error) {
	debts, err := s.repo.GetAllDebts(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list guarantor debts", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list guarantor debts: %v", apperrors.ErrInternalServer, err)
	}
	return debts, nil
}

func (s *debtService) GetBalance(ctx context.Context, debtID uuid.UUID) (decimal.Decimal, error) {
	d, err := s.GetDebt(ctx, debtID)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Balance(), nil
}

func (s *debtService) RecordPayment(ctx context.Context, debtID uuid.UUID, amount decimal.Decimal, date time.Time, method string) (err error) {
	defer func() {
		status := "success"
		switch {
		case errors.Is(err, apperrors.ErrInvalidAmount):
			status = "failure_amount"
		case errors.Is(err, apperrors.ErrOverPayment):
			status = "failure_overpayment"
		case err != nil:
			status = "failure_internal"
		}
		monitoring.RecordPayment("debt", status)
	}()

	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", apperrors.ErrInvalidAmount, amount)
	}

	d, err := s.GetDebt(ctx, debtID)
	if err != nil {
		return err
	}

	balance := d.Balance()
	if amount.GreaterThan(balance) {
		s.logger.WarnContext(ctx, "Rejected debt overpayment", "debtID", debtID, "amount", amount, "balance", balance)
		return fmt.Errorf("%w: %s exceeds balance %s", apperrors.ErrOverPayment, amount, balance)
	}

	if !s.ledgerCfg.TrackPaymentMethod {
		method = ""
	}

	p := Payment{
		ID:     uuid.New(),
		Amount: amount,
		Date:   date,
		Method: method,
	}
	if err := s.repo.AddPayment(ctx, debtID, p); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record debt payment", "debtID", debtID, slog.Any("error", err))
		return fmt.Errorf("%w: failed to record payment: %v", apperrors.ErrInternalServer, err)
	}

	d.Payments = append(d.Payments, p)
	derived := d.DeriveStatus(date)
	if derived != d.Status {
		if err := s.repo.UpdateStatus(ctx, debtID, derived); err != nil {
			s.logger.ErrorContext(ctx, "Failed to refresh cached debt status", "debtID", debtID, slog.Any("error", err))
			return fmt.Errorf("%w: failed to refresh debt status: %v", apperrors.ErrInternalServer, err)
		}
	}

	s.logger.InfoContext(ctx, "Debt payment recorded", "debtID", debtID, "amount", amount, "status", derived)
	return nil
}
