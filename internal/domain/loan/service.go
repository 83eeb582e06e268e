package loan

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
	"gemach-ledger/internal/domain/party"
	"gemach-ledger/internal/infrastructure/monitoring"
	"gemach-ledger/internal/pkg/apperrors"
)

type LoanService interface {
	OriginateLoan(ctx context.Context, borrowerID uuid.UUID, amount decimal.Decimal, loanDate, returnDate time.Time, guarantor1ID, guarantor2ID *uuid.UUID) (*Loan, error)

	GetLoan(ctx context.Context, loanID uuid.UUID) (*Loan, error)

	ListLoans(ctx context.Context) ([]*Loan, error)

	GetBalance(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error)

	// OverdueLoans produces the overdue worklist as of the given date,
	// most urgent first.
	OverdueLoans(ctx context.Context, asOf time.Time) ([]OverdueLoan, error)

	RecordPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, date time.Time, method string) error
}

var _ LoanService = (*loanService)(nil)

type loanService struct {
	repo         Repository
	partyService party.PartyService
	ledgerCfg    config.LedgerConfig
	logger       *slog.Logger
}

func NewLoanService(repo Repository, partyService party.PartyService, ledgerCfg config.LedgerConfig, logger *slog.Logger) LoanService {
	if repo == nil {
		panic("loan repository cannot be nil")
	}
	if partyService == nil {
		panic("party service cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &loanService{
		repo:         repo,
		partyService: partyService,
		ledgerCfg:    ledgerCfg,
		logger:       logger.With(slog.String("component", "loanService")),
	}
}

func (s *loanService) OriginateLoan(ctx context.Context, borrowerID uuid.UUID, amount decimal.Decimal, loanDate, returnDate time.Time, guarantor1ID, guarantor2ID *uuid.UUID) (*Loan, error) {
	s.logger.InfoContext(ctx, "Originating loan", "borrowerID", borrowerID)

	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError("amount", "must be positive")
	}
	if !returnDate.After(loanDate) {
		return nil, apperrors.NewValidationError("returnDate", "must be after loanDate")
	}

	if _, err := s.partyService.GetBorrower(ctx, borrowerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: borrower %s not found", apperrors.ErrValidation, borrowerID)
		}
		return nil, fmt.Errorf("failed to verify borrower: %w", err)
	}
	for _, gid := range []*uuid.UUID{guarantor1ID, guarantor2ID} {
		if gid == nil {
			continue
		}
		if _, err := s.partyService.GetGuarantor(ctx, *gid); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: guarantor %s not found", apperrors.ErrValidation, *gid)
			}
			return nil, fmt.Errorf("failed to verify guarantor: %w", err)
		}
	}

	now := time.Now()
	l := &Loan{
		ID:           uuid.New(),
		BorrowerID:   borrowerID,
		Amount:       amount,
		LoanDate:     loanDate,
		ReturnDate:   returnDate,
		Guarantor1ID: guarantor1ID,
		Guarantor2ID: guarantor2ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.CreateLoan(ctx, l)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save loan", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to save loan: %v", apperrors.ErrInternalServer, err)
	}

	s.logger.InfoContext(ctx, "Loan originated", "loanID", created.ID, "borrowerID", borrowerID)
	return created, nil
}

func (s *loanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*Loan, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan %s not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get loan %s: %v", apperrors.ErrInternalServer, loanID, err)
	}
	return l, nil
}

func (s *loanService) ListLoans(ctx context.Context) ([]*Loan, error) {
	loans, err := s.repo.GetAllLoans(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list loans: %v", apperrors.ErrInternalServer, err)
	}
	return loans, nil
}

func (s *loanService) GetBalance(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return decimal.Zero, err
	}
	return l.Balance(), nil
}

func (s *loanService) OverdueLoans(ctx context.Context, asOf time.Time) ([]OverdueLoan, error) {
	loans, err := s.repo.GetUntransferredLoans(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load loans for overdue detection", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to load loans: %v", apperrors.ErrInternalServer, err)
	}
	worklist := DetectOverdue(loans, asOf)
	s.logger.InfoContext(ctx, "Computed overdue worklist", "asOf", asOf, "count", len(worklist))
	return worklist, nil
}

func (s *loanService) RecordPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, date time.Time, method string) (err error) {
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
		monitoring.RecordPayment("loan", status)
	}()

	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", apperrors.ErrInvalidAmount, amount)
	}

	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return err
	}

	balance := l.Balance()
	if amount.GreaterThan(balance) {
		s.logger.WarnContext(ctx, "Rejected loan overpayment", "loanID", loanID, "amount", amount, "balance", balance)
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
	if err := s.repo.AddPayment(ctx, loanID, p); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record loan payment", "loanID", loanID, slog.Any("error", err))
		return fmt.Errorf("%w: failed to record payment: %v", apperrors.ErrInternalServer, err)
	}

	s.logger.InfoContext(ctx, "Loan payment recorded", "loanID", loanID, "amount", amount)
	return nil
}
