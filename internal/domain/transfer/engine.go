package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"gemach-ledger/internal/domain/blacklist"
	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/domain/loan"
	"gemach-ledger/internal/event"
	"gemach-ledger/internal/infrastructure/monitoring"
	"gemach-ledger/internal/pkg/apperrors"
)

// Result reports a committed transfer.
type Result struct {
	LoanID         uuid.UUID
	CreatedDebtIDs []uuid.UUID
	Message        string
}

// Plan is the result of validating a transfer without committing it: the
// balance the allocations must cover and the debts that a commit with the
// same inputs would create.
type Plan struct {
	LoanID      uuid.UUID
	Balance     decimal.Decimal
	Allocations []Allocation
}

type Engine interface {
	// Validate runs every commit-time check except row locking, without
	// mutating anything. The wizard stages call this incrementally.
	Validate(ctx context.Context, loanID uuid.UUID, allocations []Allocation, terms PaymentTerms) (*Plan, error)

	// PlanEqualSplit computes the equal split of the loan's current balance
	// across its guarantors, first share absorbing the remainder.
	PlanEqualSplit(ctx context.Context, loanID uuid.UUID) (*Plan, error)

	// Commit converts the loan's outstanding balance into guarantor debts,
	// marks the loan transferred and blacklists the borrower, all in one
	// transaction. Any validation failure leaves the store untouched.
	Commit(ctx context.Context, loanID uuid.UUID, allocations []Allocation, terms PaymentTerms, actor, notes string) (*Result, error)
}

var _ Engine = (*engine)(nil)

type engine struct {
	loanRepo  loan.Repository
	debtRepo  debt.Repository
	blRepo    blacklist.Repository
	registry  blacklist.Registry
	publisher event.EventPublisher
	logger    *slog.Logger
}

// NewEngine wires the transfer engine. publisher may be nil; events are
// best-effort and never affect the commit outcome.
func NewEngine(
	loanRepo loan.Repository,
	debtRepo debt.Repository,
	blRepo blacklist.Repository,
	registry blacklist.Registry,
	publisher event.EventPublisher,
	logger *slog.Logger,
) Engine {
	if loanRepo == nil || debtRepo == nil || blRepo == nil || registry == nil {
		panic("transfer engine dependencies cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &engine{
		loanRepo:  loanRepo,
		debtRepo:  debtRepo,
		blRepo:    blRepo,
		registry:  registry,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "transferEngine")),
	}
}

func (e *engine) getLoan(ctx context.Context, loanID uuid.UUID) (*loan.Loan, error) {
	l, err := e.loanRepo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan %s not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: failed to load loan %s: %v", apperrors.ErrInternalServer, loanID, err)
	}
	return l, nil
}

func (e *engine) Validate(ctx context.Context, loanID uuid.UUID, allocations []Allocation, terms PaymentTerms) (*Plan, error) {
	l, err := e.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.TransferredToGuarantors {
		return nil, fmt.Errorf("%w: loan %s", apperrors.ErrAlreadyTransferred, loanID)
	}

	balance := l.Balance()
	if err := ValidateAllocations(allocations, balance); err != nil {
		return nil, err
	}
	if err := ValidateTerms(terms, time.Now()); err != nil {
		return nil, err
	}

	for _, a := range allocations {
		blocked, err := e.registry.IsBlocked(ctx, blacklist.SubjectGuarantor, a.GuarantorID)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrBlacklistedGuarantor, a.GuarantorID)
		}
	}

	return &Plan{LoanID: loanID, Balance: balance, Allocations: allocations}, nil
}

func (e *engine) PlanEqualSplit(ctx context.Context, loanID uuid.UUID) (*Plan, error) {
	l, err := e.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.TransferredToGuarantors {
		return nil, fmt.Errorf("%w: loan %s", apperrors.ErrAlreadyTransferred, loanID)
	}

	guarantors := l.Guarantors()
	if len(guarantors) == 0 {
		return nil, apperrors.NewValidationError("guarantors", "loan has no guarantors to split across")
	}

	balance := l.Balance()
	return &Plan{
		LoanID:      loanID,
		Balance:     balance,
		Allocations: EqualSplit(balance, guarantors),
	}, nil
}

func (e *engine) Commit(ctx context.Context, loanID uuid.UUID, allocations []Allocation, terms PaymentTerms, actor, notes string) (result *Result, err error) {
	logCtx := e.logger.With(slog.String("loanID", loanID.String()))
	logCtx.InfoContext(ctx, "Committing guarantor transfer", "allocations", len(allocations), "actor", actor)

	defer func() {
		status := "success"
		switch {
		case errors.Is(err, apperrors.ErrSplitMismatch):
			status = "failure_split_mismatch"
		case errors.Is(err, apperrors.ErrBlacklistedGuarantor):
			status = "failure_blacklisted_guarantor"
		case errors.Is(err, apperrors.ErrInvalidDate), errors.Is(err, apperrors.ErrValidation):
			status = "failure_validation"
		case errors.Is(err, apperrors.ErrAlreadyTransferred):
			status = "failure_already_transferred"
		case errors.Is(err, apperrors.ErrNotFound):
			status = "failure_not_found"
		case err != nil:
			status = "failure_internal"
		}
		monitoring.RecordTransferCommit(status)
	}()

	tx, err := e.loanRepo.BeginTx(ctx)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}

	defer func() {
		if p := recover(); p != nil {
			logCtx.ErrorContext(ctx, "Panic during transfer commit", slog.Any("error", p))
			_ = e.loanRepo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			logCtx.WarnContext(ctx, "Rolling back transfer", slog.Any("error", err))
			_ = e.loanRepo.RollbackTx(ctx, tx)
		}
	}()

	// Locks the loan row; a concurrent commit on the same loan waits here
	// and then fails the AlreadyTransferred check.
	l, err := e.loanRepo.GetLoanByIDForUpdateInTx(ctx, tx, loanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan %s not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: failed to load loan %s: %v", apperrors.ErrInternalServer, loanID, err)
	}
	if l.TransferredToGuarantors {
		return nil, fmt.Errorf("%w: loan %s", apperrors.ErrAlreadyTransferred, loanID)
	}

	now := time.Now()
	balance := l.Balance()
	if err = ValidateAllocations(allocations, balance); err != nil {
		return nil, err
	}
	if err = ValidateTerms(terms, now); err != nil {
		return nil, err
	}
	for _, a := range allocations {
		_, ferr := e.blRepo.FindActiveEntryInTx(ctx, tx, blacklist.SubjectGuarantor, a.GuarantorID)
		switch {
		case ferr == nil:
			err = fmt.Errorf("%w: %s", apperrors.ErrBlacklistedGuarantor, a.GuarantorID)
			return nil, err
		case errors.Is(ferr, pgx.ErrNoRows):
		default:
			err = fmt.Errorf("%w: failed to check guarantor blacklist: %v", apperrors.ErrInternalServer, ferr)
			return nil, err
		}
	}

	createdDebtIDs := make([]uuid.UUID, 0, len(allocations))
	for _, a := range allocations {
		d := &debt.GuarantorDebt{
			ID:                 uuid.New(),
			GuarantorID:        a.GuarantorID,
			OriginalBorrowerID: l.BorrowerID,
			OriginalLoanID:     l.ID,
			Amount:             a.Amount,
			PaymentType:        terms.Type,
			TransferDate:       now,
			Status:             debt.StatusActive,
			Notes:              notes,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		switch terms.Type {
		case debt.PaymentTypeSingle:
			due := *terms.DueDate
			d.DueDate = &due
		case debt.PaymentTypeInstallments:
			installment := InstallmentAmount(a.Amount, terms.InstallmentCount)
			d.InstallmentAmount = &installment
			d.InstallmentDates = append([]time.Time(nil), terms.InstallmentDates...)
		}

		if err = e.debtRepo.CreateDebtInTx(ctx, tx, d); err != nil {
			return nil, fmt.Errorf("%w: failed to create guarantor debt: %v", apperrors.ErrInternalServer, err)
		}
		createdDebtIDs = append(createdDebtIDs, d.ID)
	}

	l.TransferredToGuarantors = true
	l.TransferDate = &now
	l.TransferredBy = actor
	l.TransferNotes = notes
	l.UpdatedAt = now
	if err = e.loanRepo.MarkTransferredInTx(ctx, tx, l); err != nil {
		return nil, fmt.Errorf("%w: failed to mark loan transferred: %v", apperrors.ErrInternalServer, err)
	}

	// The borrower may already be blacklisted from an earlier default; that
	// must not fail the transfer.
	_, ferr := e.blRepo.FindActiveEntryInTx(ctx, tx, blacklist.SubjectBorrower, l.BorrowerID)
	switch {
	case errors.Is(ferr, pgx.ErrNoRows):
		entry := &blacklist.Entry{
			ID:          uuid.New(),
			Type:        blacklist.SubjectBorrower,
			PersonID:    l.BorrowerID,
			Reason:      fmt.Sprintf("Unpaid loan %s transferred to guarantors", l.ID),
			BlockedDate: now,
			BlockedBy:   actor,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err = e.blRepo.InsertEntryInTx(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("%w: failed to blacklist borrower: %v", apperrors.ErrInternalServer, err)
		}
	case ferr == nil:
		logCtx.InfoContext(ctx, "Borrower already blacklisted, skipping block", "borrowerID", l.BorrowerID)
	default:
		err = fmt.Errorf("%w: failed to check borrower blacklist: %v", apperrors.ErrInternalServer, ferr)
		return nil, err
	}

	if err = e.loanRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}

	e.registry.InvalidateCache(ctx, blacklist.SubjectBorrower, l.BorrowerID)
	monitoring.Transfer.DebtsCreatedTotal.Add(float64(len(createdDebtIDs)))
	logCtx.InfoContext(ctx, "Transfer committed", "debts", len(createdDebtIDs), "balance", balance)

	if e.publisher != nil {
		publishErr := e.publisher.PublishTransferCommitted(ctx, event.TransferCommittedEvent{
			LoanID:         l.ID,
			BorrowerID:     l.BorrowerID,
			CreatedDebtIDs: createdDebtIDs,
			Actor:          actor,
			Timestamp:      now,
		})
		if publishErr != nil {
			logCtx.WarnContext(ctx, "Failed to publish transfer event", slog.Any("error", publishErr))
		}
	}

	return &Result{
		LoanID:         l.ID,
		CreatedDebtIDs: createdDebtIDs,
		Message:        fmt.Sprintf("Loan balance %s transferred to %d guarantor(s)", balance, len(createdDebtIDs)),
	}, nil
}
