package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/domain/loan"
	"gemach-ledger/internal/infrastructure/monitoring"
)

// StatusRefreshJob is the nightly reconciliation pass. It re-derives the
// cached status of every unpaid guarantor debt and logs the overdue loan
// worklist so operators see it without hitting the API.
type StatusRefreshJob struct {
	debtRepo    debt.Repository
	loanService loan.LoanService
	logger      *slog.Logger
}

func NewStatusRefreshJob(debtRepo debt.Repository, loanSvc loan.LoanService, logger *slog.Logger) *StatusRefreshJob {
	if debtRepo == nil || loanSvc == nil || logger == nil {
		panic("StatusRefreshJob dependencies cannot be nil")
	}
	return &StatusRefreshJob{
		debtRepo:    debtRepo,
		loanService: loanSvc,
		logger:      logger.With("job", "StatusRefresh"),
	}
}

func (j *StatusRefreshJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting nightly debt status refresh job.")

	debts, err := j.debtRepo.GetUnpaidDebts(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to load unpaid debts, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to load unpaid debts: %w", err)
	}
	j.logger.InfoContext(ctx, "Loaded unpaid debts.", slog.Int("count", len(debts)))

	var refreshed, overdue, errorCount int
	now := time.Now()
	for _, d := range debts {
		derived := d.DeriveStatus(now)
		if derived == debt.StatusOverdue {
			overdue++
		}
		if derived == d.Status {
			continue
		}

		logCtx := j.logger.With(slog.String("debtID", d.ID.String()))
		if err := j.debtRepo.UpdateStatus(ctx, d.ID, derived); err != nil {
			logCtx.ErrorContext(ctx, "Failed to refresh debt status", slog.Any("error", err))
			errorCount++
			continue
		}
		logCtx.InfoContext(ctx, "Debt status refreshed.",
			slog.String("old_status", string(d.Status)), slog.String("new_status", string(derived)))
		monitoring.Batch.DebtStatusRefreshedTotal.Inc()
		refreshed++
	}

	overdueLoans, err := j.loanService.OverdueLoans(ctx, now)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to build overdue loan worklist", slog.Any("error", err))
		errorCount++
	} else {
		for _, ol := range overdueLoans {
			j.logger.InfoContext(ctx, "Loan overdue.",
				slog.String("loanID", ol.Loan.ID.String()),
				slog.String("borrowerID", ol.Loan.BorrowerID.String()),
				slog.Int("days_overdue", ol.DaysOverdue),
				slog.String("balance", ol.Balance.String()),
				slog.String("severity", string(ol.Severity)))
		}
	}

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("unpaid_debts", len(debts)),
		slog.Int("statuses_refreshed", refreshed),
		slog.Int("debts_overdue", overdue),
		slog.Int("loans_overdue", len(overdueLoans)),
		slog.Int("errors_encountered", errorCount),
	)
	if errorCount > 0 {
		summaryLog.WarnContext(ctx, "Debt status refresh job finished with errors.")
		return fmt.Errorf("job completed with %d errors", errorCount)
	}
	summaryLog.InfoContext(ctx, "Debt status refresh job finished successfully.")
	return nil
}
