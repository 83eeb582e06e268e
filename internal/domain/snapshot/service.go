package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gemach-ledger/internal/pkg/apperrors"
)

type SnapshotService interface {
	Export(ctx context.Context) (*Snapshot, error)

	// Import validates the snapshot and atomically replaces the whole
	// ledger with its contents.
	Import(ctx context.Context, s *Snapshot) error

	// ExportWorkbook renders the ledger as an xlsx workbook, one sheet per
	// collection.
	ExportWorkbook(ctx context.Context) ([]byte, error)
}

var _ SnapshotService = (*snapshotService)(nil)

type snapshotService struct {
	repo   Repository
	logger *slog.Logger
}

func NewSnapshotService(repo Repository, logger *slog.Logger) SnapshotService {
	if repo == nil {
		panic("snapshot repository cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &snapshotService{
		repo:   repo,
		logger: logger.With(slog.String("component", "snapshotService")),
	}
}

func (s *snapshotService) Export(ctx context.Context) (*Snapshot, error) {
	ledger, err := s.repo.ExportLedger(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to export ledger", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to export ledger: %v", apperrors.ErrInternalServer, err)
	}

	snap := FromLedger(ledger, time.Now())
	s.logger.InfoContext(ctx, "Ledger exported",
		"borrowers", len(snap.Borrowers),
		"guarantors", len(snap.Guarantors),
		"loans", len(snap.Loans),
		"debts", len(snap.GuarantorDebts),
		"blacklistEntries", len(snap.BlacklistEntries),
	)
	return snap, nil
}

func (s *snapshotService) Import(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return apperrors.NewValidationError("snapshot", "cannot be empty")
	}
	if err := snap.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Rejected invalid snapshot", slog.Any("error", err))
		return err
	}

	if err := s.repo.ReplaceLedger(ctx, snap.ToLedger()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to replace ledger", slog.Any("error", err))
		return fmt.Errorf("%w: failed to replace ledger: %v", apperrors.ErrInternalServer, err)
	}

	s.logger.InfoContext(ctx, "Ledger replaced from snapshot",
		"borrowers", len(snap.Borrowers),
		"guarantors", len(snap.Guarantors),
		"loans", len(snap.Loans),
		"debts", len(snap.GuarantorDebts),
		"blacklistEntries", len(snap.BlacklistEntries),
	)
	return nil
}

func (s *snapshotService) ExportWorkbook(ctx context.Context) ([]byte, error) {
	snap, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	data, err := BuildWorkbook(snap)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build ledger workbook", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to build ledger workbook: %v", apperrors.ErrInternalServer, err)
	}
	return data, nil
}
