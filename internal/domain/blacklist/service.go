package blacklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gemach-ledger/internal/event"
	"gemach-ledger/internal/infrastructure/monitoring"
	"gemach-ledger/internal/pkg/apperrors"
)

// ActiveCache is an optional read cache in front of IsBlocked lookups.
// Implementations must treat misses and errors the same way: report no hit
// and let the registry fall through to the store.
type ActiveCache interface {
	GetIsBlocked(ctx context.Context, t SubjectType, personID uuid.UUID) (blocked bool, hit bool)
	SetIsBlocked(ctx context.Context, t SubjectType, personID uuid.UUID, blocked bool)
	Invalidate(ctx context.Context, t SubjectType, personID uuid.UUID)
}

type Registry interface {
	IsBlocked(ctx context.Context, t SubjectType, personID uuid.UUID) (bool, error)

	Block(ctx context.Context, t SubjectType, personID uuid.UUID, reason, actor string) (*Entry, error)

	Unblock(ctx context.Context, entryID uuid.UUID, reason, actor string) (*Entry, error)

	ActiveEntries(ctx context.Context) ([]*Entry, error)

	History(ctx context.Context, t *SubjectType, personID *uuid.UUID) ([]*Entry, error)

	// InvalidateCache drops the cached IsBlocked answer for a subject.
	// Called by the transfer engine after it blocks a borrower inside its
	// own transaction.
	InvalidateCache(ctx context.Context, t SubjectType, personID uuid.UUID)
}

var _ Registry = (*registry)(nil)

type registry struct {
	repo      Repository
	cache     ActiveCache
	publisher event.EventPublisher
	logger    *slog.Logger
}

// NewRegistry wires the blacklist registry. cache may be nil, in which case
// every IsBlocked lookup goes to the store. publisher may be nil; events are
// best-effort either way.
func NewRegistry(repo Repository, cache ActiveCache, publisher event.EventPublisher, logger *slog.Logger) Registry {
	if repo == nil {
		panic("blacklist repository cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &registry{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "blacklistRegistry")),
	}
}

func (r *registry) IsBlocked(ctx context.Context, t SubjectType, personID uuid.UUID) (bool, error) {
	if !t.Valid() {
		return false, fmt.Errorf("%w: unknown subject type %q", apperrors.ErrInvalidArgument, t)
	}

	if r.cache != nil {
		if blocked, hit := r.cache.GetIsBlocked(ctx, t, personID); hit {
			return blocked, nil
		}
	}

	_, err := r.repo.FindActiveEntry(ctx, t, personID)
	switch {
	case err == nil:
		if r.cache != nil {
			r.cache.SetIsBlocked(ctx, t, personID, true)
		}
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		if r.cache != nil {
			r.cache.SetIsBlocked(ctx, t, personID, false)
		}
		return false, nil
	default:
		r.logger.ErrorContext(ctx, "Failed to look up active blacklist entry", "personID", personID, slog.Any("error", err))
		return false, fmt.Errorf("%w: failed to look up blacklist: %v", apperrors.ErrInternalServer, err)
	}
}

func (r *registry) Block(ctx context.Context, t SubjectType, personID uuid.UUID, reason, actor string) (entry *Entry, err error) {
	defer func() {
		status := "success"
		switch {
		case errors.Is(err, apperrors.ErrAlreadyBlocked):
			status = "failure_already_blocked"
		case err != nil:
			status = "failure_internal"
		}
		monitoring.RecordBlacklistOperation("block", status)
	}()

	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown subject type %q", apperrors.ErrInvalidArgument, t)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("reason", "cannot be empty")
	}

	blocked, err := r.IsBlocked(ctx, t, personID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, fmt.Errorf("%w: %s %s", apperrors.ErrAlreadyBlocked, t, personID)
	}

	now := time.Now()
	entry = &Entry{
		ID:          uuid.New(),
		Type:        t,
		PersonID:    personID,
		Reason:      strings.TrimSpace(reason),
		BlockedDate: now,
		BlockedBy:   actor,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = r.repo.InsertEntry(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert blacklist entry", "personID", personID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to insert blacklist entry: %v", apperrors.ErrInternalServer, err)
	}

	r.InvalidateCache(ctx, t, personID)
	if r.publisher != nil {
		if publishErr := r.publisher.PublishSubjectBlocked(ctx, event.SubjectBlockedEvent{
			EntryID:   entry.ID,
			Type:      string(t),
			PersonID:  personID,
			Reason:    entry.Reason,
			Actor:     actor,
			Timestamp: now,
		}); publishErr != nil {
			r.logger.WarnContext(ctx, "Failed to publish subject blocked event", "entryID", entry.ID, slog.Any("error", publishErr))
		}
	}
	r.logger.InfoContext(ctx, "Subject blocked", "type", t, "personID", personID, "entryID", entry.ID, "actor", actor)
	return entry, nil
}

func (r *registry) Unblock(ctx context.Context, entryID uuid.UUID, reason, actor string) (entry *Entry, err error) {
	defer func() {
		status := "success"
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			status = "failure_not_found"
		case errors.Is(err, apperrors.ErrNotActive):
			status = "failure_not_active"
		case err != nil:
			status = "failure_internal"
		}
		monitoring.RecordBlacklistOperation("unblock", status)
	}()

	entry, err = r.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: blacklist entry %s not found", apperrors.ErrNotFound, entryID)
		}
		r.logger.ErrorContext(ctx, "Failed to get blacklist entry", "entryID", entryID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get blacklist entry: %v", apperrors.ErrInternalServer, err)
	}
	if !entry.IsActive {
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotActive, entryID)
	}

	now := time.Now()
	entry.IsActive = false
	entry.RemovedDate = &now
	entry.RemovedBy = actor
	entry.RemovalReason = strings.TrimSpace(reason)
	entry.UpdatedAt = now

	if err = r.repo.Deactivate(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "Failed to deactivate blacklist entry", "entryID", entryID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to deactivate blacklist entry: %v", apperrors.ErrInternalServer, err)
	}

	r.InvalidateCache(ctx, entry.Type, entry.PersonID)
	if r.publisher != nil {
		if publishErr := r.publisher.PublishSubjectUnblocked(ctx, event.SubjectUnblockedEvent{
			EntryID:   entry.ID,
			Type:      string(entry.Type),
			PersonID:  entry.PersonID,
			Reason:    entry.RemovalReason,
			Actor:     actor,
			Timestamp: now,
		}); publishErr != nil {
			r.logger.WarnContext(ctx, "Failed to publish subject unblocked event", "entryID", entryID, slog.Any("error", publishErr))
		}
	}
	r.logger.InfoContext(ctx, "Subject unblocked", "type", entry.Type, "personID", entry.PersonID, "entryID", entryID, "actor", actor)
	return entry, nil
}

func (r *registry) ActiveEntries(ctx context.Context) ([]*Entry, error) {
	entries, err := r.repo.GetActiveEntries(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list active blacklist entries", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list active blacklist entries: %v", apperrors.ErrInternalServer, err)
	}
	return entries, nil
}

func (r *registry) History(ctx context.Context, t *SubjectType, personID *uuid.UUID) ([]*Entry, error) {
	if t != nil && !t.Valid() {
		return nil, fmt.Errorf("%w: unknown subject type %q", apperrors.ErrInvalidArgument, *t)
	}
	entries, err := r.repo.GetHistory(ctx, t, personID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load blacklist history", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to load blacklist history: %v", apperrors.ErrInternalServer, err)
	}
	return entries, nil
}

func (r *registry) InvalidateCache(ctx context.Context, t SubjectType, personID uuid.UUID) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, t, personID)
	}
}
