package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gemach-ledger/internal/domain/blacklist"
	"gemach-ledger/internal/pkg/apperrors"
)

type BlacklistRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ blacklist.Repository = (*BlacklistRepository)(nil)

func NewBlacklistRepository(db DBPool, logger *slog.Logger) *BlacklistRepository {
	return &BlacklistRepository{db: db, logger: logger.With("component", "BlacklistRepository")}
}

const selectEntrySQL = `
	SELECT id, type, person_id, reason, blocked_date, blocked_by, is_active,
	       removed_date, removed_by, removal_reason, created_at, updated_at
	FROM blacklist_entries`

const insertEntrySQL = `
	INSERT INTO blacklist_entries (id, type, person_id, reason, blocked_date, blocked_by,
	                               is_active, removed_date, removed_by, removal_reason,
	                               created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func scanEntry(row pgx.Row) (*blacklist.Entry, error) {
	var e blacklist.Entry
	err := row.Scan(
		&e.ID, &e.Type, &e.PersonID, &e.Reason, &e.BlockedDate, &e.BlockedBy, &e.IsActive,
		&e.RemovedDate, &e.RemovedBy, &e.RemovalReason, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func entryArgs(e *blacklist.Entry) []any {
	return []any{
		e.ID, e.Type, e.PersonID, e.Reason, e.BlockedDate, e.BlockedBy,
		e.IsActive, e.RemovedDate, e.RemovedBy, e.RemovalReason,
		e.CreatedAt, e.UpdatedAt,
	}
}

func (r *BlacklistRepository) InsertEntry(ctx context.Context, e *blacklist.Entry) error {
	if _, err := r.db.Exec(ctx, insertEntrySQL, entryArgs(e)...); err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert blacklist entry", "person_id", e.PersonID, "error", err)
		return fmt.Errorf("%w: failed to insert blacklist entry: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *BlacklistRepository) InsertEntryInTx(ctx context.Context, tx pgx.Tx, e *blacklist.Entry) error {
	if _, err := tx.Exec(ctx, insertEntrySQL, entryArgs(e)...); err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert blacklist entry", "person_id", e.PersonID, "error", err)
		return fmt.Errorf("%w: failed to insert blacklist entry: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *BlacklistRepository) GetEntryByID(ctx context.Context, entryID uuid.UUID) (*blacklist.Entry, error) {
	return scanEntry(r.db.QueryRow(ctx, selectEntrySQL+` WHERE id = $1`, entryID))
}

func (r *BlacklistRepository) FindActiveEntry(ctx context.Context, t blacklist.SubjectType, personID uuid.UUID) (*blacklist.Entry, error) {
	return scanEntry(r.db.QueryRow(ctx,
		selectEntrySQL+` WHERE type = $1 AND person_id = $2 AND is_active`, t, personID))
}

func (r *BlacklistRepository) FindActiveEntryInTx(ctx context.Context, tx pgx.Tx, t blacklist.SubjectType, personID uuid.UUID) (*blacklist.Entry, error) {
	return scanEntry(tx.QueryRow(ctx,
		selectEntrySQL+` WHERE type = $1 AND person_id = $2 AND is_active`, t, personID))
}

func (r *BlacklistRepository) collectEntries(rows pgx.Rows) ([]*blacklist.Entry, error) {
	defer rows.Close()

	var entries []*blacklist.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return entries, nil
}

func (r *BlacklistRepository) GetActiveEntries(ctx context.Context) ([]*blacklist.Entry, error) {
	rows, err := r.db.Query(ctx, selectEntrySQL+` WHERE is_active ORDER BY blocked_date DESC`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query active blacklist entries", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return r.collectEntries(rows)
}

func (r *BlacklistRepository) Deactivate(ctx context.Context, e *blacklist.Entry) error {
	updateSQL := `
		UPDATE blacklist_entries
		SET is_active = FALSE,
		    removed_date = $1,
		    removed_by = $2,
		    removal_reason = $3,
		    updated_at = $4
		WHERE id = $5`

	cmdTag, err := r.db.Exec(ctx, updateSQL, e.RemovedDate, e.RemovedBy, e.RemovalReason, e.UpdatedAt, e.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to deactivate blacklist entry", "entry_id", e.ID, "error", err)
		return fmt.Errorf("%w: failed to deactivate blacklist entry: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: blacklist entry %s not found", apperrors.ErrNotFound, e.ID)
	}
	return nil
}

func (r *BlacklistRepository) GetHistory(ctx context.Context, t *blacklist.SubjectType, personID *uuid.UUID) ([]*blacklist.Entry, error) {
	var (
		conds []string
		args  []any
	)
	if t != nil {
		args = append(args, *t)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if personID != nil {
		args = append(args, *personID)
		conds = append(conds, fmt.Sprintf("person_id = $%d", len(args)))
	}

	querySQL := selectEntrySQL
	if len(conds) > 0 {
		querySQL += ` WHERE ` + strings.Join(conds, " AND ")
	}
	querySQL += ` ORDER BY blocked_date DESC`

	rows, err := r.db.Query(ctx, querySQL, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query blacklist history", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return r.collectEntries(rows)
}
