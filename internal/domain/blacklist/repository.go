package blacklist

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository interface {
	InsertEntry(ctx context.Context, e *Entry) error

	// InsertEntryInTx is used by the transfer engine so that the automatic
	// borrower block commits or rolls back together with the rest of the
	// transfer.
	InsertEntryInTx(ctx context.Context, tx pgx.Tx, e *Entry) error

	GetEntryByID(ctx context.Context, entryID uuid.UUID) (*Entry, error)

	// FindActiveEntry returns pgx.ErrNoRows when the subject has no active
	// entry.
	FindActiveEntry(ctx context.Context, t SubjectType, personID uuid.UUID) (*Entry, error)

	FindActiveEntryInTx(ctx context.Context, tx pgx.Tx, t SubjectType, personID uuid.UUID) (*Entry, error)

	GetActiveEntries(ctx context.Context) ([]*Entry, error)

	// Deactivate persists the removal fields of an already-flipped entry.
	// The block fields are never touched.
	Deactivate(ctx context.Context, e *Entry) error

	// GetHistory returns the audit trail most-recent-first. Nil filters
	// mean no restriction.
	GetHistory(ctx context.Context, t *SubjectType, personID *uuid.UUID) ([]*Entry, error)
}
