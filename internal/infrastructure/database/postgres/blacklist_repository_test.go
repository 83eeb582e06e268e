package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemach-ledger/internal/domain/blacklist"
	"gemach-ledger/internal/pkg/apperrors"
)

var entryColumns = []string{
	"id", "type", "person_id", "reason", "blocked_date", "blocked_by", "is_active",
	"removed_date", "removed_by", "removal_reason", "created_at", "updated_at",
}

func setupBlacklistRepo(t *testing.T) (context.Context, *BlacklistRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	return context.Background(), NewBlacklistRepository(mockPool, logger), mockPool
}

func testEntry() *blacklist.Entry {
	now := time.Now().UTC()
	return &blacklist.Entry{
		ID:          uuid.New(),
		Type:        blacklist.SubjectGuarantor,
		PersonID:    uuid.New(),
		Reason:      "refused to honor guarantee",
		BlockedDate: now,
		BlockedBy:   "admin",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func entryRow(e *blacklist.Entry) *pgxmock.Rows {
	return pgxmock.NewRows(entryColumns).AddRow(
		e.ID, e.Type, e.PersonID, e.Reason, e.BlockedDate, e.BlockedBy, e.IsActive,
		e.RemovedDate, e.RemovedBy, e.RemovalReason, e.CreatedAt, e.UpdatedAt,
	)
}

func TestBlacklistRepositoryInsertEntry(t *testing.T) {
	ctx, repo, mockPool := setupBlacklistRepo(t)
	defer mockPool.Close()

	e := testEntry()
	mockPool.ExpectExec(regexp.QuoteMeta(`INSERT INTO blacklist_entries`)).
		WithArgs(entryArgs(e)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.InsertEntry(ctx, e))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestBlacklistRepositoryInsertEntryWhenDBFails(t *testing.T) {
	ctx, repo, mockPool := setupBlacklistRepo(t)
	defer mockPool.Close()

	e := testEntry()
	mockPool.ExpectExec(regexp.QuoteMeta(`INSERT INTO blacklist_entries`)).
		WithArgs(entryArgs(e)...).
		WillReturnError(errors.New(`duplicate key value violates unique constraint "blacklist_one_active"`))

	assert.ErrorIs(t, repo.InsertEntry(ctx, e), apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestBlacklistRepositoryFindActiveEntry(t *testing.T) {
	ctx, repo, mockPool := setupBlacklistRepo(t)
	defer mockPool.Close()

	e := testEntry()
	mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE type = $1 AND person_id = $2 AND is_active`)).
		WithArgs(e.Type, e.PersonID).
		WillReturnRows(entryRow(e))

	got, err := repo.FindActiveEntry(ctx, e.Type, e.PersonID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.True(t, got.IsActive)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestBlacklistRepositoryFindActiveEntryWhenNone(t *testing.T) {
	ctx, repo, mockPool := setupBlacklistRepo(t)
	defer mockPool.Close()

	personID := uuid.New()
	mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE type = $1 AND person_id = $2 AND is_active`)).
		WithArgs(blacklist.SubjectBorrower, personID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindActiveEntry(ctx, blacklist.SubjectBorrower, personID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestBlacklistRepositoryDeactivate(t *testing.T) {
	ctx, repo, mockPool := setupBlacklistRepo(t)
	defer mockPool.Close()

	e := testEntry()
	now := time.Now().UTC()
	e.IsActive = false
	e.RemovedDate = &now
	e.RemovedBy = "admin"
	e.RemovalReason = "debt settled"
	e.UpdatedAt = now

	mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE blacklist_entries`)).
		WithArgs(e.RemovedDate, e.RemovedBy, e.RemovalReason, e.UpdatedAt, e.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Deactivate(ctx, e))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestBlacklistRepositoryDeactivateWhenMissing(t *testing.T) {
	ctx, repo, mockPool := setupBlacklistRepo(t)
	defer mockPool.Close()

	e := testEntry()
	mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE blacklist_entries`)).
		WithArgs(e.RemovedDate, e.RemovedBy, e.RemovalReason, e.UpdatedAt, e.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Deactivate(ctx, e), apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestBlacklistRepositoryGetHistory(t *testing.T) {
	ctx, repo, mockPool := setupBlacklistRepo(t)
	defer mockPool.Close()

	e := testEntry()
	subjectType := e.Type

	t.Run("unfiltered", func(t *testing.T) {
		mockPool.ExpectQuery(regexp.QuoteMeta(`ORDER BY blocked_date DESC`)).
			WillReturnRows(entryRow(e))

		entries, err := repo.GetHistory(ctx, nil, nil)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("filtered by type and person", func(t *testing.T) {
		mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE type = $1 AND person_id = $2`)).
			WithArgs(subjectType, e.PersonID).
			WillReturnRows(entryRow(e))

		entries, err := repo.GetHistory(ctx, &subjectType, &e.PersonID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, e.PersonID, entries[0].PersonID)
	})

	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
