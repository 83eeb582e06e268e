package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"gemach-ledger/internal/domain/party"
	"gemach-ledger/internal/pkg/apperrors"
)

type PartyRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ party.Repository = (*PartyRepository)(nil)

func NewPartyRepository(db DBPool, logger *slog.Logger) *PartyRepository {
	return &PartyRepository{db: db, logger: logger.With("component", "PartyRepository")}
}

const insertPersonSQL = `
	INSERT INTO %s (id, name, phone, email, address, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

const selectPersonSQL = `
	SELECT id, name, phone, email, address, created_at, updated_at
	FROM %s`

func (r *PartyRepository) SaveBorrower(ctx context.Context, b *party.Borrower) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(insertPersonSQL, "borrowers"),
		b.ID, b.Name, b.Phone, b.Email, b.Address, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert borrower", "error", err)
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *PartyRepository) FindBorrowerByID(ctx context.Context, id uuid.UUID) (*party.Borrower, error) {
	var b party.Borrower
	err := r.db.QueryRow(ctx, fmt.Sprintf(selectPersonSQL, "borrowers")+` WHERE id = $1`, id).Scan(
		&b.ID, &b.Name, &b.Phone, &b.Email, &b.Address, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PartyRepository) FindAllBorrowers(ctx context.Context) ([]*party.Borrower, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(selectPersonSQL, "borrowers")+` ORDER BY name`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query borrowers", "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var borrowers []*party.Borrower
	for rows.Next() {
		var b party.Borrower
		if err := rows.Scan(&b.ID, &b.Name, &b.Phone, &b.Email, &b.Address, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
		}
		borrowers = append(borrowers, &b)
	}
	return borrowers, rows.Err()
}

func (r *PartyRepository) SaveGuarantor(ctx context.Context, g *party.Guarantor) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(insertPersonSQL, "guarantors"),
		g.ID, g.Name, g.Phone, g.Email, g.Address, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert guarantor", "error", err)
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *PartyRepository) FindGuarantorByID(ctx context.Context, id uuid.UUID) (*party.Guarantor, error) {
	var g party.Guarantor
	err := r.db.QueryRow(ctx, fmt.Sprintf(selectPersonSQL, "guarantors")+` WHERE id = $1`, id).Scan(
		&g.ID, &g.Name, &g.Phone, &g.Email, &g.Address, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *PartyRepository) FindAllGuarantors(ctx context.Context) ([]*party.Guarantor, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(selectPersonSQL, "guarantors")+` ORDER BY name`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query guarantors", "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var guarantors []*party.Guarantor
	for rows.Next() {
		var g party.Guarantor
		if err := rows.Scan(&g.ID, &g.Name, &g.Phone, &g.Email, &g.Address, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
		}
		guarantors = append(guarantors, &g)
	}
	return guarantors, rows.Err()
}
