package party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gemach-ledger/internal/pkg/apperrors"
)

type PartyService interface {
	RegisterBorrower(ctx context.Context, name, phone, email, address string) (*Borrower, error)

	GetBorrower(ctx context.Context, id uuid.UUID) (*Borrower, error)

	ListBorrowers(ctx context.Context) ([]*Borrower, error)

	RegisterGuarantor(ctx context.Context, name, phone, email, address string) (*Guarantor, error)

	GetGuarantor(ctx context.Context, id uuid.UUID) (*Guarantor, error)

	ListGuarantors(ctx context.Context) ([]*Guarantor, error)
}

var _ PartyService = (*partyService)(nil)

type partyService struct {
	repo   Repository
	logger *slog.Logger
}

func NewPartyService(repo Repository, logger *slog.Logger) PartyService {
	if repo == nil {
		panic("party repository cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &partyService{
		repo:   repo,
		logger: logger.With(slog.String("component", "partyService")),
	}
}

func (s *partyService) RegisterBorrower(ctx context.Context, name, phone, email, address string) (*Borrower, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "cannot be empty")
	}

	now := time.Now()
	b := &Borrower{
		ID:        uuid.New(),
		Name:      name,
		Phone:     strings.TrimSpace(phone),
		Email:     strings.TrimSpace(email),
		Address:   strings.TrimSpace(address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.SaveBorrower(ctx, b); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save borrower", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save borrower: %w", err)
	}
	s.logger.InfoContext(ctx, "Borrower registered", "borrowerID", b.ID)
	return b, nil
}

func (s *partyService) GetBorrower(ctx context.Context, id uuid.UUID) (*Borrower, error) {
	b, err := s.repo.FindBorrowerByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: borrower %s not found", apperrors.ErrNotFound, id)
		}
		s.logger.ErrorContext(ctx, "Failed to get borrower", "borrowerID", id, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get borrower %s: %v", apperrors.ErrInternalServer, id, err)
	}
	return b, nil
}

func (s *partyService) ListBorrowers(ctx context.Context) ([]*Borrower, error) {
	borrowers, err := s.repo.FindAllBorrowers(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list borrowers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list borrowers: %v", apperrors.ErrInternalServer, err)
	}
	return borrowers, nil
}

func (s *partyService) RegisterGuarantor(ctx context.Context, name, phone, email, address string) (*Guarantor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "cannot be empty")
	}

	now := time.Now()
	g := &Guarantor{
		ID:        uuid.New(),
		Name:      name,
		Phone:     strings.TrimSpace(phone),
		Email:     strings.TrimSpace(email),
		Address:   strings.TrimSpace(address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.SaveGuarantor(ctx, g); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save guarantor", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save guarantor: %w", err)
	}
	s.logger.InfoContext(ctx, "Guarantor registered", "guarantorID", g.ID)
	return g, nil
}

func (s *partyService) GetGuarantor(ctx context.Context, id uuid.UUID) (*Guarantor, error) {
	g, err := s.repo.FindGuarantorByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: guarantor %s not found", apperrors.ErrNotFound, id)
		}
		s.logger.ErrorContext(ctx, "Failed to get guarantor", "guarantorID", id, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get guarantor %s: %v", apperrors.ErrInternalServer, id, err)
	}
	return g, nil
}

func (s *partyService) ListGuarantors(ctx context.Context) ([]*Guarantor, error) {
	guarantors, err := s.repo.FindAllGuarantors(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list guarantors", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list guarantors: %v", apperrors.ErrInternalServer, err)
	}
	return guarantors, nil
}
