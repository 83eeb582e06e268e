package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"gemach-ledger/internal/api/handler/dto"
	mw "gemach-ledger/internal/api/middleware"
	"gemach-ledger/internal/domain/transfer"
	"gemach-ledger/internal/pkg/apperrors"
)

type TransferHandler struct {
	engine      transfer.Engine
	systemActor string
	logger      *slog.Logger
}

func NewTransferHandler(engine transfer.Engine, systemActor string, l *slog.Logger) *TransferHandler {
	return &TransferHandler{
		engine:      engine,
		systemActor: systemActor,
		logger:      l.With("component", "TransferHandler"),
	}
}

// Plan validates a transfer without committing it.
//
// @Summary Preview a guarantor transfer
// @Description Runs every commit-time check without mutating anything. With an empty allocations list the engine proposes an equal split of the current balance across the loan's guarantors instead.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param loanID path string true "Loan ID"
// @Param request body dto.TransferRequest true "Allocations and payment terms"
// @Success 200 {object} dto.PlanResponse "Transfer plan"
// @Failure 400 {object} dto.ErrorResponse "Validation failure (split mismatch, bad dates)"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan already transferred or guarantor blacklisted"
// @Router /loans/{loanID}/transfer/plan [post]
// @Security BearerAuth
func (h *TransferHandler) Plan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuidFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	// No allocations means "propose the equal split for me".
	if len(req.Allocations) == 0 {
		plan, err := h.engine.PlanEqualSplit(r.Context(), loanID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, dto.NewPlanResponse(plan))
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	plan, err := h.engine.Validate(r.Context(), loanID, req.ToAllocations(), req.ToTerms())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPlanResponse(plan))
}

// Commit performs the transfer atomically.
//
// @Summary Commit a guarantor transfer
// @Description Converts the loan's outstanding balance into guarantor debts, marks the loan transferred and blacklists the borrower, all in one transaction. Any failure leaves the ledger untouched.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param loanID path string true "Loan ID"
// @Param request body dto.TransferRequest true "Allocations and payment terms"
// @Success 200 {object} dto.TransferResultResponse "Transfer committed"
// @Failure 400 {object} dto.ErrorResponse "Validation failure (split mismatch, bad dates)"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan already transferred or guarantor blacklisted"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/transfer [post]
// @Security BearerAuth
func (h *TransferHandler) Commit(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuidFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	actor := mw.ActorFromRequest(r, h.systemActor)
	result, err := h.engine.Commit(r.Context(), loanID, req.ToAllocations(), req.ToTerms(), actor, req.Notes)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTransferResultResponse(result))
}
