package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"gemach-ledger/internal/api/handler/dto"
	"gemach-ledger/internal/domain/party"
	"gemach-ledger/internal/pkg/apperrors"
)

type PartyHandler struct {
	service party.PartyService
	logger  *slog.Logger
}

func NewPartyHandler(s party.PartyService, l *slog.Logger) *PartyHandler {
	return &PartyHandler{
		service: s,
		logger:  l.With("component", "PartyHandler"),
	}
}

// RegisterBorrower creates a new borrower.
//
// @Summary Register a borrower
// @Tags Parties
// @Accept json
// @Produce json
// @Param request body dto.RegisterPersonRequest true "Borrower details"
// @Success 201 {object} dto.PersonResponse "Borrower successfully registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /borrowers [post]
// @Security BearerAuth
func (h *PartyHandler) RegisterBorrower(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterPersonRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	b, err := h.service.RegisterBorrower(r.Context(), req.Name, req.Phone, req.Email, req.Address)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewBorrowerResponse(b))
}

// ListBorrowers returns all borrowers.
//
// @Summary List borrowers
// @Tags Parties
// @Produce json
// @Success 200 {array} dto.PersonResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /borrowers [get]
// @Security BearerAuth
func (h *PartyHandler) ListBorrowers(w http.ResponseWriter, r *http.Request) {
	borrowers, err := h.service.ListBorrowers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]dto.PersonResponse, 0, len(borrowers))
	for _, b := range borrowers {
		resp = append(resp, dto.NewBorrowerResponse(b))
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetBorrower returns one borrower by id.
//
// @Summary Retrieve a borrower
// @Tags Parties
// @Produce json
// @Param borrowerID path string true "Borrower ID"
// @Success 200 {object} dto.PersonResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid borrower ID"
// @Failure 404 {object} dto.ErrorResponse "Borrower not found"
// @Router /borrowers/{borrowerID} [get]
// @Security BearerAuth
func (h *PartyHandler) GetBorrower(w http.ResponseWriter, r *http.Request) {
	id, err := uuidFromURL(r, "borrowerID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	b, err := h.service.GetBorrower(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBorrowerResponse(b))
}

// RegisterGuarantor creates a new guarantor.
//
// @Summary Register a guarantor
// @Tags Parties
// @Accept json
// @Produce json
// @Param request body dto.RegisterPersonRequest true "Guarantor details"
// @Success 201 {object} dto.PersonResponse "Guarantor successfully registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /guarantors [post]
// @Security BearerAuth
func (h *PartyHandler) RegisterGuarantor(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterPersonRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	g, err := h.service.RegisterGuarantor(r.Context(), req.Name, req.Phone, req.Email, req.Address)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewGuarantorResponse(g))
}

// ListGuarantors returns all guarantors.
//
// @Summary List guarantors
// @Tags Parties
// @Produce json
// @Success 200 {array} dto.PersonResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /guarantors [get]
// @Security BearerAuth
func (h *PartyHandler) ListGuarantors(w http.ResponseWriter, r *http.Request) {
	guarantors, err := h.service.ListGuarantors(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]dto.PersonResponse, 0, len(guarantors))
	for _, g := range guarantors {
		resp = append(resp, dto.NewGuarantorResponse(g))
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetGuarantor returns one guarantor by id.
//
// @Summary Retrieve a guarantor
// @Tags Parties
// @Produce json
// @Param guarantorID path string true "Guarantor ID"
// @Success 200 {object} dto.PersonResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid guarantor ID"
// @Failure 404 {object} dto.ErrorResponse "Guarantor not found"
// @Router /guarantors/{guarantorID} [get]
// @Security BearerAuth
func (h *PartyHandler) GetGuarantor(w http.ResponseWriter, r *http.Request) {
	id, err := uuidFromURL(r, "guarantorID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	g, err := h.service.GetGuarantor(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewGuarantorResponse(g))
}
