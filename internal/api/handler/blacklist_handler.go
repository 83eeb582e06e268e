package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"gemach-ledger/internal/api/handler/dto"
	mw "gemach-ledger/internal/api/middleware"
	"gemach-ledger/internal/domain/blacklist"
	"gemach-ledger/internal/pkg/apperrors"
)

type BlacklistHandler struct {
	registry    blacklist.Registry
	systemActor string
	logger      *slog.Logger
}

func NewBlacklistHandler(registry blacklist.Registry, systemActor string, l *slog.Logger) *BlacklistHandler {
	return &BlacklistHandler{
		registry:    registry,
		systemActor: systemActor,
		logger:      l.With("component", "BlacklistHandler"),
	}
}

// ListActive returns all active blacklist entries.
//
// @Summary List active blacklist entries
// @Tags Blacklist
// @Produce json
// @Success 200 {array} dto.BlacklistEntryResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /blacklist [get]
// @Security BearerAuth
func (h *BlacklistHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	entries, err := h.registry.ActiveEntries(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]dto.BlacklistEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.NewBlacklistEntryResponse(e))
	}
	respondJSON(w, http.StatusOK, resp)
}

// History returns the append-only audit trail, optionally filtered.
//
// @Summary Blacklist audit history
// @Tags Blacklist
// @Produce json
// @Param type query string false "Subject type filter (borrower or guarantor)"
// @Param personId query string false "Person ID filter"
// @Success 200 {array} dto.BlacklistEntryResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /blacklist/history [get]
// @Security BearerAuth
func (h *BlacklistHandler) History(w http.ResponseWriter, r *http.Request) {
	var (
		subjectType *blacklist.SubjectType
		personID    *uuid.UUID
	)
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		t := blacklist.SubjectType(typeParam)
		if !t.Valid() {
			respondError(w, fmt.Errorf("%w: unknown subject type %q", apperrors.ErrInvalidArgument, typeParam))
			return
		}
		subjectType = &t
	}
	if idParam := r.URL.Query().Get("personId"); idParam != "" {
		id, err := uuid.Parse(idParam)
		if err != nil {
			respondError(w, fmt.Errorf("%w: invalid personId: %v", apperrors.ErrInvalidArgument, err))
			return
		}
		personID = &id
	}

	entries, err := h.registry.History(r.Context(), subjectType, personID)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]dto.BlacklistEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.NewBlacklistEntryResponse(e))
	}
	respondJSON(w, http.StatusOK, resp)
}

// Block adds a person to the blacklist.
//
// @Summary Block a borrower or guarantor
// @Tags Blacklist
// @Accept json
// @Produce json
// @Param request body dto.BlockRequest true "Subject and reason"
// @Success 201 {object} dto.BlacklistEntryResponse "Entry created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 409 {object} dto.ErrorResponse "Subject already blocked"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /blacklist [post]
// @Security BearerAuth
func (h *BlacklistHandler) Block(w http.ResponseWriter, r *http.Request) {
	var req dto.BlockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	personID, _ := uuid.Parse(req.PersonID)
	actor := mw.ActorFromRequest(r, h.systemActor)
	entry, err := h.registry.Block(r.Context(), blacklist.SubjectType(req.Type), personID, req.Reason, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewBlacklistEntryResponse(entry))
}

// Unblock deactivates an active blacklist entry.
//
// @Summary Unblock a blacklist entry
// @Description Flips the entry inactive and records who removed it and why. The original block fields stay in the audit trail.
// @Tags Blacklist
// @Accept json
// @Produce json
// @Param entryID path string true "Blacklist entry ID"
// @Param request body dto.UnblockRequest true "Removal reason"
// @Success 200 {object} dto.BlacklistEntryResponse "Entry deactivated"
// @Failure 400 {object} dto.ErrorResponse "Invalid entry ID or request payload"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Entry is not active"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /blacklist/{entryID}/unblock [post]
// @Security BearerAuth
func (h *BlacklistHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuidFromURL(r, "entryID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.UnblockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	actor := mw.ActorFromRequest(r, h.systemActor)
	entry, err := h.registry.Unblock(r.Context(), entryID, req.Reason, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBlacklistEntryResponse(entry))
}
