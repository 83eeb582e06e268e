package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gemach-ledger/internal/api/handler/dto"
	"gemach-ledger/internal/domain/snapshot"
	"gemach-ledger/internal/pkg/apperrors"
)

type SnapshotHandler struct {
	service snapshot.SnapshotService
	logger  *slog.Logger
}

func NewSnapshotHandler(s snapshot.SnapshotService, l *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		service: s,
		logger:  l.With("component", "SnapshotHandler"),
	}
}

// Export returns the whole ledger as a JSON snapshot.
//
// @Summary Export the ledger
// @Description Dumps all five collections in one consistent document, suitable for re-import.
// @Tags Snapshot
// @Produce json
// @Success 200 {object} snapshot.Snapshot
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /snapshot [get]
// @Security BearerAuth
func (h *SnapshotHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Export(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Import replaces the whole ledger with the posted snapshot.
//
// @Summary Import a ledger snapshot
// @Description Validates the snapshot (ids, references, single active blacklist entry per subject) and atomically replaces every collection with its contents.
// @Tags Snapshot
// @Accept json
// @Produce json
// @Param request body snapshot.Snapshot true "Ledger snapshot"
// @Success 200 {object} dto.MessageResponse "Ledger replaced"
// @Failure 400 {object} dto.ErrorResponse "Invalid snapshot"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /snapshot [post]
// @Security BearerAuth
func (h *SnapshotHandler) Import(w http.ResponseWriter, r *http.Request) {
	var snap snapshot.Snapshot
	if err := decodeJSON(r, &snap); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.Import(r.Context(), &snap); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.MessageResponse{Message: "Ledger replaced from snapshot"})
}

// ExportWorkbook streams the ledger as an xlsx workbook.
//
// @Summary Export the ledger as a workbook
// @Description Renders one sheet per collection and streams the file.
// @Tags Snapshot
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "Workbook"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /snapshot/workbook [get]
// @Security BearerAuth
func (h *SnapshotHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportWorkbook(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	filename := fmt.Sprintf("gemach-ledger-%s.xlsx", time.Now().Format(time.RFC3339[:10]))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
