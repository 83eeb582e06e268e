package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"gemach-ledger/internal/api/handler/dto"
	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/pkg/apperrors"
)

type DebtHandler struct {
	service debt.DebtService
	logger  *slog.Logger
}

func NewDebtHandler(s debt.DebtService, l *slog.Logger) *DebtHandler {
	return &DebtHandler{
		service: s,
		logger:  l.With("component", "DebtHandler"),
	}
}

// ListDebts returns every guarantor debt.
//
// @Summary List guarantor debts
// @Tags Debts
// @Produce json
// @Success 200 {array} dto.DebtResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debts [get]
// @Security BearerAuth
func (h *DebtHandler) ListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.service.ListDebts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]dto.DebtResponse, 0, len(debts))
	for _, d := range debts {
		resp = append(resp, dto.NewDebtResponse(d))
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetDebt retrieves one guarantor debt.
//
// @Summary Retrieve a guarantor debt
// @Tags Debts
// @Produce json
// @Param debtID path string true "Debt ID"
// @Success 200 {object} dto.DebtResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid debt ID"
// @Failure 404 {object} dto.ErrorResponse "Debt not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debts/{debtID} [get]
// @Security BearerAuth
func (h *DebtHandler) GetDebt(w http.ResponseWriter, r *http.Request) {
	debtID, err := uuidFromURL(r, "debtID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	d, err := h.service.GetDebt(r.Context(), debtID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewDebtResponse(d))
}

// RecordPayment records a guarantor payment against a debt.
//
// @Summary Record a debt payment
// @Description Appends a payment to the guarantor debt and refreshes its cached status. Payments above the remaining balance are rejected.
// @Tags Debts
// @Accept json
// @Produce json
// @Param debtID path string true "Debt ID"
// @Param request body dto.RecordPaymentRequest true "Payment request payload"
// @Success 200 {object} dto.MessageResponse "Payment successfully recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid debt ID, request payload, or overpayment"
// @Failure 404 {object} dto.ErrorResponse "Debt not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debts/{debtID}/payments [post]
// @Security BearerAuth
func (h *DebtHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	debtID, err := uuidFromURL(r, "debtID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.RecordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	if err := h.service.RecordPayment(r.Context(), debtID, amount, req.PaymentDate(), req.Method); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.MessageResponse{Message: "Payment recorded"})
}
