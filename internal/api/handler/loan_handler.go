package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gemach-ledger/internal/api/handler/dto"
	"gemach-ledger/internal/domain/loan"
	"gemach-ledger/internal/pkg/apperrors"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// CreateLoan handles the creation of a new loan.
//
// @Summary Create a new loan
// @Description Originates an interest-free loan for a registered borrower, optionally with up to two guarantors.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request payload"
// @Success 201 {object} dto.LoanResponse "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	borrowerID, _ := uuid.Parse(req.BorrowerID)
	amount, _ := decimal.NewFromString(req.Amount)
	loanDate, _ := time.Parse(time.RFC3339[:10], req.LoanDate)
	returnDate, _ := time.Parse(time.RFC3339[:10], req.ReturnDate)

	var g1, g2 *uuid.UUID
	if req.Guarantor1ID != nil {
		id, _ := uuid.Parse(*req.Guarantor1ID)
		g1 = &id
	}
	if req.Guarantor2ID != nil {
		id, _ := uuid.Parse(*req.Guarantor2ID)
		g2 = &id
	}

	createdLoan, err := h.service.OriginateLoan(r.Context(), borrowerID, amount, loanDate, returnDate, g1, g2)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(createdLoan))
}

// ListLoans returns every loan with payments and computed balance.
//
// @Summary List loans
// @Tags Loans
// @Produce json
// @Success 200 {array} dto.LoanResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]dto.LoanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, dto.NewLoanResponse(l))
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetLoan retrieves the details of a specific loan.
//
// @Summary Retrieve loan details
// @Tags Loans
// @Produce json
// @Param loanID path string true "Loan ID"
// @Success 200 {object} dto.LoanResponse "Loan details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuidFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(domainLoan))
}

// GetBalance retrieves the outstanding balance for a specific loan.
//
// @Summary Retrieve outstanding loan balance
// @Tags Loans
// @Produce json
// @Param loanID path string true "Loan ID"
// @Success 200 {object} dto.BalanceResponse "Balance successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/balance [get]
// @Security BearerAuth
func (h *LoanHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuidFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	balance, err := h.service.GetBalance(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.BalanceResponse{
		LoanID:  loanID.String(),
		Balance: balance.StringFixed(2),
	})
}

// ListOverdue returns the overdue worklist, most urgent first.
//
// @Summary List overdue loans
// @Description Builds the overdue worklist as of the given date (default today): untransferred loans past their return date with a positive balance, sorted by days overdue descending.
// @Tags Loans
// @Produce json
// @Param asOf query string false "Reference date (YYYY-MM-DD, default today)"
// @Success 200 {array} dto.OverdueLoanResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid asOf date"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/overdue [get]
// @Security BearerAuth
func (h *LoanHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if asOfParam := r.URL.Query().Get("asOf"); asOfParam != "" {
		parsed, err := time.Parse(time.RFC3339[:10], asOfParam)
		if err != nil {
			respondError(w, fmt.Errorf("%w: invalid asOf date format (use YYYY-MM-DD)", apperrors.ErrInvalidArgument))
			return
		}
		asOf = parsed
	}

	overdue, err := h.service.OverdueLoans(r.Context(), asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]dto.OverdueLoanResponse, 0, len(overdue))
	for _, ol := range overdue {
		resp = append(resp, dto.NewOverdueLoanResponse(ol))
	}
	respondJSON(w, http.StatusOK, resp)
}

// RecordPayment records a borrower payment against a loan.
//
// @Summary Record a loan payment
// @Description Appends a payment to the loan. Payments above the remaining balance are rejected.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path string true "Loan ID"
// @Param request body dto.RecordPaymentRequest true "Payment request payload"
// @Success 200 {object} dto.MessageResponse "Payment successfully recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID, request payload, or overpayment"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/payments [post]
// @Security BearerAuth
func (h *LoanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuidFromURL(r, "loanID")
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
	if err := h.service.RecordPayment(r.Context(), loanID, amount, req.PaymentDate(), req.Method); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.MessageResponse{Message: "Payment recorded"})
}
