package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/domain/transfer"
)

type AllocationRequest struct {
	GuarantorID string `json:"guarantorId"`
	Amount      string `json:"amount"`
}

// TransferRequest carries the allocations and payment terms for a transfer
// commit or a dry-run validation. An empty allocations list asks the engine
// to propose an equal split instead.
type TransferRequest struct {
	Allocations      []AllocationRequest `json:"allocations"`
	PaymentType      string              `json:"paymentType"`
	DueDate          string              `json:"dueDate,omitempty"`
	InstallmentCount int                 `json:"installmentCount,omitempty"`
	InstallmentDates []string            `json:"installmentDates,omitempty"`
	Notes            string              `json:"notes,omitempty"`
}

func (r *TransferRequest) Validate() error {
	switch debt.PaymentType(r.PaymentType) {
	case debt.PaymentTypeSingle, debt.PaymentTypeInstallments:
	default:
		return fmt.Errorf("paymentType must be %q or %q", debt.PaymentTypeSingle, debt.PaymentTypeInstallments)
	}
	for _, a := range r.Allocations {
		if _, err := uuid.Parse(a.GuarantorID); err != nil {
			return fmt.Errorf("invalid guarantorId %q: %w", a.GuarantorID, err)
		}
		if _, err := decimal.NewFromString(a.Amount); err != nil {
			return fmt.Errorf("invalid allocation amount %q: %w", a.Amount, err)
		}
	}
	if r.DueDate != "" {
		if _, err := time.Parse(dateLayout, r.DueDate); err != nil {
			return fmt.Errorf("invalid dueDate format (use YYYY-MM-DD): %w", err)
		}
	}
	for _, d := range r.InstallmentDates {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return fmt.Errorf("invalid installment date %q (use YYYY-MM-DD): %w", d, err)
		}
	}
	return nil
}

// ToAllocations converts the request allocations; Validate must have passed.
func (r *TransferRequest) ToAllocations() []transfer.Allocation {
	allocations := make([]transfer.Allocation, 0, len(r.Allocations))
	for _, a := range r.Allocations {
		id, _ := uuid.Parse(a.GuarantorID)
		amount, _ := decimal.NewFromString(a.Amount)
		allocations = append(allocations, transfer.Allocation{GuarantorID: id, Amount: amount})
	}
	return allocations
}

func (r *TransferRequest) ToTerms() transfer.PaymentTerms {
	terms := transfer.PaymentTerms{
		Type:             debt.PaymentType(r.PaymentType),
		InstallmentCount: r.InstallmentCount,
	}
	if r.DueDate != "" {
		due, _ := time.Parse(dateLayout, r.DueDate)
		terms.DueDate = &due
	}
	for _, d := range r.InstallmentDates {
		date, _ := time.Parse(dateLayout, d)
		terms.InstallmentDates = append(terms.InstallmentDates, date)
	}
	return terms
}

type AllocationResponse struct {
	GuarantorID string `json:"guarantorId"`
	Amount      string `json:"amount"`
}

type PlanResponse struct {
	LoanID      string               `json:"loanId"`
	Balance     string               `json:"balance"`
	Allocations []AllocationResponse `json:"allocations"`
}

type TransferResultResponse struct {
	LoanID         string   `json:"loanId"`
	CreatedDebtIDs []string `json:"createdDebtIds"`
	Message        string   `json:"message"`
}

func NewPlanResponse(p *transfer.Plan) PlanResponse {
	allocations := make([]AllocationResponse, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		allocations = append(allocations, AllocationResponse{
			GuarantorID: a.GuarantorID.String(),
			Amount:      a.Amount.StringFixed(2),
		})
	}
	return PlanResponse{
		LoanID:      p.LoanID.String(),
		Balance:     p.Balance.StringFixed(2),
		Allocations: allocations,
	}
}

func NewTransferResultResponse(res *transfer.Result) TransferResultResponse {
	ids := make([]string, 0, len(res.CreatedDebtIDs))
	for _, id := range res.CreatedDebtIDs {
		ids = append(ids, id.String())
	}
	return TransferResultResponse{
		LoanID:         res.LoanID.String(),
		CreatedDebtIDs: ids,
		Message:        res.Message,
	}
}
