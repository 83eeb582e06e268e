package dto

import (
	"time"

	"gemach-ledger/internal/domain/debt"
)

type DebtResponse struct {
	ID                 string            `json:"id"`
	GuarantorID        string            `json:"guarantorId"`
	OriginalBorrowerID string            `json:"originalBorrowerId"`
	OriginalLoanID     string            `json:"originalLoanId"`
	Amount             string            `json:"amount"`
	Balance            string            `json:"balance"`
	PaymentType        string            `json:"paymentType"`
	DueDate            *string           `json:"dueDate,omitempty"`
	InstallmentAmount  *string           `json:"installmentAmount,omitempty"`
	InstallmentDates   []string          `json:"installmentDates,omitempty"`
	Payments           []PaymentResponse `json:"payments,omitempty"`
	TransferDate       time.Time         `json:"transferDate"`
	Status             string            `json:"status"`
	Notes              string            `json:"notes,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

type DebtBalanceResponse struct {
	DebtID  string `json:"debtId"`
	Balance string `json:"balance"`
}

func NewDebtResponse(d *debt.GuarantorDebt) DebtResponse {
	payments := make([]PaymentResponse, 0, len(d.Payments))
	for _, p := range d.Payments {
		payments = append(payments, PaymentResponse{
			ID:     p.ID.String(),
			Amount: p.Amount.StringFixed(2),
			Date:   p.Date,
			Method: p.Method,
		})
	}

	resp := DebtResponse{
		ID:                 d.ID.String(),
		GuarantorID:        d.GuarantorID.String(),
		OriginalBorrowerID: d.OriginalBorrowerID.String(),
		OriginalLoanID:     d.OriginalLoanID.String(),
		Amount:             d.Amount.StringFixed(2),
		Balance:            d.Balance().StringFixed(2),
		PaymentType:        string(d.PaymentType),
		Payments:           payments,
		TransferDate:       d.TransferDate,
		Status:             string(d.Status),
		Notes:              d.Notes,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	if d.DueDate != nil {
		due := d.DueDate.Format(dateLayout)
		resp.DueDate = &due
	}
	if d.InstallmentAmount != nil {
		amt := d.InstallmentAmount.StringFixed(2)
		resp.InstallmentAmount = &amt
	}
	for _, date := range d.InstallmentDates {
		resp.InstallmentDates = append(resp.InstallmentDates, date.Format(dateLayout))
	}
	return resp
}
