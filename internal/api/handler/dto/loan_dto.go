package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gemach-ledger/internal/domain/loan"
)

var dateLayout = time.RFC3339[:10]

type CreateLoanRequest struct {
	BorrowerID   string  `json:"borrowerId"`
	Amount       string  `json:"amount"`
	LoanDate     string  `json:"loanDate"`
	ReturnDate   string  `json:"returnDate"`
	Guarantor1ID *string `json:"guarantor1Id,omitempty"`
	Guarantor2ID *string `json:"guarantor2Id,omitempty"`
}

func (r *CreateLoanRequest) Validate() error {
	if _, err := uuid.Parse(r.BorrowerID); err != nil {
		return fmt.Errorf("invalid borrowerId: %w", err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if _, err := time.Parse(dateLayout, r.LoanDate); err != nil {
		return fmt.Errorf("invalid loanDate format (use YYYY-MM-DD): %w", err)
	}
	if _, err := time.Parse(dateLayout, r.ReturnDate); err != nil {
		return fmt.Errorf("invalid returnDate format (use YYYY-MM-DD): %w", err)
	}
	for _, gid := range []*string{r.Guarantor1ID, r.Guarantor2ID} {
		if gid == nil {
			continue
		}
		if _, err := uuid.Parse(*gid); err != nil {
			return fmt.Errorf("invalid guarantor id %q: %w", *gid, err)
		}
	}
	return nil
}

type RecordPaymentRequest struct {
	Amount string `json:"amount"`
	Date   string `json:"date,omitempty"`
	Method string `json:"method,omitempty"`
}

func (r *RecordPaymentRequest) Validate() error {
	if _, err := decimal.NewFromString(r.Amount); err != nil || r.Amount == "" {
		return fmt.Errorf("invalid payment amount: %w", err)
	}
	if r.Date != "" {
		if _, err := time.Parse(dateLayout, r.Date); err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

// PaymentDate returns the parsed date, defaulting to now when omitted.
func (r *RecordPaymentRequest) PaymentDate() time.Time {
	if r.Date == "" {
		return time.Now()
	}
	d, _ := time.Parse(dateLayout, r.Date)
	return d
}

type PaymentResponse struct {
	ID     string    `json:"id"`
	Amount string    `json:"amount"`
	Date   time.Time `json:"date"`
	Method string    `json:"method,omitempty"`
}

type LoanResponse struct {
	ID                      string            `json:"id"`
	BorrowerID              string            `json:"borrowerId"`
	Amount                  string            `json:"amount"`
	Balance                 string            `json:"balance"`
	LoanDate                string            `json:"loanDate"`
	ReturnDate              string            `json:"returnDate"`
	Guarantor1ID            *string           `json:"guarantor1Id,omitempty"`
	Guarantor2ID            *string           `json:"guarantor2Id,omitempty"`
	Payments                []PaymentResponse `json:"payments,omitempty"`
	TransferredToGuarantors bool              `json:"transferredToGuarantors"`
	TransferDate            *time.Time        `json:"transferDate,omitempty"`
	TransferredBy           string            `json:"transferredBy,omitempty"`
	TransferNotes           string            `json:"transferNotes,omitempty"`
	CreatedAt               time.Time         `json:"createdAt"`
	UpdatedAt               time.Time         `json:"updatedAt"`
}

type OverdueLoanResponse struct {
	Loan        LoanResponse `json:"loan"`
	DaysOverdue int          `json:"daysOverdue"`
	Balance     string       `json:"balance"`
	Severity    string       `json:"severity"`
}

type BalanceResponse struct {
	LoanID  string `json:"loanId"`
	Balance string `json:"balance"`
}

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	payments := make([]PaymentResponse, 0, len(l.Payments))
	for _, p := range l.Payments {
		payments = append(payments, PaymentResponse{
			ID:     p.ID.String(),
			Amount: p.Amount.StringFixed(2),
			Date:   p.Date,
			Method: p.Method,
		})
	}

	return LoanResponse{
		ID:                      l.ID.String(),
		BorrowerID:              l.BorrowerID.String(),
		Amount:                  l.Amount.StringFixed(2),
		Balance:                 l.Balance().StringFixed(2),
		LoanDate:                l.LoanDate.Format(dateLayout),
		ReturnDate:              l.ReturnDate.Format(dateLayout),
		Guarantor1ID:            uuidPtrToString(l.Guarantor1ID),
		Guarantor2ID:            uuidPtrToString(l.Guarantor2ID),
		Payments:                payments,
		TransferredToGuarantors: l.TransferredToGuarantors,
		TransferDate:            l.TransferDate,
		TransferredBy:           l.TransferredBy,
		TransferNotes:           l.TransferNotes,
		CreatedAt:               l.CreatedAt,
		UpdatedAt:               l.UpdatedAt,
	}
}

func NewOverdueLoanResponse(ol loan.OverdueLoan) OverdueLoanResponse {
	return OverdueLoanResponse{
		Loan:        NewLoanResponse(ol.Loan),
		DaysOverdue: ol.DaysOverdue,
		Balance:     ol.Balance.StringFixed(2),
		Severity:    string(ol.Severity),
	}
}
