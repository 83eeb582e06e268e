package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gemach-ledger/internal/api/handler/dto"
	"gemach-ledger/internal/domain/loan"
	"gemach-ledger/internal/pkg/apperrors"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) OriginateLoan(ctx context.Context, borrowerID uuid.UUID, amount decimal.Decimal, loanDate, returnDate time.Time, guarantor1ID, guarantor2ID *uuid.UUID) (*loan.Loan, error) {
	args := m.Called(ctx, borrowerID, amount, loanDate, returnDate, guarantor1ID, guarantor2ID)
	res, _ := args.Get(0).(*loan.Loan)
	return res, args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	res, _ := args.Get(0).(*loan.Loan)
	return res, args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context) ([]*loan.Loan, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]*loan.Loan)
	return res, args.Error(1)
}

func (m *MockLoanService) GetBalance(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, loanID)
	res, _ := args.Get(0).(decimal.Decimal)
	return res, args.Error(1)
}

func (m *MockLoanService) OverdueLoans(ctx context.Context, asOf time.Time) ([]loan.OverdueLoan, error) {
	args := m.Called(ctx, asOf)
	res, _ := args.Get(0).([]loan.OverdueLoan)
	return res, args.Error(1)
}

func (m *MockLoanService) RecordPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, date time.Time, method string) error {
	return m.Called(ctx, loanID, amount, date, method).Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{Keys: []string{key}, Values: []string{value}},
	}))
}

func sampleLoan() *loan.Loan {
	guarantorID := uuid.New()
	return &loan.Loan{
		ID:           uuid.New(),
		BorrowerID:   uuid.New(),
		Amount:       decimal.NewFromInt(3000),
		LoanDate:     time.Now().AddDate(0, -3, 0),
		ReturnDate:   time.Now().AddDate(0, 3, 0),
		Guarantor1ID: &guarantorID,
	}
}

func TestLoanHandlerGetLoan(t *testing.T) {
	mockService := new(MockLoanService)
	handler := NewLoanHandler(mockService, discardLogger())

	t.Run("successfully retrieves loan details", func(t *testing.T) {
		mockLoan := sampleLoan()
		mockService.On("GetLoan", mock.Anything, mockLoan.ID).Return(mockLoan, nil)

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/loans/"+mockLoan.ID.String(), nil), "loanID", mockLoan.ID.String())
		rec := httptest.NewRecorder()

		handler.GetLoan(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.LoanResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, mockLoan.ID.String(), resp.ID)
		assert.Equal(t, "3000.00", resp.Balance)
		mockService.AssertExpectations(t)
	})

	t.Run("returns error for invalid loan ID", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/loans/invalid", nil), "loanID", "invalid")
		rec := httptest.NewRecorder()

		handler.GetLoan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns error when loan not found", func(t *testing.T) {
		loanID := uuid.New()
		mockService.On("GetLoan", mock.Anything, loanID).Return(nil, apperrors.ErrNotFound)

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/loans/"+loanID.String(), nil), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.GetLoan(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var resp dto.ErrorResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Resource not found.", resp.Error.Message)
	})

	t.Run("returns internal server error for unexpected errors", func(t *testing.T) {
		loanID := uuid.New()
		mockService.On("GetLoan", mock.Anything, loanID).Return(nil, errors.New("unexpected error"))

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/loans/"+loanID.String(), nil), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.GetLoan(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp dto.ErrorResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "An unexpected error occurred.", resp.Error.Message)
	})
}

func TestLoanHandlerCreateLoan(t *testing.T) {
	t.Run("creates a loan", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, discardLogger())
		created := sampleLoan()
		mockService.On("OriginateLoan", mock.Anything, created.BorrowerID, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(created, nil)

		body, _ := json.Marshal(dto.CreateLoanRequest{
			BorrowerID: created.BorrowerID.String(),
			Amount:     "3000",
			LoanDate:   "2026-01-15",
			ReturnDate: "2026-07-15",
		})
		req := httptest.NewRequest(http.MethodPost, "/loans", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.CreateLoan(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.LoanResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, created.ID.String(), resp.ID)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects a malformed amount", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, discardLogger())

		body, _ := json.Marshal(dto.CreateLoanRequest{
			BorrowerID: uuid.NewString(),
			Amount:     "a lot",
			LoanDate:   "2026-01-15",
			ReturnDate: "2026-07-15",
		})
		req := httptest.NewRequest(http.MethodPost, "/loans", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.CreateLoan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "OriginateLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown fields in the payload", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/loans", bytes.NewReader([]byte(`{"borrowerId":"x","interestRate":"0.05"}`)))
		rec := httptest.NewRecorder()

		handler.CreateLoan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoanHandlerListOverdue(t *testing.T) {
	t.Run("returns the worklist", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, discardLogger())
		l := sampleLoan()
		l.ReturnDate = time.Now().AddDate(0, 0, -45)
		mockService.On("OverdueLoans", mock.Anything, mock.Anything).Return([]loan.OverdueLoan{{
			Loan:        l,
			DaysOverdue: 45,
			Balance:     decimal.NewFromInt(3000),
			Severity:    loan.SeverityHigh,
		}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/loans/overdue", nil)
		rec := httptest.NewRecorder()

		handler.ListOverdue(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp []dto.OverdueLoanResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp, 1)
		assert.Equal(t, 45, resp[0].DaysOverdue)
		assert.Equal(t, "high", resp[0].Severity)
		assert.Equal(t, "3000.00", resp[0].Balance)
	})

	t.Run("rejects a malformed asOf date", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/loans/overdue?asOf=yesterday", nil)
		rec := httptest.NewRecorder()

		handler.ListOverdue(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "OverdueLoans", mock.Anything, mock.Anything)
	})

	t.Run("passes an explicit asOf date through", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, discardLogger())
		asOf, _ := time.Parse("2006-01-02", "2026-06-01")
		mockService.On("OverdueLoans", mock.Anything, asOf).Return([]loan.OverdueLoan{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/loans/overdue?asOf=2026-06-01", nil)
		rec := httptest.NewRecorder()

		handler.ListOverdue(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestLoanHandlerRecordPayment(t *testing.T) {
	t.Run("records a payment", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, discardLogger())
		loanID := uuid.New()
		mockService.On("RecordPayment", mock.Anything, loanID, mock.Anything, mock.Anything, "cash").Return(nil)

		body, _ := json.Marshal(dto.RecordPaymentRequest{Amount: "500.00", Method: "cash"})
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/loans/"+loanID.String()+"/payments", bytes.NewReader(body)), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.RecordPayment(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("maps an overpayment to bad request", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, discardLogger())
		loanID := uuid.New()
		mockService.On("RecordPayment", mock.Anything, loanID, mock.Anything, mock.Anything, "").
			Return(apperrors.ErrOverPayment)

		body, _ := json.Marshal(dto.RecordPaymentRequest{Amount: "99999.00"})
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/loans/"+loanID.String()+"/payments", bytes.NewReader(body)), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.RecordPayment(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoanHandlerGetBalance(t *testing.T) {
	mockService := new(MockLoanService)
	handler := NewLoanHandler(mockService, discardLogger())
	loanID := uuid.New()
	mockService.On("GetBalance", mock.Anything, loanID).Return(decimal.NewFromFloat(1250.50), nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/loans/"+loanID.String()+"/balance", nil), "loanID", loanID.String())
	rec := httptest.NewRecorder()

	handler.GetBalance(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.BalanceResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "1250.50", resp.Balance)
	assert.Equal(t, loanID.String(), resp.LoanID)
}
