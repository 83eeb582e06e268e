package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gemach-ledger/internal/api/handler/dto"
	"gemach-ledger/internal/domain/transfer"
	"gemach-ledger/internal/pkg/apperrors"
)

type MockTransferEngine struct {
	mock.Mock
}

func (m *MockTransferEngine) Validate(ctx context.Context, loanID uuid.UUID, allocations []transfer.Allocation, terms transfer.PaymentTerms) (*transfer.Plan, error) {
	args := m.Called(ctx, loanID, allocations, terms)
	res, _ := args.Get(0).(*transfer.Plan)
	return res, args.Error(1)
}

func (m *MockTransferEngine) PlanEqualSplit(ctx context.Context, loanID uuid.UUID) (*transfer.Plan, error) {
	args := m.Called(ctx, loanID)
	res, _ := args.Get(0).(*transfer.Plan)
	return res, args.Error(1)
}

func (m *MockTransferEngine) Commit(ctx context.Context, loanID uuid.UUID, allocations []transfer.Allocation, terms transfer.PaymentTerms, actor, notes string) (*transfer.Result, error) {
	args := m.Called(ctx, loanID, allocations, terms, actor, notes)
	res, _ := args.Get(0).(*transfer.Result)
	return res, args.Error(1)
}

func transferBody(t *testing.T, req dto.TransferRequest) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(req)
	assert.NoError(t, err)
	return bytes.NewReader(body)
}

func TestTransferHandlerPlan(t *testing.T) {
	t.Run("validates explicit allocations", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		handler := NewTransferHandler(mockEngine, "system", discardLogger())
		loanID := uuid.New()
		guarantorID := uuid.New()
		mockEngine.On("Validate", mock.Anything, loanID, mock.Anything, mock.Anything).Return(&transfer.Plan{
			LoanID:  loanID,
			Balance: decimal.NewFromInt(1800),
			Allocations: []transfer.Allocation{
				{GuarantorID: guarantorID, Amount: decimal.NewFromInt(1800)},
			},
		}, nil)

		body := transferBody(t, dto.TransferRequest{
			Allocations: []dto.AllocationRequest{{GuarantorID: guarantorID.String(), Amount: "1800.00"}},
			PaymentType: "single",
			DueDate:     time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		})
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/loans/"+loanID.String()+"/transfer/plan", body), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.Plan(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.PlanResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "1800.00", resp.Balance)
		assert.Len(t, resp.Allocations, 1)
		assert.Equal(t, guarantorID.String(), resp.Allocations[0].GuarantorID)
		mockEngine.AssertExpectations(t)
		mockEngine.AssertNotCalled(t, "PlanEqualSplit", mock.Anything, mock.Anything)
	})

	t.Run("proposes an equal split when allocations are omitted", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		handler := NewTransferHandler(mockEngine, "system", discardLogger())
		loanID := uuid.New()
		g1, g2 := uuid.New(), uuid.New()
		mockEngine.On("PlanEqualSplit", mock.Anything, loanID).Return(&transfer.Plan{
			LoanID:  loanID,
			Balance: decimal.RequireFromString("100.01"),
			Allocations: []transfer.Allocation{
				{GuarantorID: g1, Amount: decimal.RequireFromString("50.01")},
				{GuarantorID: g2, Amount: decimal.RequireFromString("50.00")},
			},
		}, nil)

		body := transferBody(t, dto.TransferRequest{PaymentType: "single"})
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/loans/"+loanID.String()+"/transfer/plan", body), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.Plan(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.PlanResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, []dto.AllocationResponse{
			{GuarantorID: g1.String(), Amount: "50.01"},
			{GuarantorID: g2.String(), Amount: "50.00"},
		}, resp.Allocations)
		mockEngine.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("maps a split mismatch to bad request", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		handler := NewTransferHandler(mockEngine, "system", discardLogger())
		loanID := uuid.New()
		mockEngine.On("Validate", mock.Anything, loanID, mock.Anything, mock.Anything).
			Return(nil, apperrors.ErrSplitMismatch)

		body := transferBody(t, dto.TransferRequest{
			Allocations: []dto.AllocationRequest{{GuarantorID: uuid.NewString(), Amount: "10.00"}},
			PaymentType: "single",
			DueDate:     time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		})
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/loans/"+loanID.String()+"/transfer/plan", body), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.Plan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an unknown payment type before reaching the engine", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		handler := NewTransferHandler(mockEngine, "system", discardLogger())
		loanID := uuid.New()

		body := transferBody(t, dto.TransferRequest{
			Allocations: []dto.AllocationRequest{{GuarantorID: uuid.NewString(), Amount: "10.00"}},
			PaymentType: "weekly",
		})
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/loans/"+loanID.String()+"/transfer/plan", body), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.Plan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockEngine.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTransferHandlerCommit(t *testing.T) {
	t.Run("commits the transfer as the fallback actor", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		handler := NewTransferHandler(mockEngine, "system", discardLogger())
		loanID := uuid.New()
		guarantorID := uuid.New()
		debtID := uuid.New()
		mockEngine.On("Commit", mock.Anything, loanID, mock.Anything, mock.Anything, "system", "borrower unreachable").
			Return(&transfer.Result{
				LoanID:         loanID,
				CreatedDebtIDs: []uuid.UUID{debtID},
				Message:        "Transfer committed",
			}, nil)

		body := transferBody(t, dto.TransferRequest{
			Allocations: []dto.AllocationRequest{{GuarantorID: guarantorID.String(), Amount: "1800.00"}},
			PaymentType: "single",
			DueDate:     time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
			Notes:       "borrower unreachable",
		})
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/loans/"+loanID.String()+"/transfer", body), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.Commit(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.TransferResultResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, loanID.String(), resp.LoanID)
		assert.Equal(t, []string{debtID.String()}, resp.CreatedDebtIDs)
		mockEngine.AssertExpectations(t)
	})

	t.Run("maps an already transferred loan to conflict", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		handler := NewTransferHandler(mockEngine, "system", discardLogger())
		loanID := uuid.New()
		mockEngine.On("Commit", mock.Anything, loanID, mock.Anything, mock.Anything, "system", "").
			Return(nil, apperrors.ErrAlreadyTransferred)

		body := transferBody(t, dto.TransferRequest{
			Allocations: []dto.AllocationRequest{{GuarantorID: uuid.NewString(), Amount: "1800.00"}},
			PaymentType: "single",
			DueDate:     time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		})
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/loans/"+loanID.String()+"/transfer", body), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.Commit(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("maps a blacklisted guarantor to conflict", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		handler := NewTransferHandler(mockEngine, "system", discardLogger())
		loanID := uuid.New()
		mockEngine.On("Commit", mock.Anything, loanID, mock.Anything, mock.Anything, "system", "").
			Return(nil, apperrors.ErrBlacklistedGuarantor)

		body := transferBody(t, dto.TransferRequest{
			Allocations: []dto.AllocationRequest{{GuarantorID: uuid.NewString(), Amount: "1800.00"}},
			PaymentType: "single",
			DueDate:     time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		})
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/loans/"+loanID.String()+"/transfer", body), "loanID", loanID.String())
		rec := httptest.NewRecorder()

		handler.Commit(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("returns error for invalid loan ID", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		handler := NewTransferHandler(mockEngine, "system", discardLogger())

		req := withURLParam(httptest.NewRequest(http.MethodPost, "/loans/invalid/transfer", transferBody(t, dto.TransferRequest{PaymentType: "single"})), "loanID", "invalid")
		rec := httptest.NewRecorder()

		handler.Commit(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockEngine.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
