package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/domain/loan"
)

type MockDebtRepository struct {
	mock.Mock
}

func (m *MockDebtRepository) CreateDebtInTx(ctx context.Context, tx pgx.Tx, d *debt.GuarantorDebt) error {
	return m.Called(ctx, tx, d).Error(0)
}

func (m *MockDebtRepository) GetDebtByID(ctx context.Context, debtID uuid.UUID) (*debt.GuarantorDebt, error) {
	args := m.Called(ctx, debtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.GuarantorDebt), args.Error(1)
}

func (m *MockDebtRepository) GetAllDebts(ctx context.Context) ([]*debt.GuarantorDebt, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*debt.GuarantorDebt), args.Error(1)
}

func (m *MockDebtRepository) GetUnpaidDebts(ctx context.Context) ([]*debt.GuarantorDebt, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*debt.GuarantorDebt), args.Error(1)
}

func (m *MockDebtRepository) AddPayment(ctx context.Context, debtID uuid.UUID, p debt.Payment) error {
	return m.Called(ctx, debtID, p).Error(0)
}

func (m *MockDebtRepository) UpdateStatus(ctx context.Context, debtID uuid.UUID, status debt.Status) error {
	return m.Called(ctx, debtID, status).Error(0)
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) OriginateLoan(ctx context.Context, borrowerID uuid.UUID, amount decimal.Decimal, loanDate, returnDate time.Time, guarantor1ID, guarantor2ID *uuid.UUID) (*loan.Loan, error) {
	args := m.Called(ctx, borrowerID, amount, loanDate, returnDate, guarantor1ID, guarantor2ID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Loan), args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Loan), args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context) ([]*loan.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*loan.Loan), args.Error(1)
}

func (m *MockLoanService) GetBalance(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, loanID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLoanService) OverdueLoans(ctx context.Context, asOf time.Time) ([]loan.OverdueLoan, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loan.OverdueLoan), args.Error(1)
}

func (m *MockLoanService) RecordPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, date time.Time, method string) error {
	return m.Called(ctx, loanID, amount, date, method).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pastDebt(status debt.Status) *debt.GuarantorDebt {
	due := time.Now().AddDate(0, 0, -3)
	return &debt.GuarantorDebt{
		ID:          uuid.New(),
		GuarantorID: uuid.New(),
		Amount:      decimal.NewFromInt(1500),
		PaymentType: debt.PaymentTypeSingle,
		DueDate:     &due,
		Status:      status,
	}
}

func TestStatusRefreshJobRun(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes drifted statuses and reports overdue loans", func(t *testing.T) {
		mockRepo := new(MockDebtRepository)
		mockLoanSvc := new(MockLoanService)

		drifted := pastDebt(debt.StatusActive)
		current := pastDebt(debt.StatusOverdue)

		mockRepo.On("GetUnpaidDebts", ctx).Return([]*debt.GuarantorDebt{drifted, current}, nil).Once()
		mockRepo.On("UpdateStatus", ctx, drifted.ID, debt.StatusOverdue).Return(nil).Once()
		mockLoanSvc.On("OverdueLoans", ctx, mock.AnythingOfType("time.Time")).Return([]loan.OverdueLoan{}, nil).Once()

		job := NewStatusRefreshJob(mockRepo, mockLoanSvc, newTestLogger())
		err := job.Run(ctx)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockLoanSvc.AssertExpectations(t)
	})

	t.Run("aborts when unpaid debts cannot be loaded", func(t *testing.T) {
		mockRepo := new(MockDebtRepository)
		mockLoanSvc := new(MockLoanService)

		mockRepo.On("GetUnpaidDebts", ctx).Return(nil, errors.New("db down")).Once()

		job := NewStatusRefreshJob(mockRepo, mockLoanSvc, newTestLogger())
		err := job.Run(ctx)

		assert.Error(t, err)
		mockRepo.AssertExpectations(t)
		mockLoanSvc.AssertNotCalled(t, "OverdueLoans", mock.Anything, mock.Anything)
	})

	t.Run("counts update failures but keeps going", func(t *testing.T) {
		mockRepo := new(MockDebtRepository)
		mockLoanSvc := new(MockLoanService)

		first := pastDebt(debt.StatusActive)
		second := pastDebt(debt.StatusActive)

		mockRepo.On("GetUnpaidDebts", ctx).Return([]*debt.GuarantorDebt{first, second}, nil).Once()
		mockRepo.On("UpdateStatus", ctx, first.ID, debt.StatusOverdue).Return(errors.New("write failed")).Once()
		mockRepo.On("UpdateStatus", ctx, second.ID, debt.StatusOverdue).Return(nil).Once()
		mockLoanSvc.On("OverdueLoans", ctx, mock.AnythingOfType("time.Time")).Return([]loan.OverdueLoan{}, nil).Once()

		job := NewStatusRefreshJob(mockRepo, mockLoanSvc, newTestLogger())
		err := job.Run(ctx)

		assert.ErrorContains(t, err, "1 errors")
		mockRepo.AssertExpectations(t)
	})
}
