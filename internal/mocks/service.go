package mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/lending-engine/internal/domain"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) SaveLenderProfile(ctx context.Context, profile domain.LenderProfile) (*domain.LenderProfile, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LenderProfile), args.Error(1)
}

func (m *MockLoanService) GetLenderProfile(ctx context.Context) (*domain.LenderProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LenderProfile), args.Error(1)
}

func (m *MockLoanService) CreateLoan(ctx context.Context, req domain.CreateLoanRequest) (*domain.Loan, error) {
	args := m.Called(ctx, req)
	return loanResult(args)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	return loanResult(args)
}

func (m *MockLoanService) ListLoans(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanService) FindLoansByContact(ctx context.Context, phone string) ([]*domain.Loan, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanService) GetSchedule(ctx context.Context, loanID string) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockLoanService) GetOutstanding(ctx context.Context, loanID string) (*domain.OutstandingResponse, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutstandingResponse), args.Error(1)
}

func (m *MockLoanService) AcceptLoan(ctx context.Context, loanID string, req domain.AcceptLoanRequest) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, req)
	return loanResult(args)
}

func (m *MockLoanService) CancelLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	return loanResult(args)
}

func (m *MockLoanService) RateLoan(ctx context.Context, loanID string, req domain.RateLoanRequest) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, req)
	return loanResult(args)
}

func (m *MockLoanService) RequestPayment(ctx context.Context, loanID string, amount decimal.Decimal) (*domain.PaymentRequest, error) {
	args := m.Called(ctx, loanID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRequest), args.Error(1)
}

func (m *MockLoanService) ListPaymentRequests(ctx context.Context, loanID string) ([]*domain.PaymentRequest, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentRequest), args.Error(1)
}

func (m *MockLoanService) ConfirmPayment(ctx context.Context, requestID string) (*domain.ConfirmPaymentResponse, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConfirmPaymentResponse), args.Error(1)
}

func (m *MockLoanService) RejectPayment(ctx context.Context, requestID string) (*domain.PaymentRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRequest), args.Error(1)
}

func (m *MockLoanService) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteResponse), args.Error(1)
}

func (m *MockLoanService) MarkOverdue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockLoanService) UpcomingReminders(ctx context.Context, days int) ([]domain.Reminder, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reminder), args.Error(1)
}

func loanResult(args mock.Arguments) (*domain.Loan, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
