package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/lending-engine/internal/domain"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) List(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) FindByContact(ctx context.Context, digits string) ([]*domain.Loan, error) {
	args := m.Called(ctx, digits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateWithPayment(ctx context.Context, loan *domain.Loan, requestID string, resolvedAt time.Time) error {
	args := m.Called(ctx, loan, requestID, resolvedAt)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, req *domain.PaymentRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, requestID string) (*domain.PaymentRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]*domain.PaymentRequest, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRepository) Resolve(ctx context.Context, requestID string, status domain.PaymentStatus, resolvedAt time.Time) error {
	args := m.Called(ctx, requestID, status, resolvedAt)
	return args.Error(0)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Get(ctx context.Context) (*domain.LenderProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LenderProfile), args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, profile *domain.LenderProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}
