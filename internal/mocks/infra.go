package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/internal/lock"
)

type MockLoanCache struct {
	mock.Mock
}

func (m *MockLoanCache) Get(ctx context.Context, loanID string) (*domain.Loan, bool, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Loan), args.Bool(1), args.Error(2)
}

func (m *MockLoanCache) Set(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanCache) Invalidate(ctx context.Context, loanID string) error {
	args := m.Called(ctx, loanID)
	return args.Error(0)
}

// MockLocker records Lock calls. Unlocks counts released locks.
type MockLocker struct {
	mock.Mock
	Unlocks int
}

func (m *MockLocker) Lock(ctx context.Context, key string) (lock.Unlock, error) {
	args := m.Called(ctx, key)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func() { m.Unlocks++ }, nil
}
