package repository

import (
	"context"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
)

// LoanRepository defines the interface for loan data operations. Loans are
// always read and written together with their schedule.
type LoanRepository interface {
	// Create stores a new loan and its schedule in one transaction
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan with its schedule
	GetByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// List returns loans newest first, optionally filtered by status
	List(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error)

	// FindByContact returns loans whose borrower contact ends with the given
	// normalized digits
	FindByContact(ctx context.Context, digits string) ([]*domain.Loan, error)

	// Update replaces the mutable loan fields and the whole schedule
	Update(ctx context.Context, loan *domain.Loan) error

	// UpdateWithPayment confirms a pending payment request and persists the
	// reconciled loan atomically. It fails with ErrPaymentAlreadyResolved if
	// the request is no longer pending.
	UpdateWithPayment(ctx context.Context, loan *domain.Loan, requestID string, resolvedAt time.Time) error
}

// PaymentRepository defines the interface for payment request operations
type PaymentRepository interface {
	// Create creates a new payment request
	Create(ctx context.Context, req *domain.PaymentRequest) error

	// GetByID retrieves a payment request
	GetByID(ctx context.Context, requestID string) (*domain.PaymentRequest, error)

	// ListByLoanID retrieves all payment requests of a loan, oldest first
	ListByLoanID(ctx context.Context, loanID string) ([]*domain.PaymentRequest, error)

	// Resolve moves a pending request to the given status. It fails with
	// ErrPaymentAlreadyResolved if the request is no longer pending.
	Resolve(ctx context.Context, requestID string, status domain.PaymentStatus, resolvedAt time.Time) error
}

// ProfileRepository stores the single lender profile
type ProfileRepository interface {
	Get(ctx context.Context) (*domain.LenderProfile, error)
	Save(ctx context.Context, profile *domain.LenderProfile) error
}
