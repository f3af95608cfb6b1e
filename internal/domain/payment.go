package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusRejected  PaymentStatus = "rejected"
)

// PaymentRequest is a borrower's claim that a payment was made. It only
// affects the loan once the lender confirms it.
type PaymentRequest struct {
	ID         string          `json:"id" db:"id"`
	LoanID     string          `json:"loan_id" db:"loan_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Status     PaymentStatus   `json:"status" db:"status"`
	CreatedAt  time.Time       `json:"timestamp" db:"created_at"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
}

type CreatePaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ConfirmPaymentResponse struct {
	Request *PaymentRequest `json:"request"`
	Loan    *Loan           `json:"loan"`
}
