package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusClosed    LoanStatus = "closed"
	LoanStatusCancelled LoanStatus = "cancelled"
)

// IsTerminal reports whether no further transition may leave the status.
func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusClosed || s == LoanStatusCancelled
}

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusPending, LoanStatusActive, LoanStatusClosed, LoanStatusCancelled:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyDaily   Frequency = "daily"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyMonthly, FrequencyWeekly, FrequencyDaily:
		return true
	}
	return false
}

// Loan represents a single lending agreement together with its schedule
type Loan struct {
	ID              string          `json:"id" db:"id"`
	BorrowerName    string          `json:"borrower_name" db:"borrower_name"`
	BorrowerContact string          `json:"borrower_contact" db:"borrower_contact"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	RatePercent     decimal.Decimal `json:"rate_percent" db:"rate_percent"`
	TermMonths      int             `json:"term_months" db:"term_months"`
	Frequency       Frequency       `json:"frequency" db:"frequency"`
	StartDate       time.Time       `json:"start_date" db:"start_date"`
	Status          LoanStatus      `json:"status" db:"status"`
	PeriodicPayment decimal.Decimal `json:"periodic_payment" db:"periodic_payment"`
	TotalRepayment  decimal.Decimal `json:"total_repayment" db:"total_repayment"`
	RemainingAmount decimal.Decimal `json:"remaining_amount" db:"remaining_amount"`
	Schedule        []ScheduleItem  `json:"schedule" db:"-"`

	BorrowerPassport string     `json:"borrower_passport,omitempty" db:"borrower_passport"`
	BorrowerAddress  string     `json:"borrower_address,omitempty" db:"borrower_address"`
	SignedAt         *time.Time `json:"signed_at,omitempty" db:"signed_at"`
	BorrowerRating   *int       `json:"borrower_rating,omitempty" db:"borrower_rating"`
	LenderRating     *int       `json:"lender_rating,omitempty" db:"lender_rating"`
	ClosedAt         *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy so callers can derive a new snapshot without
// touching the original.
func (l Loan) Clone() Loan {
	out := l
	if l.Schedule != nil {
		out.Schedule = make([]ScheduleItem, len(l.Schedule))
		for i, item := range l.Schedule {
			out.Schedule[i] = item.Clone()
		}
	}
	out.SignedAt = cloneTime(l.SignedAt)
	out.ClosedAt = cloneTime(l.ClosedAt)
	out.CancelledAt = cloneTime(l.CancelledAt)
	out.BorrowerRating = cloneInt(l.BorrowerRating)
	out.LenderRating = cloneInt(l.LenderRating)
	return out
}

// NextDue returns the index of the earliest unpaid installment, or -1.
func (l Loan) NextDue() int {
	return NextUnpaid(l.Schedule)
}

// NextUnpaid returns the index of the first upcoming or overdue item, or -1.
func NextUnpaid(items []ScheduleItem) int {
	for i, item := range items {
		if item.Status.Unpaid() {
			return i
		}
	}
	return -1
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

// LoanTerms is the input of the schedule generator
type LoanTerms struct {
	Amount      decimal.Decimal
	RatePercent decimal.Decimal
	TermMonths  int
	Frequency   Frequency
	StartDate   string
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	BorrowerName    string          `json:"borrower_name" validate:"required,max=200"`
	BorrowerContact string          `json:"borrower_contact" validate:"required,max=32"`
	Amount          decimal.Decimal `json:"amount"`
	RatePercent     decimal.Decimal `json:"rate_percent"`
	TermMonths      int             `json:"term_months" validate:"required,gt=0"`
	Frequency       Frequency       `json:"frequency" validate:"required,oneof=once monthly weekly daily"`
	StartDate       string          `json:"start_date" validate:"required"`
}

func (r CreateLoanRequest) Terms() LoanTerms {
	return LoanTerms{
		Amount:      r.Amount,
		RatePercent: r.RatePercent,
		TermMonths:  r.TermMonths,
		Frequency:   r.Frequency,
		StartDate:   r.StartDate,
	}
}

type AcceptLoanRequest struct {
	BorrowerName   string `json:"borrower_name" validate:"required,max=200"`
	Passport       string `json:"passport" validate:"required"`
	Address        string `json:"address" validate:"required"`
	TermsConfirmed bool   `json:"terms_confirmed"`
	ReceiptSigned  bool   `json:"receipt_signed"`
}

type RateLoanRequest struct {
	Role  string `json:"role" validate:"required,oneof=borrower lender"`
	Stars int    `json:"stars" validate:"required,min=1,max=5"`
}

type OutstandingResponse struct {
	LoanID      string          `json:"loan_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Status      LoanStatus      `json:"status"`
}
