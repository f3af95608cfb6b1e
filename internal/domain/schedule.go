package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ScheduleStatus string

// Business logic constants
const (
	ScheduleStatusUpcoming ScheduleStatus = "upcoming"
	ScheduleStatusPaid     ScheduleStatus = "paid"
	ScheduleStatusOverdue  ScheduleStatus = "overdue"
)

// Unpaid is true for installments still owed, whether or not they are late.
func (s ScheduleStatus) Unpaid() bool {
	return s == ScheduleStatusUpcoming || s == ScheduleStatusOverdue
}

// ScheduleItem represents one installment of a loan
type ScheduleItem struct {
	LoanID     string              `json:"-" db:"loan_id"`
	Number     int                 `json:"number" db:"number"`
	DueDate    time.Time           `json:"due_date" db:"due_date"`
	Amount     decimal.Decimal     `json:"amount" db:"amount"`
	Status     ScheduleStatus      `json:"status" db:"status"` // upcoming, paid, overdue
	PaidDate   *time.Time          `json:"paid_date,omitempty" db:"paid_date"`
	PaidAmount decimal.NullDecimal `json:"paid_amount" db:"paid_amount"`
}

func (s ScheduleItem) Clone() ScheduleItem {
	out := s
	out.PaidDate = cloneTime(s.PaidDate)
	return out
}

// ScheduleResult is the output of the schedule generator
type ScheduleResult struct {
	StartDate       time.Time       `json:"start_date"`
	Schedule        []ScheduleItem  `json:"schedule"`
	PeriodicPayment decimal.Decimal `json:"periodic_payment"`
	TotalRepayment  decimal.Decimal `json:"total_repayment"`
	PeriodCount     int             `json:"period_count"`
}

type ScheduleResponse struct {
	LoanID   string         `json:"loan_id"`
	Schedule []ScheduleItem `json:"schedule"`
}

// Reminder is an installment coming due soon
type Reminder struct {
	LoanID          string          `json:"loan_id"`
	BorrowerName    string          `json:"borrower_name"`
	BorrowerContact string          `json:"borrower_contact"`
	Number          int             `json:"number"`
	DueDate         time.Time       `json:"due_date"`
	Amount          decimal.Decimal `json:"amount"`
}
