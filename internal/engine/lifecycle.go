package engine

import (
	"strings"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/utils"
)

// transitions lists every status change the lifecycle allows. Closed and
// cancelled are terminal.
var transitions = map[domain.LoanStatus][]domain.LoanStatus{
	domain.LoanStatusPending: {domain.LoanStatusActive, domain.LoanStatusCancelled},
	domain.LoanStatusActive:  {domain.LoanStatusClosed, domain.LoanStatusCancelled},
}

func CanTransition(from, to domain.LoanStatus) bool {
	if from.IsTerminal() {
		return false
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NewLoan builds a pending loan from lender input, generating its schedule.
func NewLoan(id string, req domain.CreateLoanRequest, now time.Time) (domain.Loan, error) {
	if strings.TrimSpace(req.BorrowerName) == "" {
		return domain.Loan{}, customError.NewValidationError("borrower_name", "is required")
	}
	if strings.TrimSpace(req.BorrowerContact) == "" {
		return domain.Loan{}, customError.NewValidationError("borrower_contact", "is required")
	}

	result, err := GenerateSchedule(req.Terms())
	if err != nil {
		return domain.Loan{}, err
	}
	for i := range result.Schedule {
		result.Schedule[i].LoanID = id
	}

	return domain.Loan{
		ID:              id,
		BorrowerName:    strings.TrimSpace(req.BorrowerName),
		BorrowerContact: strings.TrimSpace(req.BorrowerContact),
		Amount:          req.Amount,
		RatePercent:     req.RatePercent,
		TermMonths:      req.TermMonths,
		Frequency:       req.Frequency,
		StartDate:       result.StartDate,
		Status:          domain.LoanStatusPending,
		PeriodicPayment: result.PeriodicPayment,
		TotalRepayment:  result.TotalRepayment,
		RemainingAmount: result.TotalRepayment,
		Schedule:        result.Schedule,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// AcceptInput carries what a borrower supplies when signing a loan.
type AcceptInput struct {
	BorrowerName   string
	Passport       string
	Address        string
	TermsConfirmed bool
	ReceiptSigned  bool
}

// Accept activates a pending loan once the borrower has confirmed the terms
// and signed the receipt, recording their identity and the signing time.
func Accept(loan domain.Loan, in AcceptInput, now time.Time) (domain.Loan, error) {
	if !in.TermsConfirmed {
		return domain.Loan{}, customError.NewValidationError("terms_confirmed", "borrower must confirm the loan terms")
	}
	if !in.ReceiptSigned {
		return domain.Loan{}, customError.NewValidationError("receipt_signed", "borrower must sign the receipt")
	}
	if strings.TrimSpace(in.Passport) == "" {
		return domain.Loan{}, customError.NewValidationError("passport", "is required")
	}
	if strings.TrimSpace(in.Address) == "" {
		return domain.Loan{}, customError.NewValidationError("address", "is required")
	}
	if !CanTransition(loan.Status, domain.LoanStatusActive) {
		return domain.Loan{}, customError.WrapInvalidTransition(loan.ID, string(loan.Status), string(domain.LoanStatusActive))
	}

	out := loan.Clone()
	out.Status = domain.LoanStatusActive
	if name := strings.TrimSpace(in.BorrowerName); name != "" {
		out.BorrowerName = name
	}
	out.BorrowerPassport = strings.TrimSpace(in.Passport)
	out.BorrowerAddress = strings.TrimSpace(in.Address)
	signedAt := now
	out.SignedAt = &signedAt
	out.UpdatedAt = now
	return out, nil
}

// Cancel is the administrative exit from a loan that has not been closed.
func Cancel(loan domain.Loan, now time.Time) (domain.Loan, error) {
	if !CanTransition(loan.Status, domain.LoanStatusCancelled) {
		return domain.Loan{}, customError.WrapInvalidTransition(loan.ID, string(loan.Status), string(domain.LoanStatusCancelled))
	}

	out := loan.Clone()
	out.Status = domain.LoanStatusCancelled
	cancelledAt := now
	out.CancelledAt = &cancelledAt
	out.UpdatedAt = now
	return out, nil
}

// MarkOverdue flags unpaid installments of an active loan whose due date has
// passed. It reports how many installments changed.
func MarkOverdue(loan domain.Loan, now time.Time) (domain.Loan, int) {
	if loan.Status != domain.LoanStatusActive {
		return loan, 0
	}

	out := loan.Clone()
	changed := 0
	for i := range out.Schedule {
		item := &out.Schedule[i]
		if item.Status == domain.ScheduleStatusUpcoming && utils.IsDateOverdue(item.DueDate, now.UTC()) {
			item.Status = domain.ScheduleStatusOverdue
			changed++
		}
	}
	if changed > 0 {
		out.UpdatedAt = now
	}
	return out, changed
}

// DueWithin lists unpaid installments of an active loan falling due between
// now and now plus days, inclusive.
func DueWithin(loan domain.Loan, now time.Time, days int) []domain.Reminder {
	if loan.Status != domain.LoanStatusActive {
		return nil
	}

	today := utils.TruncateDay(now.UTC())
	horizon := today.AddDate(0, 0, days)
	var reminders []domain.Reminder
	for _, item := range loan.Schedule {
		if item.Status != domain.ScheduleStatusUpcoming {
			continue
		}
		due := utils.TruncateDay(item.DueDate.UTC())
		if due.Before(today) || due.After(horizon) {
			continue
		}
		reminders = append(reminders, domain.Reminder{
			LoanID:          loan.ID,
			BorrowerName:    loan.BorrowerName,
			BorrowerContact: loan.BorrowerContact,
			Number:          item.Number,
			DueDate:         item.DueDate,
			Amount:          item.Amount,
		})
	}
	return reminders
}
