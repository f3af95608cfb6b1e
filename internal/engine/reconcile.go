package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/utils"
)

// ReconcileInput is the slice of loan state a confirmed payment depends on.
type ReconcileInput struct {
	Frequency   domain.Frequency
	RatePercent decimal.Decimal
	Status      domain.LoanStatus
	Schedule    []domain.ScheduleItem
	Remaining   decimal.Decimal
	Payment     decimal.Decimal
	PaidAt      time.Time
}

type ReconcileResult struct {
	Schedule  []domain.ScheduleItem
	Remaining decimal.Decimal
	Status    domain.LoanStatus

	// PaidInstallment is the number of the installment the payment was
	// recorded against, 0 when every installment was already paid.
	PaidInstallment int
	// NewInstallment is the re-amortized amount of the unpaid installments,
	// zero when no re-amortization happened.
	NewInstallment decimal.Decimal
	Reamortized    bool
	// Settled counts unpaid installments closed at zero because the balance
	// reached zero before they came due.
	Settled int
}

// Reconcile applies a confirmed payment to a schedule and balance.
//
// The balance drops by the payment, floored at zero. The earliest unpaid
// installment becomes paid with the actual amount, which also replaces its
// planned amount. While debt remains on a periodic loan, the remaining unpaid
// installments are re-amortized over the same count with the annuity formula;
// due dates never move. Once the balance reaches zero the loan closes and any
// installments still unpaid are settled as paid with amount zero.
//
// Reconcile does not check whether this payment was already applied; callers
// guard idempotency by payment request.
func Reconcile(in ReconcileInput) ReconcileResult {
	schedule := make([]domain.ScheduleItem, len(in.Schedule))
	for i, item := range in.Schedule {
		schedule[i] = item.Clone()
	}

	remaining := in.Remaining.Sub(in.Payment)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	res := ReconcileResult{
		Schedule:  schedule,
		Remaining: remaining,
		Status:    in.Status,
	}

	if next := domain.NextUnpaid(schedule); next != -1 {
		paidAt := in.PaidAt
		schedule[next].Status = domain.ScheduleStatusPaid
		schedule[next].PaidDate = &paidAt
		schedule[next].PaidAmount = decimal.NewNullDecimal(in.Payment)
		schedule[next].Amount = in.Payment
		res.PaidInstallment = schedule[next].Number

		if remaining.IsPositive() {
			res.NewInstallment, res.Reamortized = reamortize(schedule, remaining, in.Frequency, in.RatePercent)
		}
	}

	if remaining.IsZero() {
		res.Status = domain.LoanStatusClosed
		res.Settled = settleUnpaid(schedule, in.PaidAt)
	}

	return res
}

// reamortize spreads remaining over the unpaid installments in place.
func reamortize(schedule []domain.ScheduleItem, remaining decimal.Decimal, f domain.Frequency, ratePercent decimal.Decimal) (decimal.Decimal, bool) {
	unit, periodic := UnitFor(f)
	if !periodic {
		return decimal.Zero, false
	}

	unpaid := 0
	for _, item := range schedule {
		if item.Status.Unpaid() {
			unpaid++
		}
	}
	if unpaid == 0 {
		return decimal.Zero, false
	}

	payment := utils.AnnuityPayment(remaining, utils.RatePerPeriod(ratePercent, unit), unpaid)
	for i := range schedule {
		if schedule[i].Status.Unpaid() {
			schedule[i].Amount = payment
		}
	}
	return payment, true
}

func settleUnpaid(schedule []domain.ScheduleItem, at time.Time) int {
	settled := 0
	for i := range schedule {
		if !schedule[i].Status.Unpaid() {
			continue
		}
		paidAt := at
		schedule[i].Status = domain.ScheduleStatusPaid
		schedule[i].PaidDate = &paidAt
		schedule[i].PaidAmount = decimal.NewNullDecimal(decimal.Zero)
		schedule[i].Amount = decimal.Zero
		settled++
	}
	return settled
}

// ApplyPayment reconciles a confirmed payment against an active loan and
// returns the resulting loan snapshot. The input loan is left untouched.
func ApplyPayment(loan domain.Loan, amount decimal.Decimal, now time.Time) (domain.Loan, ReconcileResult, error) {
	if !amount.IsPositive() {
		return domain.Loan{}, ReconcileResult{}, customError.NewValidationError("amount", "must be greater than 0")
	}
	if loan.Status != domain.LoanStatusActive {
		return domain.Loan{}, ReconcileResult{}, customError.WrapLoanNotActive(loan.ID, string(loan.Status))
	}

	res := Reconcile(ReconcileInput{
		Frequency:   loan.Frequency,
		RatePercent: loan.RatePercent,
		Status:      loan.Status,
		Schedule:    loan.Schedule,
		Remaining:   loan.RemainingAmount,
		Payment:     amount,
		PaidAt:      now,
	})

	out := loan.Clone()
	out.Schedule = res.Schedule
	out.RemainingAmount = res.Remaining
	out.UpdatedAt = now
	if res.Status == domain.LoanStatusClosed {
		if !CanTransition(loan.Status, domain.LoanStatusClosed) {
			return domain.Loan{}, ReconcileResult{}, customError.WrapInvalidTransition(loan.ID, string(loan.Status), string(domain.LoanStatusClosed))
		}
		closedAt := now
		out.Status = domain.LoanStatusClosed
		out.ClosedAt = &closedAt
	}

	return out, res, nil
}
