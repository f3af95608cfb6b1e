// Package engine holds the loan amortization and reconciliation rules. Every
// function is a pure transformation of value snapshots: nothing here performs
// I/O or keeps state between calls, so callers must serialize writes per loan
// and persist the returned snapshot atomically.
package engine

import (
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/utils"
)

// UnitFor maps an installment frequency to its calendar step. The once
// frequency has no step and reports false.
func UnitFor(f domain.Frequency) (utils.PeriodUnit, bool) {
	switch f {
	case domain.FrequencyMonthly:
		return utils.UnitMonth, true
	case domain.FrequencyWeekly:
		return utils.UnitWeek, true
	case domain.FrequencyDaily:
		return utils.UnitDay, true
	}
	return 0, false
}

// PeriodCount is the number of installments a term produces.
func PeriodCount(f domain.Frequency, termMonths int) int {
	unit, ok := UnitFor(f)
	if !ok {
		return 1
	}
	return termMonths * unit.PeriodsPerMonth()
}

// ValidateTerms rejects loan terms the generator cannot work with.
func ValidateTerms(terms domain.LoanTerms) error {
	if !terms.Amount.IsPositive() {
		return customError.NewValidationError("amount", "must be greater than 0")
	}
	if !utils.FitsScale(terms.Amount, utils.MoneyScale) {
		return customError.NewValidationError("amount", "must have at most 2 decimal places")
	}
	if terms.TermMonths < 1 {
		return customError.NewValidationError("term_months", "must be at least 1")
	}
	if terms.RatePercent.IsNegative() {
		return customError.NewValidationError("rate_percent", "must not be negative")
	}
	if !utils.FitsScale(terms.RatePercent, utils.RateScale) {
		return customError.NewValidationError("rate_percent", "must have at most 4 decimal places")
	}
	if !terms.Frequency.Valid() {
		return customError.NewValidationError("frequency", "unsupported frequency "+string(terms.Frequency))
	}
	if _, err := utils.ParseDate(terms.StartDate); err != nil {
		return customError.NewValidationError("start_date", "must be a calendar date (YYYY-MM-DD)")
	}
	return nil
}

// GenerateSchedule computes the initial repayment schedule and installment of
// a loan.
//
// A once loan is repaid in a single installment due termMonths after the
// start date, carrying simple interest. Every other frequency is amortized
// with the annuity formula over PeriodCount installments of equal, rounded
// amount. The total repayment is the rounded installment times the period
// count, so it can drift from the theoretical total by up to half a unit per
// installment.
func GenerateSchedule(terms domain.LoanTerms) (domain.ScheduleResult, error) {
	if err := ValidateTerms(terms); err != nil {
		return domain.ScheduleResult{}, err
	}
	start, _ := utils.ParseDate(terms.StartDate)

	unit, periodic := UnitFor(terms.Frequency)
	if !periodic {
		payment := utils.SimpleInterestTotal(terms.Amount, terms.RatePercent, terms.TermMonths).Round(0)
		return domain.ScheduleResult{
			StartDate: start,
			Schedule: []domain.ScheduleItem{{
				Number:  1,
				DueDate: utils.AddMonths(start, terms.TermMonths),
				Amount:  payment,
				Status:  domain.ScheduleStatusUpcoming,
			}},
			PeriodicPayment: payment,
			TotalRepayment:  payment,
			PeriodCount:     1,
		}, nil
	}

	periods := PeriodCount(terms.Frequency, terms.TermMonths)
	payment := utils.AnnuityPayment(terms.Amount, utils.RatePerPeriod(terms.RatePercent, unit), periods)

	schedule := make([]domain.ScheduleItem, 0, periods)
	for i := 1; i <= periods; i++ {
		schedule = append(schedule, domain.ScheduleItem{
			Number:  i,
			DueDate: utils.CalculateDueDate(start, unit, i),
			Amount:  payment,
			Status:  domain.ScheduleStatusUpcoming,
		})
	}

	return domain.ScheduleResult{
		StartDate:       start,
		Schedule:        schedule,
		PeriodicPayment: payment,
		TotalRepayment:  payment.Mul(decimal.NewFromInt(int64(periods))),
		PeriodCount:     periods,
	}, nil
}
