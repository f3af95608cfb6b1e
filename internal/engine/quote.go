package engine

import (
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/utils"
)

// Quote previews a simple-interest loan month by month. It is a separate
// calculator from GenerateSchedule and may disagree with it for the same
// terms: interest is flat over the term and spread evenly across months.
func Quote(req domain.QuoteRequest) (domain.QuoteResponse, error) {
	if !req.Amount.IsPositive() {
		return domain.QuoteResponse{}, customError.NewValidationError("amount", "must be greater than 0")
	}
	if req.Rate.IsNegative() {
		return domain.QuoteResponse{}, customError.NewValidationError("rate", "must not be negative")
	}
	if req.Months < 1 {
		return domain.QuoteResponse{}, customError.NewValidationError("months", "must be at least 1")
	}

	months := decimal.NewFromInt(int64(req.Months))
	total := utils.SimpleInterestTotal(req.Amount, req.Rate, req.Months).Round(0)
	overpay := total.Sub(req.Amount)
	monthly := total.Div(months).Round(0)
	interest := overpay.Div(months).Round(0)

	rows := make([]domain.QuoteRow, 0, req.Months)
	balance := total
	owedInterest := overpay
	owedPrincipal := req.Amount
	for m := 1; m <= req.Months; m++ {
		row := domain.QuoteRow{Month: m, Payment: decimal.Min(monthly, balance)}
		if m == req.Months {
			// last row absorbs rounding so the balance lands on zero
			row.Payment = balance
			row.Interest = owedInterest
		} else {
			// a row never pays more principal or interest than is still owed
			row.Interest = decimal.Min(interest, owedInterest, row.Payment)
			row.Interest = decimal.Max(row.Interest, row.Payment.Sub(owedPrincipal))
		}
		row.Principal = row.Payment.Sub(row.Interest)

		balance = balance.Sub(row.Payment)
		owedInterest = owedInterest.Sub(row.Interest)
		owedPrincipal = owedPrincipal.Sub(row.Principal)
		row.Balance = balance
		rows = append(rows, row)
	}

	return domain.QuoteResponse{
		Amount:         req.Amount,
		Months:         req.Months,
		AnnualRatePct:  req.Rate,
		MonthlyPayment: monthly,
		Total:          total,
		Overpay:        overpay,
		Schedule:       rows,
	}, nil
}
