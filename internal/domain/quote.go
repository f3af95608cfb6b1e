package domain

import "github.com/shopspring/decimal"

type QuoteRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
	Months int             `json:"months" validate:"required,gt=0,lte=600"`
}

type QuoteRow struct {
	Month     int             `json:"month"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
}

type QuoteResponse struct {
	Amount         decimal.Decimal `json:"amount"`
	Months         int             `json:"months"`
	AnnualRatePct  decimal.Decimal `json:"annualRatePct"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	Total          decimal.Decimal `json:"total"`
	Overpay        decimal.Decimal `json:"overpay"`
	Schedule       []QuoteRow      `json:"schedule"`
}
