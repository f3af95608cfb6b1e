package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
)

func TestQuote(t *testing.T) {
	q, err := Quote(domain.QuoteRequest{
		Amount: decimal.NewFromInt(100000),
		Rate:   decimal.NewFromInt(20),
		Months: 12,
	})
	require.NoError(t, err)

	assert.True(t, q.Total.Equal(decimal.NewFromInt(120000)))
	assert.True(t, q.Overpay.Equal(decimal.NewFromInt(20000)))
	assert.True(t, q.MonthlyPayment.Equal(decimal.NewFromInt(10000)))
	require.Len(t, q.Schedule, 12)

	first := q.Schedule[0]
	assert.Equal(t, 1, first.Month)
	assert.True(t, first.Interest.Equal(decimal.NewFromInt(1667)))
	assert.True(t, first.Principal.Equal(decimal.NewFromInt(8333)))
	assert.True(t, first.Balance.Equal(decimal.NewFromInt(110000)))

	last := q.Schedule[11]
	assert.True(t, last.Payment.Equal(decimal.NewFromInt(10000)))
	assert.True(t, last.Interest.Equal(decimal.NewFromInt(1663)))
	assert.True(t, last.Principal.Equal(decimal.NewFromInt(8337)))
	assert.True(t, last.Balance.IsZero())

	paid, interest := decimal.Zero, decimal.Zero
	for _, row := range q.Schedule {
		paid = paid.Add(row.Payment)
		interest = interest.Add(row.Interest)
	}
	assert.True(t, paid.Equal(q.Total))
	assert.True(t, interest.Equal(q.Overpay))
}

func TestQuote_MonthlyExceedsShrinkingBalance(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		rate   int64
		months int
	}{
		{"tiny amount over many months", 5, 0, 8},
		{"tiny amount with interest", 7, 50, 12},
		{"single unit", 1, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Quote(domain.QuoteRequest{
				Amount: decimal.NewFromInt(tt.amount),
				Rate:   decimal.NewFromInt(tt.rate),
				Months: tt.months,
			})
			require.NoError(t, err)
			require.Len(t, q.Schedule, tt.months)

			paid, interest, principal := decimal.Zero, decimal.Zero, decimal.Zero
			for _, row := range q.Schedule {
				assert.False(t, row.Payment.IsNegative(), "month %d payment %v", row.Month, row.Payment)
				assert.False(t, row.Interest.IsNegative(), "month %d interest %v", row.Month, row.Interest)
				assert.False(t, row.Principal.IsNegative(), "month %d principal %v", row.Month, row.Principal)
				assert.False(t, row.Balance.IsNegative(), "month %d balance %v", row.Month, row.Balance)
				paid = paid.Add(row.Payment)
				interest = interest.Add(row.Interest)
				principal = principal.Add(row.Principal)
			}
			assert.True(t, paid.Equal(q.Total))
			assert.True(t, interest.Equal(q.Overpay))
			assert.True(t, principal.Equal(q.Amount))
			assert.True(t, q.Schedule[tt.months-1].Balance.IsZero())
		})
	}
}

func TestQuote_Validation(t *testing.T) {
	_, err := Quote(domain.QuoteRequest{Amount: decimal.Zero, Rate: decimal.NewFromInt(10), Months: 3})
	assert.True(t, customError.IsValidation(err))

	_, err = Quote(domain.QuoteRequest{Amount: decimal.NewFromInt(10), Rate: decimal.NewFromInt(-1), Months: 3})
	assert.True(t, customError.IsValidation(err))

	_, err = Quote(domain.QuoteRequest{Amount: decimal.NewFromInt(10), Rate: decimal.NewFromInt(1), Months: 0})
	assert.True(t, customError.IsValidation(err))
}
