package utils

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the calendar date format used for start and due dates.
	DateLayout = "2006-01-02"

	// powPrecision bounds the digits kept while compounding.
	powPrecision = 24

	// MoneyScale and RateScale match the NUMERIC columns amounts and rates
	// are stored in.
	MoneyScale = 2
	RateScale  = 4
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
)

// FitsScale reports whether d has no significant digits beyond places
// decimals, so storing it loses nothing.
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// PeriodUnit is the calendar step between two installments.
type PeriodUnit int

const (
	UnitMonth PeriodUnit = iota
	UnitWeek
	UnitDay
)

// PeriodsPerYear is the divisor applied to the annual rate for each unit.
func (u PeriodUnit) PeriodsPerYear() int64 {
	switch u {
	case UnitWeek:
		return 52
	case UnitDay:
		return 365
	default:
		return 12
	}
}

// PeriodsPerMonth is how many installments one term month is worth.
func (u PeriodUnit) PeriodsPerMonth() int {
	switch u {
	case UnitWeek:
		return 4
	case UnitDay:
		return 30
	default:
		return 1
	}
}

// RatePerPeriod converts an annual percent into the rate of a single period.
// Formula: annualPercent / 100 / periodsPerYear
func RatePerPeriod(annualPercent decimal.Decimal, unit PeriodUnit) decimal.Decimal {
	return annualPercent.Div(hundred).Div(decimal.NewFromInt(unit.PeriodsPerYear()))
}

// AnnuityPayment calculates the constant installment that amortizes principal
// over periods at ratePerPeriod, rounded to a whole currency unit.
// Formula: P*i / (1 - (1+i)^-n), which equals P*i*(1+i)^n / ((1+i)^n - 1)
func AnnuityPayment(principal, ratePerPeriod decimal.Decimal, periods int) decimal.Decimal {
	if periods <= 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(periods))
	if ratePerPeriod.IsZero() {
		return principal.Div(n).Round(0)
	}

	factor := Compound(one.Add(ratePerPeriod), periods)
	payment := principal.Mul(ratePerPeriod).Mul(factor).Div(factor.Sub(one))

	return payment.Round(0)
}

// SimpleInterestTotal is the non-compounding repayment of principal over
// termMonths: P * (1 + r/100 * term/12)
func SimpleInterestTotal(principal, annualPercent decimal.Decimal, termMonths int) decimal.Decimal {
	years := decimal.NewFromInt(int64(termMonths)).Div(twelve)
	return principal.Mul(one.Add(annualPercent.Div(hundred).Mul(years)))
}

// Compound raises base to the non-negative integer power n by repeated
// squaring, truncating every product so large period counts stay cheap.
func Compound(base decimal.Decimal, n int) decimal.Decimal {
	result := one
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Truncate(powPrecision)
		}
		base = base.Mul(base).Truncate(powPrecision)
		n >>= 1
	}
	return result
}

// ParseDate accepts a calendar date or an RFC3339 timestamp and returns the
// date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err == nil {
		return t, nil
	}
	ts, tsErr := time.Parse(time.RFC3339, s)
	if tsErr != nil {
		return time.Time{}, err
	}
	return TruncateDay(ts.UTC()), nil
}

// TruncateDay drops the clock part of t, keeping its location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddMonths moves t by months, clamping to the last day of the target month
// instead of overflowing (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// CalculateDueDate returns the due date of installment number (1-based)
// counted from start in the given unit.
func CalculateDueDate(start time.Time, unit PeriodUnit, number int) time.Time {
	switch unit {
	case UnitWeek:
		return start.AddDate(0, 0, 7*number)
	case UnitDay:
		return start.AddDate(0, 0, number)
	default:
		return AddMonths(start, number)
	}
}

// IsDateOverdue checks if a due date lies strictly before the day of now
func IsDateOverdue(dueDate, now time.Time) bool {
	return TruncateDay(dueDate).Before(TruncateDay(now))
}

// NormalizePhone keeps the digits of a phone number and, for numbers of ten
// digits or more, only the last ten so country prefixes do not matter.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) >= 10 {
		return digits[len(digits)-10:]
	}
	return digits
}
