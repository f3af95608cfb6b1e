package domain

import "time"

// LenderProfile holds the lender identity and payout details shown to
// borrowers.
type LenderProfile struct {
	Name        string    `json:"name" db:"name" validate:"required,max=200"`
	Passport    string    `json:"passport" db:"passport" validate:"required"`
	Address     string    `json:"address" db:"address" validate:"required"`
	PaymentInfo string    `json:"payment_info" db:"payment_info" validate:"required"`
	Phone       string    `json:"phone" db:"phone" validate:"required,max=32"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Complete reports whether every field needed to draft a receipt is filled.
func (p LenderProfile) Complete() bool {
	return p.Name != "" && p.Passport != "" && p.Address != "" && p.PaymentInfo != "" && p.Phone != ""
}
