package engine

import (
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
)

type RatingRole string

const (
	RoleBorrower RatingRole = "borrower"
	RoleLender   RatingRole = "lender"
)

const (
	MinStars = 1
	MaxStars = 5
)

// Rate records a party's satisfaction score on a closed loan. A second
// rating for the same role replaces the first.
func Rate(loan domain.Loan, role RatingRole, stars int, now time.Time) (domain.Loan, error) {
	if role != RoleBorrower && role != RoleLender {
		return domain.Loan{}, customError.NewValidationError("role", "must be borrower or lender")
	}
	if stars < MinStars || stars > MaxStars {
		return domain.Loan{}, customError.NewValidationError("stars", "must be between 1 and 5")
	}
	if loan.Status != domain.LoanStatusClosed {
		return domain.Loan{}, customError.WrapLoanNotClosed(loan.ID, string(loan.Status))
	}

	out := loan.Clone()
	v := stars
	if role == RoleBorrower {
		out.BorrowerRating = &v
	} else {
		out.LenderRating = &v
	}
	out.UpdatedAt = now
	return out, nil
}
