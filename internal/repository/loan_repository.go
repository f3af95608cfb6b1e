package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/utils"
)

const loanColumns = `id, borrower_name, borrower_contact, amount, rate_percent, term_months, frequency,
	start_date, status, periodic_payment, total_repayment, remaining_amount,
	borrower_passport, borrower_address, signed_at, borrower_rating, lender_rating,
	closed_at, cancelled_at, created_at, updated_at`

const scheduleColumns = `loan_id, number, due_date, amount, status, paid_date, paid_amount`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `, contact_digits)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			loan.ID,
			loan.BorrowerName,
			loan.BorrowerContact,
			loan.Amount,
			loan.RatePercent,
			loan.TermMonths,
			loan.Frequency,
			loan.StartDate,
			loan.Status,
			loan.PeriodicPayment,
			loan.TotalRepayment,
			loan.RemainingAmount,
			loan.BorrowerPassport,
			loan.BorrowerAddress,
			loan.SignedAt,
			loan.BorrowerRating,
			loan.LenderRating,
			loan.ClosedAt,
			loan.CancelledAt,
			loan.CreatedAt,
			loan.UpdatedAt,
			utils.NormalizePhone(loan.BorrowerContact),
		)
		if err != nil {
			return err
		}

		return insertSchedule(ctx, tx, loan.ID, loan.Schedule)
	})
}

func (r *loanRepository) GetByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(loanID)
	}
	if err != nil {
		return nil, err
	}

	items := []domain.ScheduleItem{}
	query = `SELECT ` + scheduleColumns + ` FROM schedule_items WHERE loan_id = $1 ORDER BY number`
	if err := r.db.SelectContext(ctx, &items, query, loanID); err != nil {
		return nil, err
	}
	loan.Schedule = items

	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	return r.selectLoans(ctx, query, args...)
}

func (r *loanRepository) FindByContact(ctx context.Context, digits string) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE contact_digits = $1 ORDER BY created_at DESC`
	return r.selectLoans(ctx, query, digits)
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return updateLoan(ctx, tx, loan)
	})
}

func (r *loanRepository) UpdateWithPayment(ctx context.Context, loan *domain.Loan, requestID string, resolvedAt time.Time) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := resolveRequest(ctx, tx, requestID, domain.PaymentStatusConfirmed, resolvedAt); err != nil {
			return err
		}
		return updateLoan(ctx, tx, loan)
	})
}

func (r *loanRepository) selectLoans(ctx context.Context, query string, args ...interface{}) ([]*domain.Loan, error) {
	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return loans, nil
	}

	ids := make([]string, len(loans))
	byID := make(map[string]*domain.Loan, len(loans))
	for i, loan := range loans {
		ids[i] = loan.ID
		loan.Schedule = []domain.ScheduleItem{}
		byID[loan.ID] = loan
	}

	itemQuery, itemArgs, err := sqlx.In(
		`SELECT `+scheduleColumns+` FROM schedule_items WHERE loan_id IN (?) ORDER BY loan_id, number`, ids)
	if err != nil {
		return nil, err
	}

	var items []domain.ScheduleItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(itemQuery), itemArgs...); err != nil {
		return nil, err
	}
	for _, item := range items {
		if loan, ok := byID[item.LoanID]; ok {
			loan.Schedule = append(loan.Schedule, item)
		}
	}

	return loans, nil
}

func updateLoan(ctx context.Context, tx *sqlx.Tx, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET borrower_name = $2, status = $3, periodic_payment = $4, remaining_amount = $5,
			borrower_passport = $6, borrower_address = $7, signed_at = $8,
			borrower_rating = $9, lender_rating = $10, closed_at = $11, cancelled_at = $12,
			updated_at = $13
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, query,
		loan.ID,
		loan.BorrowerName,
		loan.Status,
		loan.PeriodicPayment,
		loan.RemainingAmount,
		loan.BorrowerPassport,
		loan.BorrowerAddress,
		loan.SignedAt,
		loan.BorrowerRating,
		loan.LenderRating,
		loan.ClosedAt,
		loan.CancelledAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return customError.WrapLoanNotFound(loan.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_items WHERE loan_id = $1`, loan.ID); err != nil {
		return err
	}

	return insertSchedule(ctx, tx, loan.ID, loan.Schedule)
}

func insertSchedule(ctx context.Context, tx *sqlx.Tx, loanID string, items []domain.ScheduleItem) error {
	query := `
		INSERT INTO schedule_items (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, item := range items {
		_, err := tx.ExecContext(ctx, query,
			loanID,
			item.Number,
			item.DueDate,
			item.Amount,
			item.Status,
			item.PaidDate,
			item.PaidAmount,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
