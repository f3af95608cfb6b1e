package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
)

const paymentColumns = `id, loan_id, amount, status, created_at, resolved_at`

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, req *domain.PaymentRequest) error {
	query := `
		INSERT INTO payment_requests (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.LoanID,
		req.Amount,
		req.Status,
		req.CreatedAt,
		req.ResolvedAt,
	)

	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, requestID string) (*domain.PaymentRequest, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_requests WHERE id = $1`

	var req domain.PaymentRequest
	err := r.db.GetContext(ctx, &req, query, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapPaymentRequestNotFound(requestID)
	}
	if err != nil {
		return nil, err
	}

	return &req, nil
}

func (r *paymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]*domain.PaymentRequest, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_requests
		WHERE loan_id = $1
		ORDER BY created_at
	`

	requests := []*domain.PaymentRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, loanID); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *paymentRepository) Resolve(ctx context.Context, requestID string, status domain.PaymentStatus, resolvedAt time.Time) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return resolveRequest(ctx, tx, requestID, status, resolvedAt)
	})
}

func resolveRequest(ctx context.Context, tx *sqlx.Tx, requestID string, status domain.PaymentStatus, resolvedAt time.Time) error {
	query := `
		UPDATE payment_requests
		SET status = $2, resolved_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	result, err := tx.ExecContext(ctx, query, requestID, status, resolvedAt)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return customError.ErrPaymentAlreadyResolved
	}

	return nil
}
