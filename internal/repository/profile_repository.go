package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context) (*domain.LenderProfile, error) {
	query := `
		SELECT name, passport, address, payment_info, phone, updated_at
		FROM lender_profile
		WHERE id = 1
	`

	var profile domain.LenderProfile
	err := r.db.GetContext(ctx, &profile, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapProfileNotFound()
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.LenderProfile) error {
	query := `
		INSERT INTO lender_profile (id, name, passport, address, payment_info, phone, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, passport = EXCLUDED.passport, address = EXCLUDED.address,
			payment_info = EXCLUDED.payment_info, phone = EXCLUDED.phone, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.Name,
		profile.Passport,
		profile.Address,
		profile.PaymentInfo,
		profile.Phone,
		profile.UpdatedAt,
	)

	return err
}
