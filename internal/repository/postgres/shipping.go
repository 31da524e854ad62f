package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
)

type shippingRateRepository struct {
	db *sqlx.DB
}

func NewShippingRateRepository(db *sqlx.DB) repository.ShippingRateRepository {
	return &shippingRateRepository{db: db}
}

func (r *shippingRateRepository) Create(ctx context.Context, rate *model.ShippingRate) error {
	query := `
		INSERT INTO shipping_rates (
			id, parish, city, rate, is_default, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	rate.ID = uuid.New()
	rate.CreatedAt = time.Now()
	rate.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		rate.ID,
		rate.Parish,
		rate.City,
		rate.Rate,
		rate.IsDefault,
		rate.CreatedAt,
		rate.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create shipping rate: %w", err)
	}
	return nil
}

func (r *shippingRateRepository) Get(ctx context.Context, id uuid.UUID) (*model.ShippingRate, error) {
	query := `SELECT * FROM shipping_rates WHERE id = $1 AND deleted_at IS NULL`

	var rate model.ShippingRate
	if err := r.db.GetContext(ctx, &rate, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shipping rate: %w", err)
	}
	return &rate, nil
}

func (r *shippingRateRepository) Update(ctx context.Context, rate *model.ShippingRate) error {
	query := `
		UPDATE shipping_rates
		SET parish = $1, city = $2, rate = $3, is_default = $4, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
	`
	rate.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		rate.Parish,
		rate.City,
		rate.Rate,
		rate.IsDefault,
		rate.UpdatedAt,
		rate.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update shipping rate: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *shippingRateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shipping_rates SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete shipping rate: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *shippingRateRepository) List(ctx context.Context) ([]*model.ShippingRate, error) {
	query := `
		SELECT * FROM shipping_rates
		WHERE deleted_at IS NULL
		ORDER BY parish ASC, city ASC NULLS LAST
	`
	var rates []*model.ShippingRate
	if err := r.db.SelectContext(ctx, &rates, query); err != nil {
		return nil, fmt.Errorf("failed to list shipping rates: %w", err)
	}
	return rates, nil
}
