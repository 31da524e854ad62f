package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
)

type paymentConfigRepository struct {
	db *sqlx.DB
}

func NewPaymentConfigRepository(db *sqlx.DB) repository.PaymentConfigRepository {
	return &paymentConfigRepository{db: db}
}

// Get returns the singleton payment configuration row.
func (r *paymentConfigRepository) Get(ctx context.Context) (*model.PaymentConfig, error) {
	query := `SELECT * FROM payment_config ORDER BY created_at ASC LIMIT 1`

	var cfg model.PaymentConfig
	if err := r.db.GetContext(ctx, &cfg, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment config: %w", err)
	}
	return &cfg, nil
}

func (r *paymentConfigRepository) Update(ctx context.Context, cfg *model.PaymentConfig) error {
	query := `
		UPDATE payment_config
		SET bank_name = $1, account_name = $2, account_number = $3,
			branch_details = $4, tax_type = $5, tax_rate = $6,
			default_shipping_cost = $7, updated_at = $8
		WHERE id = $9
	`
	cfg.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		cfg.BankName,
		cfg.AccountName,
		cfg.AccountNumber,
		cfg.BranchDetails,
		cfg.TaxType,
		cfg.TaxRate,
		cfg.DefaultShippingCost,
		cfg.UpdatedAt,
		cfg.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment config: %w", err)
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
