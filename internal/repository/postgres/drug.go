package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
)

type drugRepository struct {
	db *sqlx.DB
}

func NewDrugRepository(db *sqlx.DB) repository.DrugRepository {
	return &drugRepository{db: db}
}

func (r *drugRepository) Create(ctx context.Context, drug *model.Drug) error {
	query := `
		INSERT INTO drugs (
			id, name, generic_name, description, category, unit_price,
			is_on_sale, sale_price, sale_discount_percent, stock_quantity,
			requires_prescription, image_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	drug.ID = uuid.New()
	drug.CreatedAt = time.Now()
	drug.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		drug.ID,
		drug.Name,
		drug.GenericName,
		drug.Description,
		drug.Category,
		drug.UnitPrice,
		drug.IsOnSale,
		drug.SalePrice,
		drug.SaleDiscountPercent,
		drug.StockQuantity,
		drug.RequiresPrescription,
		drug.ImageURL,
		drug.CreatedAt,
		drug.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create drug: %w", err)
	}
	return nil
}

func (r *drugRepository) Get(ctx context.Context, id uuid.UUID) (*model.Drug, error) {
	query := `SELECT * FROM drugs WHERE id = $1 AND deleted_at IS NULL`

	var drug model.Drug
	if err := r.db.GetContext(ctx, &drug, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get drug: %w", err)
	}
	return &drug, nil
}

func (r *drugRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Drug, error) {
	query := `SELECT * FROM drugs WHERE id = ANY($1) AND deleted_at IS NULL`

	var drugs []*model.Drug
	if err := r.db.SelectContext(ctx, &drugs, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get drugs: %w", err)
	}
	return drugs, nil
}

func (r *drugRepository) Update(ctx context.Context, drug *model.Drug) error {
	query := `
		UPDATE drugs
		SET name = $1, generic_name = $2, description = $3, category = $4,
			unit_price = $5, is_on_sale = $6, sale_price = $7,
			sale_discount_percent = $8, stock_quantity = $9,
			requires_prescription = $10, image_url = $11, updated_at = $12
		WHERE id = $13 AND deleted_at IS NULL
	`
	drug.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		drug.Name,
		drug.GenericName,
		drug.Description,
		drug.Category,
		drug.UnitPrice,
		drug.IsOnSale,
		drug.SalePrice,
		drug.SaleDiscountPercent,
		drug.StockQuantity,
		drug.RequiresPrescription,
		drug.ImageURL,
		drug.UpdatedAt,
		drug.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update drug: %w", err)
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

func (r *drugRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE drugs SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete drug: %w", err)
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

func (r *drugRepository) List(ctx context.Context, filters *model.DrugFilters) ([]*model.Drug, int64, error) {
	baseQuery := `FROM drugs WHERE deleted_at IS NULL`
	var args []interface{}

	if filters.SearchTerm != "" {
		args = append(args, "%"+filters.SearchTerm+"%")
		baseQuery += fmt.Sprintf(" AND (name ILIKE $%d OR generic_name ILIKE $%d)", len(args), len(args))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		baseQuery += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filters.OnSaleOnly {
		baseQuery += " AND is_on_sale = true"
	}
	if filters.OTCOnly {
		baseQuery += " AND requires_prescription = false"
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count drugs: %w", err)
	}

	args = append(args, filters.PageSize, filters.Offset())
	query := "SELECT * " + baseQuery + fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var drugs []*model.Drug
	if err := r.db.SelectContext(ctx, &drugs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list drugs: %w", err)
	}
	return drugs, total, nil
}

func (r *drugRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	query := `
		UPDATE drugs
		SET stock_quantity = stock_quantity - $1, updated_at = $2
		WHERE id = $3 AND stock_quantity >= $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, qty, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("insufficient stock for drug %s", id)
	}
	return nil
}
