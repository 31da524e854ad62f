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

type orderRepository struct {
	BaseRepository
}

func NewOrderRepository(db *sqlx.DB) repository.OrderRepository {
	return &orderRepository{NewBaseRepository(db)}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO orders (
				id, user_id, status, payment_status, subtotal_amount, tax_amount,
				shipping_amount, total_amount, shipping_collect_on_delivery,
				custom_shipping_rate, shipping_paid_online, payment_proof_url,
				shipping_parish, shipping_city, shipping_address, contact_phone,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`
		_, err := tx.ExecContext(ctx, query,
			order.ID,
			order.UserID,
			order.Status,
			order.PaymentStatus,
			order.SubtotalAmount,
			order.TaxAmount,
			order.ShippingAmount,
			order.TotalAmount,
			order.CollectOnDelivery,
			order.CustomShippingRate,
			order.ShippingPaidOnline,
			order.PaymentProofURL,
			order.ShippingParish,
			order.ShippingCity,
			order.ShippingAddress,
			order.ContactPhone,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		itemQuery := `
			INSERT INTO order_items (
				id, order_id, drug_id, drug_name, quantity,
				unit_price, total_price, pharm_confirm, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		for _, item := range order.Items {
			item.ID = uuid.New()
			item.OrderID = order.ID
			item.CreatedAt = time.Now()

			if _, err := tx.ExecContext(ctx, itemQuery,
				item.ID,
				item.OrderID,
				item.DrugID,
				item.DrugName,
				item.Quantity,
				item.UnitPrice,
				item.TotalPrice,
				item.PharmConfirm,
				item.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}
		return nil
	})
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT * FROM orders WHERE id = $1 AND deleted_at IS NULL`

	var order model.Order
	if err := r.GetDB().GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	itemsQuery := `SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at ASC`
	if err := r.GetDB().SelectContext(ctx, &order.Items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filters *model.OrderFilters) ([]*model.Order, int64, error) {
	baseQuery := `FROM orders WHERE deleted_at IS NULL`
	var args []interface{}

	if filters.UserID != uuid.Nil {
		args = append(args, filters.UserID)
		baseQuery += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.PaymentStatus != "" {
		args = append(args, filters.PaymentStatus)
		baseQuery += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	args = append(args, filters.PageSize, filters.Offset())
	query := "SELECT * " + baseQuery + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var orders []*model.Order
	if err := r.GetDB().SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	for _, order := range orders {
		itemsQuery := `SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at ASC`
		if err := r.GetDB().SelectContext(ctx, &order.Items, itemsQuery, order.ID); err != nil {
			return nil, 0, fmt.Errorf("failed to get order items: %w", err)
		}
	}
	return orders, total, nil
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $1, payment_status = $2, custom_shipping_rate = $3,
			shipping_paid_online = $4, total_amount = $5, payment_proof_url = $6,
			updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
	`
	order.UpdatedAt = time.Now()

	result, err := r.GetDB().ExecContext(ctx, query,
		order.Status,
		order.PaymentStatus,
		order.CustomShippingRate,
		order.ShippingPaidOnline,
		order.TotalAmount,
		order.PaymentProofURL,
		order.UpdatedAt,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
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
