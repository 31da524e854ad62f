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

type refillRepository struct {
	db *sqlx.DB
}

func NewRefillRepository(db *sqlx.DB) repository.RefillRepository {
	return &refillRepository{db: db}
}

func (r *refillRepository) Create(ctx context.Context, req *model.RefillRequest) error {
	query := `
		INSERT INTO refill_requests (
			id, prescription_id, patient_id, status, refill_number,
			rejection_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.PrescriptionID,
		req.PatientID,
		req.Status,
		req.RefillNumber,
		req.RejectionReason,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refill request: %w", err)
	}
	return nil
}

func (r *refillRepository) Get(ctx context.Context, id uuid.UUID) (*model.RefillRequest, error) {
	query := `SELECT * FROM refill_requests WHERE id = $1 AND deleted_at IS NULL`

	var req model.RefillRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get refill request: %w", err)
	}
	return &req, nil
}

func (r *refillRepository) Update(ctx context.Context, req *model.RefillRequest) error {
	query := `
		UPDATE refill_requests
		SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`
	req.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		req.Status,
		req.RejectionReason,
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update refill request: %w", err)
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

func (r *refillRepository) List(ctx context.Context, filters *model.RefillFilters) ([]*model.RefillRequest, int64, error) {
	baseQuery := `FROM refill_requests WHERE deleted_at IS NULL`
	var args []interface{}

	if filters.PatientID != uuid.Nil {
		args = append(args, filters.PatientID)
		baseQuery += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filters.PrescriptionID != uuid.Nil {
		args = append(args, filters.PrescriptionID)
		baseQuery += fmt.Sprintf(" AND prescription_id = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count refill requests: %w", err)
	}

	args = append(args, filters.PageSize, filters.Offset())
	query := "SELECT * " + baseQuery + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var requests []*model.RefillRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list refill requests: %w", err)
	}
	return requests, total, nil
}

func (r *refillRepository) HasPending(ctx context.Context, prescriptionID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM refill_requests
			WHERE prescription_id = $1 AND status = 'pending' AND deleted_at IS NULL
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, prescriptionID); err != nil {
		return false, fmt.Errorf("failed to check pending refill: %w", err)
	}
	return exists, nil
}
