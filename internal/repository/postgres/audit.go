package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
)

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_id, actor_email, action, resource_type, resource_id,
			before_snapshot, after_snapshot, description, ip_address,
			user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.ActorEmail,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.Before,
		log.After,
		log.Description,
		log.IPAddress,
		log.UserAgent,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) ListWithPagination(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, int64, error) {
	baseQuery := `FROM audit_logs WHERE 1=1`
	var args []interface{}

	if filters.ActorID != uuid.Nil {
		args = append(args, filters.ActorID)
		baseQuery += fmt.Sprintf(" AND actor_id = $%d", len(args))
	}
	if filters.Action != "" {
		args = append(args, filters.Action)
		baseQuery += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filters.ResourceType != "" {
		args = append(args, filters.ResourceType)
		baseQuery += fmt.Sprintf(" AND resource_type = $%d", len(args))
	}
	if filters.ResourceID != uuid.Nil {
		args = append(args, filters.ResourceID)
		baseQuery += fmt.Sprintf(" AND resource_id = $%d", len(args))
	}
	if !filters.StartDate.IsZero() {
		args = append(args, filters.StartDate)
		baseQuery += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filters.EndDate.IsZero() {
		args = append(args, filters.EndDate)
		baseQuery += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	args = append(args, filters.PageSize, filters.Offset())
	query := "SELECT * " + baseQuery + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM audit_logs WHERE created_at < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}
	return result.RowsAffected()
}
