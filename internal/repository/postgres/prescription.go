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

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(db *sqlx.DB) repository.PrescriptionRepository {
	return &prescriptionRepository{NewBaseRepository(db)}
}

func (r *prescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO prescriptions (
				id, patient_id, doctor_id, status, file_url, proof_file_url,
				admin_notes, pharmacist_name, filled_at, refill_count,
				refill_limit, last_refilled_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`
		_, err := tx.ExecContext(ctx, query,
			p.ID,
			p.PatientID,
			p.DoctorID,
			p.Status,
			p.FileURL,
			p.ProofFileURL,
			p.AdminNotes,
			p.PharmacistName,
			p.FilledAt,
			p.RefillCount,
			p.RefillLimit,
			p.LastRefilledAt,
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create prescription: %w", err)
		}

		for _, item := range p.Items {
			if err := insertItem(ctx, tx, p.ID, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertItem(ctx context.Context, tx *sqlx.Tx, prescriptionID uuid.UUID, item *model.PrescriptionItem) error {
	query := `
		INSERT INTO prescription_items (
			id, prescription_id, medication_name, dosage,
			total_amount, quantity, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	item.ID = uuid.New()
	item.PrescriptionID = prescriptionID
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	if _, err := tx.ExecContext(ctx, query,
		item.ID,
		item.PrescriptionID,
		item.MedicationName,
		item.Dosage,
		item.TotalAmount,
		item.Quantity,
		item.Notes,
		item.CreatedAt,
		item.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create prescription item: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	query := `SELECT * FROM prescriptions WHERE id = $1 AND deleted_at IS NULL`

	var p model.Prescription
	if err := r.GetDB().GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}

	itemsQuery := `
		SELECT * FROM prescription_items
		WHERE prescription_id = $1
		ORDER BY created_at ASC
	`
	if err := r.GetDB().SelectContext(ctx, &p.Items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get prescription items: %w", err)
	}
	return &p, nil
}

func (r *prescriptionRepository) List(ctx context.Context, filters *model.PrescriptionFilters) ([]*model.Prescription, int64, error) {
	baseQuery := `FROM prescriptions WHERE deleted_at IS NULL`
	var args []interface{}

	if filters.PatientID != uuid.Nil {
		args = append(args, filters.PatientID)
		baseQuery += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filters.DoctorID != uuid.Nil {
		args = append(args, filters.DoctorID)
		baseQuery += fmt.Sprintf(" AND doctor_id = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}

	args = append(args, filters.PageSize, filters.Offset())
	query := "SELECT * " + baseQuery + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var prescriptions []*model.Prescription
	if err := r.GetDB().SelectContext(ctx, &prescriptions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list prescriptions: %w", err)
	}

	for _, p := range prescriptions {
		itemsQuery := `SELECT * FROM prescription_items WHERE prescription_id = $1 ORDER BY created_at ASC`
		if err := r.GetDB().SelectContext(ctx, &p.Items, itemsQuery, p.ID); err != nil {
			return nil, 0, fmt.Errorf("failed to get prescription items: %w", err)
		}
	}
	return prescriptions, total, nil
}

func (r *prescriptionRepository) Update(ctx context.Context, p *model.Prescription) error {
	query := `
		UPDATE prescriptions
		SET status = $1, file_url = $2, proof_file_url = $3, admin_notes = $4,
			pharmacist_name = $5, filled_at = $6, refill_count = $7,
			refill_limit = $8, last_refilled_at = $9, updated_at = $10
		WHERE id = $11 AND deleted_at IS NULL
	`
	p.UpdatedAt = time.Now()

	result, err := r.GetDB().ExecContext(ctx, query,
		p.Status,
		p.FileURL,
		p.ProofFileURL,
		p.AdminNotes,
		p.PharmacistName,
		p.FilledAt,
		p.RefillCount,
		p.RefillLimit,
		p.LastRefilledAt,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update prescription: %w", err)
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

func (r *prescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE prescriptions SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.GetDB().ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
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

func (r *prescriptionRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*model.PrescriptionItem, error) {
	query := `SELECT * FROM prescription_items WHERE id = $1`

	var item model.PrescriptionItem
	if err := r.GetDB().GetContext(ctx, &item, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prescription item: %w", err)
	}
	return &item, nil
}

func (r *prescriptionRepository) AddItem(ctx context.Context, item *model.PrescriptionItem) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return insertItem(ctx, tx, item.PrescriptionID, item)
	})
}

func (r *prescriptionRepository) UpdateItem(ctx context.Context, item *model.PrescriptionItem) error {
	query := `
		UPDATE prescription_items
		SET medication_name = $1, dosage = $2, total_amount = $3,
			quantity = $4, notes = $5, updated_at = $6
		WHERE id = $7
	`
	item.UpdatedAt = time.Now()

	result, err := r.GetDB().ExecContext(ctx, query,
		item.MedicationName,
		item.Dosage,
		item.TotalAmount,
		item.Quantity,
		item.Notes,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update prescription item: %w", err)
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

func (r *prescriptionRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	result, err := r.GetDB().ExecContext(ctx, `DELETE FROM prescription_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete prescription item: %w", err)
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

func (r *prescriptionRepository) ApplyFill(ctx context.Context, prescriptionID uuid.UUID, fills []model.FillItemRequest, newStatus model.PrescriptionStatus, proofFileURL, pharmacistName string, filledAt time.Time) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Guarded decrement: a concurrent fill that already consumed the
		// remaining quantity makes this affect zero rows and aborts the tx.
		decrement := `
			UPDATE prescription_items
			SET quantity = quantity - $1, updated_at = $2
			WHERE id = $3 AND prescription_id = $4 AND quantity >= $1
		`
		for _, fill := range fills {
			if fill.QuantityFilled == 0 {
				continue
			}
			result, err := tx.ExecContext(ctx, decrement,
				fill.QuantityFilled, time.Now(), fill.ItemID, prescriptionID)
			if err != nil {
				return fmt.Errorf("failed to decrement item quantity: %w", err)
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rows == 0 {
				return repository.ErrFillConflict
			}
		}

		update := `
			UPDATE prescriptions
			SET status = $1, proof_file_url = $2, pharmacist_name = $3,
				filled_at = $4, updated_at = $5
			WHERE id = $6 AND deleted_at IS NULL
		`
		result, err := tx.ExecContext(ctx, update,
			newStatus, proofFileURL, pharmacistName, filledAt, time.Now(), prescriptionID)
		if err != nil {
			return fmt.Errorf("failed to update prescription after fill: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}
