package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/royaltymeds/pharmacy-api/internal/model"
)

// Sentinel errors returned by implementations so services can map them onto
// the HTTP error taxonomy without knowing about drivers.
var (
	ErrNotFound = errors.New("not found")

	// ErrFillConflict is returned when a conditional quantity decrement
	// affects zero rows, i.e. a concurrent fill got there first.
	ErrFillConflict = errors.New("fill conflicts with a concurrent update")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	DrugRepository interface {
		Create(ctx context.Context, drug *model.Drug) error
		Get(ctx context.Context, id uuid.UUID) (*model.Drug, error)
		GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Drug, error)
		Update(ctx context.Context, drug *model.Drug) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.DrugFilters) ([]*model.Drug, int64, error)
		DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, p *model.Prescription) error
		Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		List(ctx context.Context, filters *model.PrescriptionFilters) ([]*model.Prescription, int64, error)
		Update(ctx context.Context, p *model.Prescription) error
		Delete(ctx context.Context, id uuid.UUID) error

		GetItem(ctx context.Context, itemID uuid.UUID) (*model.PrescriptionItem, error)
		AddItem(ctx context.Context, item *model.PrescriptionItem) error
		UpdateItem(ctx context.Context, item *model.PrescriptionItem) error
		DeleteItem(ctx context.Context, itemID uuid.UUID) error

		// ApplyFill decrements remaining quantities and records the fill
		// atomically. Each decrement is guarded (quantity >= filled amount);
		// any guard failure aborts the transaction with ErrFillConflict.
		ApplyFill(ctx context.Context, prescriptionID uuid.UUID, fills []model.FillItemRequest, newStatus model.PrescriptionStatus, proofFileURL, pharmacistName string, filledAt time.Time) error
	}

	OrderRepository interface {
		Create(ctx context.Context, order *model.Order) error
		Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
		List(ctx context.Context, filters *model.OrderFilters) ([]*model.Order, int64, error)
		Update(ctx context.Context, order *model.Order) error
	}

	ShippingRateRepository interface {
		Create(ctx context.Context, rate *model.ShippingRate) error
		Get(ctx context.Context, id uuid.UUID) (*model.ShippingRate, error)
		Update(ctx context.Context, rate *model.ShippingRate) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.ShippingRate, error)
	}

	PaymentConfigRepository interface {
		Get(ctx context.Context) (*model.PaymentConfig, error)
		Update(ctx context.Context, cfg *model.PaymentConfig) error
	}

	RefillRepository interface {
		Create(ctx context.Context, req *model.RefillRequest) error
		Get(ctx context.Context, id uuid.UUID) (*model.RefillRequest, error)
		Update(ctx context.Context, req *model.RefillRequest) error
		List(ctx context.Context, filters *model.RefillFilters) ([]*model.RefillRequest, int64, error)
		HasPending(ctx context.Context, prescriptionID uuid.UUID) (bool, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		ListWithPagination(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, int64, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}
)
