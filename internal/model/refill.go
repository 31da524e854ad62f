package model

import (
	"github.com/google/uuid"
)

type RefillStatus string

const (
	RefillStatusPending   RefillStatus = "pending"
	RefillStatusCompleted RefillStatus = "completed"
	RefillStatusRejected  RefillStatus = "rejected"
)

// RefillRequest links a patient and a prescription to a new fulfillment cycle.
type RefillRequest struct {
	Base
	PrescriptionID  uuid.UUID    `db:"prescription_id" json:"prescription_id"`
	PatientID       uuid.UUID    `db:"patient_id" json:"patient_id"`
	Status          RefillStatus `db:"status" json:"status"`
	RefillNumber    int          `db:"refill_number" json:"refill_number"`
	RejectionReason *string      `db:"rejection_reason" json:"rejection_reason,omitempty"`
}

type ResolveRefillRequest struct {
	Status          RefillStatus `json:"status" validate:"required,oneof=completed rejected"`
	RejectionReason string       `json:"rejection_reason" validate:"max=1000"`
}

type RefillFilters struct {
	PatientID      uuid.UUID    `form:"patient_id"`
	PrescriptionID uuid.UUID    `form:"prescription_id"`
	Status         RefillStatus `form:"status"`
	Pagination
}
