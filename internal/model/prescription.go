package model

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	PrescriptionStatusPending         PrescriptionStatus = "pending"
	PrescriptionStatusApproved        PrescriptionStatus = "approved"
	PrescriptionStatusRejected        PrescriptionStatus = "rejected"
	PrescriptionStatusProcessing      PrescriptionStatus = "processing"
	PrescriptionStatusPartiallyFilled PrescriptionStatus = "partially_filled"
	PrescriptionStatusFilled          PrescriptionStatus = "filled"
)

// prescriptionTransitions enumerates the legal status edges. Fill outcomes
// (processing/partially_filled -> partially_filled|filled) are derived by the
// fill operation, not requested by callers.
var prescriptionTransitions = map[PrescriptionStatus][]PrescriptionStatus{
	PrescriptionStatusPending:         {PrescriptionStatusApproved, PrescriptionStatusRejected},
	PrescriptionStatusApproved:        {PrescriptionStatusProcessing},
	PrescriptionStatusProcessing:      {PrescriptionStatusPartiallyFilled, PrescriptionStatusFilled},
	PrescriptionStatusPartiallyFilled: {PrescriptionStatusPartiallyFilled, PrescriptionStatusFilled},
}

// CanTransition reports whether a prescription may move from one status to another.
func (s PrescriptionStatus) CanTransition(to PrescriptionStatus) bool {
	for _, next := range prescriptionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s PrescriptionStatus) Terminal() bool {
	return len(prescriptionTransitions[s]) == 0
}

// ItemsEditable reports whether medication items may be added, edited or
// deleted in this status.
func (s PrescriptionStatus) ItemsEditable() bool {
	return s == PrescriptionStatusProcessing || s == PrescriptionStatusPartiallyFilled
}

type Prescription struct {
	Base
	PatientID      uuid.UUID           `db:"patient_id" json:"patient_id"`
	DoctorID       *uuid.UUID          `db:"doctor_id" json:"doctor_id,omitempty"`
	Status         PrescriptionStatus  `db:"status" json:"status"`
	FileURL        string              `db:"file_url" json:"file_url,omitempty"`
	ProofFileURL   string              `db:"proof_file_url" json:"proof_file_url,omitempty"`
	AdminNotes     string              `db:"admin_notes" json:"admin_notes,omitempty"`
	PharmacistName *string             `db:"pharmacist_name" json:"pharmacist_name,omitempty"`
	FilledAt       *time.Time          `db:"filled_at" json:"filled_at,omitempty"`
	RefillCount    int                 `db:"refill_count" json:"refill_count"`
	RefillLimit    int                 `db:"refill_limit" json:"refill_limit"`
	LastRefilledAt *time.Time          `db:"last_refilled_at" json:"last_refilled_at,omitempty"`
	Items          []*PrescriptionItem `db:"-" json:"items,omitempty"`
}

// PrescriptionItem tracks a single medication line. Quantity is the remaining
// amount; TotalAmount is the originally ordered amount. filled = total - remaining.
type PrescriptionItem struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	MedicationName string    `db:"medication_name" json:"medication_name"`
	Dosage         string    `db:"dosage" json:"dosage,omitempty"`
	TotalAmount    int       `db:"total_amount" json:"total_amount"`
	Quantity       int       `db:"quantity" json:"quantity"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Filled returns the dispensed amount so far.
func (i *PrescriptionItem) Filled() int {
	return i.TotalAmount - i.Quantity
}

type CreatePrescriptionRequest struct {
	FileURL string `json:"file_url" validate:"required,max=1000"`
	Notes   string `json:"notes" validate:"max=2000"`
}

type SubmitPrescriptionRequest struct {
	PatientID uuid.UUID                       `json:"patient_id" validate:"required"`
	FileURL   string                          `json:"file_url" validate:"max=1000"`
	Notes     string                          `json:"notes" validate:"max=2000"`
	Items     []SubmitPrescriptionItemRequest `json:"items" validate:"required,min=1,dive"`
}

type SubmitPrescriptionItemRequest struct {
	MedicationName string `json:"medication_name" validate:"required,max=255"`
	Dosage         string `json:"dosage" validate:"max=255"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	Notes          string `json:"notes" validate:"max=1000"`
}

type UpdatePrescriptionStatusRequest struct {
	Status     PrescriptionStatus `json:"status" validate:"required,oneof=approved rejected processing"`
	AdminNotes string             `json:"admin_notes" validate:"max=2000"`
}

type FillPrescriptionRequest struct {
	Items        []FillItemRequest `json:"items" validate:"required,min=1,dive"`
	ProofFileURL string            `json:"proof_file_url" validate:"required,max=1000"`
}

type FillItemRequest struct {
	ItemID         uuid.UUID `json:"itemId" validate:"required"`
	QuantityFilled int       `json:"quantityFilled" validate:"gte=0"`
}

type AddPrescriptionItemRequest struct {
	MedicationName string `json:"medication_name" validate:"required,max=255"`
	Dosage         string `json:"dosage" validate:"max=255"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	Notes          string `json:"notes" validate:"max=1000"`
}

type UpdatePrescriptionItemRequest struct {
	MedicationName *string `json:"medication_name"`
	Dosage         *string `json:"dosage"`
	Quantity       *int    `json:"quantity"`
	Notes          *string `json:"notes"`
}

type PrescriptionFilters struct {
	PatientID uuid.UUID          `form:"patient_id"`
	DoctorID  uuid.UUID          `form:"doctor_id"`
	Status    PrescriptionStatus `form:"status"`
	Pagination
}
