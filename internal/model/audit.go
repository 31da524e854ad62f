package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is an immutable record of an admin mutation. Snapshots are stored
// verbatim as opaque JSON; nothing validates their shape.
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ActorID      uuid.UUID       `json:"actor_id" db:"actor_id"`
	ActorEmail   string          `json:"actor_email" db:"actor_email"`
	Action       string          `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"`
	ResourceID   uuid.UUID       `json:"resource_id" db:"resource_id"`
	Before       json.RawMessage `json:"before,omitempty" db:"before_snapshot"`
	After        json.RawMessage `json:"after,omitempty" db:"after_snapshot"`
	Description  string          `json:"description,omitempty" db:"description"`
	IPAddress    string          `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent    string          `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate  = "CREATE"
	AuditActionUpdate  = "UPDATE"
	AuditActionDelete  = "DELETE"
	AuditActionApprove = "APPROVE"
	AuditActionReject  = "REJECT"
	AuditActionFill    = "FILL"

	// Resource types
	AuditResourcePrescription  = "prescription"
	AuditResourceOrder         = "order"
	AuditResourceDrug          = "drug"
	AuditResourceShippingRate  = "shipping_rate"
	AuditResourcePaymentConfig = "payment_config"
	AuditResourceRefillRequest = "refill_request"
)

type AuditFilters struct {
	ActorID      uuid.UUID `form:"actor_id"`
	Action       string    `form:"action"`
	ResourceType string    `form:"resource_type"`
	ResourceID   uuid.UUID `form:"resource_id"`
	StartDate    time.Time `form:"start_date"`
	EndDate      time.Time `form:"end_date"`
	Pagination
}
