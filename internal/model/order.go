package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type Order struct {
	Base
	UserID             uuid.UUID        `db:"user_id" json:"user_id"`
	Status             OrderStatus      `db:"status" json:"status"`
	PaymentStatus      PaymentStatus    `db:"payment_status" json:"payment_status"`
	SubtotalAmount     decimal.Decimal  `db:"subtotal_amount" json:"subtotal_amount"`
	TaxAmount          decimal.Decimal  `db:"tax_amount" json:"tax_amount"`
	ShippingAmount     decimal.Decimal  `db:"shipping_amount" json:"shipping_amount"`
	TotalAmount        decimal.Decimal  `db:"total_amount" json:"total_amount"`
	CollectOnDelivery  bool             `db:"shipping_collect_on_delivery" json:"shipping_collect_on_delivery"`
	CustomShippingRate *decimal.Decimal `db:"custom_shipping_rate" json:"custom_shipping_rate,omitempty"`
	ShippingPaidOnline bool             `db:"shipping_paid_online" json:"shipping_paid_online"`
	PaymentProofURL    string           `db:"payment_proof_url" json:"payment_proof_url,omitempty"`
	ShippingParish     string           `db:"shipping_parish" json:"shipping_parish"`
	ShippingCity       string           `db:"shipping_city" json:"shipping_city,omitempty"`
	ShippingAddress    string           `db:"shipping_address" json:"shipping_address"`
	ContactPhone       string           `db:"contact_phone" json:"contact_phone"`
	Items              []*OrderItem     `db:"-" json:"items,omitempty"`
}

type OrderItem struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	OrderID      uuid.UUID       `db:"order_id" json:"order_id"`
	DrugID       uuid.UUID       `db:"drug_id" json:"drug_id"`
	DrugName     string          `db:"drug_name" json:"drug_name"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	PharmConfirm bool            `db:"pharm_confirm" json:"pharm_confirm"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

type CheckoutItemRequest struct {
	DrugID   uuid.UUID `json:"drug_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

type CheckoutRequest struct {
	Items           []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingParish  string                `json:"shipping_parish" validate:"required,max=100"`
	ShippingCity    string                `json:"shipping_city" validate:"max=100"`
	ShippingAddress string                `json:"shipping_address" validate:"required,max=500"`
	ContactPhone    string                `json:"contact_phone" validate:"required,max=30"`
	PayOnDelivery   bool                  `json:"pay_on_delivery"`
}

type UpdateOrderRequest struct {
	Status             *OrderStatus     `json:"status"`
	PaymentStatus      *PaymentStatus   `json:"payment_status"`
	CustomShippingRate *decimal.Decimal `json:"custom_shipping_rate"`
	ShippingPaidOnline *bool            `json:"shipping_paid_online"`
}

type AttachPaymentProofRequest struct {
	FileURL string `json:"file_url" validate:"required,max=1000"`
}

type OrderFilters struct {
	UserID        uuid.UUID     `form:"user_id"`
	Status        OrderStatus   `form:"status"`
	PaymentStatus PaymentStatus `form:"payment_status"`
	Pagination
}
