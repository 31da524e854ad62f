package model

import (
	"github.com/shopspring/decimal"
)

// ShippingRate is a configured delivery rate for a parish, optionally narrowed
// to a city/town. IsDefault is administrative only; it does not affect lookup
// precedence.
type ShippingRate struct {
	Base
	Parish    string          `db:"parish" json:"parish"`
	City      *string         `db:"city" json:"city,omitempty"`
	Rate      decimal.Decimal `db:"rate" json:"rate"`
	IsDefault bool            `db:"is_default" json:"is_default"`
}

type CreateShippingRateRequest struct {
	Parish    string          `json:"parish" validate:"required,max=100"`
	City      *string         `json:"city" validate:"omitempty,max=100"`
	Rate      decimal.Decimal `json:"rate" validate:"required"`
	IsDefault bool            `json:"is_default"`
}

type UpdateShippingRateRequest struct {
	Parish    *string          `json:"parish"`
	City      *string          `json:"city"`
	Rate      *decimal.Decimal `json:"rate"`
	IsDefault *bool            `json:"is_default"`
}

// TaxType determines how tax is presented. Inclusive tax is embedded in the
// listed price; no additive tax line is ever computed.
type TaxType string

const (
	TaxTypeNone      TaxType = "none"
	TaxTypeInclusive TaxType = "inclusive"
)

// PaymentConfig is the singleton settings row for checkout.
type PaymentConfig struct {
	Base
	BankName            string          `db:"bank_name" json:"bank_name"`
	AccountName         string          `db:"account_name" json:"account_name"`
	AccountNumber       string          `db:"account_number" json:"account_number"`
	BranchDetails       string          `db:"branch_details" json:"branch_details,omitempty"`
	TaxType             TaxType         `db:"tax_type" json:"tax_type"`
	TaxRate             decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	DefaultShippingCost decimal.Decimal `db:"default_shipping_cost" json:"default_shipping_cost"`
}

type UpdatePaymentConfigRequest struct {
	BankName            *string          `json:"bank_name"`
	AccountName         *string          `json:"account_name"`
	AccountNumber       *string          `json:"account_number"`
	BranchDetails       *string          `json:"branch_details"`
	TaxType             *TaxType         `json:"tax_type" validate:"omitempty,oneof=none inclusive"`
	TaxRate             *decimal.Decimal `json:"tax_rate"`
	DefaultShippingCost *decimal.Decimal `json:"default_shipping_cost"`
}
