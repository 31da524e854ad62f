package model

import (
	"github.com/shopspring/decimal"
)

// Drug is a catalog item in the OTC storefront.
type Drug struct {
	Base
	Name                 string           `db:"name" json:"name"`
	GenericName          string           `db:"generic_name" json:"generic_name,omitempty"`
	Description          string           `db:"description" json:"description,omitempty"`
	Category             string           `db:"category" json:"category,omitempty"`
	UnitPrice            decimal.Decimal  `db:"unit_price" json:"unit_price"`
	IsOnSale             bool             `db:"is_on_sale" json:"is_on_sale"`
	SalePrice            *decimal.Decimal `db:"sale_price" json:"sale_price,omitempty"`
	SaleDiscountPercent  *decimal.Decimal `db:"sale_discount_percent" json:"sale_discount_percent,omitempty"`
	StockQuantity        int              `db:"stock_quantity" json:"stock_quantity"`
	RequiresPrescription bool             `db:"requires_prescription" json:"requires_prescription"`
	ImageURL             string           `db:"image_url" json:"image_url,omitempty"`

	// EffectivePrice is computed on read, never stored.
	EffectivePrice decimal.Decimal `db:"-" json:"effective_price"`
}

type CreateDrugRequest struct {
	Name                 string           `json:"name" validate:"required,max=255"`
	GenericName          string           `json:"generic_name" validate:"max=255"`
	Description          string           `json:"description" validate:"max=2000"`
	Category             string           `json:"category" validate:"max=100"`
	UnitPrice            decimal.Decimal  `json:"unit_price" validate:"required"`
	IsOnSale             bool             `json:"is_on_sale"`
	SalePrice            *decimal.Decimal `json:"sale_price"`
	SaleDiscountPercent  *decimal.Decimal `json:"sale_discount_percent"`
	StockQuantity        int              `json:"stock_quantity" validate:"gte=0"`
	RequiresPrescription bool             `json:"requires_prescription"`
	ImageURL             string           `json:"image_url" validate:"max=1000"`
}

type UpdateDrugRequest struct {
	Name                 *string          `json:"name"`
	GenericName          *string          `json:"generic_name"`
	Description          *string          `json:"description"`
	Category             *string          `json:"category"`
	UnitPrice            *decimal.Decimal `json:"unit_price"`
	IsOnSale             *bool            `json:"is_on_sale"`
	SalePrice            *decimal.Decimal `json:"sale_price"`
	SaleDiscountPercent  *decimal.Decimal `json:"sale_discount_percent"`
	StockQuantity        *int             `json:"stock_quantity"`
	RequiresPrescription *bool            `json:"requires_prescription"`
	ImageURL             *string          `json:"image_url"`
}

type DrugFilters struct {
	SearchTerm string `form:"q"`
	Category   string `form:"category"`
	OnSaleOnly bool   `form:"on_sale"`
	OTCOnly    bool   `form:"otc_only"`
	Pagination
}
