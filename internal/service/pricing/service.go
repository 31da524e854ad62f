package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/royaltymeds/pharmacy-api/internal/model"
)

var hundred = decimal.NewFromInt(100)

// EffectiveUnitPrice resolves the price a customer pays for one unit.
//
// A sale price wins over a discount percent when both are set. Callers format
// for display with standard currency rounding; no rounding happens here.
func EffectiveUnitPrice(drug *model.Drug) decimal.Decimal {
	if !drug.IsOnSale {
		return drug.UnitPrice
	}
	if drug.SalePrice != nil && drug.SalePrice.IsPositive() {
		return *drug.SalePrice
	}
	if drug.SaleDiscountPercent != nil && drug.SaleDiscountPercent.IsPositive() {
		discount := drug.UnitPrice.Mul(drug.SaleDiscountPercent.Div(hundred))
		return drug.UnitPrice.Sub(discount)
	}
	return drug.UnitPrice
}
