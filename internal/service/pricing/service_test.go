package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/royaltymeds/pharmacy-api/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestEffectiveUnitPrice_NotOnSale(t *testing.T) {
	drug := &model.Drug{UnitPrice: dec("20.00"), IsOnSale: false, SalePrice: decPtr("12.00")}
	assert.True(t, dec("20.00").Equal(EffectiveUnitPrice(drug)))
}

func TestEffectiveUnitPrice_SalePriceWins(t *testing.T) {
	drug := &model.Drug{
		UnitPrice:           dec("20.00"),
		IsOnSale:            true,
		SalePrice:           decPtr("12.00"),
		SaleDiscountPercent: decPtr("25"),
	}
	assert.True(t, dec("12.00").Equal(EffectiveUnitPrice(drug)))
}

func TestEffectiveUnitPrice_DiscountPercent(t *testing.T) {
	drug := &model.Drug{
		UnitPrice:           dec("20.00"),
		IsOnSale:            true,
		SalePrice:           decPtr("0"),
		SaleDiscountPercent: decPtr("25"),
	}
	assert.True(t, dec("15.00").Equal(EffectiveUnitPrice(drug)))
}

func TestEffectiveUnitPrice_OnSaleWithoutSaleFields(t *testing.T) {
	drug := &model.Drug{UnitPrice: dec("20.00"), IsOnSale: true}
	assert.True(t, dec("20.00").Equal(EffectiveUnitPrice(drug)))
}

func TestEffectiveUnitPrice_NilSalePriceFallsThrough(t *testing.T) {
	drug := &model.Drug{
		UnitPrice:           dec("50.00"),
		IsOnSale:            true,
		SaleDiscountPercent: decPtr("10"),
	}
	assert.True(t, dec("45.00").Equal(EffectiveUnitPrice(drug)))
}
