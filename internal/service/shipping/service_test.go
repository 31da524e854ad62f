package shipping

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royaltymeds/pharmacy-api/internal/model"
)

type fakeRateRepo struct {
	rates []*model.ShippingRate
}

func (f *fakeRateRepo) Create(ctx context.Context, rate *model.ShippingRate) error {
	rate.ID = uuid.New()
	f.rates = append(f.rates, rate)
	return nil
}

func (f *fakeRateRepo) Get(ctx context.Context, id uuid.UUID) (*model.ShippingRate, error) {
	for _, r := range f.rates {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, assert.AnError
}

func (f *fakeRateRepo) Update(ctx context.Context, rate *model.ShippingRate) error { return nil }
func (f *fakeRateRepo) Delete(ctx context.Context, id uuid.UUID) error             { return nil }

func (f *fakeRateRepo) List(ctx context.Context) ([]*model.ShippingRate, error) {
	return f.rates, nil
}

type fakeConfigRepo struct {
	cfg *model.PaymentConfig
}

func (f *fakeConfigRepo) Get(ctx context.Context) (*model.PaymentConfig, error) {
	return f.cfg, nil
}

func (f *fakeConfigRepo) Update(ctx context.Context, cfg *model.PaymentConfig) error {
	f.cfg = cfg
	return nil
}

func strPtr(s string) *string { return &s }

func newTestService() *Service {
	rates := &fakeRateRepo{rates: []*model.ShippingRate{
		{Parish: "Kingston", City: strPtr("Downtown"), Rate: decimal.NewFromInt(300)},
		{Parish: "Kingston", City: nil, Rate: decimal.NewFromInt(200)},
	}}
	cfg := &fakeConfigRepo{cfg: &model.PaymentConfig{
		TaxType:             model.TaxTypeInclusive,
		DefaultShippingCost: decimal.NewFromInt(500),
	}}
	return NewService(rates, cfg, nil)
}

func TestResolve_ParishAndCityMatch(t *testing.T) {
	svc := newTestService()

	rate, err := svc.Resolve(context.Background(), "Kingston", "Downtown")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(rate))
}

func TestResolve_ParishOnlyFallback(t *testing.T) {
	svc := newTestService()

	rate, err := svc.Resolve(context.Background(), "Kingston", "Uptown")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(rate))
}

func TestResolve_DefaultFallback(t *testing.T) {
	svc := newTestService()

	rate, err := svc.Resolve(context.Background(), "St. Ann", "")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(rate))
}

func TestResolve_EmptyCitySkipsCityTier(t *testing.T) {
	svc := newTestService()

	rate, err := svc.Resolve(context.Background(), "Kingston", "")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(rate))
}

func TestResolve_MatchIsCaseSensitive(t *testing.T) {
	svc := newTestService()

	rate, err := svc.Resolve(context.Background(), "kingston", "downtown")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(rate))
}

func TestResolve_CachesRateTable(t *testing.T) {
	rates := &fakeRateRepo{rates: []*model.ShippingRate{
		{Parish: "Portland", Rate: decimal.NewFromInt(450)},
	}}
	cfg := &fakeConfigRepo{cfg: &model.PaymentConfig{DefaultShippingCost: decimal.NewFromInt(500)}}
	svc := NewService(rates, cfg, nil)

	first, err := svc.Resolve(context.Background(), "Portland", "")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(450).Equal(first))

	// Mutating the backing store without invalidation must not be visible
	// within the cache window.
	rates.rates = nil
	time.Sleep(10 * time.Millisecond)

	second, err := svc.Resolve(context.Background(), "Portland", "")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(450).Equal(second))
}
