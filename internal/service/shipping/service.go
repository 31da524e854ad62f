package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
	"github.com/royaltymeds/pharmacy-api/internal/service/audit"
	apperrors "github.com/royaltymeds/pharmacy-api/pkg/errors"
)

const (
	ratesCacheKey  = "shipping_rates"
	configCacheKey = "payment_config"
)

// Service resolves delivery rates and manages the configured rate table.
// Reads go through a short-lived cache; admin mutations invalidate it.
type Service struct {
	rateRepo   repository.ShippingRateRepository
	configRepo repository.PaymentConfigRepository
	auditor    *audit.Service
	cache      *cache.Cache
}

func NewService(rateRepo repository.ShippingRateRepository, configRepo repository.PaymentConfigRepository, auditor *audit.Service) *Service {
	return &Service{
		rateRepo:   rateRepo,
		configRepo: configRepo,
		auditor:    auditor,
		cache:      cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Resolve returns the delivery rate for a parish and optional city/town.
// Precedence: exact parish+city match, then parish-only match, then the
// configured default. Matches are case-sensitive as configured.
func (s *Service) Resolve(ctx context.Context, parish, city string) (decimal.Decimal, error) {
	rates, err := s.rates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if city != "" {
		for _, rate := range rates {
			if rate.Parish == parish && rate.City != nil && *rate.City == city {
				return rate.Rate, nil
			}
		}
	}

	for _, rate := range rates {
		if rate.Parish == parish && rate.City == nil {
			return rate.Rate, nil
		}
	}

	cfg, err := s.paymentConfig(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return cfg.DefaultShippingCost, nil
}

func (s *Service) rates(ctx context.Context) ([]*model.ShippingRate, error) {
	if cached, ok := s.cache.Get(ratesCacheKey); ok {
		return cached.([]*model.ShippingRate), nil
	}

	rates, err := s.rateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipping rates: %w", err)
	}
	s.cache.SetDefault(ratesCacheKey, rates)
	return rates, nil
}

func (s *Service) paymentConfig(ctx context.Context) (*model.PaymentConfig, error) {
	if cached, ok := s.cache.Get(configCacheKey); ok {
		return cached.(*model.PaymentConfig), nil
	}

	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment config: %w", err)
	}
	s.cache.SetDefault(configCacheKey, cfg)
	return cfg, nil
}

func (s *Service) ListRates(ctx context.Context) ([]*model.ShippingRate, error) {
	return s.rates(ctx)
}

func (s *Service) CreateRate(ctx context.Context, actor model.Actor, req *model.CreateShippingRateRequest) (*model.ShippingRate, error) {
	rate := &model.ShippingRate{
		Parish:    req.Parish,
		City:      req.City,
		Rate:      req.Rate,
		IsDefault: req.IsDefault,
	}
	if err := s.rateRepo.Create(ctx, rate); err != nil {
		return nil, err
	}
	s.cache.Delete(ratesCacheKey)

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionCreate,
		ResourceType: model.AuditResourceShippingRate,
		ResourceID:   rate.ID,
		After:        rate,
	})
	return rate, nil
}

func (s *Service) UpdateRate(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateShippingRateRequest) (*model.ShippingRate, error) {
	rate, err := s.rateRepo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("shipping rate", err)
		}
		return nil, err
	}
	before := *rate

	if req.Parish != nil {
		rate.Parish = *req.Parish
	}
	if req.City != nil {
		rate.City = req.City
	}
	if req.Rate != nil {
		rate.Rate = *req.Rate
	}
	if req.IsDefault != nil {
		rate.IsDefault = *req.IsDefault
	}

	if err := s.rateRepo.Update(ctx, rate); err != nil {
		return nil, err
	}
	s.cache.Delete(ratesCacheKey)

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionUpdate,
		ResourceType: model.AuditResourceShippingRate,
		ResourceID:   rate.ID,
		Before:       before,
		After:        rate,
	})
	return rate, nil
}

func (s *Service) DeleteRate(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	rate, err := s.rateRepo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("shipping rate", err)
		}
		return err
	}

	if err := s.rateRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(ratesCacheKey)

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionDelete,
		ResourceType: model.AuditResourceShippingRate,
		ResourceID:   id,
		Before:       rate,
	})
	return nil
}

// InvalidateConfig drops the cached payment config after a settings change.
func (s *Service) InvalidateConfig() {
	s.cache.Delete(configCacheKey)
}
