package settings

import (
	"context"
	"fmt"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
	"github.com/royaltymeds/pharmacy-api/internal/service/audit"
	"github.com/royaltymeds/pharmacy-api/internal/service/shipping"
)

// Service manages the singleton payment and checkout configuration.
type Service struct {
	repo     repository.PaymentConfigRepository
	auditor  *audit.Service
	shipping *shipping.Service
}

func NewService(repo repository.PaymentConfigRepository, auditor *audit.Service, shippingSvc *shipping.Service) *Service {
	return &Service{repo: repo, auditor: auditor, shipping: shippingSvc}
}

func (s *Service) Get(ctx context.Context) (*model.PaymentConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment config: %w", err)
	}
	return cfg, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, req *model.UpdatePaymentConfigRequest) (*model.PaymentConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment config: %w", err)
	}
	before := *cfg

	if req.BankName != nil {
		cfg.BankName = *req.BankName
	}
	if req.AccountName != nil {
		cfg.AccountName = *req.AccountName
	}
	if req.AccountNumber != nil {
		cfg.AccountNumber = *req.AccountNumber
	}
	if req.BranchDetails != nil {
		cfg.BranchDetails = *req.BranchDetails
	}
	if req.TaxType != nil {
		cfg.TaxType = *req.TaxType
	}
	if req.TaxRate != nil {
		cfg.TaxRate = *req.TaxRate
	}
	if req.DefaultShippingCost != nil {
		cfg.DefaultShippingCost = *req.DefaultShippingCost
	}

	if err := s.repo.Update(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to update payment config: %w", err)
	}
	if s.shipping != nil {
		s.shipping.InvalidateConfig()
	}

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionUpdate,
		ResourceType: model.AuditResourcePaymentConfig,
		ResourceID:   cfg.ID,
		Before:       before,
		After:        cfg,
	})
	return cfg, nil
}
