package drug

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
	"github.com/royaltymeds/pharmacy-api/internal/service/audit"
	"github.com/royaltymeds/pharmacy-api/internal/service/pricing"
	apperrors "github.com/royaltymeds/pharmacy-api/pkg/errors"
)

// Service manages the OTC drug catalog.
type Service struct {
	repo    repository.DrugRepository
	auditor *audit.Service
}

func NewService(repo repository.DrugRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateDrugRequest) (*model.Drug, error) {
	if err := validateSaleFields(req.IsOnSale, req.SalePrice, req.SaleDiscountPercent); err != nil {
		return nil, err
	}

	drug := &model.Drug{
		Name:                 req.Name,
		GenericName:          req.GenericName,
		Description:          req.Description,
		Category:             req.Category,
		UnitPrice:            req.UnitPrice,
		IsOnSale:             req.IsOnSale,
		SalePrice:            req.SalePrice,
		SaleDiscountPercent:  req.SaleDiscountPercent,
		StockQuantity:        req.StockQuantity,
		RequiresPrescription: req.RequiresPrescription,
		ImageURL:             req.ImageURL,
	}
	if err := s.repo.Create(ctx, drug); err != nil {
		return nil, fmt.Errorf("failed to create drug: %w", err)
	}
	drug.EffectivePrice = pricing.EffectiveUnitPrice(drug)

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionCreate,
		ResourceType: model.AuditResourceDrug,
		ResourceID:   drug.ID,
		After:        drug,
	})
	return drug, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Drug, error) {
	drug, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("drug", err)
		}
		return nil, err
	}
	drug.EffectivePrice = pricing.EffectiveUnitPrice(drug)
	return drug, nil
}

func (s *Service) List(ctx context.Context, filters *model.DrugFilters) ([]*model.Drug, int64, error) {
	filters.Normalize()
	drugs, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	for _, d := range drugs {
		d.EffectivePrice = pricing.EffectiveUnitPrice(d)
	}
	return drugs, total, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateDrugRequest) (*model.Drug, error) {
	drug, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("drug", err)
		}
		return nil, err
	}
	before := *drug

	if req.Name != nil {
		drug.Name = *req.Name
	}
	if req.GenericName != nil {
		drug.GenericName = *req.GenericName
	}
	if req.Description != nil {
		drug.Description = *req.Description
	}
	if req.Category != nil {
		drug.Category = *req.Category
	}
	if req.UnitPrice != nil {
		drug.UnitPrice = *req.UnitPrice
	}
	if req.IsOnSale != nil {
		drug.IsOnSale = *req.IsOnSale
	}
	if req.SalePrice != nil {
		drug.SalePrice = req.SalePrice
	}
	if req.SaleDiscountPercent != nil {
		drug.SaleDiscountPercent = req.SaleDiscountPercent
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return nil, apperrors.BadRequest("stock quantity cannot be negative", nil)
		}
		drug.StockQuantity = *req.StockQuantity
	}
	if req.RequiresPrescription != nil {
		drug.RequiresPrescription = *req.RequiresPrescription
	}
	if req.ImageURL != nil {
		drug.ImageURL = *req.ImageURL
	}

	if err := validateSaleFields(drug.IsOnSale, drug.SalePrice, drug.SaleDiscountPercent); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, drug); err != nil {
		return nil, fmt.Errorf("failed to update drug: %w", err)
	}
	drug.EffectivePrice = pricing.EffectiveUnitPrice(drug)

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionUpdate,
		ResourceType: model.AuditResourceDrug,
		ResourceID:   drug.ID,
		Before:       before,
		After:        drug,
	})
	return drug, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	drug, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("drug", err)
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete drug: %w", err)
	}

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionDelete,
		ResourceType: model.AuditResourceDrug,
		ResourceID:   id,
		Before:       drug,
	})
	return nil
}

// validateSaleFields rejects negative sale values. A sale with neither field
// set is allowed and resolves to the regular price.
func validateSaleFields(onSale bool, salePrice, discountPercent *decimal.Decimal) error {
	if !onSale {
		return nil
	}
	if salePrice != nil && salePrice.IsNegative() {
		return apperrors.BadRequest("sale price cannot be negative", nil)
	}
	if discountPercent != nil && discountPercent.IsNegative() {
		return apperrors.BadRequest("sale discount percent cannot be negative", nil)
	}
	return nil
}
