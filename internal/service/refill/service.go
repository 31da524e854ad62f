package refill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
	"github.com/royaltymeds/pharmacy-api/internal/service/audit"
	apperrors "github.com/royaltymeds/pharmacy-api/pkg/errors"
	"github.com/royaltymeds/pharmacy-api/pkg/messaging"
	"github.com/royaltymeds/pharmacy-api/pkg/metrics"
)

// Service gates and tracks refill requests against prescriptions.
type Service struct {
	refillRepo       repository.RefillRepository
	prescriptionRepo repository.PrescriptionRepository
	auditor          *audit.Service
	broker           messaging.Broker
	metrics          *metrics.Metrics
}

func NewService(refillRepo repository.RefillRepository, prescriptionRepo repository.PrescriptionRepository, auditor *audit.Service, broker messaging.Broker, m *metrics.Metrics) *Service {
	return &Service{
		refillRepo:       refillRepo,
		prescriptionRepo: prescriptionRepo,
		auditor:          auditor,
		broker:           broker,
		metrics:          m,
	}
}

// IsRefillable reports whether a refill may be requested right now. Only a
// partially filled prescription qualifies: fully filled ones are complete and
// anything earlier has not been dispensed against yet.
func IsRefillable(p *model.Prescription) bool {
	return p.Status == model.PrescriptionStatusPartiallyFilled
}

// Request creates a pending refill request for the patient's prescription.
func (s *Service) Request(ctx context.Context, actor model.Actor, prescriptionID uuid.UUID) (*model.RefillRequest, error) {
	p, err := s.prescriptionRepo.Get(ctx, prescriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, err
	}
	if p.PatientID != actor.ID {
		return nil, apperrors.Forbidden("", nil)
	}
	if !IsRefillable(p) {
		return nil, apperrors.BadRequest("prescription is not eligible for a refill", nil)
	}
	if p.RefillLimit > 0 && p.RefillCount >= p.RefillLimit {
		return nil, apperrors.BadRequest("refill limit reached for this prescription", nil)
	}

	pending, err := s.refillRepo.HasPending(ctx, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending refills: %w", err)
	}
	if pending {
		return nil, apperrors.BadRequest("a refill request is already pending for this prescription", nil)
	}

	req := &model.RefillRequest{
		PrescriptionID: prescriptionID,
		PatientID:      actor.ID,
		Status:         model.RefillStatusPending,
		RefillNumber:   p.RefillCount + 1,
	}
	if err := s.refillRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create refill request: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RefillRequests.Inc()
	}
	s.publish(ctx, messaging.EventRefillRequested, req)

	return req, nil
}

// Resolve completes or rejects a pending refill request. Completion bumps the
// prescription's refill counter and starts a new fulfillment cycle by moving
// it back to processing.
func (s *Service) Resolve(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.ResolveRefillRequest) (*model.RefillRequest, error) {
	refill, err := s.refillRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("refill request", err)
		}
		return nil, err
	}
	if refill.Status != model.RefillStatusPending {
		return nil, apperrors.BadRequest("refill request has already been resolved", nil)
	}
	before := *refill

	refill.Status = req.Status
	if req.Status == model.RefillStatusRejected && req.RejectionReason != "" {
		refill.RejectionReason = &req.RejectionReason
	}

	if err := s.refillRepo.Update(ctx, refill); err != nil {
		return nil, fmt.Errorf("failed to update refill request: %w", err)
	}

	if req.Status == model.RefillStatusCompleted {
		if err := s.startRefillCycle(ctx, refill.PrescriptionID); err != nil {
			return nil, err
		}
	}

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionUpdate,
		ResourceType: model.AuditResourceRefillRequest,
		ResourceID:   refill.ID,
		Before:       before,
		After:        refill,
	})
	s.publish(ctx, messaging.EventRefillResolved, refill)

	return refill, nil
}

// startRefillCycle restores the remaining quantities and reopens the
// prescription for dispensing.
func (s *Service) startRefillCycle(ctx context.Context, prescriptionID uuid.UUID) error {
	p, err := s.prescriptionRepo.Get(ctx, prescriptionID)
	if err != nil {
		return fmt.Errorf("failed to load prescription for refill: %w", err)
	}

	now := time.Now()
	p.RefillCount++
	p.LastRefilledAt = &now
	p.Status = model.PrescriptionStatusProcessing
	if err := s.prescriptionRepo.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to reopen prescription: %w", err)
	}

	for _, item := range p.Items {
		if item.Quantity == item.TotalAmount {
			continue
		}
		item.Quantity = item.TotalAmount
		if err := s.prescriptionRepo.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("failed to reset item quantity: %w", err)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.RefillFilters) ([]*model.RefillRequest, int64, error) {
	if !actor.IsAdmin() {
		filters.PatientID = actor.ID
	}
	filters.Normalize()
	return s.refillRepo.List(ctx, filters)
}

func (s *Service) publish(ctx context.Context, eventType string, refill *model.RefillRequest) {
	if s.broker == nil {
		return
	}
	event := messaging.Event{
		Type: eventType,
		Payload: map[string]interface{}{
			"refill_id":       refill.ID,
			"prescription_id": refill.PrescriptionID,
			"patient_id":      refill.PatientID,
			"status":          refill.Status,
		},
	}
	status := "ok"
	if err := s.broker.Publish(ctx, messaging.ChannelRefills, event); err != nil {
		status = "error"
		log.Warn().Err(err).Str("refill_id", refill.ID.String()).Msg("failed to publish refill event")
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
	}
}
