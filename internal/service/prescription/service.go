package prescription

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

const defaultRefillLimit = 5

// Service owns the prescription fulfillment state machine:
// pending -> approved|rejected, approved -> processing,
// processing/partially_filled -> partially_filled|filled via Fill.
type Service struct {
	repo    repository.PrescriptionRepository
	auditor *audit.Service
	broker  messaging.Broker
	metrics *metrics.Metrics
}

func NewService(repo repository.PrescriptionRepository, auditor *audit.Service, broker messaging.Broker, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		broker:  broker,
		metrics: m,
	}
}

// Create registers a patient-uploaded prescription in the pending state.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	p := &model.Prescription{
		PatientID:   actor.ID,
		Status:      model.PrescriptionStatusPending,
		FileURL:     req.FileURL,
		AdminNotes:  req.Notes,
		RefillLimit: defaultRefillLimit,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}
	return p, nil
}

// Submit registers a doctor-submitted prescription with medication items.
func (s *Service) Submit(ctx context.Context, actor model.Actor, req *model.SubmitPrescriptionRequest) (*model.Prescription, error) {
	doctorID := actor.ID
	p := &model.Prescription{
		PatientID:   req.PatientID,
		DoctorID:    &doctorID,
		Status:      model.PrescriptionStatusPending,
		FileURL:     req.FileURL,
		AdminNotes:  req.Notes,
		RefillLimit: defaultRefillLimit,
	}
	for _, item := range req.Items {
		p.Items = append(p.Items, &model.PrescriptionItem{
			MedicationName: item.MedicationName,
			Dosage:         item.Dosage,
			TotalAmount:    item.Quantity,
			Quantity:       item.Quantity,
			Notes:          item.Notes,
		})
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}
	return p, nil
}

// Get fetches a prescription, enforcing ownership for non-admin actors.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Prescription, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, err
	}
	if err := s.authorize(actor, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) authorize(actor model.Actor, p *model.Prescription) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleDoctor:
		if p.DoctorID != nil && *p.DoctorID == actor.ID {
			return nil
		}
	case model.RolePatient:
		if p.PatientID == actor.ID {
			return nil
		}
	}
	return apperrors.Forbidden("", nil)
}

// List returns prescriptions scoped by the actor's role: patients see their
// own, doctors their submissions, admins everything the filters allow.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.PrescriptionFilters) ([]*model.Prescription, int64, error) {
	switch actor.Role {
	case model.RolePatient:
		filters.PatientID = actor.ID
	case model.RoleDoctor:
		filters.DoctorID = actor.ID
	}
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

// Delete removes a doctor-submitted prescription before fulfillment starts.
func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if p.DoctorID == nil || *p.DoctorID != actor.ID {
		return apperrors.Forbidden("only the submitting doctor may delete a prescription", nil)
	}
	if p.Status != model.PrescriptionStatusPending {
		return apperrors.BadRequest("prescription can no longer be deleted", nil)
	}
	return s.repo.Delete(ctx, id)
}

// UpdateStatus performs an explicit admin transition: approve, reject, or
// start processing.
func (s *Service) UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdatePrescriptionStatusRequest) (*model.Prescription, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, err
	}

	if !p.Status.CanTransition(req.Status) {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("cannot transition prescription from %s to %s", p.Status, req.Status), nil)
	}

	before := snapshot(p)
	p.Status = req.Status
	if req.AdminNotes != "" {
		p.AdminNotes = req.AdminNotes
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update prescription: %w", err)
	}

	action := model.AuditActionUpdate
	switch req.Status {
	case model.PrescriptionStatusApproved:
		action = model.AuditActionApprove
	case model.PrescriptionStatusRejected:
		action = model.AuditActionReject
	}
	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       action,
		ResourceType: model.AuditResourcePrescription,
		ResourceID:   p.ID,
		Before:       before,
		After:        snapshot(p),
	})
	s.publishStatusChange(ctx, p)

	return p, nil
}

// Fill dispenses quantities against the prescription's items. All validation
// happens before any write; the persistence step uses guarded decrements so
// concurrent fills cannot lose updates.
func (s *Service) Fill(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.FillPrescriptionRequest) (*model.Prescription, error) {
	if req.ProofFileURL == "" {
		return nil, apperrors.BadRequest("a fulfillment proof file must be uploaded before confirming", nil)
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, err
	}

	if p.Status != model.PrescriptionStatusProcessing && p.Status != model.PrescriptionStatusPartiallyFilled {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("prescription in status %s cannot be filled", p.Status), nil)
	}

	items := make(map[uuid.UUID]*model.PrescriptionItem, len(p.Items))
	for _, item := range p.Items {
		items[item.ID] = item
	}

	totalFilled := 0
	remaining := make(map[uuid.UUID]int, len(p.Items))
	for _, item := range p.Items {
		remaining[item.ID] = item.Quantity
	}
	for _, fill := range req.Items {
		item, ok := items[fill.ItemID]
		if !ok {
			return nil, apperrors.BadRequest("fill references an unknown medication item", nil)
		}
		if fill.QuantityFilled < 0 {
			return nil, apperrors.BadRequest("fill quantity cannot be negative", nil)
		}
		// Checked against the running balance so repeated entries for the
		// same item aggregate instead of each passing individually.
		if fill.QuantityFilled > remaining[fill.ItemID] {
			return nil, apperrors.BadRequest(
				fmt.Sprintf("fill quantity %d exceeds remaining quantity %d for %s",
					fill.QuantityFilled, remaining[fill.ItemID], item.MedicationName), nil)
		}
		remaining[fill.ItemID] -= fill.QuantityFilled
		totalFilled += fill.QuantityFilled
	}
	if totalFilled == 0 {
		return nil, apperrors.BadRequest("nothing to fill", nil)
	}

	newStatus := model.PrescriptionStatusFilled
	for _, left := range remaining {
		if left > 0 {
			newStatus = model.PrescriptionStatusPartiallyFilled
			break
		}
	}

	before := snapshot(p)
	now := time.Now()
	pharmacist := actor.Email

	if err := s.repo.ApplyFill(ctx, p.ID, req.Items, newStatus, req.ProofFileURL, pharmacist, now); err != nil {
		if errors.Is(err, repository.ErrFillConflict) {
			if s.metrics != nil {
				s.metrics.FillConflicts.Inc()
			}
			return nil, apperrors.Conflict("prescription was modified concurrently, please retry", err)
		}
		return nil, fmt.Errorf("failed to apply fill: %w", err)
	}

	filled, err := s.repo.Get(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload prescription: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PrescriptionFills.WithLabelValues(string(newStatus)).Inc()
	}
	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionFill,
		ResourceType: model.AuditResourcePrescription,
		ResourceID:   p.ID,
		Before:       before,
		After:        snapshot(filled),
	})
	s.publishStatusChange(ctx, filled)

	return filled, nil
}

// AddItem adds a medication line while the prescription is being processed.
func (s *Service) AddItem(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.AddPrescriptionItemRequest) (*model.PrescriptionItem, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, err
	}
	if !p.Status.ItemsEditable() {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("items cannot be modified while prescription is %s", p.Status), nil)
	}

	item := &model.PrescriptionItem{
		PrescriptionID: p.ID,
		MedicationName: req.MedicationName,
		Dosage:         req.Dosage,
		TotalAmount:    req.Quantity,
		Quantity:       req.Quantity,
		Notes:          req.Notes,
	}
	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add prescription item: %w", err)
	}

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionCreate,
		ResourceType: model.AuditResourcePrescription,
		ResourceID:   p.ID,
		After:        item,
		Description:  "medication item added",
	})
	return item, nil
}

// UpdateItem edits a medication line. Changing the quantity adjusts the
// remaining amount; already-dispensed quantity is preserved.
func (s *Service) UpdateItem(ctx context.Context, actor model.Actor, id, itemID uuid.UUID, req *model.UpdatePrescriptionItemRequest) (*model.PrescriptionItem, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, err
	}
	if !p.Status.ItemsEditable() {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("items cannot be modified while prescription is %s", p.Status), nil)
	}

	item, err := s.findItem(p, itemID)
	if err != nil {
		return nil, err
	}
	before := *item

	if req.MedicationName != nil {
		item.MedicationName = *req.MedicationName
	}
	if req.Dosage != nil {
		item.Dosage = *req.Dosage
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, apperrors.BadRequest("quantity cannot be negative", nil)
		}
		filled := item.Filled()
		item.Quantity = *req.Quantity
		item.TotalAmount = filled + *req.Quantity
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update prescription item: %w", err)
	}

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionUpdate,
		ResourceType: model.AuditResourcePrescription,
		ResourceID:   p.ID,
		Before:       before,
		After:        item,
		Description:  "medication item updated",
	})
	return item, nil
}

// DeleteItem removes a medication line while the prescription is editable.
func (s *Service) DeleteItem(ctx context.Context, actor model.Actor, id, itemID uuid.UUID) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("prescription", err)
		}
		return err
	}
	if !p.Status.ItemsEditable() {
		return apperrors.BadRequest(
			fmt.Sprintf("items cannot be modified while prescription is %s", p.Status), nil)
	}

	item, err := s.findItem(p, itemID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete prescription item: %w", err)
	}

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionDelete,
		ResourceType: model.AuditResourcePrescription,
		ResourceID:   p.ID,
		Before:       item,
		Description:  "medication item deleted",
	})
	return nil
}

func (s *Service) findItem(p *model.Prescription, itemID uuid.UUID) (*model.PrescriptionItem, error) {
	for _, item := range p.Items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return nil, apperrors.NotFound("prescription item", nil)
}

func (s *Service) publishStatusChange(ctx context.Context, p *model.Prescription) {
	if s.broker == nil {
		return
	}
	event := messaging.Event{
		Type: messaging.EventPrescriptionStatusChanged,
		Payload: map[string]interface{}{
			"prescription_id": p.ID,
			"patient_id":      p.PatientID,
			"status":          p.Status,
		},
	}
	status := "ok"
	if err := s.broker.Publish(ctx, messaging.ChannelPrescriptions, event); err != nil {
		status = "error"
		log.Warn().Err(err).Str("prescription_id", p.ID.String()).Msg("failed to publish prescription event")
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(event.Type, status).Inc()
	}
}

// snapshot captures the audit-relevant fields of a prescription.
func snapshot(p *model.Prescription) model.JSONMap {
	snap := model.JSONMap{
		"status":          p.Status,
		"admin_notes":     p.AdminNotes,
		"pharmacist_name": p.PharmacistName,
		"filled_at":       p.FilledAt,
		"refill_count":    p.RefillCount,
	}
	items := make([]model.JSONMap, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, model.JSONMap{
			"id":              item.ID,
			"medication_name": item.MedicationName,
			"total_amount":    item.TotalAmount,
			"quantity":        item.Quantity,
		})
	}
	snap["items"] = items
	return snap
}
