package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
	"github.com/royaltymeds/pharmacy-api/pkg/metrics"
)

// Service appends immutable audit records for admin mutations. Writes are
// fire-and-forget: a failed audit write is logged and counted but never rolls
// back the mutation it describes.
type Service struct {
	repo    repository.AuditRepository
	metrics *metrics.Metrics
}

func NewService(repo repository.AuditRepository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m}
}

// Entry captures one admin mutation. Before/After are opaque snapshots of the
// row around the change; they are stored verbatim.
type Entry struct {
	Action       string
	ResourceType string
	ResourceID   uuid.UUID
	Before       interface{}
	After        interface{}
	Description  string
}

// Record writes an audit log entry for the given actor.
func (s *Service) Record(ctx context.Context, actor model.Actor, entry Entry) {
	var before, after json.RawMessage
	var err error

	if entry.Before != nil {
		if before, err = json.Marshal(entry.Before); err != nil {
			log.Warn().Err(err).Str("resource", entry.ResourceType).Msg("failed to marshal audit before-snapshot")
		}
	}
	if entry.After != nil {
		if after, err = json.Marshal(entry.After); err != nil {
			log.Warn().Err(err).Str("resource", entry.ResourceType).Msg("failed to marshal audit after-snapshot")
		}
	}

	record := &model.AuditLog{
		ID:           uuid.New(),
		ActorID:      actor.ID,
		ActorEmail:   actor.Email,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Before:       before,
		After:        after,
		Description:  entry.Description,
		IPAddress:    actor.IPAddress,
		UserAgent:    actor.UserAgent,
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if s.metrics != nil {
			s.metrics.AuditWriteFailures.Inc()
		}
		log.Error().Err(err).
			Str("action", entry.Action).
			Str("resource_type", entry.ResourceType).
			Str("resource_id", entry.ResourceID.String()).
			Msg("failed to write audit log")
	}
}

func (s *Service) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, int64, error) {
	filters.Normalize()
	return s.repo.ListWithPagination(ctx, filters)
}

func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.Cleanup(ctx, before)
}
