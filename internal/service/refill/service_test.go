package refill

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
	"github.com/royaltymeds/pharmacy-api/internal/service/audit"
	apperrors "github.com/royaltymeds/pharmacy-api/pkg/errors"
)

type fakeRefillRepo struct {
	refills map[uuid.UUID]*model.RefillRequest
}

func newFakeRefillRepo() *fakeRefillRepo {
	return &fakeRefillRepo{refills: make(map[uuid.UUID]*model.RefillRequest)}
}

func (f *fakeRefillRepo) Create(ctx context.Context, req *model.RefillRequest) error {
	req.ID = uuid.New()
	f.refills[req.ID] = req
	return nil
}

func (f *fakeRefillRepo) Get(ctx context.Context, id uuid.UUID) (*model.RefillRequest, error) {
	r, ok := f.refills[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeRefillRepo) Update(ctx context.Context, req *model.RefillRequest) error {
	f.refills[req.ID] = req
	return nil
}

func (f *fakeRefillRepo) List(ctx context.Context, filters *model.RefillFilters) ([]*model.RefillRequest, int64, error) {
	var out []*model.RefillRequest
	for _, r := range f.refills {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRefillRepo) HasPending(ctx context.Context, prescriptionID uuid.UUID) (bool, error) {
	for _, r := range f.refills {
		if r.PrescriptionID == prescriptionID && r.Status == model.RefillStatusPending {
			return true, nil
		}
	}
	return false, nil
}

type fakePrescriptionRepo struct {
	prescription *model.Prescription
}

func (f *fakePrescriptionRepo) Create(ctx context.Context, p *model.Prescription) error { return nil }

func (f *fakePrescriptionRepo) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	if f.prescription == nil || f.prescription.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.prescription, nil
}

func (f *fakePrescriptionRepo) List(ctx context.Context, filters *model.PrescriptionFilters) ([]*model.Prescription, int64, error) {
	return nil, 0, nil
}

func (f *fakePrescriptionRepo) Update(ctx context.Context, p *model.Prescription) error {
	f.prescription = p
	return nil
}

func (f *fakePrescriptionRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakePrescriptionRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*model.PrescriptionItem, error) {
	return nil, repository.ErrNotFound
}

func (f *fakePrescriptionRepo) AddItem(ctx context.Context, item *model.PrescriptionItem) error {
	return nil
}

func (f *fakePrescriptionRepo) UpdateItem(ctx context.Context, item *model.PrescriptionItem) error {
	return nil
}

func (f *fakePrescriptionRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error { return nil }

func (f *fakePrescriptionRepo) ApplyFill(ctx context.Context, prescriptionID uuid.UUID, fills []model.FillItemRequest, newStatus model.PrescriptionStatus, proofFileURL, pharmacistName string, filledAt time.Time) error {
	return nil
}

type fakeAuditRepo struct{ entries []*model.AuditLog }

func (f *fakeAuditRepo) Create(ctx context.Context, log *model.AuditLog) error {
	f.entries = append(f.entries, log)
	return nil
}

func (f *fakeAuditRepo) ListWithPagination(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

func (f *fakeAuditRepo) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func partiallyFilledPrescription(patientID uuid.UUID) *model.Prescription {
	p := &model.Prescription{
		PatientID:   patientID,
		Status:      model.PrescriptionStatusPartiallyFilled,
		RefillCount: 1,
		RefillLimit: 3,
		Items: []*model.PrescriptionItem{
			{ID: uuid.New(), MedicationName: "Metformin 850mg", TotalAmount: 60, Quantity: 20},
		},
	}
	p.ID = uuid.New()
	return p
}

func newTestService(prescription *model.Prescription) (*Service, *fakeRefillRepo, *fakePrescriptionRepo) {
	refillRepo := newFakeRefillRepo()
	prescriptionRepo := &fakePrescriptionRepo{prescription: prescription}
	svc := NewService(refillRepo, prescriptionRepo, audit.NewService(&fakeAuditRepo{}, nil), nil, nil)
	return svc, refillRepo, prescriptionRepo
}

func TestIsRefillable(t *testing.T) {
	cases := []struct {
		status model.PrescriptionStatus
		want   bool
	}{
		{model.PrescriptionStatusPending, false},
		{model.PrescriptionStatusApproved, false},
		{model.PrescriptionStatusRejected, false},
		{model.PrescriptionStatusProcessing, false},
		{model.PrescriptionStatusPartiallyFilled, true},
		{model.PrescriptionStatusFilled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsRefillable(&model.Prescription{Status: tc.status}), string(tc.status))
	}
}

func TestRequest_CreatesPendingRefill(t *testing.T) {
	patientID := uuid.New()
	p := partiallyFilledPrescription(patientID)
	svc, _, _ := newTestService(p)

	actor := model.Actor{ID: patientID, Role: model.RolePatient}
	req, err := svc.Request(context.Background(), actor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RefillStatusPending, req.Status)
	assert.Equal(t, 2, req.RefillNumber)
	assert.Equal(t, p.ID, req.PrescriptionID)
}

func TestRequest_FilledPrescriptionRejected(t *testing.T) {
	patientID := uuid.New()
	p := partiallyFilledPrescription(patientID)
	p.Status = model.PrescriptionStatusFilled
	svc, _, _ := newTestService(p)

	actor := model.Actor{ID: patientID, Role: model.RolePatient}
	_, err := svc.Request(context.Background(), actor, p.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestRequest_NotOwnerForbidden(t *testing.T) {
	p := partiallyFilledPrescription(uuid.New())
	svc, _, _ := newTestService(p)

	actor := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	_, err := svc.Request(context.Background(), actor, p.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestRequest_DuplicatePendingRejected(t *testing.T) {
	patientID := uuid.New()
	p := partiallyFilledPrescription(patientID)
	svc, _, _ := newTestService(p)

	actor := model.Actor{ID: patientID, Role: model.RolePatient}
	_, err := svc.Request(context.Background(), actor, p.ID)
	require.NoError(t, err)

	_, err = svc.Request(context.Background(), actor, p.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestRequest_LimitReachedRejected(t *testing.T) {
	patientID := uuid.New()
	p := partiallyFilledPrescription(patientID)
	p.RefillCount = 3
	svc, _, _ := newTestService(p)

	actor := model.Actor{ID: patientID, Role: model.RolePatient}
	_, err := svc.Request(context.Background(), actor, p.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestResolve_CompletionReopensPrescription(t *testing.T) {
	patientID := uuid.New()
	p := partiallyFilledPrescription(patientID)
	svc, _, prescriptionRepo := newTestService(p)

	actor := model.Actor{ID: patientID, Role: model.RolePatient}
	req, err := svc.Request(context.Background(), actor, p.ID)
	require.NoError(t, err)

	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	resolved, err := svc.Resolve(context.Background(), admin, req.ID, &model.ResolveRefillRequest{
		Status: model.RefillStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RefillStatusCompleted, resolved.Status)

	reopened := prescriptionRepo.prescription
	assert.Equal(t, model.PrescriptionStatusProcessing, reopened.Status)
	assert.Equal(t, 2, reopened.RefillCount)
	require.NotNil(t, reopened.LastRefilledAt)
	assert.Equal(t, 60, reopened.Items[0].Quantity)
}

func TestResolve_RejectionKeepsPrescriptionState(t *testing.T) {
	patientID := uuid.New()
	p := partiallyFilledPrescription(patientID)
	svc, _, prescriptionRepo := newTestService(p)

	actor := model.Actor{ID: patientID, Role: model.RolePatient}
	req, err := svc.Request(context.Background(), actor, p.ID)
	require.NoError(t, err)

	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	resolved, err := svc.Resolve(context.Background(), admin, req.ID, &model.ResolveRefillRequest{
		Status:          model.RefillStatusRejected,
		RejectionReason: "prescription has expired",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RefillStatusRejected, resolved.Status)
	require.NotNil(t, resolved.RejectionReason)
	assert.Equal(t, model.PrescriptionStatusPartiallyFilled, prescriptionRepo.prescription.Status)
	assert.Equal(t, 1, prescriptionRepo.prescription.RefillCount)
}

func TestResolve_AlreadyResolvedRejected(t *testing.T) {
	patientID := uuid.New()
	p := partiallyFilledPrescription(patientID)
	svc, refillRepo, _ := newTestService(p)

	actor := model.Actor{ID: patientID, Role: model.RolePatient}
	req, err := svc.Request(context.Background(), actor, p.ID)
	require.NoError(t, err)
	refillRepo.refills[req.ID].Status = model.RefillStatusCompleted

	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	_, err = svc.Resolve(context.Background(), admin, req.ID, &model.ResolveRefillRequest{
		Status: model.RefillStatusCompleted,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}
