package prescription

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

type fakeRepo struct {
	prescription *model.Prescription
	applyFillErr error
	fillCalls    int
	updateCalls  int
}

func (f *fakeRepo) Create(ctx context.Context, p *model.Prescription) error {
	p.ID = uuid.New()
	f.prescription = p
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	if f.prescription == nil || f.prescription.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.prescription, nil
}

func (f *fakeRepo) List(ctx context.Context, filters *model.PrescriptionFilters) ([]*model.Prescription, int64, error) {
	if f.prescription == nil {
		return nil, 0, nil
	}
	return []*model.Prescription{f.prescription}, 1, nil
}

func (f *fakeRepo) Update(ctx context.Context, p *model.Prescription) error {
	f.updateCalls++
	f.prescription = p
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.prescription = nil
	return nil
}

func (f *fakeRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*model.PrescriptionItem, error) {
	for _, item := range f.prescription.Items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRepo) AddItem(ctx context.Context, item *model.PrescriptionItem) error {
	item.ID = uuid.New()
	f.prescription.Items = append(f.prescription.Items, item)
	return nil
}

func (f *fakeRepo) UpdateItem(ctx context.Context, item *model.PrescriptionItem) error { return nil }

func (f *fakeRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	items := f.prescription.Items[:0]
	for _, item := range f.prescription.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	f.prescription.Items = items
	return nil
}

func (f *fakeRepo) ApplyFill(ctx context.Context, prescriptionID uuid.UUID, fills []model.FillItemRequest, newStatus model.PrescriptionStatus, proofFileURL, pharmacistName string, filledAt time.Time) error {
	f.fillCalls++
	if f.applyFillErr != nil {
		return f.applyFillErr
	}
	for _, fill := range fills {
		for _, item := range f.prescription.Items {
			if item.ID == fill.ItemID {
				item.Quantity -= fill.QuantityFilled
			}
		}
	}
	f.prescription.Status = newStatus
	f.prescription.ProofFileURL = proofFileURL
	f.prescription.PharmacistName = &pharmacistName
	f.prescription.FilledAt = &filledAt
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

func adminActor() model.Actor {
	return model.Actor{ID: uuid.New(), Email: "pharmacist@royaltymeds.com", Role: model.RoleAdmin}
}

func processingPrescription() *model.Prescription {
	p := &model.Prescription{
		PatientID: uuid.New(),
		Status:    model.PrescriptionStatusProcessing,
		Items: []*model.PrescriptionItem{
			{ID: uuid.New(), MedicationName: "Amoxicillin 500mg", TotalAmount: 30, Quantity: 30},
			{ID: uuid.New(), MedicationName: "Ibuprofen 200mg", TotalAmount: 20, Quantity: 20},
		},
	}
	p.ID = uuid.New()
	return p
}

func newTestService(repo *fakeRepo) (*Service, *fakeAuditRepo) {
	auditRepo := &fakeAuditRepo{}
	return NewService(repo, audit.NewService(auditRepo, nil), nil, nil), auditRepo
}

func TestUpdateStatus_ApproveFromPending(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	repo.prescription.Status = model.PrescriptionStatusPending
	svc, auditRepo := newTestService(repo)

	p, err := svc.UpdateStatus(context.Background(), adminActor(), repo.prescription.ID,
		&model.UpdatePrescriptionStatusRequest{Status: model.PrescriptionStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionStatusApproved, p.Status)
	require.Len(t, auditRepo.entries, 1)
	assert.Equal(t, model.AuditActionApprove, auditRepo.entries[0].Action)
	assert.NotEmpty(t, auditRepo.entries[0].Before)
	assert.NotEmpty(t, auditRepo.entries[0].After)
}

func TestUpdateStatus_IllegalTransitionRejected(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	repo.prescription.Status = model.PrescriptionStatusPending
	svc, _ := newTestService(repo)

	_, err := svc.UpdateStatus(context.Background(), adminActor(), repo.prescription.ID,
		&model.UpdatePrescriptionStatusRequest{Status: model.PrescriptionStatusProcessing})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	assert.Equal(t, 0, repo.updateCalls)
}

func TestUpdateStatus_RejectedIsTerminal(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	repo.prescription.Status = model.PrescriptionStatusRejected
	svc, _ := newTestService(repo)

	_, err := svc.UpdateStatus(context.Background(), adminActor(), repo.prescription.ID,
		&model.UpdatePrescriptionStatusRequest{Status: model.PrescriptionStatusApproved})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestFill_PartialLeavesPartiallyFilled(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	svc, auditRepo := newTestService(repo)

	p, err := svc.Fill(context.Background(), adminActor(), repo.prescription.ID, &model.FillPrescriptionRequest{
		Items: []model.FillItemRequest{
			{ItemID: repo.prescription.Items[0].ID, QuantityFilled: 10},
		},
		ProofFileURL: "https://files.example.com/proof.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionStatusPartiallyFilled, p.Status)
	assert.Equal(t, 20, p.Items[0].Quantity)
	assert.Equal(t, 10, p.Items[0].Filled())
	assert.Equal(t, 20, p.Items[1].Quantity)
	require.NotNil(t, p.FilledAt)
	require.NotNil(t, p.PharmacistName)
	require.Len(t, auditRepo.entries, 1)
	assert.Equal(t, model.AuditActionFill, auditRepo.entries[0].Action)
}

func TestFill_AllItemsToZeroBecomesFilled(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	svc, _ := newTestService(repo)

	p, err := svc.Fill(context.Background(), adminActor(), repo.prescription.ID, &model.FillPrescriptionRequest{
		Items: []model.FillItemRequest{
			{ItemID: repo.prescription.Items[0].ID, QuantityFilled: 30},
			{ItemID: repo.prescription.Items[1].ID, QuantityFilled: 20},
		},
		ProofFileURL: "https://files.example.com/proof.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionStatusFilled, p.Status)
	assert.Equal(t, 0, p.Items[0].Quantity)
	assert.Equal(t, 0, p.Items[1].Quantity)
}

func TestFill_OverRemainingRejectedWithoutWrites(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	svc, auditRepo := newTestService(repo)

	_, err := svc.Fill(context.Background(), adminActor(), repo.prescription.ID, &model.FillPrescriptionRequest{
		Items: []model.FillItemRequest{
			{ItemID: repo.prescription.Items[0].ID, QuantityFilled: 10},
			{ItemID: repo.prescription.Items[1].ID, QuantityFilled: 25},
		},
		ProofFileURL: "https://files.example.com/proof.pdf",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	assert.Equal(t, 0, repo.fillCalls)
	assert.Equal(t, model.PrescriptionStatusProcessing, repo.prescription.Status)
	assert.Equal(t, 30, repo.prescription.Items[0].Quantity)
	assert.Empty(t, auditRepo.entries)
}

func TestFill_DuplicateItemEntriesAggregateAgainstRemaining(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	svc, auditRepo := newTestService(repo)

	itemID := repo.prescription.Items[0].ID
	_, err := svc.Fill(context.Background(), adminActor(), repo.prescription.ID, &model.FillPrescriptionRequest{
		Items: []model.FillItemRequest{
			{ItemID: itemID, QuantityFilled: 20},
			{ItemID: itemID, QuantityFilled: 20},
		},
		ProofFileURL: "https://files.example.com/proof.pdf",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	assert.Equal(t, 0, repo.fillCalls)
	assert.Equal(t, 30, repo.prescription.Items[0].Quantity)
	assert.Empty(t, auditRepo.entries)
}

func TestFill_DuplicateItemEntriesWithinRemainingSucceed(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	svc, _ := newTestService(repo)

	itemID := repo.prescription.Items[0].ID
	p, err := svc.Fill(context.Background(), adminActor(), repo.prescription.ID, &model.FillPrescriptionRequest{
		Items: []model.FillItemRequest{
			{ItemID: itemID, QuantityFilled: 10},
			{ItemID: itemID, QuantityFilled: 20},
		},
		ProofFileURL: "https://files.example.com/proof.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Items[0].Quantity)
	assert.Equal(t, model.PrescriptionStatusPartiallyFilled, p.Status)
}

func TestFill_MissingProofRejected(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	svc, _ := newTestService(repo)

	_, err := svc.Fill(context.Background(), adminActor(), repo.prescription.ID, &model.FillPrescriptionRequest{
		Items: []model.FillItemRequest{
			{ItemID: repo.prescription.Items[0].ID, QuantityFilled: 10},
		},
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	assert.Equal(t, 0, repo.fillCalls)
}

func TestFill_ZeroTotalRejected(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	svc, _ := newTestService(repo)

	_, err := svc.Fill(context.Background(), adminActor(), repo.prescription.ID, &model.FillPrescriptionRequest{
		Items: []model.FillItemRequest{
			{ItemID: repo.prescription.Items[0].ID, QuantityFilled: 0},
		},
		ProofFileURL: "https://files.example.com/proof.pdf",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestFill_WrongStatusRejected(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	repo.prescription.Status = model.PrescriptionStatusApproved
	svc, _ := newTestService(repo)

	_, err := svc.Fill(context.Background(), adminActor(), repo.prescription.ID, &model.FillPrescriptionRequest{
		Items: []model.FillItemRequest{
			{ItemID: repo.prescription.Items[0].ID, QuantityFilled: 10},
		},
		ProofFileURL: "https://files.example.com/proof.pdf",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestFill_ConcurrentConflictMapsTo409(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription(), applyFillErr: repository.ErrFillConflict}
	svc, _ := newTestService(repo)

	_, err := svc.Fill(context.Background(), adminActor(), repo.prescription.ID, &model.FillPrescriptionRequest{
		Items: []model.FillItemRequest{
			{ItemID: repo.prescription.Items[0].ID, QuantityFilled: 10},
		},
		ProofFileURL: "https://files.example.com/proof.pdf",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestFill_FurtherFillFromPartiallyFilled(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	repo.prescription.Status = model.PrescriptionStatusPartiallyFilled
	repo.prescription.Items[0].Quantity = 20
	svc, _ := newTestService(repo)

	p, err := svc.Fill(context.Background(), adminActor(), repo.prescription.ID, &model.FillPrescriptionRequest{
		Items: []model.FillItemRequest{
			{ItemID: repo.prescription.Items[0].ID, QuantityFilled: 20},
			{ItemID: repo.prescription.Items[1].ID, QuantityFilled: 20},
		},
		ProofFileURL: "https://files.example.com/proof2.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionStatusFilled, p.Status)
}

func TestGet_PatientCannotSeeOthers(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	svc, _ := newTestService(repo)

	actor := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	_, err := svc.Get(context.Background(), actor, repo.prescription.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestGet_OwnerSeesOwn(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	svc, _ := newTestService(repo)

	actor := model.Actor{ID: repo.prescription.PatientID, Role: model.RolePatient}
	p, err := svc.Get(context.Background(), actor, repo.prescription.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.prescription.ID, p.ID)
}

func TestDelete_DoctorOwnPendingSucceeds(t *testing.T) {
	doctorID := uuid.New()
	repo := &fakeRepo{prescription: processingPrescription()}
	repo.prescription.Status = model.PrescriptionStatusPending
	repo.prescription.DoctorID = &doctorID
	svc, _ := newTestService(repo)

	actor := model.Actor{ID: doctorID, Role: model.RoleDoctor}
	err := svc.Delete(context.Background(), actor, repo.prescription.ID)
	require.NoError(t, err)
	assert.Nil(t, repo.prescription)
}

func TestDelete_AfterApprovalRejected(t *testing.T) {
	doctorID := uuid.New()
	repo := &fakeRepo{prescription: processingPrescription()}
	repo.prescription.Status = model.PrescriptionStatusApproved
	repo.prescription.DoctorID = &doctorID
	svc, _ := newTestService(repo)

	actor := model.Actor{ID: doctorID, Role: model.RoleDoctor}
	err := svc.Delete(context.Background(), actor, repo.prescription.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestAddItem_RejectedWhenNotEditable(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	repo.prescription.Status = model.PrescriptionStatusFilled
	svc, _ := newTestService(repo)

	_, err := svc.AddItem(context.Background(), adminActor(), repo.prescription.ID, &model.AddPrescriptionItemRequest{
		MedicationName: "Paracetamol 500mg",
		Quantity:       10,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestUpdateItem_QuantityPreservesDispensedAmount(t *testing.T) {
	repo := &fakeRepo{prescription: processingPrescription()}
	repo.prescription.Status = model.PrescriptionStatusPartiallyFilled
	repo.prescription.Items[0].Quantity = 20
	svc, _ := newTestService(repo)

	newQty := 5
	item, err := svc.UpdateItem(context.Background(), adminActor(), repo.prescription.ID,
		repo.prescription.Items[0].ID, &model.UpdatePrescriptionItemRequest{Quantity: &newQty})
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 15, item.TotalAmount)
	assert.Equal(t, 10, item.Filled())
}
