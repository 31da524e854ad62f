package prescription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royaltymeds/pharmacy-api/internal/middleware"
	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
	"github.com/royaltymeds/pharmacy-api/internal/service/audit"
	"github.com/royaltymeds/pharmacy-api/internal/service/prescription"
	"github.com/royaltymeds/pharmacy-api/pkg/auth"
	"github.com/royaltymeds/pharmacy-api/pkg/validator"
)

type stubRepo struct {
	prescription *model.Prescription
	applyFillErr error
}

func (f *stubRepo) Create(ctx context.Context, p *model.Prescription) error {
	p.ID = uuid.New()
	f.prescription = p
	return nil
}

func (f *stubRepo) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	if f.prescription == nil || f.prescription.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.prescription, nil
}

func (f *stubRepo) List(ctx context.Context, filters *model.PrescriptionFilters) ([]*model.Prescription, int64, error) {
	return []*model.Prescription{f.prescription}, 1, nil
}

func (f *stubRepo) Update(ctx context.Context, p *model.Prescription) error {
	f.prescription = p
	return nil
}

func (f *stubRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *stubRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*model.PrescriptionItem, error) {
	return nil, repository.ErrNotFound
}

func (f *stubRepo) AddItem(ctx context.Context, item *model.PrescriptionItem) error { return nil }

func (f *stubRepo) UpdateItem(ctx context.Context, item *model.PrescriptionItem) error { return nil }

func (f *stubRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error { return nil }

func (f *stubRepo) ApplyFill(ctx context.Context, prescriptionID uuid.UUID, fills []model.FillItemRequest, newStatus model.PrescriptionStatus, proofFileURL, pharmacistName string, filledAt time.Time) error {
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
	return nil
}

type stubAuditRepo struct{}

func (stubAuditRepo) Create(ctx context.Context, log *model.AuditLog) error { return nil }
func (stubAuditRepo) ListWithPagination(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, int64, error) {
	return nil, 0, nil
}
func (stubAuditRepo) Cleanup(ctx context.Context, before time.Time) (int64, error) { return 0, nil }

var jwtSvc = auth.NewJWTService(auth.Config{Secret: "test-secret", RefreshSecret: "test-refresh"})

func newTestRouter(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := prescription.NewService(repo, audit.NewService(stubAuditRepo{}, nil), nil, nil)
	h := NewHandler(svc, validator.New())
	authMw := middleware.NewAuthMiddleware(jwtSvc)

	r := gin.New()
	api := r.Group("/api/v1", authMw.Authenticate())
	h.RegisterRoutes(api, authMw)
	return r
}

func token(t *testing.T, role model.Role) string {
	t.Helper()
	tok, err := jwtSvc.GenerateAccessToken(uuid.New(), "user@example.com", string(role))
	require.NoError(t, err)
	return tok
}

func doRequest(r *gin.Engine, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedProcessing(repo *stubRepo) *model.Prescription {
	p := &model.Prescription{
		PatientID: uuid.New(),
		Status:    model.PrescriptionStatusProcessing,
		Items: []*model.PrescriptionItem{
			{ID: uuid.New(), MedicationName: "Amoxicillin 500mg", TotalAmount: 30, Quantity: 30},
		},
	}
	p.ID = uuid.New()
	repo.prescription = p
	return p
}

func TestFillEndpoint_RequiresAuth(t *testing.T) {
	repo := &stubRepo{}
	p := seedProcessing(repo)
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/fill", p.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFillEndpoint_NonAdminForbidden(t *testing.T) {
	repo := &stubRepo{}
	p := seedProcessing(repo)
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/fill", p.ID),
		token(t, model.RolePatient), model.FillPrescriptionRequest{
			Items:        []model.FillItemRequest{{ItemID: p.Items[0].ID, QuantityFilled: 5}},
			ProofFileURL: "https://files.example.com/proof.pdf",
		})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFillEndpoint_Success(t *testing.T) {
	repo := &stubRepo{}
	p := seedProcessing(repo)
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/fill", p.ID),
		token(t, model.RoleAdmin), model.FillPrescriptionRequest{
			Items:        []model.FillItemRequest{{ItemID: p.Items[0].ID, QuantityFilled: 10}},
			ProofFileURL: "https://files.example.com/proof.pdf",
		})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string             `json:"status"`
		Data   model.Prescription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, model.PrescriptionStatusPartiallyFilled, resp.Data.Status)
}

func TestFillEndpoint_OverQuantityBadRequest(t *testing.T) {
	repo := &stubRepo{}
	p := seedProcessing(repo)
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/fill", p.ID),
		token(t, model.RoleAdmin), model.FillPrescriptionRequest{
			Items:        []model.FillItemRequest{{ItemID: p.Items[0].ID, QuantityFilled: 40}},
			ProofFileURL: "https://files.example.com/proof.pdf",
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFillEndpoint_MissingProofBadRequest(t *testing.T) {
	repo := &stubRepo{}
	p := seedProcessing(repo)
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/fill", p.ID),
		token(t, model.RoleAdmin), model.FillPrescriptionRequest{
			Items: []model.FillItemRequest{{ItemID: p.Items[0].ID, QuantityFilled: 5}},
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFillEndpoint_ConflictMapsTo409(t *testing.T) {
	repo := &stubRepo{applyFillErr: repository.ErrFillConflict}
	p := seedProcessing(repo)
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/fill", p.ID),
		token(t, model.RoleAdmin), model.FillPrescriptionRequest{
			Items:        []model.FillItemRequest{{ItemID: p.Items[0].ID, QuantityFilled: 5}},
			ProofFileURL: "https://files.example.com/proof.pdf",
		})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStatusEndpoint_IllegalTransitionBadRequest(t *testing.T) {
	repo := &stubRepo{}
	p := seedProcessing(repo)
	p.Status = model.PrescriptionStatusPending
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodPatch, fmt.Sprintf("/api/v1/prescriptions/%s/status", p.ID),
		token(t, model.RoleAdmin), model.UpdatePrescriptionStatusRequest{
			Status: model.PrescriptionStatusProcessing,
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusEndpoint_UnknownIDNotFound(t *testing.T) {
	repo := &stubRepo{}
	seedProcessing(repo)
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodPatch, fmt.Sprintf("/api/v1/prescriptions/%s/status", uuid.New()),
		token(t, model.RoleAdmin), model.UpdatePrescriptionStatusRequest{
			Status: model.PrescriptionStatusApproved,
		})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
