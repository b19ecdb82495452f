package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

type mockRequestRepo struct {
	purchases map[string]*models.PurchaseRequest
	prints    map[string]*models.PrintRequest
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{
		purchases: make(map[string]*models.PurchaseRequest),
		prints:    make(map[string]*models.PrintRequest),
	}
}

func (m *mockRequestRepo) ListPurchaseRequests(_ context.Context, filter models.RequestFilter) ([]models.PurchaseRequest, int, error) {
	var out []models.PurchaseRequest
	for _, r := range m.purchases {
		if r.SchoolID == filter.SchoolID {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

func (m *mockRequestRepo) FindPurchaseRequestByID(_ context.Context, schoolID, id string) (*models.PurchaseRequest, error) {
	r, ok := m.purchases[id]
	if !ok || r.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *r
	return &copy, nil
}

func (m *mockRequestRepo) CreatePurchaseRequest(_ context.Context, request *models.PurchaseRequest) error {
	if request.ID == "" {
		request.ID = "purchase-req-1"
	}
	copy := *request
	m.purchases[request.ID] = &copy
	return nil
}

func (m *mockRequestRepo) UpdatePurchaseRequestStatus(_ context.Context, schoolID, id string, status models.RequestStatus) error {
	r, ok := m.purchases[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = status
	return nil
}

func (m *mockRequestRepo) DeletePurchaseRequest(_ context.Context, schoolID, id string) error {
	delete(m.purchases, id)
	return nil
}

func (m *mockRequestRepo) ListPrintRequests(_ context.Context, filter models.RequestFilter) ([]models.PrintRequest, int, error) {
	var out []models.PrintRequest
	for _, r := range m.prints {
		if r.SchoolID == filter.SchoolID {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

func (m *mockRequestRepo) FindPrintRequestByID(_ context.Context, schoolID, id string) (*models.PrintRequest, error) {
	r, ok := m.prints[id]
	if !ok || r.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *r
	return &copy, nil
}

func (m *mockRequestRepo) CreatePrintRequest(_ context.Context, request *models.PrintRequest) error {
	if request.ID == "" {
		request.ID = "print-req-1"
	}
	copy := *request
	m.prints[request.ID] = &copy
	return nil
}

func (m *mockRequestRepo) UpdatePrintRequestStatus(_ context.Context, schoolID, id string, status models.RequestStatus) error {
	r, ok := m.prints[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = status
	return nil
}

func (m *mockRequestRepo) DeletePrintRequest(_ context.Context, schoolID, id string) error {
	delete(m.prints, id)
	return nil
}

func TestPurchaseRequestTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    models.RequestStatus
		to      models.RequestStatus
		allowed bool
	}{
		{"requested to approved", models.RequestStatusRequested, models.RequestStatusApproved, true},
		{"requested to review", models.RequestStatusRequested, models.RequestStatusReview, true},
		{"review to approved", models.RequestStatusReview, models.RequestStatusApproved, true},
		{"approved is terminal", models.RequestStatusApproved, models.RequestStatusReview, false},
		{"review cannot go back", models.RequestStatusReview, models.RequestStatusRequested, false},
		{"purchase never printed", models.RequestStatusApproved, models.RequestStatusPrinted, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockRequestRepo()
			repo.purchases["req-1"] = &models.PurchaseRequest{ID: "req-1", SchoolID: "school-1", Status: tc.from}
			svc := NewRequestService(repo, validator.New(), zap.NewNop())

			updated, err := svc.TransitionPurchaseRequest(context.Background(), "school-1", "req-1", TransitionRequest{Status: tc.to})
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, updated.Status)
				assert.Equal(t, tc.to, repo.purchases["req-1"].Status)
			} else {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
				assert.Equal(t, tc.from, repo.purchases["req-1"].Status)
			}
		})
	}
}

func TestPrintRequestTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    models.RequestStatus
		to      models.RequestStatus
		allowed bool
	}{
		{"requested to approved", models.RequestStatusRequested, models.RequestStatusApproved, true},
		{"approved to printed", models.RequestStatusApproved, models.RequestStatusPrinted, true},
		{"requested cannot print directly", models.RequestStatusRequested, models.RequestStatusPrinted, false},
		{"review cannot print directly", models.RequestStatusReview, models.RequestStatusPrinted, false},
		{"printed is terminal", models.RequestStatusPrinted, models.RequestStatusApproved, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockRequestRepo()
			repo.prints["req-1"] = &models.PrintRequest{ID: "req-1", SchoolID: "school-1", Status: tc.from}
			svc := NewRequestService(repo, validator.New(), zap.NewNop())

			updated, err := svc.TransitionPrintRequest(context.Background(), "school-1", "req-1", TransitionRequest{Status: tc.to})
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, updated.Status)
			} else {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
			}
		})
	}
}

func TestCreatePurchaseRequestStartsRequested(t *testing.T) {
	repo := newMockRequestRepo()
	svc := NewRequestService(repo, validator.New(), zap.NewNop())

	request, err := svc.CreatePurchaseRequest(context.Background(), "school-1", "user-1", CreatePurchaseRequestRequest{
		Description:    "Whiteboard markers",
		Quantity:       10,
		UnitPriceCents: 350,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRequested, request.Status)
	assert.Equal(t, "user-1", request.RequesterID)
}

func TestDeletePurchaseRequestOnlyWhenRequested(t *testing.T) {
	repo := newMockRequestRepo()
	repo.purchases["req-1"] = &models.PurchaseRequest{ID: "req-1", SchoolID: "school-1", Status: models.RequestStatusApproved}
	svc := NewRequestService(repo, validator.New(), zap.NewNop())

	err := svc.DeletePurchaseRequest(context.Background(), "school-1", "req-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Contains(t, repo.purchases, "req-1")

	repo.purchases["req-2"] = &models.PurchaseRequest{ID: "req-2", SchoolID: "school-1", Status: models.RequestStatusRequested}
	require.NoError(t, svc.DeletePurchaseRequest(context.Background(), "school-1", "req-2"))
	assert.NotContains(t, repo.purchases, "req-2")
}

func TestDeletePrintRequestOnlyWhenRequested(t *testing.T) {
	repo := newMockRequestRepo()
	repo.prints["req-1"] = &models.PrintRequest{ID: "req-1", SchoolID: "school-1", Status: models.RequestStatusPrinted}
	svc := NewRequestService(repo, validator.New(), zap.NewNop())

	err := svc.DeletePrintRequest(context.Background(), "school-1", "req-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestTransitionPurchaseRequestOtherSchool(t *testing.T) {
	repo := newMockRequestRepo()
	repo.purchases["req-1"] = &models.PurchaseRequest{ID: "req-1", SchoolID: "school-2", Status: models.RequestStatusRequested}
	svc := NewRequestService(repo, validator.New(), zap.NewNop())

	_, err := svc.TransitionPurchaseRequest(context.Background(), "school-1", "req-1", TransitionRequest{Status: models.RequestStatusApproved})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
