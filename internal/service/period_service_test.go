package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

type mockPeriodRepo struct {
	periods     map[string]*models.AcademicPeriod
	assignments map[string]int
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{
		periods:     make(map[string]*models.AcademicPeriod),
		assignments: make(map[string]int),
	}
}

func (m *mockPeriodRepo) List(_ context.Context, filter models.AcademicPeriodFilter) ([]models.AcademicPeriod, int, error) {
	var out []models.AcademicPeriod
	for _, p := range m.periods {
		if p.SchoolID == filter.SchoolID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (m *mockPeriodRepo) FindByID(_ context.Context, schoolID, id string) (*models.AcademicPeriod, error) {
	p, ok := m.periods[id]
	if !ok || p.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *p
	return &copy, nil
}

func (m *mockPeriodRepo) FindCurrent(_ context.Context, schoolID string) (*models.AcademicPeriod, error) {
	var candidates []*models.AcademicPeriod
	for _, p := range m.periods {
		if p.SchoolID == schoolID {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, sql.ErrNoRows
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].StartDate.After(candidates[j].StartDate)
	})
	copy := *candidates[0]
	return &copy, nil
}

func (m *mockPeriodRepo) Create(_ context.Context, period *models.AcademicPeriod) error {
	if period.ID == "" {
		period.ID = "period-1"
	}
	copy := *period
	m.periods[period.ID] = &copy
	return nil
}

func (m *mockPeriodRepo) Update(_ context.Context, period *models.AcademicPeriod) error {
	copy := *period
	m.periods[period.ID] = &copy
	return nil
}

func (m *mockPeriodRepo) Delete(_ context.Context, schoolID, id string) error {
	delete(m.periods, id)
	return nil
}

func (m *mockPeriodRepo) CountAssignments(_ context.Context, id string) (int, error) {
	return m.assignments[id], nil
}

func TestPeriodServiceCurrentPicksLatestStart(t *testing.T) {
	repo := newMockPeriodRepo()
	repo.periods["p1"] = &models.AcademicPeriod{
		ID: "p1", SchoolID: "school-1", Name: "2024/2",
		StartDate: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC),
	}
	repo.periods["p2"] = &models.AcademicPeriod{
		ID: "p2", SchoolID: "school-1", Name: "2025/1",
		StartDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
	}
	svc := NewPeriodService(repo, validator.New(), zap.NewNop())

	current, err := svc.Current(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, "p2", current.ID)
}

func TestPeriodServiceCurrentNoPeriods(t *testing.T) {
	svc := NewPeriodService(newMockPeriodRepo(), validator.New(), zap.NewNop())

	_, err := svc.Current(context.Background(), "school-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceCreateEndBeforeStart(t *testing.T) {
	svc := NewPeriodService(newMockPeriodRepo(), validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", CreatePeriodRequest{
		Name:      "2025/1",
		StartDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceCreate(t *testing.T) {
	repo := newMockPeriodRepo()
	svc := NewPeriodService(repo, validator.New(), zap.NewNop())

	period, err := svc.Create(context.Background(), "school-1", CreatePeriodRequest{
		Name:      "2025/1",
		StartDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "school-1", period.SchoolID)
	assert.Contains(t, repo.periods, period.ID)
}

func TestPeriodServiceDeleteWithAssignments(t *testing.T) {
	repo := newMockPeriodRepo()
	repo.periods["p1"] = &models.AcademicPeriod{ID: "p1", SchoolID: "school-1", Name: "2025/1"}
	repo.assignments["p1"] = 4
	svc := NewPeriodService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "school-1", "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Contains(t, repo.periods, "p1")
}
