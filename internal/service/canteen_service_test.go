package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

const (
	testStudentID = "6f1c2c4e-9a41-4c7a-bb2e-0d5f3a9e1c01"
	testItemID    = "a3b8d7f2-1c6e-4e2a-8f4d-7b9c0e2d5a02"
)

type mockCanteenRepo struct {
	items       map[string]*models.CanteenItem
	purchases   []models.CanteenPurchase
	monthTotals map[string]int64
	standings   []models.StudentCanteenStanding
}

func newMockCanteenRepo() *mockCanteenRepo {
	return &mockCanteenRepo{
		items:       make(map[string]*models.CanteenItem),
		monthTotals: make(map[string]int64),
	}
}

func (m *mockCanteenRepo) ListItems(_ context.Context, filter models.CanteenItemFilter) ([]models.CanteenItem, int, error) {
	var out []models.CanteenItem
	for _, item := range m.items {
		if item.SchoolID == filter.SchoolID {
			out = append(out, *item)
		}
	}
	return out, len(out), nil
}

func (m *mockCanteenRepo) FindItemByID(_ context.Context, schoolID, id string) (*models.CanteenItem, error) {
	item, ok := m.items[id]
	if !ok || item.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *item
	return &copy, nil
}

func (m *mockCanteenRepo) CreateItem(_ context.Context, item *models.CanteenItem) error {
	if item.ID == "" {
		item.ID = testItemID
	}
	copy := *item
	m.items[item.ID] = &copy
	return nil
}

func (m *mockCanteenRepo) UpdateItem(_ context.Context, item *models.CanteenItem) error {
	copy := *item
	m.items[item.ID] = &copy
	return nil
}

func (m *mockCanteenRepo) DeleteItem(_ context.Context, schoolID, id string) error {
	delete(m.items, id)
	return nil
}

func (m *mockCanteenRepo) ListPurchases(_ context.Context, filter models.CanteenPurchaseFilter) ([]models.CanteenPurchase, int, error) {
	return m.purchases, len(m.purchases), nil
}

func (m *mockCanteenRepo) CreatePurchase(_ context.Context, purchase *models.CanteenPurchase) error {
	purchase.ID = "purchase-1"
	m.purchases = append(m.purchases, *purchase)
	return nil
}

func (m *mockCanteenRepo) MonthTotalForStudent(_ context.Context, schoolID, studentID string, _ time.Time) (int64, error) {
	return m.monthTotals[studentID], nil
}

func (m *mockCanteenRepo) StandingBySchool(_ context.Context, schoolID string, _ time.Time) ([]models.StudentCanteenStanding, error) {
	return m.standings, nil
}

type mockCanteenStudents struct {
	students map[string]*models.StudentDetail
	limits   map[string]*int64
}

func newMockCanteenStudents() *mockCanteenStudents {
	return &mockCanteenStudents{
		students: make(map[string]*models.StudentDetail),
		limits:   make(map[string]*int64),
	}
}

func (m *mockCanteenStudents) FindByID(_ context.Context, schoolID, id string) (*models.StudentDetail, error) {
	s, ok := m.students[id]
	if !ok || s.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *s
	return &copy, nil
}

func (m *mockCanteenStudents) UpdateCanteenLimit(_ context.Context, schoolID, id string, limit *int64) error {
	m.limits[id] = limit
	if s, ok := m.students[id]; ok {
		s.CanteenLimit = limit
	}
	return nil
}

type mockCanteenCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newMockCanteenCache() *mockCanteenCache {
	return &mockCanteenCache{entries: make(map[string][]byte)}
}

func (m *mockCanteenCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockCanteenCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockCanteenCache) Invalidate(_ context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	delete(m.entries, pattern)
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func canteenFixture(t *testing.T) (*CanteenService, *mockCanteenRepo, *mockCanteenStudents, *mockCanteenCache) {
	t.Helper()
	repo := newMockCanteenRepo()
	students := newMockCanteenStudents()
	cache := newMockCanteenCache()
	svc := NewCanteenService(repo, students, cache, time.Minute, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }

	students.students[testStudentID] = &models.StudentDetail{
		Student: models.Student{ID: testStudentID, SchoolID: "school-1", CanteenLimit: int64Ptr(1000), Active: true},
	}
	repo.items[testItemID] = &models.CanteenItem{ID: testItemID, SchoolID: "school-1", Name: "Suco", PriceCents: 250, Active: true}
	return svc, repo, students, cache
}

func TestCanteenRecordPurchaseBelowLimit(t *testing.T) {
	svc, repo, _, cache := canteenFixture(t)
	repo.monthTotals[testStudentID] = 400

	purchase, err := svc.RecordPurchase(context.Background(), "school-1", CreatePurchaseRequest{
		StudentID: testStudentID,
		ItemID:    testItemID,
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250), purchase.UnitPriceCents)
	assert.Len(t, repo.purchases, 1)
	assert.Contains(t, cache.invalidated, "canteen:standings:school-1")
}

func TestCanteenRecordPurchaseAtLimitRejected(t *testing.T) {
	svc, repo, _, _ := canteenFixture(t)
	// 500 spent, buying 2x250 lands exactly on the 1000 cap.
	repo.monthTotals[testStudentID] = 500

	_, err := svc.RecordPurchase(context.Background(), "school-1", CreatePurchaseRequest{
		StudentID: testStudentID,
		ItemID:    testItemID,
		Quantity:  2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLimitReached.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.purchases)
}

func TestCanteenRecordPurchaseJustUnderLimit(t *testing.T) {
	svc, repo, _, _ := canteenFixture(t)
	repo.monthTotals[testStudentID] = 499

	_, err := svc.RecordPurchase(context.Background(), "school-1", CreatePurchaseRequest{
		StudentID: testStudentID,
		ItemID:    testItemID,
		Quantity:  2,
	})
	require.NoError(t, err)
}

func TestCanteenRecordPurchaseNoLimit(t *testing.T) {
	svc, repo, students, _ := canteenFixture(t)
	students.students[testStudentID].CanteenLimit = nil
	repo.monthTotals[testStudentID] = 1_000_000

	_, err := svc.RecordPurchase(context.Background(), "school-1", CreatePurchaseRequest{
		StudentID: testStudentID,
		ItemID:    testItemID,
		Quantity:  4,
	})
	require.NoError(t, err)
}

func TestCanteenRecordPurchaseInactiveItem(t *testing.T) {
	svc, repo, _, _ := canteenFixture(t)
	repo.items[testItemID].Active = false

	_, err := svc.RecordPurchase(context.Background(), "school-1", CreatePurchaseRequest{
		StudentID: testStudentID,
		ItemID:    testItemID,
		Quantity:  1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCanteenRecordPurchaseUnknownStudent(t *testing.T) {
	svc, _, _, _ := canteenFixture(t)

	_, err := svc.RecordPurchase(context.Background(), "school-1", CreatePurchaseRequest{
		StudentID: "3d9a5f7b-2e4c-41d8-9b6a-c8e1f0a2b403",
		ItemID:    testItemID,
		Quantity:  1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCanteenStandingsFiltersStudentsAtCap(t *testing.T) {
	svc, repo, _, _ := canteenFixture(t)
	repo.standings = []models.StudentCanteenStanding{
		{StudentID: "s1", FullName: "Below", CanteenLimit: int64Ptr(1000), MonthTotalCents: 999},
		{StudentID: "s2", FullName: "At cap", CanteenLimit: int64Ptr(1000), MonthTotalCents: 1000},
		{StudentID: "s3", FullName: "No cap", MonthTotalCents: 5000},
	}

	standings, err := svc.Standings(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, "s1", standings[0].StudentID)
	assert.Equal(t, "s3", standings[1].StudentID)
}

func TestCanteenStandingsServedFromCache(t *testing.T) {
	svc, repo, _, cache := canteenFixture(t)
	cached := []models.StudentCanteenStanding{{StudentID: "cached", FullName: "Cached"}}
	require.NoError(t, cache.Set(context.Background(), "canteen:standings:school-1", cached, time.Minute))
	repo.standings = []models.StudentCanteenStanding{{StudentID: "fresh", FullName: "Fresh"}}

	standings, err := svc.Standings(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, "cached", standings[0].StudentID)
}

func TestCanteenSetStudentLimit(t *testing.T) {
	svc, _, students, cache := canteenFixture(t)

	err := svc.SetStudentLimit(context.Background(), "school-1", testStudentID, int64Ptr(2500))
	require.NoError(t, err)
	require.NotNil(t, students.limits[testStudentID])
	assert.Equal(t, int64(2500), *students.limits[testStudentID])
	assert.Contains(t, cache.invalidated, "canteen:standings:school-1")
}

func TestCanteenSetStudentLimitNegative(t *testing.T) {
	svc, _, _, _ := canteenFixture(t)

	err := svc.SetStudentLimit(context.Background(), "school-1", testStudentID, int64Ptr(-1))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
