package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

type mockTeacherRepo struct {
	teachers map[string]*models.TeacherDetail
	sections map[string]int
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{
		teachers: make(map[string]*models.TeacherDetail),
		sections: make(map[string]int),
	}
}

func (m *mockTeacherRepo) List(_ context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error) {
	var out []models.TeacherDetail
	for _, t := range m.teachers {
		if t.SchoolID == filter.SchoolID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (m *mockTeacherRepo) FindByID(_ context.Context, schoolID, id string) (*models.TeacherDetail, error) {
	t, ok := m.teachers[id]
	if !ok || t.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *t
	return &copy, nil
}

func (m *mockTeacherRepo) ExistsByRegistration(_ context.Context, schoolID, registration string, excludeID string) (bool, error) {
	for _, t := range m.teachers {
		if t.SchoolID == schoolID && t.Registration == registration && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherRepo) Create(_ context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = fmt.Sprintf("teacher-%d", len(m.teachers)+1)
	}
	m.teachers[teacher.ID] = &models.TeacherDetail{Teacher: *teacher}
	return nil
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *models.Teacher) error {
	detail, ok := m.teachers[teacher.ID]
	if !ok {
		return sql.ErrNoRows
	}
	detail.Teacher = *teacher
	return nil
}

func (m *mockTeacherRepo) DeleteWithSections(_ context.Context, schoolID, id string) error {
	delete(m.teachers, id)
	delete(m.sections, id)
	return nil
}

func (m *mockTeacherRepo) CountSections(_ context.Context, id string) (int, error) {
	return m.sections[id], nil
}

type mockUserRepoStore struct {
	users map[string]*models.User
}

func newMockUserRepoStore() *mockUserRepoStore {
	return &mockUserRepoStore{users: make(map[string]*models.User)}
}

func (m *mockUserRepoStore) ExistsByEmail(_ context.Context, email string, excludeID string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepoStore) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepoStore) Update(_ context.Context, user *models.User) error {
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepoStore) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *u
	return &copy, nil
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := newMockTeacherRepo()
	users := newMockUserRepoStore()
	svc := NewTeacherService(repo, users, validator.New(), zap.NewNop())

	detail, err := svc.Create(context.Background(), "school-1", CreateTeacherRequest{
		Email:        "Ana.Souza@Example.com",
		FullName:     "Ana Souza",
		Registration: "T-100",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana.souza@example.com", detail.Email)
	assert.True(t, detail.Active)

	account, err := users.FindByID(context.Background(), detail.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, account.Role)
	assert.Equal(t, "school-1", account.SchoolID)
}

func TestTeacherServiceCreateEmailConflict(t *testing.T) {
	repo := newMockTeacherRepo()
	users := newMockUserRepoStore()
	users.users["user-1"] = &models.User{ID: "user-1", Email: "ana@example.com"}
	svc := NewTeacherService(repo, users, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", CreateTeacherRequest{
		Email:        "ana@example.com",
		FullName:     "Ana Souza",
		Registration: "T-100",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.teachers)
}

func TestTeacherServiceCreateRegistrationConflict(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.teachers["teacher-1"] = &models.TeacherDetail{
		Teacher: models.Teacher{ID: "teacher-1", SchoolID: "school-1", Registration: "T-100"},
	}
	svc := NewTeacherService(repo, newMockUserRepoStore(), validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", CreateTeacherRequest{
		Email:        "ana@example.com",
		FullName:     "Ana Souza",
		Registration: "T-100",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceUpdateSyncsAccountName(t *testing.T) {
	repo := newMockTeacherRepo()
	users := newMockUserRepoStore()
	users.users["user-1"] = &models.User{ID: "user-1", SchoolID: "school-1", Email: "ana@example.com", FullName: "Ana Souza"}
	repo.teachers["teacher-1"] = &models.TeacherDetail{
		Teacher:  models.Teacher{ID: "teacher-1", SchoolID: "school-1", UserID: "user-1", Registration: "T-100", Active: true},
		FullName: "Ana Souza",
		Email:    "ana@example.com",
	}
	svc := NewTeacherService(repo, users, validator.New(), zap.NewNop())

	detail, err := svc.Update(context.Background(), "school-1", "teacher-1", UpdateTeacherRequest{
		FullName:     "Ana Souza Lima",
		Registration: "T-100",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza Lima", detail.FullName)
	assert.Equal(t, "Ana Souza Lima", users.users["user-1"].FullName)
}

func TestTeacherServiceDeleteRemovesSections(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.teachers["teacher-1"] = &models.TeacherDetail{
		Teacher: models.Teacher{ID: "teacher-1", SchoolID: "school-1", Registration: "T-100"},
	}
	repo.sections["teacher-1"] = 3
	svc := NewTeacherService(repo, newMockUserRepoStore(), validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "school-1", "teacher-1")
	require.NoError(t, err)
	assert.NotContains(t, repo.teachers, "teacher-1")
	assert.NotContains(t, repo.sections, "teacher-1")
}

func TestTeacherServiceDeleteNotFound(t *testing.T) {
	svc := NewTeacherService(newMockTeacherRepo(), newMockUserRepoStore(), validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "school-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
