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

type mockSubjectRepo struct {
	subjects map[string]*models.Subject
	sections map[string]int
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{
		subjects: make(map[string]*models.Subject),
		sections: make(map[string]int),
	}
}

func (m *mockSubjectRepo) List(_ context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var out []models.Subject
	for _, s := range m.subjects {
		if s.SchoolID == filter.SchoolID {
			out = append(out, *s)
		}
	}
	return out, len(out), nil
}

func (m *mockSubjectRepo) FindByID(_ context.Context, schoolID, id string) (*models.Subject, error) {
	s, ok := m.subjects[id]
	if !ok || s.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *s
	return &copy, nil
}

func (m *mockSubjectRepo) ExistsBySlug(_ context.Context, schoolID, slug string, excludeID string) (bool, error) {
	for _, s := range m.subjects {
		if s.SchoolID == schoolID && s.Slug == slug && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = "subject-1"
	}
	copy := *subject
	m.subjects[subject.ID] = &copy
	return nil
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *models.Subject) error {
	copy := *subject
	m.subjects[subject.ID] = &copy
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, schoolID, id string) error {
	delete(m.subjects, id)
	return nil
}

func (m *mockSubjectRepo) CountSections(_ context.Context, id string) (int, error) {
	return m.sections[id], nil
}

func TestSubjectServiceCreate(t *testing.T) {
	repo := newMockSubjectRepo()
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	subject, err := svc.Create(context.Background(), "school-1", CreateSubjectRequest{Name: "  Matemática  "})
	require.NoError(t, err)
	assert.Equal(t, "Matemática", subject.Name)
	assert.Equal(t, "matematica", subject.Slug)
	assert.Equal(t, "school-1", subject.SchoolID)
}

func TestSubjectServiceCreateSlugConflict(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.subjects["existing"] = &models.Subject{ID: "existing", SchoolID: "school-1", Name: "História", Slug: "historia"}
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", CreateSubjectRequest{Name: "Historia"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceCreateRejectsUnsluggableName(t *testing.T) {
	repo := newMockSubjectRepo()
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", CreateSubjectRequest{Name: "数学"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.subjects)
}

func TestSubjectServiceCreateSameSlugOtherSchool(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.subjects["existing"] = &models.Subject{ID: "existing", SchoolID: "school-2", Name: "História", Slug: "historia"}
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", CreateSubjectRequest{Name: "Historia"})
	require.NoError(t, err)
}

func TestSubjectServiceUpdateKeepsOwnSlug(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.subjects["subject-1"] = &models.Subject{ID: "subject-1", SchoolID: "school-1", Name: "Física", Slug: "fisica"}
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	subject, err := svc.Update(context.Background(), "school-1", "subject-1", UpdateSubjectRequest{Name: "Física"})
	require.NoError(t, err)
	assert.Equal(t, "fisica", subject.Slug)
}

func TestSubjectServiceGetOtherSchool(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.subjects["subject-1"] = &models.Subject{ID: "subject-1", SchoolID: "school-2", Name: "Física", Slug: "fisica"}
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "school-1", "subject-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceDeleteWithSections(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.subjects["subject-1"] = &models.Subject{ID: "subject-1", SchoolID: "school-1", Name: "Física", Slug: "fisica"}
	repo.sections["subject-1"] = 2
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "school-1", "subject-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Contains(t, repo.subjects, "subject-1")
}

func TestSubjectServiceDelete(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.subjects["subject-1"] = &models.Subject{ID: "subject-1", SchoolID: "school-1", Name: "Física", Slug: "fisica"}
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "school-1", "subject-1")
	require.NoError(t, err)
	assert.NotContains(t, repo.subjects, "subject-1")
}
