package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.SectionDetail, error)
	ExistsTriple(ctx context.Context, schoolID, teacherID, classID, subjectID, excludeID string) (bool, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, schoolID, id string) error
}

type sectionTeacherRepository interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.TeacherDetail, error)
}

type sectionSubjectRepository interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Subject, error)
}

// CreateSectionRequest links a teacher to a class for one subject.
type CreateSectionRequest struct {
	TeacherID string `json:"teacher_id" validate:"required,uuid"`
	ClassID   string `json:"class_id" validate:"required,uuid"`
	SubjectID string `json:"subject_id" validate:"required,uuid"`
}

// UpdateSectionRequest rebinds the triple.
type UpdateSectionRequest struct {
	TeacherID string `json:"teacher_id" validate:"required,uuid"`
	ClassID   string `json:"class_id" validate:"required,uuid"`
	SubjectID string `json:"subject_id" validate:"required,uuid"`
}

// SectionService handles teacher/class/subject link workflows.
type SectionService struct {
	repo      sectionRepository
	teachers  sectionTeacherRepository
	classes   studentClassRepository
	subjects  sectionSubjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService creates a new section service.
func NewSectionService(repo sectionRepository, teachers sectionTeacherRepository, classes studentClassRepository, subjects sectionSubjectRepository, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, teachers: teachers, classes: classes, subjects: subjects, validator: validate, logger: logger}
}

// List returns paginated sections for one school.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error) {
	sections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a section by identifier within the caller's school.
func (s *SectionService) Get(ctx context.Context, schoolID, id string) (*models.SectionDetail, error) {
	section, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

func (s *SectionService) checkReferences(ctx context.Context, schoolID, teacherID, classID, subjectID string) error {
	if _, err := s.teachers.FindByID(ctx, schoolID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if _, err := s.classes.FindByID(ctx, schoolID, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.subjects.FindByID(ctx, schoolID, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return nil
}

// Create links the triple, refusing duplicates within the school.
func (s *SectionService) Create(ctx context.Context, schoolID string, req CreateSectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	if err := s.checkReferences(ctx, schoolID, req.TeacherID, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsTriple(ctx, schoolID, req.TeacherID, req.ClassID, req.SubjectID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "section already exists for this teacher, class and subject")
	}

	section := &models.Section{
		SchoolID:  schoolID,
		TeacherID: req.TeacherID,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}

	return s.Get(ctx, schoolID, section.ID)
}

// Update rebinds an existing section.
func (s *SectionService) Update(ctx context.Context, schoolID, id string, req UpdateSectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	detail, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	if err := s.checkReferences(ctx, schoolID, req.TeacherID, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsTriple(ctx, schoolID, req.TeacherID, req.ClassID, req.SubjectID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "section already exists for this teacher, class and subject")
	}

	section := detail.Section
	section.TeacherID = req.TeacherID
	section.ClassID = req.ClassID
	section.SubjectID = req.SubjectID

	if err := s.repo.Update(ctx, &section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}

	return s.Get(ctx, schoolID, id)
}

// Delete removes a section.
func (s *SectionService) Delete(ctx context.Context, schoolID, id string) error {
	if _, err := s.repo.FindByID(ctx, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	if err := s.repo.Delete(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	return nil
}
