package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
	"github.com/escolaware/escola-api/pkg/slug"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Class, error)
	ExistsBySlug(ctx context.Context, schoolID, slug string, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, schoolID, id string) error
	CountSections(ctx context.Context, id string) (int, error)
}

type classYearRepository interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.SchoolYear, error)
}

// CreateClassRequest captures fields for creating classes.
type CreateClassRequest struct {
	Name         string  `json:"name" validate:"required,min=2"`
	SchoolYearID *string `json:"school_year_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateClassRequest modifies class fields.
type UpdateClassRequest struct {
	Name         string  `json:"name" validate:"required,min=2"`
	SchoolYearID *string `json:"school_year_id,omitempty" validate:"omitempty,uuid"`
}

// ClassService handles class domain workflows.
type ClassService struct {
	repo      classRepository
	years     classYearRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService creates a new class service.
func NewClassService(repo classRepository, years classYearRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, years: years, validator: validate, logger: logger}
}

// List returns paginated classes for one school.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a class by identifier within the caller's school.
func (s *ClassService) Get(ctx context.Context, schoolID, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *ClassService) checkSchoolYear(ctx context.Context, schoolID string, yearID *string) error {
	if yearID == nil || *yearID == "" {
		return nil
	}
	if _, err := s.years.FindByID(ctx, schoolID, *yearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "school year not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school year")
	}
	return nil
}

// Create adds a class, deriving the slug from the name.
func (s *ClassService) Create(ctx context.Context, schoolID string, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	if err := s.checkSchoolYear(ctx, schoolID, req.SchoolYearID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	classSlug := slug.Make(name)
	if classSlug == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name must contain at least one letter or digit")
	}

	exists, err := s.repo.ExistsBySlug(ctx, schoolID, classSlug, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class slug")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a class with this name already exists")
	}

	class := &models.Class{
		SchoolID:     schoolID,
		Name:         name,
		Slug:         classSlug,
		SchoolYearID: req.SchoolYearID,
	}

	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, schoolID, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	if err := s.checkSchoolYear(ctx, schoolID, req.SchoolYearID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	classSlug := slug.Make(name)
	if classSlug == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name must contain at least one letter or digit")
	}

	exists, err := s.repo.ExistsBySlug(ctx, schoolID, classSlug, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class slug")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a class with this name already exists")
	}

	class.Name = name
	class.Slug = classSlug
	class.SchoolYearID = req.SchoolYearID

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class when no sections reference it.
func (s *ClassService) Delete(ctx context.Context, schoolID, id string) error {
	class, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	count, err := s.repo.CountSections(ctx, class.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "class is referenced by sections")
	}

	if err := s.repo.Delete(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}
