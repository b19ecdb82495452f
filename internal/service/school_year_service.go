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

type schoolYearRepository interface {
	List(ctx context.Context, filter models.SchoolYearFilter) ([]models.SchoolYear, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.SchoolYear, error)
	Create(ctx context.Context, year *models.SchoolYear) error
	Update(ctx context.Context, year *models.SchoolYear) error
	Delete(ctx context.Context, schoolID, id string) error
	CountYearSections(ctx context.Context, id string) (int, error)
}

// CreateSchoolYearRequest captures fields for creating school years.
type CreateSchoolYearRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// UpdateSchoolYearRequest modifies school year fields.
type UpdateSchoolYearRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// SchoolYearService handles school year workflows.
type SchoolYearService struct {
	repo      schoolYearRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolYearService creates a new school year service.
func NewSchoolYearService(repo schoolYearRepository, validate *validator.Validate, logger *zap.Logger) *SchoolYearService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolYearService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated school years for one school.
func (s *SchoolYearService) List(ctx context.Context, filter models.SchoolYearFilter) ([]models.SchoolYear, *models.Pagination, error) {
	years, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list school years")
	}
	return years, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a school year by identifier within the caller's school.
func (s *SchoolYearService) Get(ctx context.Context, schoolID, id string) (*models.SchoolYear, error) {
	year, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school year")
	}
	return year, nil
}

// Create adds a school year.
func (s *SchoolYearService) Create(ctx context.Context, schoolID string, req CreateSchoolYearRequest) (*models.SchoolYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school year payload")
	}

	year := &models.SchoolYear{SchoolID: schoolID, Name: req.Name}
	if err := s.repo.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create school year")
	}
	return year, nil
}

// Update modifies an existing school year.
func (s *SchoolYearService) Update(ctx context.Context, schoolID, id string, req UpdateSchoolYearRequest) (*models.SchoolYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school year payload")
	}

	year, err := s.Get(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}

	year.Name = req.Name
	if err := s.repo.Update(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update school year")
	}
	return year, nil
}

// Delete removes a school year when no sections exist under its classes.
func (s *SchoolYearService) Delete(ctx context.Context, schoolID, id string) error {
	year, err := s.Get(ctx, schoolID, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountYearSections(ctx, year.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check school year dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "school year has classes with sections")
	}

	if err := s.repo.Delete(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete school year")
	}
	return nil
}
