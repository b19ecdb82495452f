package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

type periodRepository interface {
	List(ctx context.Context, filter models.AcademicPeriodFilter) ([]models.AcademicPeriod, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.AcademicPeriod, error)
	FindCurrent(ctx context.Context, schoolID string) (*models.AcademicPeriod, error)
	Create(ctx context.Context, period *models.AcademicPeriod) error
	Update(ctx context.Context, period *models.AcademicPeriod) error
	Delete(ctx context.Context, schoolID, id string) error
	CountAssignments(ctx context.Context, id string) (int, error)
}

// CreatePeriodRequest captures fields for creating academic periods.
type CreatePeriodRequest struct {
	Name      string    `json:"name" validate:"required,min=2"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// UpdatePeriodRequest modifies academic period fields.
type UpdatePeriodRequest struct {
	Name      string    `json:"name" validate:"required,min=2"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// PeriodService handles academic period workflows.
type PeriodService struct {
	repo      periodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService creates a new period service.
func NewPeriodService(repo periodRepository, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated academic periods for one school.
func (s *PeriodService) List(ctx context.Context, filter models.AcademicPeriodFilter) ([]models.AcademicPeriod, *models.Pagination, error) {
	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic periods")
	}
	return periods, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a period by identifier within the caller's school.
func (s *PeriodService) Get(ctx context.Context, schoolID, id string) (*models.AcademicPeriod, error) {
	period, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic period")
	}
	return period, nil
}

// Current returns the latest period by start date for the school.
func (s *PeriodService) Current(ctx context.Context, schoolID string) (*models.AcademicPeriod, error) {
	period, err := s.repo.FindCurrent(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school has no academic periods")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
	}
	return period, nil
}

func validatePeriodDates(start, end time.Time) error {
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}
	return nil
}

// Create adds an academic period.
func (s *PeriodService) Create(ctx context.Context, schoolID string, req CreatePeriodRequest) (*models.AcademicPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	if err := validatePeriodDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	period := &models.AcademicPeriod{
		SchoolID:  schoolID,
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic period")
	}
	return period, nil
}

// Update modifies an existing academic period.
func (s *PeriodService) Update(ctx context.Context, schoolID, id string, req UpdatePeriodRequest) (*models.AcademicPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	if err := validatePeriodDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	period, err := s.Get(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}

	period.Name = req.Name
	period.StartDate = req.StartDate
	period.EndDate = req.EndDate

	if err := s.repo.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic period")
	}
	return period, nil
}

// Delete removes an academic period when no assignments reference it.
func (s *PeriodService) Delete(ctx context.Context, schoolID, id string) error {
	period, err := s.Get(ctx, schoolID, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountAssignments(ctx, period.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "academic period is referenced by assignments")
	}

	if err := s.repo.Delete(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete academic period")
	}
	return nil
}
