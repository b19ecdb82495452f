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

type peiRepository interface {
	List(ctx context.Context, filter models.PeiFilter) ([]models.StudentPei, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.StudentPei, error)
	Create(ctx context.Context, plan *models.StudentPei) error
	Update(ctx context.Context, plan *models.StudentPei) error
	Delete(ctx context.Context, schoolID, id string) error
}

// CreatePeiRequest captures fields for creating education plans.
type CreatePeiRequest struct {
	StudentID  string     `json:"student_id" validate:"required,uuid"`
	Objectives string     `json:"objectives" validate:"required,min=3"`
	Resources  *string    `json:"resources,omitempty"`
	ReviewDate *time.Time `json:"review_date,omitempty"`
}

// UpdatePeiRequest modifies education plan fields.
type UpdatePeiRequest struct {
	Objectives string     `json:"objectives" validate:"required,min=3"`
	Resources  *string    `json:"resources,omitempty"`
	ReviewDate *time.Time `json:"review_date,omitempty"`
}

// PeiService handles individualized education plan workflows.
type PeiService struct {
	repo      peiRepository
	students  assignmentStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeiService creates a new education plan service.
func NewPeiService(repo peiRepository, students assignmentStudentRepository, validate *validator.Validate, logger *zap.Logger) *PeiService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeiService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns paginated education plans for one school.
func (s *PeiService) List(ctx context.Context, filter models.PeiFilter) ([]models.StudentPei, *models.Pagination, error) {
	plans, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list education plans")
	}
	return plans, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a plan by identifier within the caller's school.
func (s *PeiService) Get(ctx context.Context, schoolID, id string) (*models.StudentPei, error) {
	plan, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "education plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education plan")
	}
	return plan, nil
}

// Create adds an education plan for an existing student.
func (s *PeiService) Create(ctx context.Context, schoolID string, req CreatePeiRequest) (*models.StudentPei, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid education plan payload")
	}

	if _, err := s.students.FindByID(ctx, schoolID, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	plan := &models.StudentPei{
		SchoolID:   schoolID,
		StudentID:  req.StudentID,
		Objectives: req.Objectives,
		Resources:  req.Resources,
		ReviewDate: req.ReviewDate,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create education plan")
	}
	return plan, nil
}

// Update modifies an existing education plan.
func (s *PeiService) Update(ctx context.Context, schoolID, id string, req UpdatePeiRequest) (*models.StudentPei, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid education plan payload")
	}

	plan, err := s.Get(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}

	plan.Objectives = req.Objectives
	plan.Resources = req.Resources
	plan.ReviewDate = req.ReviewDate

	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update education plan")
	}
	return plan, nil
}

// Delete removes an education plan.
func (s *PeiService) Delete(ctx context.Context, schoolID, id string) error {
	if _, err := s.Get(ctx, schoolID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete education plan")
	}
	return nil
}
