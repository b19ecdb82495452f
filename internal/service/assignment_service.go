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

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, schoolID, id string) error
	ListStudentAssignments(ctx context.Context, assignmentID string) ([]models.StudentAssignment, error)
	UpsertStudentAssignment(ctx context.Context, record *models.StudentAssignment) error
}

type assignmentSectionRepository interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.SectionDetail, error)
}

type assignmentPeriodRepository interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.AcademicPeriod, error)
}

type assignmentStudentRepository interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.StudentDetail, error)
}

// CreateAssignmentRequest captures fields for creating assignments.
type CreateAssignmentRequest struct {
	SectionID        string    `json:"section_id" validate:"required,uuid"`
	AcademicPeriodID string    `json:"academic_period_id" validate:"required,uuid"`
	Name             string    `json:"name" validate:"required,min=2"`
	Description      *string   `json:"description,omitempty"`
	Weight           float64   `json:"weight" validate:"gte=0,lte=100"`
	DueDate          time.Time `json:"due_date" validate:"required"`
}

// UpdateAssignmentRequest modifies assignment fields.
type UpdateAssignmentRequest struct {
	AcademicPeriodID string    `json:"academic_period_id" validate:"required,uuid"`
	Name             string    `json:"name" validate:"required,min=2"`
	Description      *string   `json:"description,omitempty"`
	Weight           float64   `json:"weight" validate:"gte=0,lte=100"`
	DueDate          time.Time `json:"due_date" validate:"required"`
}

// GradeAssignmentRequest records a student's grade for an assignment.
type GradeAssignmentRequest struct {
	StudentID   string     `json:"student_id" validate:"required,uuid"`
	Grade       *float64   `json:"grade,omitempty" validate:"omitempty,gte=0,lte=10"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// AssignmentService handles assignment and grading workflows.
type AssignmentService struct {
	repo      assignmentRepository
	sections  assignmentSectionRepository
	periods   assignmentPeriodRepository
	students  assignmentStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService creates a new assignment service.
func NewAssignmentService(repo assignmentRepository, sections assignmentSectionRepository, periods assignmentPeriodRepository, students assignmentStudentRepository, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, sections: sections, periods: periods, students: students, validator: validate, logger: logger}
}

// List returns paginated assignments for one school.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, *models.Pagination, error) {
	assignments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an assignment by identifier within the caller's school.
func (s *AssignmentService) Get(ctx context.Context, schoolID, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Create adds an assignment under an existing section and period.
func (s *AssignmentService) Create(ctx context.Context, schoolID string, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.sections.FindByID(ctx, schoolID, req.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if _, err := s.periods.FindByID(ctx, schoolID, req.AcademicPeriodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic period")
	}

	assignment := &models.Assignment{
		SchoolID:         schoolID,
		SectionID:        req.SectionID,
		AcademicPeriodID: req.AcademicPeriodID,
		Name:             req.Name,
		Description:      req.Description,
		Weight:           req.Weight,
		DueDate:          req.DueDate,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Update modifies an existing assignment.
func (s *AssignmentService) Update(ctx context.Context, schoolID, id string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if _, err := s.periods.FindByID(ctx, schoolID, req.AcademicPeriodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic period")
	}

	assignment.AcademicPeriodID = req.AcademicPeriodID
	assignment.Name = req.Name
	assignment.Description = req.Description
	assignment.Weight = req.Weight
	assignment.DueDate = req.DueDate

	if err := s.repo.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// Delete removes an assignment and its grades.
func (s *AssignmentService) Delete(ctx context.Context, schoolID, id string) error {
	if _, err := s.repo.FindByID(ctx, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if err := s.repo.Delete(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// ListGrades returns per-student records for one assignment.
func (s *AssignmentService) ListGrades(ctx context.Context, schoolID, id string) ([]models.StudentAssignment, error) {
	if _, err := s.Get(ctx, schoolID, id); err != nil {
		return nil, err
	}
	records, err := s.repo.ListStudentAssignments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return records, nil
}

// Grade records or replaces a student's grade for an assignment.
func (s *AssignmentService) Grade(ctx context.Context, schoolID, id string, req GradeAssignmentRequest) (*models.StudentAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	if _, err := s.Get(ctx, schoolID, id); err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, schoolID, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	record := &models.StudentAssignment{
		AssignmentID: id,
		StudentID:    req.StudentID,
		Grade:        req.Grade,
		SubmittedAt:  req.SubmittedAt,
	}
	if err := s.repo.UpsertStudentAssignment(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}
	return record, nil
}
