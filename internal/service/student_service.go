package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateCanteenLimit(ctx context.Context, schoolID, id string, limit *int64) error
	Delete(ctx context.Context, schoolID, id string) error
}

type studentClassRepository interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Class, error)
}

// CreateStudentRequest creates the account and the student record.
type CreateStudentRequest struct {
	Email        string     `json:"email" validate:"required,email"`
	FullName     string     `json:"full_name" validate:"required,min=3"`
	Enrollment   string     `json:"enrollment" validate:"required"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	CanteenLimit *int64     `json:"canteen_limit,omitempty" validate:"omitempty,min=0"`
	ClassID      *string    `json:"class_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateStudentRequest modifies student fields.
type UpdateStudentRequest struct {
	FullName     string     `json:"full_name" validate:"required,min=3"`
	Enrollment   string     `json:"enrollment" validate:"required"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	CanteenLimit *int64     `json:"canteen_limit,omitempty" validate:"omitempty,min=0"`
	ClassID      *string    `json:"class_id,omitempty" validate:"omitempty,uuid"`
	Active       *bool      `json:"active,omitempty"`
}

// StudentService handles student domain workflows.
type StudentService struct {
	repo      studentRepository
	users     teacherUserRepository
	classes   studentClassRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates a new student service.
func NewStudentService(repo studentRepository, users teacherUserRepository, classes studentClassRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, users: users, classes: classes, validator: validate, logger: logger}
}

// List returns paginated students for one school.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a student by identifier within the caller's school.
func (s *StudentService) Get(ctx context.Context, schoolID, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) checkClass(ctx context.Context, schoolID string, classID *string) error {
	if classID == nil || *classID == "" {
		return nil
	}
	if _, err := s.classes.FindByID(ctx, schoolID, *classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}

// Create registers the account and the student record.
func (s *StudentService) Create(ctx context.Context, schoolID string, req CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if err := s.checkClass(ctx, schoolID, req.ClassID); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	emailTaken, err := s.users.ExistsByEmail(ctx, email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if emailTaken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}

	user := &models.User{
		SchoolID: schoolID,
		Email:    email,
		FullName: strings.TrimSpace(req.FullName),
		Role:     models.RoleStudent,
		Active:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	student := &models.Student{
		SchoolID:     schoolID,
		UserID:       user.ID,
		Enrollment:   req.Enrollment,
		BirthDate:    req.BirthDate,
		CanteenLimit: req.CanteenLimit,
		ClassID:      req.ClassID,
		Active:       true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	return &models.StudentDetail{Student: *student, FullName: user.FullName, Email: user.Email}, nil
}

// Update modifies the student and the linked account name.
func (s *StudentService) Update(ctx context.Context, schoolID, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	detail, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := s.checkClass(ctx, schoolID, req.ClassID); err != nil {
		return nil, err
	}

	student := detail.Student
	student.Enrollment = req.Enrollment
	student.BirthDate = req.BirthDate
	student.CanteenLimit = req.CanteenLimit
	student.ClassID = req.ClassID
	if req.Active != nil {
		student.Active = *req.Active
	}

	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName != detail.FullName {
		user, err := s.users.FindByID(ctx, student.UserID)
		if err == nil {
			user.FullName = fullName
			if err := s.users.Update(ctx, user); err != nil {
				s.logger.Warn("failed to update student account name", zap.String("user_id", user.ID), zap.Error(err))
			}
		}
	}

	detail.Student = student
	detail.FullName = fullName
	return detail, nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, schoolID, id string) error {
	if _, err := s.repo.FindByID(ctx, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := s.repo.Delete(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
