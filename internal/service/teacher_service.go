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
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.TeacherDetail, error)
	ExistsByRegistration(ctx context.Context, schoolID, registration string, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	DeleteWithSections(ctx context.Context, schoolID, id string) error
	CountSections(ctx context.Context, id string) (int, error)
}

type teacherUserRepository interface {
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateTeacherRequest creates the account and the teacher record.
type CreateTeacherRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	FullName     string  `json:"full_name" validate:"required,min=3"`
	Registration string  `json:"registration" validate:"required"`
	Expertise    *string `json:"expertise,omitempty"`
}

// UpdateTeacherRequest modifies teacher fields.
type UpdateTeacherRequest struct {
	FullName     string  `json:"full_name" validate:"required,min=3"`
	Registration string  `json:"registration" validate:"required"`
	Expertise    *string `json:"expertise,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

// TeacherService handles teacher domain workflows.
type TeacherService struct {
	repo      teacherRepository
	users     teacherUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService creates a new teacher service.
func NewTeacherService(repo teacherRepository, users teacherUserRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns paginated teachers for one school.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a teacher by identifier within the caller's school.
func (s *TeacherService) Get(ctx context.Context, schoolID, id string) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers the account and the teacher record in sequence.
func (s *TeacherService) Create(ctx context.Context, schoolID string, req CreateTeacherRequest) (*models.TeacherDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	emailTaken, err := s.users.ExistsByEmail(ctx, email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if emailTaken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}

	registrationTaken, err := s.repo.ExistsByRegistration(ctx, schoolID, req.Registration, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if registrationTaken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration already in use")
	}

	user := &models.User{
		SchoolID: schoolID,
		Email:    email,
		FullName: strings.TrimSpace(req.FullName),
		Role:     models.RoleTeacher,
		Active:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	teacher := &models.Teacher{
		SchoolID:     schoolID,
		UserID:       user.ID,
		Registration: req.Registration,
		Expertise:    req.Expertise,
		Active:       true,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	return &models.TeacherDetail{Teacher: *teacher, FullName: user.FullName, Email: user.Email}, nil
}

// Update modifies the teacher and the linked account name.
func (s *TeacherService) Update(ctx context.Context, schoolID, id string, req UpdateTeacherRequest) (*models.TeacherDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	detail, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	registrationTaken, err := s.repo.ExistsByRegistration(ctx, schoolID, req.Registration, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if registrationTaken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration already in use")
	}

	teacher := detail.Teacher
	teacher.Registration = req.Registration
	teacher.Expertise = req.Expertise
	if req.Active != nil {
		teacher.Active = *req.Active
	}

	if err := s.repo.Update(ctx, &teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName != detail.FullName {
		user, err := s.users.FindByID(ctx, teacher.UserID)
		if err == nil {
			user.FullName = fullName
			if err := s.users.Update(ctx, user); err != nil {
				s.logger.Warn("failed to update teacher account name", zap.String("user_id", user.ID), zap.Error(err))
			}
		}
	}

	detail.Teacher = teacher
	detail.FullName = fullName
	return detail, nil
}

// Delete removes the teacher together with its sections atomically.
func (s *TeacherService) Delete(ctx context.Context, schoolID, id string) error {
	if _, err := s.repo.FindByID(ctx, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	if err := s.repo.DeleteWithSections(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}
