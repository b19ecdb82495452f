package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

type canteenRepository interface {
	ListItems(ctx context.Context, filter models.CanteenItemFilter) ([]models.CanteenItem, int, error)
	FindItemByID(ctx context.Context, schoolID, id string) (*models.CanteenItem, error)
	CreateItem(ctx context.Context, item *models.CanteenItem) error
	UpdateItem(ctx context.Context, item *models.CanteenItem) error
	DeleteItem(ctx context.Context, schoolID, id string) error
	ListPurchases(ctx context.Context, filter models.CanteenPurchaseFilter) ([]models.CanteenPurchase, int, error)
	CreatePurchase(ctx context.Context, purchase *models.CanteenPurchase) error
	MonthTotalForStudent(ctx context.Context, schoolID, studentID string, ref time.Time) (int64, error)
	StandingBySchool(ctx context.Context, schoolID string, ref time.Time) ([]models.StudentCanteenStanding, error)
}

type canteenStudentRepository interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.StudentDetail, error)
	UpdateCanteenLimit(ctx context.Context, schoolID, id string, limit *int64) error
}

type canteenCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// CreateCanteenItemRequest captures fields for creating canteen items.
type CreateCanteenItemRequest struct {
	Name       string `json:"name" validate:"required,min=2"`
	PriceCents int64  `json:"price_cents" validate:"required,gt=0"`
}

// UpdateCanteenItemRequest modifies canteen item fields.
type UpdateCanteenItemRequest struct {
	Name       string `json:"name" validate:"required,min=2"`
	PriceCents int64  `json:"price_cents" validate:"required,gt=0"`
	Active     *bool  `json:"active,omitempty"`
}

// CreatePurchaseRequest records a student buying an item.
type CreatePurchaseRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	ItemID    string `json:"item_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CanteenService handles canteen items, purchases and the monthly
// spending-limit rule.
type CanteenService struct {
	repo      canteenRepository
	students  canteenStudentRepository
	cache     canteenCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCanteenService creates a new canteen service.
func NewCanteenService(repo canteenRepository, students canteenStudentRepository, cache canteenCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CanteenService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &CanteenService{
		repo:      repo,
		students:  students,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func standingsCacheKey(schoolID string) string {
	return fmt.Sprintf("canteen:standings:%s", schoolID)
}

// ListItems returns paginated canteen items for one school.
func (s *CanteenService) ListItems(ctx context.Context, filter models.CanteenItemFilter) ([]models.CanteenItem, *models.Pagination, error) {
	items, total, err := s.repo.ListItems(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list canteen items")
	}
	return items, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetItem returns a canteen item within the caller's school.
func (s *CanteenService) GetItem(ctx context.Context, schoolID, id string) (*models.CanteenItem, error) {
	item, err := s.repo.FindItemByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "canteen item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load canteen item")
	}
	return item, nil
}

// CreateItem adds a canteen item.
func (s *CanteenService) CreateItem(ctx context.Context, schoolID string, req CreateCanteenItemRequest) (*models.CanteenItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid canteen item payload")
	}

	item := &models.CanteenItem{
		SchoolID:   schoolID,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Active:     true,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create canteen item")
	}
	return item, nil
}

// UpdateItem modifies a canteen item.
func (s *CanteenService) UpdateItem(ctx context.Context, schoolID, id string, req UpdateCanteenItemRequest) (*models.CanteenItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid canteen item payload")
	}

	item, err := s.GetItem(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}

	item.Name = req.Name
	item.PriceCents = req.PriceCents
	if req.Active != nil {
		item.Active = *req.Active
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update canteen item")
	}
	return item, nil
}

// DeleteItem removes a canteen item.
func (s *CanteenService) DeleteItem(ctx context.Context, schoolID, id string) error {
	if _, err := s.GetItem(ctx, schoolID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete canteen item")
	}
	return nil
}

// ListPurchases returns paginated purchases for one school.
func (s *CanteenService) ListPurchases(ctx context.Context, filter models.CanteenPurchaseFilter) ([]models.CanteenPurchase, *models.Pagination, error) {
	purchases, total, err := s.repo.ListPurchases(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list purchases")
	}
	return purchases, paginationFor(filter.Page, filter.PageSize, total), nil
}

// RecordPurchase stores a purchase after checking the student's monthly
// cap. A purchase that would make the month total reach or exceed the
// cap is rejected; students without a cap always pass.
func (s *CanteenService) RecordPurchase(ctx context.Context, schoolID string, req CreatePurchaseRequest) (*models.CanteenPurchase, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid purchase payload")
	}

	student, err := s.students.FindByID(ctx, schoolID, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	item, err := s.GetItem(ctx, schoolID, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "canteen item is inactive")
	}

	amount := int64(req.Quantity) * item.PriceCents

	if student.CanteenLimit != nil {
		monthTotal, err := s.repo.MonthTotalForStudent(ctx, schoolID, req.StudentID, s.now())
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute month total")
		}
		if monthTotal+amount >= *student.CanteenLimit {
			return nil, appErrors.Clone(appErrors.ErrLimitReached, "monthly canteen limit reached")
		}
	}

	purchase := &models.CanteenPurchase{
		SchoolID:       schoolID,
		StudentID:      req.StudentID,
		ItemID:         req.ItemID,
		Quantity:       req.Quantity,
		UnitPriceCents: item.PriceCents,
		PurchasedAt:    s.now(),
	}
	if err := s.repo.CreatePurchase(ctx, purchase); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record purchase")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, standingsCacheKey(schoolID)); err != nil {
			s.logger.Warn("failed to invalidate canteen standings cache", zap.String("school_id", schoolID), zap.Error(err))
		}
	}

	return purchase, nil
}

// Standings returns students still allowed to purchase this month:
// those without a cap or strictly below it. Served from cache when warm.
func (s *CanteenService) Standings(ctx context.Context, schoolID string) ([]models.StudentCanteenStanding, error) {
	key := standingsCacheKey(schoolID)

	if s.cache != nil {
		var cached []models.StudentCanteenStanding
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("canteen standings cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	standings, err := s.repo.StandingBySchool(ctx, schoolID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load canteen standings")
	}

	allowed := make([]models.StudentCanteenStanding, 0, len(standings))
	for _, standing := range standings {
		if standing.CanteenLimit == nil || standing.MonthTotalCents < *standing.CanteenLimit {
			allowed = append(allowed, standing)
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, allowed, s.cacheTTL); err != nil {
			s.logger.Warn("canteen standings cache write failed", zap.Error(err))
		}
	}

	return allowed, nil
}

// SetStudentLimit sets or clears a student's monthly cap.
func (s *CanteenService) SetStudentLimit(ctx context.Context, schoolID, studentID string, limit *int64) error {
	if limit != nil && *limit < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "limit must not be negative")
	}
	if _, err := s.students.FindByID(ctx, schoolID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.students.UpdateCanteenLimit(ctx, schoolID, studentID, limit); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update limit")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, standingsCacheKey(schoolID)); err != nil {
			s.logger.Warn("failed to invalidate canteen standings cache", zap.String("school_id", schoolID), zap.Error(err))
		}
	}
	return nil
}
