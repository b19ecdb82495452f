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

type requestRepository interface {
	ListPurchaseRequests(ctx context.Context, filter models.RequestFilter) ([]models.PurchaseRequest, int, error)
	FindPurchaseRequestByID(ctx context.Context, schoolID, id string) (*models.PurchaseRequest, error)
	CreatePurchaseRequest(ctx context.Context, request *models.PurchaseRequest) error
	UpdatePurchaseRequestStatus(ctx context.Context, schoolID, id string, status models.RequestStatus) error
	DeletePurchaseRequest(ctx context.Context, schoolID, id string) error
	ListPrintRequests(ctx context.Context, filter models.RequestFilter) ([]models.PrintRequest, int, error)
	FindPrintRequestByID(ctx context.Context, schoolID, id string) (*models.PrintRequest, error)
	CreatePrintRequest(ctx context.Context, request *models.PrintRequest) error
	UpdatePrintRequestStatus(ctx context.Context, schoolID, id string, status models.RequestStatus) error
	DeletePrintRequest(ctx context.Context, schoolID, id string) error
}

// CreatePurchaseRequestRequest captures a supply purchase request.
type CreatePurchaseRequestRequest struct {
	Description    string `json:"description" validate:"required,min=3"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"required,gt=0"`
}

// CreatePrintRequestRequest captures a document print request.
type CreatePrintRequestRequest struct {
	DocumentName string     `json:"document_name" validate:"required,min=2"`
	Copies       int        `json:"copies" validate:"required,gt=0"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

// TransitionRequest moves a workflow request to a new status.
type TransitionRequest struct {
	Status models.RequestStatus `json:"status" validate:"required,oneof=REQUESTED APPROVED PRINTED REVIEW"`
}

// RequestService handles purchase and print request workflows with
// guarded status transitions.
type RequestService struct {
	repo      requestRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequestService creates a new request service.
func NewRequestService(repo requestRepository, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{repo: repo, validator: validate, logger: logger}
}

// ListPurchaseRequests returns paginated purchase requests.
func (s *RequestService) ListPurchaseRequests(ctx context.Context, filter models.RequestFilter) ([]models.PurchaseRequest, *models.Pagination, error) {
	requests, total, err := s.repo.ListPurchaseRequests(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list purchase requests")
	}
	return requests, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetPurchaseRequest returns a purchase request within the caller's school.
func (s *RequestService) GetPurchaseRequest(ctx context.Context, schoolID, id string) (*models.PurchaseRequest, error) {
	request, err := s.repo.FindPurchaseRequestByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "purchase request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load purchase request")
	}
	return request, nil
}

// CreatePurchaseRequest records a new purchase request in REQUESTED state.
func (s *RequestService) CreatePurchaseRequest(ctx context.Context, schoolID, requesterID string, req CreatePurchaseRequestRequest) (*models.PurchaseRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid purchase request payload")
	}

	request := &models.PurchaseRequest{
		SchoolID:       schoolID,
		RequesterID:    requesterID,
		Description:    req.Description,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
		Status:         models.RequestStatusRequested,
	}
	if err := s.repo.CreatePurchaseRequest(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create purchase request")
	}
	return request, nil
}

// TransitionPurchaseRequest applies a guarded status change.
func (s *RequestService) TransitionPurchaseRequest(ctx context.Context, schoolID, id string, req TransitionRequest) (*models.PurchaseRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	request, err := s.GetPurchaseRequest(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}

	if !request.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move purchase request from "+string(request.Status)+" to "+string(req.Status))
	}

	if err := s.repo.UpdatePurchaseRequestStatus(ctx, schoolID, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update purchase request")
	}

	request.Status = req.Status
	return request, nil
}

// DeletePurchaseRequest removes a request still in REQUESTED state.
func (s *RequestService) DeletePurchaseRequest(ctx context.Context, schoolID, id string) error {
	request, err := s.GetPurchaseRequest(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if request.Status != models.RequestStatusRequested {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "only requests still in REQUESTED state can be removed")
	}
	if err := s.repo.DeletePurchaseRequest(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete purchase request")
	}
	return nil
}

// ListPrintRequests returns paginated print requests.
func (s *RequestService) ListPrintRequests(ctx context.Context, filter models.RequestFilter) ([]models.PrintRequest, *models.Pagination, error) {
	requests, total, err := s.repo.ListPrintRequests(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list print requests")
	}
	return requests, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetPrintRequest returns a print request within the caller's school.
func (s *RequestService) GetPrintRequest(ctx context.Context, schoolID, id string) (*models.PrintRequest, error) {
	request, err := s.repo.FindPrintRequestByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "print request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load print request")
	}
	return request, nil
}

// CreatePrintRequest records a new print request in REQUESTED state.
func (s *RequestService) CreatePrintRequest(ctx context.Context, schoolID, requesterID string, req CreatePrintRequestRequest) (*models.PrintRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid print request payload")
	}

	request := &models.PrintRequest{
		SchoolID:     schoolID,
		RequesterID:  requesterID,
		DocumentName: req.DocumentName,
		Copies:       req.Copies,
		DueDate:      req.DueDate,
		Status:       models.RequestStatusRequested,
	}
	if err := s.repo.CreatePrintRequest(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create print request")
	}
	return request, nil
}

// TransitionPrintRequest applies a guarded status change. PRINTED is
// reachable only from APPROVED and is terminal.
func (s *RequestService) TransitionPrintRequest(ctx context.Context, schoolID, id string, req TransitionRequest) (*models.PrintRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	request, err := s.GetPrintRequest(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}

	if !request.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move print request from "+string(request.Status)+" to "+string(req.Status))
	}

	if err := s.repo.UpdatePrintRequestStatus(ctx, schoolID, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update print request")
	}

	request.Status = req.Status
	return request, nil
}

// DeletePrintRequest removes a request still in REQUESTED state.
func (s *RequestService) DeletePrintRequest(ctx context.Context, schoolID, id string) error {
	request, err := s.GetPrintRequest(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if request.Status != models.RequestStatusRequested {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "only requests still in REQUESTED state can be removed")
	}
	if err := s.repo.DeletePrintRequest(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete print request")
	}
	return nil
}
