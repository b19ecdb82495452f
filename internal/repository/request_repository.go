package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/escolaware/escola-api/internal/models"
)

// RequestRepository handles persistence for purchase and print requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository creates a new repository instance.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func requestListClauses(filter models.RequestFilter, table string) (string, []interface{}, string) {
	base := "FROM " + table + " WHERE school_id = $1"
	args := []interface{}{filter.SchoolID}
	var conditions []string

	if filter.RequesterID != "" {
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)+1))
		args = append(args, filter.RequesterID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"status":     "status",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	return base, args, fmt.Sprintf("ORDER BY %s %s", column, order)
}

// ListPurchaseRequests returns purchase requests of a school.
func (r *RequestRepository) ListPurchaseRequests(ctx context.Context, filter models.RequestFilter) ([]models.PurchaseRequest, int, error) {
	base, args, orderBy := requestListClauses(filter, "purchase_requests")
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s %s LIMIT %d OFFSET %d", base, orderBy, size, offset)
	var requests []models.PurchaseRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list purchase requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count purchase requests: %w", err)
	}

	return requests, total, nil
}

// FindPurchaseRequestByID returns a purchase request scoped to a school.
func (r *RequestRepository) FindPurchaseRequestByID(ctx context.Context, schoolID, id string) (*models.PurchaseRequest, error) {
	const query = `SELECT * FROM purchase_requests WHERE id = $1 AND school_id = $2`
	var request models.PurchaseRequest
	if err := r.db.GetContext(ctx, &request, query, id, schoolID); err != nil {
		return nil, err
	}
	return &request, nil
}

// CreatePurchaseRequest persists a purchase request.
func (r *RequestRepository) CreatePurchaseRequest(ctx context.Context, request *models.PurchaseRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO purchase_requests (id, school_id, requester_id, description, quantity, unit_price_cents, status, created_at, updated_at) VALUES (:id, :school_id, :requester_id, :description, :quantity, :unit_price_cents, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create purchase request: %w", err)
	}
	return nil
}

// UpdatePurchaseRequestStatus moves a purchase request to a new status.
func (r *RequestRepository) UpdatePurchaseRequestStatus(ctx context.Context, schoolID, id string, status models.RequestStatus) error {
	const query = `UPDATE purchase_requests SET status = $1, updated_at = $2 WHERE id = $3 AND school_id = $4`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id, schoolID); err != nil {
		return fmt.Errorf("update purchase request status: %w", err)
	}
	return nil
}

// DeletePurchaseRequest removes a purchase request scoped to a school.
func (r *RequestRepository) DeletePurchaseRequest(ctx context.Context, schoolID, id string) error {
	const query = `DELETE FROM purchase_requests WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete purchase request: %w", err)
	}
	return nil
}

// ListPrintRequests returns print requests of a school.
func (r *RequestRepository) ListPrintRequests(ctx context.Context, filter models.RequestFilter) ([]models.PrintRequest, int, error) {
	base, args, orderBy := requestListClauses(filter, "print_requests")
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s %s LIMIT %d OFFSET %d", base, orderBy, size, offset)
	var requests []models.PrintRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list print requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count print requests: %w", err)
	}

	return requests, total, nil
}

// FindPrintRequestByID returns a print request scoped to a school.
func (r *RequestRepository) FindPrintRequestByID(ctx context.Context, schoolID, id string) (*models.PrintRequest, error) {
	const query = `SELECT * FROM print_requests WHERE id = $1 AND school_id = $2`
	var request models.PrintRequest
	if err := r.db.GetContext(ctx, &request, query, id, schoolID); err != nil {
		return nil, err
	}
	return &request, nil
}

// CreatePrintRequest persists a print request.
func (r *RequestRepository) CreatePrintRequest(ctx context.Context, request *models.PrintRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO print_requests (id, school_id, requester_id, document_name, copies, due_date, status, created_at, updated_at) VALUES (:id, :school_id, :requester_id, :document_name, :copies, :due_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create print request: %w", err)
	}
	return nil
}

// UpdatePrintRequestStatus moves a print request to a new status.
func (r *RequestRepository) UpdatePrintRequestStatus(ctx context.Context, schoolID, id string, status models.RequestStatus) error {
	const query = `UPDATE print_requests SET status = $1, updated_at = $2 WHERE id = $3 AND school_id = $4`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id, schoolID); err != nil {
		return fmt.Errorf("update print request status: %w", err)
	}
	return nil
}

// DeletePrintRequest removes a print request scoped to a school.
func (r *RequestRepository) DeletePrintRequest(ctx context.Context, schoolID, id string) error {
	const query = `DELETE FROM print_requests WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete print request: %w", err)
	}
	return nil
}
