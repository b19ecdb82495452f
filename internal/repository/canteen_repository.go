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

// CanteenRepository handles persistence for canteen items and purchases.
type CanteenRepository struct {
	db *sqlx.DB
}

// NewCanteenRepository creates a new repository instance.
func NewCanteenRepository(db *sqlx.DB) *CanteenRepository {
	return &CanteenRepository{db: db}
}

// ListItems returns canteen items of a school.
func (r *CanteenRepository) ListItems(ctx context.Context, filter models.CanteenItemFilter) ([]models.CanteenItem, int, error) {
	base := "FROM canteen_items WHERE school_id = $1"
	args := []interface{}{filter.SchoolID}
	var conditions []string

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":        "name",
		"price_cents": "price_cents",
		"created_at":  "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var items []models.CanteenItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list canteen items: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count canteen items: %w", err)
	}

	return items, total, nil
}

// FindItemByID returns a canteen item by id scoped to the given school.
func (r *CanteenRepository) FindItemByID(ctx context.Context, schoolID, id string) (*models.CanteenItem, error) {
	const query = `SELECT * FROM canteen_items WHERE id = $1 AND school_id = $2`
	var item models.CanteenItem
	if err := r.db.GetContext(ctx, &item, query, id, schoolID); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem persists a canteen item record.
func (r *CanteenRepository) CreateItem(ctx context.Context, item *models.CanteenItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const query = `INSERT INTO canteen_items (id, school_id, name, price_cents, active, created_at, updated_at) VALUES (:id, :school_id, :name, :price_cents, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create canteen item: %w", err)
	}
	return nil
}

// UpdateItem modifies a canteen item record.
func (r *CanteenRepository) UpdateItem(ctx context.Context, item *models.CanteenItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE canteen_items SET name = :name, price_cents = :price_cents, active = :active, updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update canteen item: %w", err)
	}
	return nil
}

// DeleteItem removes a canteen item scoped to the given school.
func (r *CanteenRepository) DeleteItem(ctx context.Context, schoolID, id string) error {
	const query = `DELETE FROM canteen_items WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete canteen item: %w", err)
	}
	return nil
}

// ListPurchases returns canteen purchases of a school.
func (r *CanteenRepository) ListPurchases(ctx context.Context, filter models.CanteenPurchaseFilter) ([]models.CanteenPurchase, int, error) {
	base := "FROM canteen_purchases WHERE school_id = $1"
	args := []interface{}{filter.SchoolID}
	var conditions []string

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ItemID != "" {
		conditions = append(conditions, fmt.Sprintf("item_id = $%d", len(args)+1))
		args = append(args, filter.ItemID)
	}
	if filter.Month != nil {
		start := time.Date(filter.Month.Year(), filter.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		conditions = append(conditions, fmt.Sprintf("purchased_at >= $%d AND purchased_at < $%d", len(args)+1, len(args)+2))
		args = append(args, start, end)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"purchased_at": "purchased_at",
		"created_at":   "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "purchased_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var purchases []models.CanteenPurchase
	if err := r.db.SelectContext(ctx, &purchases, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list canteen purchases: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count canteen purchases: %w", err)
	}

	return purchases, total, nil
}

// CreatePurchase records a purchase with the price snapshot already
// resolved by the service layer.
func (r *CanteenRepository) CreatePurchase(ctx context.Context, purchase *models.CanteenPurchase) error {
	if purchase.ID == "" {
		purchase.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if purchase.PurchasedAt.IsZero() {
		purchase.PurchasedAt = now
	}
	purchase.CreatedAt = now

	const query = `INSERT INTO canteen_purchases (id, school_id, student_id, item_id, quantity, unit_price_cents, purchased_at, created_at) VALUES (:id, :school_id, :student_id, :item_id, :quantity, :unit_price_cents, :purchased_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, purchase); err != nil {
		return fmt.Errorf("create canteen purchase: %w", err)
	}
	return nil
}

// MonthTotalForStudent sums purchase amounts for the month containing
// the reference time.
func (r *CanteenRepository) MonthTotalForStudent(ctx context.Context, schoolID, studentID string, ref time.Time) (int64, error) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	const query = `SELECT COALESCE(SUM(quantity * unit_price_cents), 0) FROM canteen_purchases WHERE school_id = $1 AND student_id = $2 AND purchased_at >= $3 AND purchased_at < $4`
	var total int64
	if err := r.db.GetContext(ctx, &total, query, schoolID, studentID, start, end); err != nil {
		return 0, fmt.Errorf("sum month purchases: %w", err)
	}
	return total, nil
}

// StandingBySchool returns every student's month-to-date spending next
// to their cap, for the canteen limits report.
func (r *CanteenRepository) StandingBySchool(ctx context.Context, schoolID string, ref time.Time) ([]models.StudentCanteenStanding, error) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	const query = `SELECT s.id AS student_id, u.full_name, s.canteen_limit, COALESCE(SUM(p.quantity * p.unit_price_cents), 0) AS month_total_cents
		FROM students s
		JOIN users u ON u.id = s.user_id
		LEFT JOIN canteen_purchases p ON p.student_id = s.id AND p.purchased_at >= $2 AND p.purchased_at < $3
		WHERE s.school_id = $1 AND s.active = TRUE
		GROUP BY s.id, u.full_name, s.canteen_limit
		ORDER BY u.full_name ASC`
	var standings []models.StudentCanteenStanding
	if err := r.db.SelectContext(ctx, &standings, query, schoolID, start, end); err != nil {
		return nil, fmt.Errorf("list canteen standings: %w", err)
	}
	return standings, nil
}
