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

// PeriodRepository handles persistence for academic periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository creates a new repository instance.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// List returns academic periods of a school.
func (r *PeriodRepository) List(ctx context.Context, filter models.AcademicPeriodFilter) ([]models.AcademicPeriod, int, error) {
	base := "FROM academic_periods WHERE school_id = $1"
	args := []interface{}{filter.SchoolID}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	allowedSorts := map[string]string{
		"name":       "name",
		"start_date": "start_date",
		"end_date":   "end_date",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "start_date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list academic periods: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count academic periods: %w", err)
	}

	return periods, total, nil
}

// FindByID returns an academic period by id scoped to the given school.
func (r *PeriodRepository) FindByID(ctx context.Context, schoolID, id string) (*models.AcademicPeriod, error) {
	const query = `SELECT * FROM academic_periods WHERE id = $1 AND school_id = $2`
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query, id, schoolID); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindCurrent returns the most recent period by start date. A school
// with no periods yields sql.ErrNoRows.
func (r *PeriodRepository) FindCurrent(ctx context.Context, schoolID string) (*models.AcademicPeriod, error) {
	const query = `SELECT * FROM academic_periods WHERE school_id = $1 ORDER BY start_date DESC LIMIT 1`
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query, schoolID); err != nil {
		return nil, err
	}
	return &period, nil
}

// Create persists an academic period record.
func (r *PeriodRepository) Create(ctx context.Context, period *models.AcademicPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now

	const query = `INSERT INTO academic_periods (id, school_id, name, start_date, end_date, created_at, updated_at) VALUES (:id, :school_id, :name, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create academic period: %w", err)
	}
	return nil
}

// Update modifies an academic period record.
func (r *PeriodRepository) Update(ctx context.Context, period *models.AcademicPeriod) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_periods SET name = :name, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update academic period: %w", err)
	}
	return nil
}

// Delete removes an academic period scoped to the given school.
func (r *PeriodRepository) Delete(ctx context.Context, schoolID, id string) error {
	const query = `DELETE FROM academic_periods WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete academic period: %w", err)
	}
	return nil
}

// CountAssignments returns how many assignments reference the period.
func (r *PeriodRepository) CountAssignments(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE academic_period_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count period assignments: %w", err)
	}
	return count, nil
}
