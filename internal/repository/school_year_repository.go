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

// SchoolYearRepository handles persistence for school years.
type SchoolYearRepository struct {
	db *sqlx.DB
}

// NewSchoolYearRepository creates a new repository instance.
func NewSchoolYearRepository(db *sqlx.DB) *SchoolYearRepository {
	return &SchoolYearRepository{db: db}
}

// List returns school years of a school.
func (r *SchoolYearRepository) List(ctx context.Context, filter models.SchoolYearFilter) ([]models.SchoolYear, int, error) {
	base := "FROM school_years WHERE school_id = $1"
	args := []interface{}{filter.SchoolID}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	allowedSorts := map[string]string{
		"name":       "name",
		"created_at": "created_at",
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
	var years []models.SchoolYear
	if err := r.db.SelectContext(ctx, &years, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list school years: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count school years: %w", err)
	}

	return years, total, nil
}

// FindByID returns a school year by id scoped to the given school.
func (r *SchoolYearRepository) FindByID(ctx context.Context, schoolID, id string) (*models.SchoolYear, error) {
	const query = `SELECT * FROM school_years WHERE id = $1 AND school_id = $2`
	var year models.SchoolYear
	if err := r.db.GetContext(ctx, &year, query, id, schoolID); err != nil {
		return nil, err
	}
	return &year, nil
}

// Create persists a school year record.
func (r *SchoolYearRepository) Create(ctx context.Context, year *models.SchoolYear) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if year.CreatedAt.IsZero() {
		year.CreatedAt = now
	}
	year.UpdatedAt = now

	const query = `INSERT INTO school_years (id, school_id, name, created_at, updated_at) VALUES (:id, :school_id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create school year: %w", err)
	}
	return nil
}

// Update modifies a school year record.
func (r *SchoolYearRepository) Update(ctx context.Context, year *models.SchoolYear) error {
	year.UpdatedAt = time.Now().UTC()
	const query = `UPDATE school_years SET name = :name, updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("update school year: %w", err)
	}
	return nil
}

// Delete removes a school year scoped to the given school.
func (r *SchoolYearRepository) Delete(ctx context.Context, schoolID, id string) error {
	const query = `DELETE FROM school_years WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete school year: %w", err)
	}
	return nil
}

// CountYearSections returns how many sections exist under classes of
// the school year. A non-zero count blocks deletion.
func (r *SchoolYearRepository) CountYearSections(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM sections sec JOIN classes c ON c.id = sec.class_id WHERE c.school_year_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count school year sections: %w", err)
	}
	return count, nil
}

// CountClasses returns how many classes reference the school year.
func (r *SchoolYearRepository) CountClasses(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM classes WHERE school_year_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count school year classes: %w", err)
	}
	return count, nil
}
