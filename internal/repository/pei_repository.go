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

// PeiRepository handles persistence for individualized education plans.
type PeiRepository struct {
	db *sqlx.DB
}

// NewPeiRepository creates a new repository instance.
func NewPeiRepository(db *sqlx.DB) *PeiRepository {
	return &PeiRepository{db: db}
}

// List returns education plans of a school.
func (r *PeiRepository) List(ctx context.Context, filter models.PeiFilter) ([]models.StudentPei, int, error) {
	base := "FROM student_peis WHERE school_id = $1"
	args := []interface{}{filter.SchoolID}

	if filter.StudentID != "" {
		base += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}

	allowedSorts := map[string]string{
		"review_date": "review_date",
		"created_at":  "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var plans []models.StudentPei
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list education plans: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count education plans: %w", err)
	}

	return plans, total, nil
}

// FindByID returns a plan by id scoped to the given school.
func (r *PeiRepository) FindByID(ctx context.Context, schoolID, id string) (*models.StudentPei, error) {
	const query = `SELECT * FROM student_peis WHERE id = $1 AND school_id = $2`
	var plan models.StudentPei
	if err := r.db.GetContext(ctx, &plan, query, id, schoolID); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Create persists an education plan.
func (r *PeiRepository) Create(ctx context.Context, plan *models.StudentPei) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	const query = `INSERT INTO student_peis (id, school_id, student_id, objectives, resources, review_date, created_at, updated_at) VALUES (:id, :school_id, :student_id, :objectives, :resources, :review_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("create education plan: %w", err)
	}
	return nil
}

// Update modifies an education plan.
func (r *PeiRepository) Update(ctx context.Context, plan *models.StudentPei) error {
	plan.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_peis SET objectives = :objectives, resources = :resources, review_date = :review_date, updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("update education plan: %w", err)
	}
	return nil
}

// Delete removes an education plan scoped to the given school.
func (r *PeiRepository) Delete(ctx context.Context, schoolID, id string) error {
	const query = `DELETE FROM student_peis WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete education plan: %w", err)
	}
	return nil
}
