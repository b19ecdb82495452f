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

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students of a school joined with account data.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s JOIN users u ON u.id = s.user_id WHERE s.school_id = $1"
	args := []interface{}{filter.SchoolID}
	var conditions []string

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR s.enrollment LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":  "u.full_name",
		"enrollment": "s.enrollment",
		"created_at": "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "u.full_name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT s.id, s.school_id, s.user_id, s.enrollment, s.birth_date, s.canteen_limit, s.class_id, s.active, s.created_at, s.updated_at, u.full_name, u.email %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	return students, total, nil
}

// FindByID returns a student by id scoped to the given school.
func (r *StudentRepository) FindByID(ctx context.Context, schoolID, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.school_id, s.user_id, s.enrollment, s.birth_date, s.canteen_limit, s.class_id, s.active, s.created_at, s.updated_at, u.full_name, u.email FROM students s JOIN users u ON u.id = s.user_id WHERE s.id = $1 AND s.school_id = $2`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id, schoolID); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create persists a student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, school_id, user_id, enrollment, birth_date, canteen_limit, class_id, active, created_at, updated_at) VALUES (:id, :school_id, :user_id, :enrollment, :birth_date, :canteen_limit, :class_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies a student record.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET enrollment = :enrollment, birth_date = :birth_date, canteen_limit = :canteen_limit, class_id = :class_id, active = :active, updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateCanteenLimit sets or clears the monthly spending cap.
func (r *StudentRepository) UpdateCanteenLimit(ctx context.Context, schoolID, id string, limit *int64) error {
	const query = `UPDATE students SET canteen_limit = $1, updated_at = $2 WHERE id = $3 AND school_id = $4`
	if _, err := r.db.ExecContext(ctx, query, limit, time.Now().UTC(), id, schoolID); err != nil {
		return fmt.Errorf("update canteen limit: %w", err)
	}
	return nil
}

// Delete removes a student scoped to the given school.
func (r *StudentRepository) Delete(ctx context.Context, schoolID, id string) error {
	const query = `DELETE FROM students WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
