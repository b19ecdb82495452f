package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/escolaware/escola-api/internal/models"
)

// AssignmentRepository handles persistence for assignments and student
// assignment grades.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new repository instance.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments of a school.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	base := "FROM assignments WHERE school_id = $1"
	args := []interface{}{filter.SchoolID}
	var conditions []string

	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.AcademicPeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_period_id = $%d", len(args)+1))
		args = append(args, filter.AcademicPeriodID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "name",
		"due_date":   "due_date",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "due_date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}

	return assignments, total, nil
}

// FindByID returns an assignment by id scoped to the given school.
func (r *AssignmentRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Assignment, error) {
	const query = `SELECT * FROM assignments WHERE id = $1 AND school_id = $2`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id, schoolID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create persists an assignment record.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `INSERT INTO assignments (id, school_id, section_id, academic_period_id, name, description, weight, due_date, created_at, updated_at) VALUES (:id, :school_id, :section_id, :academic_period_id, :name, :description, :weight, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update modifies an assignment record.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET name = :name, description = :description, weight = :weight, due_date = :due_date, academic_period_id = :academic_period_id, updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment and its student grades in one
// transaction.
func (r *AssignmentRepository) Delete(ctx context.Context, schoolID, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM student_assignments WHERE assignment_id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment grades: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1 AND school_id = $2`, id, schoolID); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment delete: %w", err)
	}
	return nil
}

// ListStudentAssignments returns per-student records for one assignment.
func (r *AssignmentRepository) ListStudentAssignments(ctx context.Context, assignmentID string) ([]models.StudentAssignment, error) {
	const query = `SELECT * FROM student_assignments WHERE assignment_id = $1 ORDER BY created_at ASC`
	var records []models.StudentAssignment
	if err := r.db.SelectContext(ctx, &records, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list student assignments: %w", err)
	}
	return records, nil
}

// FindStudentAssignment returns one student record for an assignment.
func (r *AssignmentRepository) FindStudentAssignment(ctx context.Context, assignmentID, studentID string) (*models.StudentAssignment, error) {
	const query = `SELECT * FROM student_assignments WHERE assignment_id = $1 AND student_id = $2`
	var record models.StudentAssignment
	if err := r.db.GetContext(ctx, &record, query, assignmentID, studentID); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpsertStudentAssignment records or replaces a student grade.
func (r *AssignmentRepository) UpsertStudentAssignment(ctx context.Context, record *models.StudentAssignment) error {
	existing, err := r.FindStudentAssignment(ctx, record.AssignmentID, record.StudentID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("find student assignment: %w", err)
	}

	now := time.Now().UTC()
	if existing != nil {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		record.UpdatedAt = now
		const query = `UPDATE student_assignments SET grade = :grade, submitted_at = :submitted_at, updated_at = :updated_at WHERE id = :id`
		if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
			return fmt.Errorf("update student assignment: %w", err)
		}
		return nil
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	const query = `INSERT INTO student_assignments (id, assignment_id, student_id, grade, submitted_at, created_at, updated_at) VALUES (:id, :assignment_id, :student_id, :grade, :submitted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create student assignment: %w", err)
	}
	return nil
}
