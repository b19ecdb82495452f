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

// SectionRepository handles persistence for teacher/class/subject links.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository creates a new repository instance.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionDetailColumns = `sec.id, sec.school_id, sec.teacher_id, sec.class_id, sec.subject_id, sec.created_at, sec.updated_at, u.full_name AS teacher_name, c.name AS class_name, sub.name AS subject_name`

const sectionDetailJoins = `FROM sections sec
	JOIN teachers t ON t.id = sec.teacher_id
	JOIN users u ON u.id = t.user_id
	JOIN classes c ON c.id = sec.class_id
	JOIN subjects sub ON sub.id = sec.subject_id`

// List returns sections of a school with joined display names.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error) {
	base := sectionDetailJoins + " WHERE sec.school_id = $1"
	args := []interface{}{filter.SchoolID}
	var conditions []string

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("sec.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("sec.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("sec.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"teacher_name": "u.full_name",
		"class_name":   "c.name",
		"subject_name": "sub.name",
		"created_at":   "sec.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "sec.created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", sectionDetailColumns, base, column, order, size, offset)
	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}

	return sections, total, nil
}

// FindByID returns a section by id scoped to the given school.
func (r *SectionRepository) FindByID(ctx context.Context, schoolID, id string) (*models.SectionDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE sec.id = $1 AND sec.school_id = $2", sectionDetailColumns, sectionDetailJoins)
	var section models.SectionDetail
	if err := r.db.GetContext(ctx, &section, query, id, schoolID); err != nil {
		return nil, err
	}
	return &section, nil
}

// ExistsTriple checks whether the teacher/class/subject combination is
// already registered for the school.
func (r *SectionRepository) ExistsTriple(ctx context.Context, schoolID, teacherID, classID, subjectID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM sections WHERE school_id = $1 AND teacher_id = $2 AND class_id = $3 AND subject_id = $4"
	args := []interface{}{schoolID, teacherID, classID, subjectID}
	if excludeID != "" {
		query += " AND id <> $5"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check section triple: %w", err)
	}
	return true, nil
}

// Create persists a section record.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now

	const query = `INSERT INTO sections (id, school_id, teacher_id, class_id, subject_id, created_at, updated_at) VALUES (:id, :school_id, :teacher_id, :class_id, :subject_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update modifies a section record.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET teacher_id = :teacher_id, class_id = :class_id, subject_id = :subject_id, updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section scoped to the given school.
func (r *SectionRepository) Delete(ctx context.Context, schoolID, id string) error {
	const query = `DELETE FROM sections WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// ListByClass returns all sections of one class, used as the demand
// source when generating a class calendar.
func (r *SectionRepository) ListByClass(ctx context.Context, schoolID, classID string) ([]models.SectionDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE sec.school_id = $1 AND sec.class_id = $2 ORDER BY sub.name ASC", sectionDetailColumns, sectionDetailJoins)
	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, schoolID, classID); err != nil {
		return nil, fmt.Errorf("list class sections: %w", err)
	}
	return sections, nil
}
