package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/escolaware/escola-api/internal/models"
)

// CalendarRepository handles persistence for generated class calendars
// and their slots.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository creates a new repository instance.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// FindByID returns a calendar by id scoped to the given school.
func (r *CalendarRepository) FindByID(ctx context.Context, schoolID, id string) (*models.SchoolCalendar, error) {
	const query = `SELECT * FROM school_calendars WHERE id = $1 AND school_id = $2`
	var calendar models.SchoolCalendar
	if err := r.db.GetContext(ctx, &calendar, query, id, schoolID); err != nil {
		return nil, err
	}
	return &calendar, nil
}

// FindLatest returns the newest calendar version for a class and period.
func (r *CalendarRepository) FindLatest(ctx context.Context, schoolID, classID, periodID string) (*models.SchoolCalendar, error) {
	const query = `SELECT * FROM school_calendars WHERE school_id = $1 AND class_id = $2 AND academic_period_id = $3 ORDER BY version DESC LIMIT 1`
	var calendar models.SchoolCalendar
	if err := r.db.GetContext(ctx, &calendar, query, schoolID, classID, periodID); err != nil {
		return nil, err
	}
	return &calendar, nil
}

// ListVersions returns all calendar versions for a class and period,
// newest first.
func (r *CalendarRepository) ListVersions(ctx context.Context, schoolID, classID, periodID string) ([]models.SchoolCalendar, error) {
	const query = `SELECT * FROM school_calendars WHERE school_id = $1 AND class_id = $2 AND academic_period_id = $3 ORDER BY version DESC`
	var calendars []models.SchoolCalendar
	if err := r.db.SelectContext(ctx, &calendars, query, schoolID, classID, periodID); err != nil {
		return nil, fmt.Errorf("list calendar versions: %w", err)
	}
	return calendars, nil
}

// CreateVersioned inserts the calendar with its slots as the next
// version for the class and period, all in one transaction.
func (r *CalendarRepository) CreateVersioned(ctx context.Context, calendar *models.SchoolCalendar, slots []models.CalendarSlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin calendar save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var maxVersion int
	const versionQuery = `SELECT COALESCE(MAX(version), 0) FROM school_calendars WHERE school_id = $1 AND class_id = $2 AND academic_period_id = $3`
	if err := tx.GetContext(ctx, &maxVersion, versionQuery, calendar.SchoolID, calendar.ClassID, calendar.AcademicPeriodID); err != nil {
		return fmt.Errorf("resolve calendar version: %w", err)
	}

	if calendar.ID == "" {
		calendar.ID = uuid.NewString()
	}
	calendar.Version = maxVersion + 1
	now := time.Now().UTC()
	calendar.CreatedAt = now
	calendar.UpdatedAt = now

	const insertCalendar = `INSERT INTO school_calendars (id, school_id, class_id, academic_period_id, version, status, meta, created_at, updated_at) VALUES (:id, :school_id, :class_id, :academic_period_id, :version, :status, :meta, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertCalendar, calendar); err != nil {
		return fmt.Errorf("create calendar: %w", err)
	}

	const insertSlot = `INSERT INTO calendar_slots (id, calendar_id, weekday, position, starts_at, duration_min, subject_id, teacher_id, created_at) VALUES (:id, :calendar_id, :weekday, :position, :starts_at, :duration_min, :subject_id, :teacher_id, :created_at)`
	for i := range slots {
		slots[i].CalendarID = calendar.ID
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
		slots[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertSlot, slots[i]); err != nil {
			return fmt.Errorf("create calendar slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit calendar save: %w", err)
	}
	return nil
}

// UpdateStatus moves a calendar to a new lifecycle status.
func (r *CalendarRepository) UpdateStatus(ctx context.Context, schoolID, id string, status models.CalendarStatus) error {
	const query = `UPDATE school_calendars SET status = $1, updated_at = $2 WHERE id = $3 AND school_id = $4`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id, schoolID); err != nil {
		return fmt.Errorf("update calendar status: %w", err)
	}
	return nil
}

// Delete removes a calendar and its slots in one transaction.
func (r *CalendarRepository) Delete(ctx context.Context, schoolID, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin calendar delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_slots WHERE calendar_id = $1`, id); err != nil {
		return fmt.Errorf("delete calendar slots: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM school_calendars WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return fmt.Errorf("delete calendar: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete calendar: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit calendar delete: %w", err)
	}
	return nil
}

// ListSlots returns all slots of a calendar ordered by weekday and
// position.
func (r *CalendarRepository) ListSlots(ctx context.Context, calendarID string) ([]models.CalendarSlot, error) {
	const query = `SELECT * FROM calendar_slots WHERE calendar_id = $1 ORDER BY weekday ASC, position ASC`
	var slots []models.CalendarSlot
	if err := r.db.SelectContext(ctx, &slots, query, calendarID); err != nil {
		return nil, fmt.Errorf("list calendar slots: %w", err)
	}
	return slots, nil
}

// FindTeacherConflicts reports slots in other published calendars of
// the same period where one of the given teachers is already booked at
// the same weekday and position.
func (r *CalendarRepository) FindTeacherConflicts(ctx context.Context, schoolID, periodID, excludeClassID string, slots []models.CalendarSlot) ([]models.CalendarConflict, error) {
	var conflicts []models.CalendarConflict
	const query = `SELECT COUNT(*)
		FROM calendar_slots cs
		JOIN school_calendars sc ON sc.id = cs.calendar_id
		WHERE sc.school_id = $1 AND sc.academic_period_id = $2 AND sc.class_id <> $3 AND sc.status = $4
		AND cs.teacher_id = $5 AND cs.weekday = $6 AND cs.position = $7`

	for _, slot := range slots {
		var count int
		err := r.db.GetContext(ctx, &count, query, schoolID, periodID, excludeClassID, models.CalendarStatusPublished, slot.TeacherID, slot.Weekday, slot.Position)
		if err != nil {
			return nil, fmt.Errorf("check teacher conflicts: %w", err)
		}
		if count > 0 {
			conflicts = append(conflicts, models.CalendarConflict{
				Dimension: "teacher",
				Weekday:   slot.Weekday,
				Position:  slot.Position,
				SubjectID: slot.SubjectID,
				TeacherID: slot.TeacherID,
			})
		}
	}
	return conflicts, nil
}
