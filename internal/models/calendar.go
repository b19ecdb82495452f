package models

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// CalendarStatus represents lifecycle phases for generated timetables.
type CalendarStatus string

const (
	CalendarStatusDraft     CalendarStatus = "DRAFT"
	CalendarStatusPublished CalendarStatus = "PUBLISHED"
)

// SchoolCalendar is a versioned timetable for one class within one
// academic period.
type SchoolCalendar struct {
	ID               string         `db:"id" json:"id"`
	SchoolID         string         `db:"school_id" json:"school_id"`
	ClassID          string         `db:"class_id" json:"class_id"`
	AcademicPeriodID string         `db:"academic_period_id" json:"academic_period_id"`
	Version          int            `db:"version" json:"version"`
	Status           CalendarStatus `db:"status" json:"status"`
	Meta             types.JSONText `db:"meta" json:"meta"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// CalendarSlot is one class period inside a generated calendar.
// Weekday is ISO (1 = Monday); Position is the 1-based slot of the day.
type CalendarSlot struct {
	ID          string    `db:"id" json:"id"`
	CalendarID  string    `db:"calendar_id" json:"calendar_id"`
	Weekday     int       `db:"weekday" json:"weekday"`
	Position    int       `db:"position" json:"position"`
	StartsAt    string    `db:"starts_at" json:"starts_at"`
	DurationMin int       `db:"duration_min" json:"duration_min"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CalendarConflict describes a double-booking found while committing a
// proposal.
type CalendarConflict struct {
	Dimension string `json:"dimension"`
	Weekday   int    `json:"weekday"`
	Position  int    `json:"position"`
	SubjectID string `json:"subject_id"`
	TeacherID string `json:"teacher_id"`
}

// CalendarConflictError aggregates conflicts into an error value.
type CalendarConflictError struct {
	Message   string             `json:"message"`
	Conflicts []CalendarConflict `json:"conflicts"`
}

// Error implements the error interface.
func (e *CalendarConflictError) Error() string {
	return fmt.Sprintf("%s (%d conflicts)", e.Message, len(e.Conflicts))
}
