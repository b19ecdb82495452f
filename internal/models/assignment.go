package models

import "time"

// Assignment is a gradable task attached to a section within one
// academic period.
type Assignment struct {
	ID               string    `db:"id" json:"id"`
	SchoolID         string    `db:"school_id" json:"school_id"`
	SectionID        string    `db:"section_id" json:"section_id"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	Name             string    `db:"name" json:"name"`
	Description      *string   `db:"description" json:"description,omitempty"`
	Weight           float64   `db:"weight" json:"weight"`
	DueDate          time.Time `db:"due_date" json:"due_date"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter defines filter criteria for listing assignments.
type AssignmentFilter struct {
	SchoolID         string
	SectionID        string
	AcademicPeriodID string
	Search           string
	Page             int
	PageSize         int
	SortBy           string
	SortOrder        string
}

// StudentAssignment joins a student to an assignment with the recorded
// grade and submission timestamp.
type StudentAssignment struct {
	ID           string     `db:"id" json:"id"`
	AssignmentID string     `db:"assignment_id" json:"assignment_id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	Grade        *float64   `db:"grade" json:"grade,omitempty"`
	SubmittedAt  *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
