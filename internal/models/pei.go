package models

import "time"

// StudentPei is a per-student individualized education plan record.
type StudentPei struct {
	ID         string     `db:"id" json:"id"`
	SchoolID   string     `db:"school_id" json:"school_id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	Objectives string     `db:"objectives" json:"objectives"`
	Resources  *string    `db:"resources" json:"resources,omitempty"`
	ReviewDate *time.Time `db:"review_date" json:"review_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// PeiFilter defines filter criteria for listing education plans.
type PeiFilter struct {
	SchoolID  string
	StudentID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
