package models

import "time"

// Class represents a named group of students within a school, optionally
// tied to a school year. Slug is unique per school.
type Class struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	SchoolYearID *string   `db:"school_year_id" json:"school_year_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	SchoolID     string
	SchoolYearID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
