package models

import "time"

// Teacher specializes a User with staff-specific information.
type Teacher struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Registration string    `db:"registration" json:"registration"`
	Expertise    *string   `db:"expertise" json:"expertise,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherDetail extends Teacher with account information joined from users.
type TeacherDetail struct {
	Teacher
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// TeacherFilter defines filter criteria for listing teachers.
type TeacherFilter struct {
	SchoolID  string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
