package models

import "time"

// Student specializes a User with enrollment information. CanteenLimit
// is a monthly spending cap in cents; nil means no cap.
type Student struct {
	ID           string     `db:"id" json:"id"`
	SchoolID     string     `db:"school_id" json:"school_id"`
	UserID       string     `db:"user_id" json:"user_id"`
	Enrollment   string     `db:"enrollment" json:"enrollment"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CanteenLimit *int64     `db:"canteen_limit" json:"canteen_limit,omitempty"`
	ClassID      *string    `db:"class_id" json:"class_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentDetail extends Student with account information joined from users.
type StudentDetail struct {
	Student
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	SchoolID  string
	ClassID   string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
