package models

import "time"

// Section links a teacher to a class for one subject (the "teacher has
// class" association). The triple is unique within a school.
type Section struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SectionDetail includes display names joined from related tables.
type SectionDetail struct {
	Section
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// SectionFilter defines filter criteria for listing sections.
type SectionFilter struct {
	SchoolID  string
	TeacherID string
	ClassID   string
	SubjectID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
